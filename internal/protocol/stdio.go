package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
)

const maxLineSize = 1024 * 1024

// Stdio serves one implicit session over newline delimited JSON-RPC. Lines
// are handled strictly in order; responses and notifications share one
// writer.
type Stdio struct {
	handler *Handler
	in      io.Reader

	mu      sync.Mutex
	encoder *json.Encoder
}

// NewStdio creates a pipe transport reading from in and writing to out.
// The transport is the handler's default notifier.
func NewStdio(invoker ToolInvoker, in io.Reader, out io.Writer, opts ...HandlerOption) *Stdio {
	s := &Stdio{in: in, encoder: json.NewEncoder(out)}
	opts = append(opts, WithDefaultNotifier(s))
	s.handler = NewHandler(invoker, opts...)
	return s
}

// Handler returns the session's protocol handler
func (s *Stdio) Handler() *Handler {
	return s.handler
}

// Notify writes a notification to the output stream
func (s *Stdio) Notify(_ context.Context, n Notification) error {
	return s.write(n)
}

func (s *Stdio) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.Encode(v)
}

// Run processes messages until the input reaches EOF or ctx is cancelled.
// Cancellation is observed between messages.
func (s *Stdio) Run(ctx context.Context) error {
	log := ctrllog.FromContext(ctx).WithName("stdio")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handler.Handle(ctx, line)
		if resp == nil {
			continue
		}
		if err := s.write(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	log.V(1).Info("Input closed, ending session")
	return nil
}
