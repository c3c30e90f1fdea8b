package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kagent-dev/zendesk-mcp/internal/protocol"
	"github.com/kagent-dev/zendesk-mcp/internal/server"
	"github.com/kagent-dev/zendesk-mcp/internal/session"
	"github.com/kagent-dev/zendesk-mcp/pkg/config"
)

const shutdownTimeout = 10 * time.Second

const instructions = "Tools for reading and updating Zendesk tickets, looking up users, " +
	"organizations and groups, and searching public help center articles."

// newServeCmd binds its flags into viper so the config file and environment
// fill whatever is not given on the command line.
func newServeCmd(opts *rootOptions) *cobra.Command {
	var keepAlive time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway",
		Long: `Run the gateway on the selected transport.

The stdio transport reads one JSON-RPC message per line from stdin and writes
responses to stdout. The http transport serves streamable MCP on /mcp, the
legacy /tools endpoints, /health and /metrics.`,
		Example: `  zendesk-mcp serve
  zendesk-mcp serve --transport http --host 127.0.0.1 --port 8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), opts.version, cfg, keepAlive)
		},
	}

	cmd.Flags().String("transport", "", "Transport: stdio or http (default stdio)")
	cmd.Flags().String("host", "", "HTTP listen host (default 0.0.0.0)")
	cmd.Flags().Int("port", 0, "HTTP listen port (default 3000)")
	cmd.Flags().DurationVar(&keepAlive, "keep-alive", server.KeepAliveInterval, "Event stream keep-alive interval")

	err := bindFlags(opts.v, cmd.Flags(), map[string]string{
		"server.transport": "transport",
		"server.host":      "host",
		"server.port":      "port",
	})
	if err != nil {
		panic(err)
	}

	return cmd
}

// bindFlags maps config keys to flags. A bound flag only takes effect when
// it was set explicitly.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("cannot bind %s: no flag named %q", key, name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("cannot bind %s: %w", key, err)
		}
	}
	return nil
}

func runServe(ctx context.Context, version string, cfg *config.Config, keepAlive time.Duration) error {
	log := ctrllog.FromContext(ctx).WithName("serve")

	gw, err := newGateway(ctx, cfg)
	if err != nil {
		return err
	}

	handlerOpts := []protocol.HandlerOption{
		protocol.WithServerInfo(appName, version),
		protocol.WithInstructions(instructions),
	}

	switch cfg.Server.Transport {
	case config.TransportStdio:
		log.Info("Serving on stdio", "tools", gw.dispatcher.Registry().Len())
		return serveStdio(ctx, protocol.NewStdio(gw.dispatcher, os.Stdin, os.Stdout, handlerOpts...))
	case config.TransportHTTP:
		sessions := session.NewManager(gw.dispatcher,
			session.WithMetrics(gw.metrics),
			session.WithHandlerOptions(handlerOpts...),
		)
		app := server.NewApp(gw.dispatcher, sessions, gw.metrics,
			server.WithAddress(cfg.Server.Host, cfg.Server.Port),
			server.WithVersion(appName, version),
			server.WithKeepAlive(keepAlive),
		)
		return serveHTTP(ctx, app)
	default:
		return fmt.Errorf("unsupported transport %q", cfg.Server.Transport)
	}
}

// serveStdio returns when stdin is exhausted or ctx is cancelled. A blocked
// read is abandoned on cancellation.
func serveStdio(ctx context.Context, stdio *protocol.Stdio) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- stdio.Run(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func serveHTTP(ctx context.Context, app *server.App) error {
	log := ctrllog.FromContext(ctx).WithName("serve")

	httpServer := app.Build(ctx)
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	// Open event streams only end once their sessions close, so the
	// sessions go first.
	app.Shutdown(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "HTTP server shutdown error")
		return err
	}
	log.Info("Server stopped")
	return nil
}
