package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/kagent-dev/zendesk-mcp/pkg/tools"
)

func newCallCmd(opts *rootOptions) *cobra.Command {
	var (
		rawArgs  string
		argsFile string
	)

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke one tool and print its result",
		Long: `Invoke a tool through the same dispatcher the server uses and print the
text content of the result. Arguments are a JSON object given inline or read
from a file; they default to {}.`,
		Example: `  zendesk-mcp call get_current_user
  zendesk-mcp call search_help_center --args '{"query": "reset password"}'
  zendesk-mcp call create_ticket --args-file ticket.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args, err := parseArguments(rawArgs, argsFile)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			gw, err := newGateway(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			ctx := tools.WithProgress(cmd.Context(), func(progress, _ float64, message string) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d] %s\n", int(progress), message)
			})
			result := gw.dispatcher.Invoke(ctx, positional[0], args)

			text := resultText(result)
			if result.IsError {
				return errors.New(text)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawArgs, "args", "a", "", "Tool arguments as a JSON object")
	cmd.Flags().StringVarP(&argsFile, "args-file", "f", "", "Read tool arguments from a JSON file")
	cmd.MarkFlagsMutuallyExclusive("args", "args-file")

	return cmd
}

func parseArguments(raw, file string) (map[string]any, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read arguments: %w", err)
		}
		raw = string(data)
	}

	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
