package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			gw, err := newGateway(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			list := gw.dispatcher.Tools()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(mcp.ListToolsResult{Tools: list})
			}
			renderTools(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tools/list result as JSON")
	return cmd
}

func renderTools(out io.Writer, list []mcp.Tool) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Arguments", "Description"})
	for _, tool := range list {
		t.AppendRow(table.Row{tool.Name, describeArguments(tool.InputSchema), firstLine(tool.Description)})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d tools", len(list))})
	t.Render()
}

// describeArguments lists argument names, required ones marked with *
func describeArguments(schema mcp.ToolInputSchema) string {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if required[name] {
			names[i] = name + "*"
		}
	}
	return strings.Join(names, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
