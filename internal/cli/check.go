package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kagent-dev/zendesk-mcp/pkg/tools"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the Zendesk credentials",
		Long: `Load the configuration and fetch the authenticated user from Zendesk.
Exits non-zero when credentials are missing or rejected.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			ok := color.New(color.FgGreen).SprintFunc()
			bad := color.New(color.FgRed).SprintFunc()

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.HasCredentials() {
				fmt.Fprintf(out, "%s missing %s\n", bad("✗"), strings.Join(cfg.MissingCredentials(), ", "))
				return fmt.Errorf("%s", tools.NotConfiguredMessage)
			}

			gw, err := newGateway(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			var s *spinner.Spinner
			if !quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
				s.Suffix = " Contacting " + gw.client.Origin()
				s.Start()
			}
			user, err := gw.client.GetCurrentUser(cmd.Context())
			if s != nil {
				s.Stop()
			}
			if err != nil {
				fmt.Fprintf(out, "%s %s\n", bad("✗"), tools.ErrorText(err))
				return err
			}

			fmt.Fprintf(out, "%s authenticated against %s as %v <%v>\n",
				ok("✓"), gw.client.Origin(), user["name"], user["email"])
			if role, found := user["role"]; found {
				fmt.Fprintf(out, "  role: %v\n", role)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show a progress spinner")
	return cmd
}
