package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/kagent-dev/zendesk-mcp/pkg/config"
)

const appName = "zendesk-mcp"

// rootOptions are shared by every subcommand
type rootOptions struct {
	version    string
	configPath string
	logLevel   string
	v          *viper.Viper
}

// NewRootCmd creates the zendesk-mcp root command
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{
		version: version,
		v:       viper.New(),
	}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "MCP tool gateway for the Zendesk helpdesk",
		Long: `zendesk-mcp exposes Zendesk tickets, users, groups and help center articles
as MCP tools over a stdio pipe or streamable HTTP.

Credentials are read from ZENDESK_SUBDOMAIN, ZENDESK_EMAIL and ZENDESK_API_TOKEN
or from the zendesk section of the config file. Without them the server still
starts and every tool reports that it is not configured.

Available subcommands:
  serve       Run the gateway
  tools       List the registered tools
  call        Invoke one tool and print its result
  check       Verify the Zendesk credentials
  config      Manage the config file

Examples:
  zendesk-mcp serve
  zendesk-mcp serve --transport http --port 3000
  zendesk-mcp call get_ticket --args '{"id": 42}'`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(opts.logLevel, cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newToolsCmd(opts))
	cmd.AddCommand(newCallCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

// loadConfig reads and validates the configuration. The --log-level flag
// wins over every other source.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.v, o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs the process logger. Logs always go to stderr since
// stdout carries the protocol in stdio mode.
func setupLogging(level string, out io.Writer) error {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	if out == nil {
		out = os.Stderr
	}
	ctrllog.SetLogger(zap.New(
		zap.UseDevMode(lvl == zapcore.DebugLevel),
		zap.Level(lvl),
		zap.WriteTo(out),
	))
	return nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
