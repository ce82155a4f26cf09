// Package cli implements the non-interactive ccode command tree.
// Every value comes from flags or arguments; commands never prompt.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ccode/internal/logger"
	"ccode/internal/output"
	"ccode/internal/services"
	"ccode/internal/settings"
	"ccode/pkg/ccodetypes"
)

// annotationNoServices marks commands that run without loading the store or proxy configuration.
const annotationNoServices = "ccode/no-services"

// app carries the state shared by every command of one invocation.
type app struct {
	settings    *settings.Settings
	registry    *services.Registry
	printer     *output.Printer
	jsonOutput  bool
	plainOutput bool
}

// NewRootCommand builds the ccode command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ccode",
		Short: "Manage Claude Code profiles and claude-code-router configuration",
		Long: `ccode keeps named connection profiles for Claude Code and edits the
claude-code-router configuration file: providers, routes and backups.

Direct profiles hold an auth token and base URL. Router profiles hold a route
set that can be applied to the router configuration in one step.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String("config-dir", "", "Directory holding the ccode profile store")
	flags.String("router-dir", "", "Directory holding the claude-code-router config.json")
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print one JSON object per line")
	flags.BoolVar(&a.plainOutput, "plain", false, "Disable colours and styling")

	root.AddCommand(
		newListCommand(a),
		newAddCommand(a),
		newUseCommand(a),
		newRemoveCommand(a),
		newGroupCommand(a),
		newProviderCommand(a),
		newRouterCommand(a),
		newOptionsCommand(a),
		newBackupCommand(a),
		newValidateCommand(a),
		newStatsCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)

	return root
}

// Execute runs the command tree against os.Args and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		logger.Debug("Command failed", "error", err)
		printer := output.NewPrinter(
			output.WithWriter(root.ErrOrStderr()),
			output.WithStyles(output.NewLipglossStyleProvider(os.Stderr)),
		)
		printer.Error(err.Error())
		return 1
	}
	return 0
}

// setup resolves settings, configures logging and, unless the command opts
// out, wires the services.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	s, err := settings.New()
	if err != nil {
		return err
	}
	if err := s.BindFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if err := s.LoadDotEnv(workDir); err != nil {
		return err
	}

	if err := logger.Configure(s.LogLevel(), s.LogFile()); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}
	logger.CommandExecution(cmd.CommandPath(), nil)

	a.settings = s
	a.printer = a.newPrinter(cmd.OutOrStdout())

	if cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	registry, err := services.NewDefaultRegistry(s)
	if err != nil {
		return err
	}
	a.registry = registry
	return nil
}

func (a *app) newPrinter(w io.Writer) *output.Printer {
	mode := output.ModeAuto
	switch {
	case a.jsonOutput:
		mode = output.ModeJSON
	case a.plainOutput:
		mode = output.ModePlain
	}
	return output.NewPrinter(
		output.WithWriter(w),
		output.WithMode(mode),
		output.WithStyles(output.NewLipglossStyleProvider(w)),
	)
}

func (a *app) store() (*services.ProfileStoreService, error) {
	return a.registry.ProfileStoreService()
}

func (a *app) proxy() (*services.ProxyConfigService, error) {
	return a.registry.ProxyConfigService()
}

func (a *app) backup() (*services.BackupService, error) {
	return a.registry.BackupService()
}

func (a *app) bootstrap() (*services.BootstrapService, error) {
	return a.registry.BootstrapService()
}

func (a *app) providerKinds() (*services.ProviderKindService, error) {
	return a.registry.ProviderKindService()
}

// resolveGroup returns group, or the store's default group when group is empty.
func resolveGroup(store *services.ProfileStoreService, group string) (string, error) {
	group = strings.ToLower(strings.TrimSpace(group))
	if group == "" {
		return store.DefaultGroup(), nil
	}
	if group != ccodetypes.GroupDirect && group != ccodetypes.GroupRouter {
		return "", ccodetypes.InvalidConfig("group", fmt.Sprintf("unknown group '%s', expected 'direct' or 'router'", group))
	}
	return group, nil
}

func addGroupFlag(cmd *cobra.Command, group *string) {
	cmd.Flags().StringVarP(group, "group", "g", "", "Profile group (direct|router) [default: the store's default group]")
}

// maskSecret keeps the first and last four characters of long secrets.
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
