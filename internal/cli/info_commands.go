package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"ccode/internal/services"
	"ccode/internal/validation"
	"ccode/internal/version"
)

func newOptionsCommand(a *app) *cobra.Command {
	var (
		apiKey   string
		proxyURL string
		logOn    bool
		timeout  int
		host     string
	)

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Set scalar options of the router configuration",
		Long: `Set APIKEY, PROXY_URL, LOG, API_TIMEOUT_MS or HOST in the router configuration.
Only the flags given are changed; an empty string removes a key.`,
		Example: `  ccode options --timeout 600000 --log=false
  ccode options --proxy-url ""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}

			var opts services.BasicOptions
			changed := cmd.Flags().Changed
			if changed("api-key") {
				opts.APIKey = &apiKey
			}
			if changed("proxy-url") {
				opts.ProxyURL = &proxyURL
			}
			if changed("log") {
				opts.Log = &logOn
			}
			if changed("timeout") {
				opts.APITimeoutMS = &timeout
			}
			if changed("host") {
				opts.Host = &host
			}

			if err := proxy.SetBasicOptions(opts); err != nil {
				return err
			}
			a.printer.Success("Router options updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "APIKEY clients must present to the router")
	cmd.Flags().StringVar(&proxyURL, "proxy-url", "", "Outbound HTTP proxy URL")
	cmd.Flags().BoolVar(&logOn, "log", true, "Enable router request logging")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Upstream request timeout in milliseconds")
	cmd.Flags().StringVar(&host, "host", "", "Listen host")
	return cmd
}

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the router configuration and stored router profiles",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			doc, err := proxy.Load()
			if err != nil {
				return err
			}

			problems := multierr.Errors(validation.CollectProxyConfigProblems(doc))
			for _, problem := range problems {
				a.printer.Error(problem.Error())
			}

			// stored profiles may refer to providers removed since they were saved
			stale := 0
			for _, e := range store.Router().List() {
				for _, ref := range validation.CrossReferenceProblems(doc.Providers, e.Value.RouteSet) {
					a.printer.Warning(fmt.Sprintf("router profile '%s': %s", e.Name, ref.String()))
					stale++
				}
			}

			if len(problems) > 0 {
				return fmt.Errorf("router configuration has %d problem(s)", len(problems))
			}
			if stale == 0 {
				a.printer.Success("Configuration is valid")
			}
			return nil
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize profiles, providers and routes",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			backup, err := a.backup()
			if err != nil {
				return err
			}

			stats, err := proxy.Stats()
			if err != nil {
				return err
			}
			backups, err := backup.ListBackups()
			if err != nil {
				return err
			}

			a.printer.Field("Router config", proxy.Path())
			a.printer.Field("Router config exists", stats.Exists)
			a.printer.Field("Providers", stats.ProviderCount)
			a.printer.Field("Models", stats.ModelCount)
			a.printer.Field("Default route", stats.DefaultRoute)
			a.printer.Field("Background route", stats.HasBackground)
			a.printer.Field("Think route", stats.HasThink)
			a.printer.Field("Long context route", stats.HasLongContext)
			a.printer.Field("Web search route", stats.HasWebSearch)
			a.printer.Field("Long context threshold", stats.LongContextThreshold)
			if stats.APITimeoutMS != nil {
				a.printer.Field("API timeout (ms)", *stats.APITimeoutMS)
			}
			a.printer.Field("Logging", stats.LogEnabled)
			a.printer.Field("Backups", len(backups))
			a.printer.Field("Direct profiles", store.Direct().Len())
			a.printer.Field("Router profiles", store.Router().Len())
			a.printer.Field("Default group", store.DefaultGroup())
			return nil
		},
	}
}

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "config",
		Short:       "Show the effective ccode settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoServices: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			all := a.settings.AllSettings()
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				a.printer.Field(k, all[k])
			}
			a.printer.Field("store_path", a.settings.StorePath())
			a.printer.Field("router_config_path", a.settings.ProxyConfigPath())
			a.printer.Field("backup_dir", a.settings.BackupDir())
			return nil
		},
	}
}

func newVersionCommand(a *app) *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoServices: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			if detailed {
				a.printer.Println(version.GetDetailedVersion())
				return nil
			}
			a.printer.Println(version.GetFormattedVersion())
			return nil
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "Include commit, build date, schema and platform")
	return cmd
}
