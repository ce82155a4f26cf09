package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ccode/internal/services"
	"ccode/pkg/ccodetypes"
)

type providerFlags struct {
	kind   string
	url    string
	apiKey string
	models []string
}

func (f *providerFlags) register(cmd *cobra.Command) {
	kinds := make([]string, 0, len(ccodetypes.ProviderKinds()))
	for _, k := range ccodetypes.ProviderKinds() {
		kinds = append(kinds, string(k))
	}

	cmd.Flags().StringVar(&f.kind, "kind", "", "Provider kind ("+strings.Join(kinds, "|")+"); fills URL, models and transformer defaults")
	cmd.Flags().StringVar(&f.url, "url", "", "Full API endpoint URL")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key passed to the upstream")
	cmd.Flags().StringSliceVar(&f.models, "models", nil, "Comma-separated model identifiers")
}

func newProviderCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage the providers of the router configuration",
	}

	cmd.AddCommand(
		newProviderListCommand(a),
		newProviderAddCommand(a),
		newProviderUpdateCommand(a),
		newProviderRemoveCommand(a),
		newProviderShowCommand(a),
		newProviderKindsCommand(a),
	)
	return cmd
}

func newProviderListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured providers; '*' marks the default route's provider",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}
			doc, err := proxy.Load()
			if err != nil {
				return err
			}

			if len(doc.Providers) == 0 {
				a.printer.Info("No providers configured")
				return nil
			}
			defaultProvider := ccodetypes.RouteProvider(doc.Router.Default)
			for _, p := range doc.Providers {
				detail := fmt.Sprintf("%s (%d models)", p.APIBaseURL, len(p.Models))
				if p.Kind != "" {
					detail = string(p.Kind) + "  " + detail
				}
				a.printer.Entry(p.Name, detail, p.Name == defaultProvider)
			}
			return nil
		},
	}
}

func newProviderAddCommand(a *app) *cobra.Command {
	var flags providerFlags

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a provider to the router configuration",
		Example: `  ccode provider add deepseek --kind deepseek --api-key sk-...
  ccode provider add local --url http://localhost:8000/v1/chat/completions --models llama3`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}

			provider := ccodetypes.Provider{
				Name:       args[0],
				APIBaseURL: flags.url,
				APIKey:     flags.apiKey,
				Models:     flags.models,
			}
			if flags.kind != "" {
				kind, err := ccodetypes.ParseProviderKind(flags.kind)
				if err != nil {
					return err
				}
				provider = ccodetypes.NewProvider(args[0], flags.url, flags.apiKey, flags.models, kind)
			}

			if err := proxy.UpdateProviderOnly(provider, services.ProviderAdd); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("Added provider '%s' with %d models", provider.Name, len(provider.Models)))

			rs, err := proxy.CurrentRouteSet()
			if err != nil {
				return err
			}
			if !rs.HasDefault() {
				a.printer.Warning("The router has no default route yet")
				a.printer.Command(fmt.Sprintf("ccode router set --default %s,%s", provider.Name, provider.Models[0]))
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newProviderUpdateCommand(a *app) *cobra.Command {
	var flags providerFlags

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Change fields of an existing provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}
			provider, err := proxy.GetProvider(args[0])
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			if changed("kind") {
				kind, err := ccodetypes.ParseProviderKind(flags.kind)
				if err != nil {
					return err
				}
				provider.Kind = kind
			}
			if changed("url") {
				provider.APIBaseURL = flags.url
			}
			if changed("api-key") {
				provider.APIKey = flags.apiKey
			}
			if changed("models") {
				provider.Models = flags.models
			}

			// the transformer follows the kind's rules whenever kind or models change
			if behavior, ok := ccodetypes.LookupProviderKind(provider.Kind); ok && (changed("kind") || changed("models")) {
				provider.Transformer = behavior.DeriveTransformer(provider.Models)
			}

			if err := proxy.UpdateProviderOnly(provider, services.ProviderUpdate); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("Updated provider '%s'", provider.Name))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newProviderRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a provider from the router configuration",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}

			if err := proxy.UpdateProviderOnly(ccodetypes.Provider{Name: args[0]}, services.ProviderRemove); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("Removed provider '%s'", args[0]))

			problems, err := proxy.ValidateCrossReferences()
			if err != nil {
				return err
			}
			for _, problem := range problems {
				a.printer.Warning(problem.String())
			}
			if len(problems) > 0 {
				a.printer.Command("ccode router set --" + flagForRoute(problems[0].RouteKey) + " <provider,model>")
			}
			return nil
		},
	}
}

// flagForRoute maps a route key to its "router set" flag name.
func flagForRoute(routeKey string) string {
	switch routeKey {
	case ccodetypes.RouteLongContext:
		return "long-context"
	case ccodetypes.RouteWebSearch:
		return "web-search"
	default:
		return routeKey
	}
}

func newProviderShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}
			provider, err := proxy.GetProvider(args[0])
			if err != nil {
				return err
			}

			kind := string(provider.Kind)
			if kind == "" {
				kind = "(none)"
			}
			a.printer.Field("Name", provider.Name)
			a.printer.Field("Kind", kind)
			a.printer.Field("URL", provider.APIBaseURL)
			a.printer.Field("API key", maskSecret(provider.APIKey))
			a.printer.Field("Models", strings.Join(provider.Models, ", "))
			if len(provider.Transformer) > 0 {
				a.printer.Field("Transformer", "")
				a.printer.Document(provider.Transformer)
			}
			return nil
		},
	}
}

func newProviderKindsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List supported provider kinds with their defaults",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			service, err := a.providerKinds()
			if err != nil {
				return err
			}
			kinds, err := service.Kinds()
			if err != nil {
				return err
			}

			for _, info := range kinds {
				a.printer.Entry(string(info.Kind), info.DisplayName+"  "+info.Behavior.URLTemplate, false)
				for _, hint := range info.Hints {
					a.printer.Println("      - " + hint)
				}
			}
			return nil
		},
	}
}
