package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ccode/internal/services"
	"ccode/pkg/ccodetypes"
)

// routeFlags are the per-route flags shared by "add --group router" and "router set".
type routeFlags struct {
	defaultRoute string
	background   string
	think        string
	longContext  string
	webSearch    string
	threshold    int
}

func (f *routeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.defaultRoute, "default", "", "Default route as provider,model (router group)")
	cmd.Flags().StringVar(&f.background, "background", "", "Background route")
	cmd.Flags().StringVar(&f.think, "think", "", "Think route")
	cmd.Flags().StringVar(&f.longContext, "long-context", "", "Long context route")
	cmd.Flags().StringVar(&f.webSearch, "web-search", "", "Web search route, usually with the ':online' suffix")
	cmd.Flags().IntVar(&f.threshold, "long-context-threshold", ccodetypes.DefaultLongContextThreshold, "Token count above which the long context route is used")
}

// apply overlays the flags the user set onto rs. An empty value clears an optional route.
func (f *routeFlags) apply(cmd *cobra.Command, rs ccodetypes.RouteSet) ccodetypes.RouteSet {
	values := map[string]struct {
		key   string
		value string
	}{
		"default":      {ccodetypes.RouteDefault, f.defaultRoute},
		"background":   {ccodetypes.RouteBackground, f.background},
		"think":        {ccodetypes.RouteThink, f.think},
		"long-context": {ccodetypes.RouteLongContext, f.longContext},
		"web-search":   {ccodetypes.RouteWebSearch, f.webSearch},
	}
	for flag, route := range values {
		if cmd.Flags().Changed(flag) {
			rs.Set(route.key, route.value)
		}
	}
	if cmd.Flags().Changed("long-context-threshold") {
		threshold := f.threshold
		rs.LongContextThreshold = &threshold
	}
	return rs
}

func newRouterCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "router",
		Short: "Inspect and change the router configuration's route set",
	}

	cmd.AddCommand(
		newRouterShowCommand(a),
		newRouterSetCommand(a),
		newRouterApplyCommand(a),
		newRouterRecommendCommand(a),
		newRouterInitCommand(a),
	)
	return cmd
}

func newRouterShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [profile]",
		Short: "Show the active route set, or the route set of a stored router profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				bootstrap, err := a.bootstrap()
				if err != nil {
					return err
				}
				profile, err := bootstrap.ResolveDefaultProfile(args[0])
				if err != nil {
					return err
				}
				a.printer.Field("Profile", profile.Name)
				if profile.Description != "" {
					a.printer.Field("Description", profile.Description)
				}
				a.printRouteSet(profile.RouteSet)
				return nil
			}

			proxy, err := a.proxy()
			if err != nil {
				return err
			}
			rs, err := proxy.CurrentRouteSet()
			if err != nil {
				return err
			}
			a.printRouteSet(rs)
			return nil
		},
	}
}

func (a *app) printRouteSet(rs ccodetypes.RouteSet) {
	for _, r := range rs.Routes() {
		a.printer.Field(r.Key, r.Value)
	}
	a.printer.Field("longContextThreshold", strconv.Itoa(rs.Threshold()))
}

func newRouterSetCommand(a *app) *cobra.Command {
	var routes routeFlags

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Change individual routes of the router configuration",
		Example: `  ccode router set --default deepseek,deepseek-chat --web-search openrouter,google/gemini-2.5-pro-preview:online`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}
			current, err := proxy.CurrentRouteSet()
			if err != nil {
				return err
			}

			if err := proxy.UpdateRouterOnly(routes.apply(cmd, current)); err != nil {
				return err
			}
			a.printer.Success("Router updated")
			return nil
		},
	}

	routes.register(cmd)
	return cmd
}

func newRouterApplyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <profile>",
		Short: "Apply a stored router profile and make it the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			return a.applyRouterProfile(store, args[0])
		},
	}
}

func newRouterRecommendCommand(a *app) *cobra.Command {
	routeKeys := []string{
		ccodetypes.RouteBackground,
		ccodetypes.RouteThink,
		ccodetypes.RouteLongContext,
		ccodetypes.RouteWebSearch,
	}

	return &cobra.Command{
		Use:       "recommend <route>",
		Short:     "Suggest models of the configured providers for a route",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: routeKeys,
		RunE: func(_ *cobra.Command, args []string) error {
			proxy, err := a.proxy()
			if err != nil {
				return err
			}
			kinds, err := a.providerKinds()
			if err != nil {
				return err
			}

			providers, err := proxy.ListProviders()
			if err != nil {
				return err
			}
			recs, err := kinds.Recommend(args[0], providers)
			if err != nil {
				return err
			}

			if len(recs) == 0 {
				a.printer.Info(fmt.Sprintf("No recommendation for '%s' from the configured providers", args[0]))
				return nil
			}
			for _, rec := range recs {
				a.printer.Entry(rec.Route, rec.Reason, false)
			}
			return nil
		},
	}
}

func newRouterInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default router profile from the router configuration if none exists",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			bootstrap, err := a.bootstrap()
			if err != nil {
				return err
			}
			status, err := bootstrap.EnsureRouterProfile()
			if err != nil {
				return err
			}

			switch status {
			case services.StatusNeedCreateProvider:
				a.printer.Warning("No providers configured; add one first")
				a.printer.Command("ccode provider add <name> --kind <kind> --api-key <key>")
			default:
				a.printer.Success(status.String())
			}
			return nil
		},
	}
}
