package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ccode/internal/services"
	"ccode/pkg/ccodetypes"
)

func newListCommand(a *app) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the profiles of a group",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			group, err := resolveGroup(store, group)
			if err != nil {
				return err
			}

			if group == ccodetypes.GroupRouter {
				return a.listRouterProfiles(store)
			}

			entries := store.Direct().List()
			if len(entries) == 0 {
				a.printer.Info("No direct profiles yet")
				a.printer.Command("ccode add <name> --group direct --token <token> --base-url <url>")
				return nil
			}
			for _, e := range entries {
				a.printer.Entry(e.Name, e.Value.BaseURL, e.IsDefault)
			}
			return nil
		},
	}

	addGroupFlag(cmd, &group)
	return cmd
}

// listRouterProfiles lists router profiles, generating the default one from
// the router configuration when the collection is empty.
func (a *app) listRouterProfiles(store *services.ProfileStoreService) error {
	if store.Router().Len() == 0 {
		bootstrap, err := a.bootstrap()
		if err != nil {
			return err
		}
		status, err := bootstrap.EnsureRouterProfile()
		if err != nil {
			return err
		}
		switch status {
		case services.StatusGeneratedDefault:
			a.printer.Info(fmt.Sprintf("Generated router profile '%s' from the router configuration", ccodetypes.DefaultRouterProfileName))
		case services.StatusNeedCreateProvider:
			a.printer.Warning("No router profiles and no providers configured")
			a.printer.Command("ccode provider add <name> --kind <kind> --api-key <key>")
			return nil
		}
	}

	for _, e := range store.Router().List() {
		a.printer.Entry(e.Name, e.Value.RouteSet.Default, e.IsDefault)
	}
	return nil
}

type directProfileFlags struct {
	token          string
	baseURL        string
	model          string
	smallFastModel string
}

func newAddCommand(a *app) *cobra.Command {
	var (
		group       string
		description string
		direct      directProfileFlags
		routes      routeFlags
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a direct or router profile",
		Example: `  ccode add work --group direct --token sk-... --base-url https://api.example.com
  ccode add fast --group router --default deepseek,deepseek-chat --think deepseek,deepseek-reasoner`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			store, err := a.store()
			if err != nil {
				return err
			}
			group, err := resolveGroup(store, group)
			if err != nil {
				return err
			}

			createdAt := time.Now().UTC().Format(time.RFC3339)
			if group == ccodetypes.GroupRouter {
				profile := ccodetypes.RouterProfile{
					Name:        name,
					RouteSet:    routes.apply(cmd, ccodetypes.NewRouteSet("")),
					Description: description,
					CreatedAt:   createdAt,
				}
				err = store.Router().Add(name, profile)
			} else {
				profile := ccodetypes.DirectProfile{
					AuthToken:      direct.token,
					BaseURL:        direct.baseURL,
					Model:          direct.model,
					SmallFastModel: direct.smallFastModel,
					Description:    description,
					CreatedAt:      createdAt,
				}
				err = store.Direct().Add(name, profile)
			}
			if err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}

			a.printer.Success(fmt.Sprintf("Added %s profile '%s'", group, name))
			return nil
		},
	}

	addGroupFlag(cmd, &group)
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&direct.token, "token", "", "Auth token (direct group)")
	cmd.Flags().StringVar(&direct.baseURL, "base-url", "", "API base URL (direct group)")
	cmd.Flags().StringVar(&direct.model, "model", "", "Model override (direct group)")
	cmd.Flags().StringVar(&direct.smallFastModel, "small-fast-model", "", "Small/fast model override (direct group)")
	routes.register(cmd)
	return cmd
}

func newUseCommand(a *app) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Make a profile the default; router profiles are also applied to the router configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			group, err := resolveGroup(store, group)
			if err != nil {
				return err
			}

			if group == ccodetypes.GroupRouter {
				return a.applyRouterProfile(store, args[0])
			}

			if err := store.Direct().SetDefault(args[0]); err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("Default direct profile is now '%s'", args[0]))
			return nil
		},
	}

	addGroupFlag(cmd, &group)
	return cmd
}

// applyRouterProfile resolves name, synthesizing "default" when needed, and applies it.
func (a *app) applyRouterProfile(store *services.ProfileStoreService, name string) error {
	bootstrap, err := a.bootstrap()
	if err != nil {
		return err
	}
	proxy, err := a.proxy()
	if err != nil {
		return err
	}

	if _, err := bootstrap.ResolveDefaultProfile(name); err != nil {
		return err
	}
	if err := store.UseRouterProfile(name, proxy); err != nil {
		return err
	}

	a.printer.Success(fmt.Sprintf("Applied router profile '%s'", name))
	return nil
}

func newRemoveCommand(a *app) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			group, err := resolveGroup(store, group)
			if err != nil {
				return err
			}

			var newDefault string
			if group == ccodetypes.GroupRouter {
				err = store.Router().Remove(args[0])
				newDefault = store.Router().DefaultName()
			} else {
				err = store.Direct().Remove(args[0])
				newDefault = store.Direct().DefaultName()
			}
			if err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}

			a.printer.Success(fmt.Sprintf("Removed %s profile '%s'", group, args[0]))
			if newDefault != "" {
				a.printer.Field("Default", newDefault)
			}
			return nil
		},
	}

	addGroupFlag(cmd, &group)
	return cmd
}

func newGroupCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "group [direct|router]",
		Short:     "Show or change the default profile group",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{ccodetypes.GroupDirect, ccodetypes.GroupRouter},
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				a.printer.Field("Default group", store.DefaultGroup())
				return nil
			}

			if err := store.SetDefaultGroup(args[0]); err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("Default group is now '%s'", args[0]))
			return nil
		},
	}
}
