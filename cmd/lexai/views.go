package main

import (
	"strings"

	"github.com/spf13/cobra"

	"LexAI/internal/api"
	"LexAI/internal/render"
	"LexAI/internal/route"
)

func (c *cli) similarCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "similar <query>",
		Short:       "Search similar court decisions and related statutes",
		Annotations: guarded(route.PathSimilar),
		Args:        cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := c.app.Similar()
			if err := view.Search(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			render.Similar(cmd.OutOrStdout(), view.Cases(), view.Laws())
			return nil
		},
	}
}

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "admin",
		Short:       "Administration (admin only)",
		Annotations: guarded(route.PathAdmin),
	}

	var filter, makeAdmin, removeAdmin, deleteID string
	users := &cobra.Command{
		Use:         "users",
		Short:       "List users and change roles",
		Annotations: guarded(route.PathAdminUsers),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list := c.app.Users()

			var err error
			switch {
			case makeAdmin != "":
				err = list.MakeAdmin(ctx, makeAdmin)
			case removeAdmin != "":
				err = list.RemoveAdmin(ctx, removeAdmin)
			case deleteID != "":
				err = list.Delete(ctx, deleteID)
			default:
				err = list.Refresh(ctx)
			}
			if err != nil {
				return err
			}

			render.Users(cmd.OutOrStdout(), list.Filter(filter), len(list.Users()))
			return nil
		},
	}
	users.Flags().StringVar(&filter, "filter", "", "Case-insensitive search over name, email and role")
	users.Flags().StringVar(&makeAdmin, "make-admin", "", "Grant admin to user id")
	users.Flags().StringVar(&removeAdmin, "remove-admin", "", "Revoke admin from user id")
	users.Flags().StringVar(&deleteID, "delete", "", "Delete user id")
	users.MarkFlagsMutuallyExclusive("make-admin", "remove-admin", "delete")

	var fbFilter, fbID string
	feedback := &cobra.Command{
		Use:         "feedback",
		Short:       "List answer feedback",
		Annotations: guarded(route.PathAdminFeedbacks),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := c.app.Feedback()
			if fbID != "" {
				f, err := list.Get(cmd.Context(), fbID)
				if err != nil {
					return err
				}
				render.Feedback(cmd.OutOrStdout(), []api.Feedback{f})
				return nil
			}
			if err := list.Refresh(cmd.Context()); err != nil {
				return err
			}
			render.Feedback(cmd.OutOrStdout(), list.Filter(fbFilter))
			return nil
		},
	}
	feedback.Flags().StringVar(&fbFilter, "filter", "", "Case-insensitive search over user, question, answer and vote")
	feedback.Flags().StringVar(&fbID, "id", "", "Show a single feedback record")
	feedback.MarkFlagsMutuallyExclusive("filter", "id")

	cmd.AddCommand(users, feedback)
	return cmd
}

func (c *cli) themeCmd() *cobra.Command {
	var toggle bool
	cmd := &cobra.Command{
		Use:       "theme [dark|light]",
		Short:     "Show, set or toggle the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var theme string
			var err error
			switch {
			case len(args) == 1:
				theme, err = args[0], c.app.Prefs.SetTheme(args[0])
			case toggle:
				theme, err = c.app.Prefs.ToggleTheme()
			default:
				theme = c.app.Prefs.Theme()
			}
			if err != nil {
				return err
			}
			c.printf(cmd, "Tema: %s\n", theme)
			return nil
		},
	}
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Switch between dark and light")
	return cmd
}
