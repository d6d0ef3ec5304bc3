package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/validate"
)

func newListCmd(app *App) *cobra.Command {
	var group, asJSON bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Print the list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.client.ListItems(cmd.Context())
			if items != nil {
				if asJSON {
					if werr := writeJSON(cmd, items); werr != nil {
						return werr
					}
				} else {
					app.printer.List(items, group)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "Group items by pending/done")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the items as JSON")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <content...>",
		Short: "Add an item (content may be several words)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			content := strings.Join(args, " ")

			items, err := app.current(ctx)
			if err != nil {
				return err
			}
			if err := validate.Check(content, items); err != nil {
				reason := "blank"
				if errors.Is(err, validate.ErrDuplicate) {
					reason = "duplicate"
				}
				app.metrics.Rejected(reason)
				return err
			}
			if _, err := app.client.CreateItem(ctx, strings.TrimSpace(content)); err != nil {
				return errors.Join(fmt.Errorf("add: %w", err), app.refresh(ctx))
			}
			app.printer.OK("added")
			return app.refresh(ctx)
		},
	}
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle an item between pending and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			items, err := app.current(ctx)
			if err != nil {
				return err
			}
			it, ok := model.Find(items, id)
			if !ok {
				return fmt.Errorf("item %d not found (run `todo ls` to see ids)", id)
			}
			if err := app.client.ToggleItem(ctx, id, it.Completed); err != nil {
				return errors.Join(fmt.Errorf("toggle: %w", err), app.refresh(ctx))
			}
			if it.Completed {
				app.printer.OK("reopened")
			} else {
				app.printer.OK("done")
			}
			return app.refresh(ctx)
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.client.DeleteItem(ctx, id); err != nil {
				return errors.Join(fmt.Errorf("rm: %w", err), app.refresh(ctx))
			}
			app.printer.OK("removed")
			return app.refresh(ctx)
		},
	}
}

// current fetches the list a mutation is checked against. A failed response
// whose body still decoded is good enough; the failure is only logged.
func (app *App) current(ctx context.Context) ([]model.Item, error) {
	items, err := app.client.ListItems(ctx)
	if err != nil && items == nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if err != nil {
		app.log.Warn("using list from a failed response", "err", err)
	}
	return items, nil
}

// refresh re-fetches after a mutation, failed or not, and prints whatever decoded.
func (app *App) refresh(ctx context.Context) error {
	items, err := app.client.ListItems(ctx)
	if items != nil {
		app.printer.List(items, false)
	}
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("not an item id: %q", s)
	}
	return id, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
