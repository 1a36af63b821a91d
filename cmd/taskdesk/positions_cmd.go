package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	jsondiff "github.com/wI2L/jsondiff"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

type positionFlags struct {
	Title       string
	Description string
	Active      bool
	Company     string
	Department  string
	Level       string
	Supervisor  string
}

func (f *positionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Title, "title", "", "Position title")
	cmd.Flags().StringVar(&f.Description, "description", "", "Description (pass an empty value to clear it)")
	cmd.Flags().BoolVar(&f.Active, "active", true, "Whether the position is active")
	cmd.Flags().StringVar(&f.Company, "company", "", "Company id")
	cmd.Flags().StringVar(&f.Department, "department", "", "Department id")
	cmd.Flags().StringVar(&f.Level, "level", "", "Supervisory level id")
	cmd.Flags().StringVar(&f.Supervisor, "reports-to", "", "Direct supervisor position id")
}

// apply overwrites the fields of in whose flags were given on the command line.
func (f *positionFlags) apply(cmd *cobra.Command, in domain.PositionInput) domain.PositionInput {
	changed := cmd.Flags().Changed
	if changed("title") {
		in.Title = f.Title
	}
	if changed("description") {
		in.Description = f.Description
	}
	if changed("active") {
		active := f.Active
		in.IsActive = &active
	}
	if changed("company") {
		in.CompanyID = domain.ID(f.Company)
	}
	if changed("department") {
		in.DepartmentID = domain.ID(f.Department)
	}
	if changed("level") {
		in.SupervisoryLevelID = domain.ID(f.Level)
	}
	if changed("reports-to") {
		in.DirectSupervisorID = domain.ID(f.Supervisor)
	}
	return in
}

func newPositionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Manage organization positions",
	}
	cmd.AddCommand(newPositionsListCmd(a))
	cmd.AddCommand(newPositionsSupervisorsCmd(a))
	cmd.AddCommand(newPositionsHierarchyCmd(a))
	cmd.AddCommand(newPositionsGetCmd(a))
	cmd.AddCommand(newPositionsCreateCmd(a))
	cmd.AddCommand(newPositionsUpdateCmd(a))
	cmd.AddCommand(newPositionsDeleteCmd(a))
	return cmd
}

func newPositionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all positions of the organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.mod.Store.FetchPositions(cmd.Context(), a.session())
			if err != nil {
				return err
			}
			return a.print(cmd, items)
		},
	}
}

func newPositionsSupervisorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "supervisors",
		Short: "List positions that can be chosen as a direct supervisor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.mod.Store.FetchSupervisors(cmd.Context(), a.session())
			if err != nil {
				return err
			}
			return a.print(cmd, items)
		},
	}
}

func newPositionsHierarchyCmd(a *app) *cobra.Command {
	var tree bool
	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Show the position org chart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			roots, err := a.mod.Store.FetchHierarchy(cmd.Context(), a.session())
			if err != nil {
				return err
			}
			if !tree {
				return a.print(cmd, roots)
			}
			w := cmd.OutOrStdout()
			for _, root := range roots {
				root.Walk(func(n domain.PositionNode, depth int) {
					fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), n.Title, n.ID)
				})
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "Print an indented tree instead of JSON")
	return cmd
}

func newPositionsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one position",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.mod.Store.FetchPosition(cmd.Context(), a.session(), domain.ID(args[0]))
			if err != nil {
				return err
			}
			return a.print(cmd, p)
		},
	}
}

func newPositionsCreateCmd(a *app) *cobra.Command {
	var f positionFlags
	cmd := &cobra.Command{
		Use:   "create --title <title> --department <id> [flags]",
		Short: "Create a position",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := f.apply(cmd, domain.PositionInput{})
			p, err := a.mod.Store.CreatePosition(cmd.Context(), a.session(), in)
			if err != nil {
				return err
			}
			return a.print(cmd, p)
		},
	}
	f.bind(cmd)
	return cmd
}

// inputDiff lists the JSON patch operations turning before into after.
func inputDiff(before, after domain.PositionInput) (jsondiff.Patch, error) {
	from, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}
	to, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	patch, err := jsondiff.CompareJSON(from, to)
	if err != nil {
		return nil, err
	}
	if patch == nil {
		patch = jsondiff.Patch{}
	}
	return patch, nil
}

func newPositionsUpdateCmd(a *app) *cobra.Command {
	var (
		f      positionFlags
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "update <id> [flags]",
		Short: "Update the given fields of a position",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := domain.ID(args[0])
			current, err := a.mod.Store.FetchPosition(ctx, a.session(), id)
			if err != nil {
				return err
			}
			before := domain.InputFromPosition(current)
			edited := f.apply(cmd, before)
			if dryRun {
				patch, err := inputDiff(before, edited)
				if err != nil {
					return err
				}
				return a.print(cmd, patch)
			}
			p, err := a.mod.Store.UpdatePosition(ctx, a.session(), id, edited)
			if err != nil {
				return err
			}
			return a.print(cmd, p)
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the changes as JSON patch operations without saving")
	return cmd
}

func newPositionsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a position",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ID(args[0])
			if err := a.mod.Store.DeletePosition(cmd.Context(), a.session(), id); err != nil {
				return err
			}
			return a.print(cmd, map[string]domain.ID{"deleted": id})
		},
	}
}
