package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
	"github.com/matzehuels/domsplit/pkg/storage"
)

// plansCommand creates the plan history command.
func (c *CLI) plansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Inspect the plan history (requires store.backend = \"mongo\")",
	}
	cmd.AddCommand(c.plansListCommand())
	cmd.AddCommand(c.plansShowCommand())
	cmd.AddCommand(c.plansDeleteCommand())
	return cmd
}

func (c *CLI) plansListCommand() *cobra.Command {
	var opts storage.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.requireStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			plans, err := store.ListPlans(ctx, opts)
			if err != nil {
				return err
			}
			if len(plans) == 0 {
				printInfo("No plans stored")
				return nil
			}
			fmt.Fprintln(os.Stdout, summaryTable(plans))
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", storage.DefaultListLimit, "maximum number of plans")
	cmd.Flags().StringVar(&opts.Source, "source", "", "only plans computed from this input path")
	return cmd
}

func (c *CLI) plansShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.loadPlan(cmd, args[0], true)
			if err != nil {
				return err
			}
			if asJSON {
				return graph.WritePlan(p, os.Stdout)
			}
			printKeyValue("Source", p.Source)
			printKeyValue("Created", humanize.Time(p.CreatedAt))
			printKeyValue("Threshold", humanize.IBytes(uint64(max(p.Threshold, 0))))
			printPlanSummary(p, false)
			fmt.Fprintln(os.Stdout, bundleTable(p))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}

func (c *CLI) plansDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := errors.ValidatePlanID(args[0]); err != nil {
				return err
			}
			store, err := c.requireStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)
			if err := store.DeletePlan(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted plan %s", args[0])
			return nil
		},
	}
}

// summaryTable renders plan summaries.
func summaryTable(plans []storage.Summary) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, len(plans))
	for i, s := range plans {
		rows[i] = []string{s.ID, humanize.Time(s.CreatedAt), s.Source, fmt.Sprint(s.Assets), fmt.Sprint(s.Bundles)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Source", "Assets", "Bundles").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}
