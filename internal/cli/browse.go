package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
)

// browseCommand creates the browse command. The argument is a plan file, or
// with --id a plan ID from the plan history.
func (c *CLI) browseCommand() *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "browse [plan.json | id]",
		Short: "Explore the bundles of a plan interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.loadPlan(cmd, args[0], byID)
			if err != nil {
				return err
			}
			if len(p.Bundles) == 0 {
				printWarning("Plan has no bundles")
				return nil
			}
			_, err = tea.NewProgram(NewPlanModel(p), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as a plan ID from the plan history")
	return cmd
}

// loadPlan reads a plan from a file or, when byID is set, from the store.
func (c *CLI) loadPlan(cmd *cobra.Command, arg string, byID bool) (graph.Plan, error) {
	if !byID {
		p, err := graph.ReadPlanFile(arg)
		if err != nil {
			return graph.Plan{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read plan %s", arg)
		}
		return p, nil
	}
	if err := errors.ValidatePlanID(arg); err != nil {
		return graph.Plan{}, err
	}
	store, err := c.requireStore(cmd.Context())
	if err != nil {
		return graph.Plan{}, err
	}
	defer store.Close(cmd.Context())
	p, err := store.GetPlan(cmd.Context(), arg)
	if err != nil {
		return graph.Plan{}, err
	}
	return *p, nil
}
