package cli

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/splitsig/splitsig/internal/store"
)

func init() {
	rootCmd.AddCommand(newWinnerCmd())
}

func newWinnerCmd() *cobra.Command {
	var variantIndex int

	cmd := &cobra.Command{
		Use:   "winner <name>",
		Short: "Declare a winner for an experiment",
		Long: `Declare a winning variant and complete the experiment.

When --variant is omitted, an interactive prompt lists the variants.

Example:
  splitsig winner hero --variant 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				exp, err := s.GetExperiment(ctx, name)
				if err != nil {
					return fmt.Errorf("experiment not found: %s", name)
				}

				if exp.State != store.StateRunning {
					return fmt.Errorf("experiment is not running (current state: %s)", exp.State)
				}

				if variantIndex < 0 {
					variantIndex, err = promptVariant(exp)
					if err != nil {
						return err
					}
				}

				if variantIndex < 0 || variantIndex >= len(exp.Variants) {
					return fmt.Errorf("invalid variant index: %d (experiment has %d variants: 0-%d)",
						variantIndex, len(exp.Variants), len(exp.Variants)-1)
				}

				if err := s.SetWinner(ctx, name, variantIndex); err != nil {
					return fmt.Errorf("failed to set winner: %w", err)
				}

				fmt.Printf("Declared winner for experiment '%s': variant %d (\"%s\")\n",
					name, variantIndex, exp.Variants[variantIndex].Name)
				fmt.Println("Experiment has been marked as completed.")

				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&variantIndex, "variant", "v", -1, "winning variant index")

	return cmd
}

func promptVariant(exp *store.Experiment) (int, error) {
	items := make([]string, len(exp.Variants))
	for i, v := range exp.Variants {
		label := v.Name
		if v.IsControl {
			label += " (control)"
		}
		items[i] = label
	}

	prompt := promptui.Select{
		Label: "Winning variant",
		Items: items,
		Size:  len(items),
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("prompt failed: %w", err)
	}

	return idx, nil
}
