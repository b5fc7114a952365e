package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/splitsig/splitsig/internal/store"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	var (
		variants   string
		control    int
		confidence float64
		autoStop   bool
		goal       string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new experiment",
		Long: `Create a new experiment with the specified name and variants.

The first variant is the control arm unless --control says otherwise.

Examples:
  splitsig create hero --variants "Control,Variant B"
  splitsig create pricing --variants "Monthly,Annual,Lifetime" --control 0
  splitsig create cta --variants "A,B" --confidence 0.99 --auto-stop`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			variantList := strings.Split(variants, ",")
			for i := range variantList {
				variantList[i] = strings.TrimSpace(variantList[i])
			}

			if len(variantList) < 2 {
				return fmt.Errorf("need at least 2 variants. Example: --variants \"A,B\"")
			}

			if control < 0 || control >= len(variantList) {
				return fmt.Errorf("control index %d out of range (0-%d)", control, len(variantList)-1)
			}

			if confidence <= 0 || confidence >= 1 {
				return fmt.Errorf("confidence must be between 0 and 1 exclusive, got %g", confidence)
			}

			return withStore(func(s *store.SQLiteStore) error {
				exp, err := s.CreateExperiment(context.Background(), store.ExperimentParams{
					Name:         name,
					Variants:     variantList,
					ControlIndex: control,
					Confidence:   confidence,
					AutoStop:     autoStop,
					Goal:         goal,
				})
				if err != nil {
					return fmt.Errorf("failed to create experiment: %w", err)
				}

				fmt.Printf("Created experiment '%s' with %d variants:\n", exp.Name, len(exp.Variants))
				for i, v := range exp.Variants {
					marker := ""
					if v.IsControl {
						marker = " (control)"
					}
					fmt.Printf("  %d: %s%s\n", i, v.Name, marker)
				}
				fmt.Printf("  Confidence: %g%%\n", exp.ConfidenceLevel*100)
				if exp.AutoStop {
					fmt.Println("  Auto-stop: enabled")
				}
				if exp.Goal != "" {
					fmt.Printf("  Goal: %s\n", exp.Goal)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variants, "variants", "v", "", "comma-separated variant names (required)")
	cmd.Flags().IntVar(&control, "control", 0, "index of the control arm")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level for analysis")
	cmd.Flags().BoolVar(&autoStop, "auto-stop", false, "recommend stopping once significant with adequate power")
	cmd.Flags().StringVar(&goal, "goal", "", "description of what conversion means (optional)")
	cmd.MarkFlagRequired("variants")

	return cmd
}
