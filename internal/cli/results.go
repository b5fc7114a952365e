package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/splitsig/splitsig/internal/stats"
	"github.com/splitsig/splitsig/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results <name>",
	Short: "Show detailed results for an experiment",
	Long: `Show detailed results including conversion rates, confidence
intervals, and the z-test verdict against the control arm.`,
	Args: cobra.ExactArgs(1),
	RunE: runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	name := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		exp, err := s.GetExperiment(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("experiment '%s' not found", name)
			}
			return fmt.Errorf("failed to get experiment: %w", err)
		}

		variantStats, err := s.GetVariantStats(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		confidence := exp.ConfidenceLevel
		if confidence == 0 {
			confidence = stats.DefaultConfidence
		}

		analysis, err := stats.Analyze(exp, variantStats, confidence)
		if err != nil {
			return fmt.Errorf("failed to analyze experiment: %w", err)
		}

		fmt.Printf("EXPERIMENT: %s\n", exp.Name)
		fmt.Printf("STATE: %s\n", exp.State)
		if exp.Goal != "" {
			fmt.Printf("GOAL: %s\n", exp.Goal)
		}
		fmt.Printf("CONFIDENCE: %g%%\n", confidence*100)
		fmt.Printf("CREATED: %s\n", exp.CreatedAt.Format("2006-01-02"))
		fmt.Println()

		fmt.Printf("VARIANT           EXPOSURES  CONVERSIONS  RATE     %g%% CI\n", confidence*100)
		fmt.Println(strings.Repeat("─", 66))

		for _, v := range analysis.Variants {
			indicator := ""
			if v.IsControl {
				indicator = " (control)"
			}
			if v.Index == analysis.LeadingVariant && len(analysis.Variants) > 1 {
				indicator += " ← LEADING"
			}

			ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
			if v.Exposures == 0 {
				ciStr = "N/A"
			}

			name := v.Name
			if len(name) > 16 {
				name = name[:13] + "..."
			}

			fmt.Printf("%-16s  %-9d  %-11d  %-7s  %s%s\n",
				name,
				v.Exposures,
				v.Conversions,
				formatPercent(v.Rate),
				ciStr,
				indicator,
			)
		}

		fmt.Println()

		for _, c := range analysis.Comparisons {
			verdict := "not significant"
			if c.Significant {
				verdict = "SIGNIFICANT"
			}
			fmt.Printf("%s vs control: %s  p=%.4f  lift=%+.1f%%  power=%.2f\n",
				c.VariantName, verdict, c.PValue, c.RelativeLift, c.Power)
		}

		if analysis.Best != nil {
			fmt.Println()
			switch {
			case analysis.RecommendStop:
				fmt.Printf("Auto-stop: \"%s\" is significant with power %.2f — safe to declare a winner\n",
					analysis.Best.VariantName, analysis.Best.Power)
			case analysis.Best.Significant:
				fmt.Printf("\"%s\" is significant but power is only %.2f — keep collecting data\n",
					analysis.Best.VariantName, analysis.Best.Power)
			default:
				fmt.Println("Not enough data to determine a winner")
			}
		}

		return nil
	})
}
