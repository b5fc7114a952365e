package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/splitsig/splitsig/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	Long:  `List all experiments with their status and aggregate counts.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		experiments, err := s.ListExperiments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}

		if len(experiments) == 0 {
			fmt.Println("No experiments yet.")
			fmt.Println()
			fmt.Println("Create one with:")
			fmt.Println("  splitsig create hero --variants \"Control,Variant B\"")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATE\tVARIANTS\tEXPOSURES\tCONVERSIONS\tCREATED")

		for _, exp := range experiments {
			variantStats, err := s.GetVariantStats(ctx, exp.Name)
			if err != nil {
				return fmt.Errorf("failed to get stats for experiment %s: %w", exp.Name, err)
			}

			totalExposures := 0
			totalConversions := 0
			for _, stat := range variantStats {
				totalExposures += stat.Exposures
				totalConversions += stat.Conversions
			}

			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				exp.Name,
				strings.ToUpper(string(exp.State)),
				len(exp.Variants),
				formatNumber(totalExposures),
				formatNumber(totalConversions),
				exp.CreatedAt.Format("2006-01-02"),
			)
		}

		return w.Flush()
	})
}
