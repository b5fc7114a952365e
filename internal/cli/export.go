package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/splitsig/splitsig/internal/store"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export raw event data",
	Long: `Export raw event data in CSV, JSON, or YAML format.

Examples:
  splitsig export hero --format csv > hero-events.csv
  splitsig export hero --format json > hero-events.json
  splitsig export hero --format yaml > hero-events.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv, json, or yaml)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	name := args[0]

	if exportFormat != "csv" && exportFormat != "json" && exportFormat != "yaml" {
		return fmt.Errorf("invalid format: must be 'csv', 'json', or 'yaml'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		if _, err := s.GetExperiment(ctx, name); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("experiment '%s' not found", name)
			}
			return fmt.Errorf("failed to get experiment: %w", err)
		}

		events, err := s.GetEvents(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}

		switch exportFormat {
		case "csv":
			return exportCSV(events)
		case "yaml":
			return exportYAML(events)
		default:
			return exportJSON(events)
		}
	})
}

func exportCSV(events []*store.Event) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "variant", "event_type", "visitor_id"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range events {
		row := []string{
			strconv.FormatInt(e.CreatedAt.Unix(), 10),
			strconv.Itoa(e.Variant),
			e.EventType,
			e.VisitorID,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

type eventExport struct {
	Events []exportedEvent `json:"events" yaml:"events"`
}

type exportedEvent struct {
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Variant   int    `json:"variant" yaml:"variant"`
	EventType string `json:"event_type" yaml:"event_type"`
	VisitorID string `json:"visitor_id" yaml:"visitor_id"`
}

func buildExport(events []*store.Event) eventExport {
	export := eventExport{
		Events: make([]exportedEvent, len(events)),
	}

	for i, e := range events {
		export.Events[i] = exportedEvent{
			Timestamp: e.CreatedAt.Unix(),
			Variant:   e.Variant,
			EventType: e.EventType,
			VisitorID: e.VisitorID,
		}
	}

	return export
}

func exportJSON(events []*store.Event) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildExport(events))
}

func exportYAML(events []*store.Event) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(buildExport(events))
}
