package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/store"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a timeline point of garden metrics and events",
		Long: `Record one observation of the garden on the timeline: a set of named
metrics and optionally a single event.

Example:
  gardenseer record --metric glyphCount=5 --metric totalLove=3.2 \
    --event-type birth --event-desc "Sprouted rose glyph" --event-impact 0.4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			metricArgs, _ := cmd.Flags().GetStringArray("metric")
			eventType, _ := cmd.Flags().GetString("event-type")
			eventDesc, _ := cmd.Flags().GetString("event-desc")
			eventImpact, _ := cmd.Flags().GetFloat64("event-impact")
			at, _ := cmd.Flags().GetString("at")

			point := garden.TimelinePoint{
				Timestamp: time.Now().UTC(),
				Metrics:   make(map[string]float64, len(metricArgs)),
			}
			if at != "" {
				ts, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				point.Timestamp = ts.UTC()
			}

			for _, m := range metricArgs {
				name, raw, ok := strings.Cut(m, "=")
				if !ok {
					return fmt.Errorf("invalid metric %q (want name=value)", m)
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("invalid metric value %q: %w", m, err)
				}
				point.Metrics[name] = v
			}

			if eventType != "" {
				point.Events = []garden.Event{{
					Type:        eventType,
					Description: eventDesc,
					Impact:      eventImpact,
				}}
			} else if eventDesc != "" || eventImpact != 0 {
				return fmt.Errorf("--event-desc and --event-impact require --event-type")
			}

			ts, err := store.OpenTimeline(dataDir(cfg, root))
			if err != nil {
				return fmt.Errorf("open timeline: %w", err)
			}
			defer ts.Close()

			ctx := context.Background()
			if err := ts.AppendPoint(ctx, point); err != nil {
				return fmt.Errorf("append timeline point: %w", err)
			}
			n, err := ts.Count(ctx)
			if err != nil {
				return fmt.Errorf("count timeline points: %w", err)
			}

			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"status": "recorded",
					"point":  point,
					"count":  n,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded timeline point %d at %s\n",
					n, point.Timestamp.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringArray("metric", nil, "Metric as name=value (repeatable)")
	cmd.Flags().String("event-type", "", "Event type (e.g. birth, connection, mutation)")
	cmd.Flags().String("event-desc", "", "Event description")
	cmd.Flags().Float64("event-impact", 0, "Event impact in [0,1]")
	cmd.Flags().String("at", "", "Observation timestamp (RFC3339, default now)")

	return cmd
}
