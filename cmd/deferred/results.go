package main

import (
	"log/slog"
	"slices"
	"time"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

// summarize logs execution statistics for successful tasks and the number of failures.
func summarize(logger *slog.Logger, results []scheduler.TaskResult) {
	var durations, lateness []time.Duration
	failed := 0
	for _, result := range results {
		if result.Error != nil {
			failed++
			continue
		}
		durations = append(durations, result.Duration())
		lateness = append(lateness, result.Lateness())
	}

	args := []any{
		"count", len(results),
		"failed", failed,
	}

	if len(durations) > 0 {
		slices.Sort(durations)
		slices.Sort(lateness)

		var total time.Duration
		for _, d := range durations {
			total += d
		}
		// Convert len to time.Duration for division to get mean duration
		mean := total / time.Duration(len(durations))

		args = append(args,
			"mean_microseconds", mean.Microseconds(),
			"median_microseconds", durations[len(durations)/2].Microseconds(),
			"min_microseconds", durations[0].Microseconds(),
			"max_microseconds", durations[len(durations)-1].Microseconds(),
			"max_lateness_microseconds", lateness[len(lateness)-1].Microseconds(),
		)

		// Percentiles require sufficient samples to be meaningful (1% of 100 = 1 sample)
		if len(durations) >= 100 {
			p95 := durations[int(float64(len(durations)-1)*0.95)]
			p99 := durations[int(float64(len(durations)-1)*0.99)]
			args = append(args,
				"p95_microseconds", p95.Microseconds(),
				"p99_microseconds", p99.Microseconds(),
			)
		}
	}

	logger.Info("task execution summary", args...)
}
