// Package cartalker generates a podcast RSS feed covering every Car
// Talk episode the station still hosts, optionally reusing a previously
// generated feed so only newer episodes are fetched.
package cartalker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pevans/cartalker/config"
	"github.com/pevans/cartalker/episode"
	"github.com/pevans/cartalker/feedfile"
	"github.com/pevans/cartalker/harvest"
	"github.com/pevans/cartalker/podcast"
)

// Options controls a single feed-generation run.
type Options struct {
	// InputPath is an existing feed file to seed from. When set, only
	// episodes newer than its most recent one are harvested and the
	// two sets are merged. Empty means a full harvest.
	InputPath string

	// OutputPath is where the generated feed is written.
	OutputPath string

	// Config supplies show metadata and station parameters; nil uses
	// the defaults.
	Config *config.Config

	// Logger receives progress output; nil disables it.
	Logger *slog.Logger
}

// Run executes the whole pipeline: read the seed feed if one was given,
// harvest the listing down to its last episode date, merge, and write
// the resulting feed. Any failure aborts the run; no partial feed is
// written.
func Run(opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var existing []episode.Episode
	var cutoff *time.Time

	if opts.InputPath != "" {
		var err error
		existing, cutoff, err = feedfile.Parse(opts.InputPath)
		if err != nil {
			return err
		}
		if cutoff != nil {
			logger.Info("seeded from existing feed", "path", opts.InputPath,
				"episodes", len(existing), "last", *cutoff)
		}
	}

	harvester := harvest.New(cfg.Station.HarvestConfig(), logger)
	harvested, err := harvester.Harvest(cutoff)
	if err != nil {
		return err
	}

	final := Merge(existing, harvested)

	feed := podcast.Build(cfg.Show.PodcastShow(), final)
	if err := podcast.WriteFile(feed, opts.OutputPath); err != nil {
		return err
	}

	logger.Info("wrote feed", "path", opts.OutputPath,
		"episodes", len(final), "new", len(harvested))
	return nil
}

// Merge combines seed episodes with harvested ones into a single
// oldest-to-newest sequence. The harvester emits newest-first, so the
// harvested set is reversed and appended after the seed episodes; the
// harvest cutoff is what keeps the two sets from overlapping.
func Merge(existing, harvested []episode.Episode) []episode.Episode {
	final := make([]episode.Episode, 0, len(existing)+len(harvested))
	final = append(final, existing...)
	for i := len(harvested) - 1; i >= 0; i-- {
		final = append(final, harvested[i])
	}
	return final
}

// DefaultOutputPath returns the timestamped file name used when no
// output path is given.
func DefaultOutputPath(now time.Time) string {
	return fmt.Sprintf("cartalk_%s.xml", now.Format("200601021504"))
}
