package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skinmuseum/skinpost/internal/logutil"
	"github.com/skinmuseum/skinpost/internal/museum"
	"github.com/skinmuseum/skinpost/internal/skinpost"
)

var (
	runInterval  time.Duration
	runPlatforms []string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Publish skins on a schedule",
		Long: "run publishes one skin per interval to each configured platform until " +
			"interrupted. Cycles are strictly sequential; a fresh platform session " +
			"is established for every cycle.",
		RunE: runScheduler,
		Example: `  skinpost run --every 6h
  skinpost run --every 12h --platform bluesky --platform mastodon`,
	}

	cmd.Flags().DurationVar(&runInterval, "every", 6*time.Hour, "Interval between publish cycles")
	cmd.Flags().StringSliceVar(&runPlatforms, "platform", []string{"bluesky"}, "Platforms to publish to each cycle")
	cmd.Flags().SortFlags = false

	return cmd
}

func runScheduler(cmd *cobra.Command, args []string) error {
	for _, name := range runPlatforms {
		if _, ok := supportedPlatforms[name]; !ok {
			return fmt.Errorf("unsupported platform %q", name)
		}
	}
	if runInterval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	screenshots := museum.NewClient()
	notifier := buildNotifier()

	cycle := func() {
		for _, name := range runPlatforms {
			if ctx.Err() != nil {
				return
			}

			// Construct per cycle: sessions are never cached across runs.
			platform, err := buildPlatform(ctx, name)
			if err != nil {
				logutil.Errorf("%s: %v", name, err)
				continue
			}

			publisher := &skinpost.Publisher{
				Store:       store,
				Screenshots: screenshots,
				Platform:    platform,
				Notifier:    notifier,
			}

			result, err := publisher.Run(ctx, "")
			if err != nil {
				logutil.Errorf("%s: publish cycle failed: %v", name, err)
				continue
			}
			if result.Skipped {
				continue
			}
			logutil.Infof("%s: published %q: %s", name, result.Skin.Name, result.Outcome.URL)
		}
	}

	logutil.Infof("publishing every %s to %v", runInterval, runPlatforms)
	cycle()

	ticker := time.NewTicker(runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logutil.Infof("shutting down")
			return nil
		case <-ticker.C:
			cycle()
		}
	}
}
