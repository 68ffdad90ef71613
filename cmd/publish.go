package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skinmuseum/skinpost/internal/museum"
	"github.com/skinmuseum/skinpost/internal/skinpost"
)

var (
	publishPlatform string
	publishDryRun   bool
)

func newPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [md5]",
		Short: "Publish one skin",
		Long: "publish runs a single publish cycle. Without an argument it picks a " +
			"random skin that has not been posted to the target platform yet; with " +
			"an md5 it publishes that specific skin unless it is already posted.",
		Args: cobra.MaximumNArgs(1),
		RunE: runPublish,
		Example: `  skinpost publish
  skinpost publish 5e4f10275dcb1fb211d4a8b4f1bfe0a4
  skinpost publish --platform mastodon`,
	}

	cmd.Flags().StringVar(&publishPlatform, "platform", "bluesky", "Target platform (bluesky, mastodon, twitter)")
	cmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "Print what would be published without posting")
	cmd.Flags().SortFlags = false

	return cmd
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if _, ok := supportedPlatforms[publishPlatform]; !ok {
		return fmt.Errorf("unsupported platform %q", publishPlatform)
	}

	var md5 string
	if len(args) > 0 {
		md5 = args[0]
		if !museum.IsMD5(md5) {
			return fmt.Errorf("%q is not an md5 digest", md5)
		}
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if publishDryRun {
		var skin *museum.Skin
		if md5 != "" {
			skin, err = store.Skin(ctx, md5)
		} else {
			skin, err = store.PickUnpublished(ctx, publishPlatform)
		}
		if err != nil {
			return err
		}
		if skin == nil {
			fmt.Fprintf(out, "[dry-run] nothing to publish on %s\n", publishPlatform)
			return nil
		}
		fmt.Fprintf(out, "[dry-run] would publish %q (%s) to %s\n", skin.Name, skin.MD5, publishPlatform)
		return nil
	}

	if publishPlatform == "bluesky" {
		if err := ensureSecret("SKINPOST_BLUESKY_APP_PASSWORD", "Bluesky app password"); err != nil {
			return err
		}
	}

	platform, err := buildPlatform(ctx, publishPlatform)
	if err != nil {
		return err
	}

	publisher := &skinpost.Publisher{
		Store:       store,
		Screenshots: museum.NewClient(),
		Platform:    platform,
		Notifier:    buildNotifier(),
	}

	result, err := publisher.Run(ctx, md5)
	if err != nil {
		return err
	}

	if result.Skipped {
		fmt.Fprintln(out, "nothing to publish")
		return nil
	}

	fmt.Fprintf(out, "published %q to %s: %s\n", result.Skin.Name, platform.Name(), result.Outcome.URL)
	return nil
}
