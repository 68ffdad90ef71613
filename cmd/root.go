/*
Copyright © 2025 skinmuseum

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skinmuseum/skinpost/internal/logutil"
	"github.com/skinmuseum/skinpost/internal/museum"
	"github.com/skinmuseum/skinpost/internal/notify"
	"github.com/skinmuseum/skinpost/internal/skinpost"
	"github.com/skinmuseum/skinpost/internal/skinpost/bluesky"
	"github.com/skinmuseum/skinpost/internal/skinpost/mastodon"
	"github.com/skinmuseum/skinpost/internal/skinpost/twitter"
)

var (
	verboseFlag bool
	dbPathFlag  string
	envFileFlag string
)

var supportedPlatforms = map[string]struct{}{
	"bluesky":  {},
	"mastodon": {},
	"twitter":  {},
}

const (
	envDBPath            = "SKINPOST_DB_PATH"
	defaultDBPath        = "skinpost.db"
	defaultBlueskyPDSURL = "https://bsky.social"
)

// Execute runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skinpost",
		Short: "Publish Winamp Skin Museum skins to social platforms",
		Long: "skinpost picks a skin from the local museum index that has not been " +
			"posted yet, upscales its screenshot, publishes it to Bluesky (or Mastodon, " +
			"or X) and relays the post link into a Discord channel.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logutil.SetVerbose(verboseFlag)
			return loadEnvFile()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Path to the skin index database (default $SKINPOST_DB_PATH or "+defaultDBPath+")")
	cmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Load environment variables from this file")

	cmd.AddCommand(newPublishCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newImportCommand())

	return cmd
}

func loadEnvFile() error {
	if envFileFlag != "" {
		if err := godotenv.Load(envFileFlag); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	// A .env next to the binary is optional.
	_ = godotenv.Load()
	return nil
}

func databasePath() string {
	if dbPathFlag != "" {
		return dbPathFlag
	}
	if path := strings.TrimSpace(os.Getenv(envDBPath)); path != "" {
		return path
	}
	return defaultDBPath
}

func openStore() (*museum.Store, error) {
	path := databasePath()
	logutil.Debugf("opening skin index at %s", path)
	return museum.Open(path)
}

func buildPlatform(ctx context.Context, name string) (skinpost.Platform, error) {
	switch name {
	case "bluesky":
		return bluesky.New(ctx, bluesky.Config{PDSURL: defaultBlueskyPDSURL})
	case "mastodon":
		return mastodon.New(ctx)
	case "twitter":
		return twitter.New(ctx)
	}
	return nil, fmt.Errorf("unsupported platform %q", name)
}

// buildNotifier returns nil when Discord is not configured; the pipeline
// simply runs without notifications.
func buildNotifier() skinpost.Notifier {
	notifier, err := notify.New()
	if err != nil {
		logutil.Debugf("discord notifications disabled: %v", err)
		return nil
	}
	return notifier
}

// ensureSecret prompts for a missing secret when attached to a terminal, so
// credentials do not have to live in shell history during manual runs.
func ensureSecret(envVar, label string) error {
	if strings.TrimSpace(os.Getenv(envVar)) != "" {
		return nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read %s: %w", label, err)
	}

	return os.Setenv(envVar, strings.TrimSpace(string(secret)))
}
