package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skinmuseum/skinpost/internal/logutil"
	"github.com/skinmuseum/skinpost/internal/museum"
)

// indexEntry matches one record in a museum index dump.
type indexEntry struct {
	MD5  string `json:"md5"`
	Name string `json:"name"`
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <index.json>",
		Short: "Import a museum index dump into the local database",
		Long: "import reads a JSON array of {md5, name} records and adds the skins " +
			"to the local index. Skins already present are left untouched.",
		Args:    cobra.ExactArgs(1),
		RunE:    runImport,
		Example: `  skinpost import skins.json`,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	var entries []indexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse index: %w", err)
	}

	skins := make([]museum.Skin, 0, len(entries))
	for _, entry := range entries {
		if !museum.IsMD5(entry.MD5) {
			logutil.Warnf("skipping entry with bad md5 %q (%s)", entry.MD5, entry.Name)
			continue
		}
		name := entry.Name
		if name == "" {
			name = entry.MD5
		}
		skins = append(skins, museum.Skin{
			MD5:           entry.MD5,
			Name:          name,
			PageURL:       museum.PageURL(entry.MD5),
			ScreenshotURL: museum.ScreenshotURL(entry.MD5),
		})
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	added, err := store.ImportSkins(ctx, skins)
	if err != nil {
		return err
	}

	total, err := store.SkinCount(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "imported %d new skins (%d total)\n", added, total)
	return nil
}
