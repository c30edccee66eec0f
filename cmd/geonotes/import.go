package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"geonotes/backend"
	"geonotes/backend/legacyimport"
)

var importCmd = &cobra.Command{
	Use:   "import-legacy [file]",
	Short: "Import notes from a legacy key-value export",
	Long: `import-legacy reads a JSON object of "note-*" keys (the browser localStorage
export) and stores each entry under its key, in key order. A copy of the input is kept
under import_snapshots in the data directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, config, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := legacyimport.Load(args[0], filepath.Join(config.DataDir, "import_snapshots"))
		if err != nil {
			return err
		}
		for _, skipped := range result.Skipped {
			warnColor.Printf("⚠️ Skipped %s: %s\n", skipped.Key, skipped.Reason)
		}

		notes := backend.NotesFromLegacy(result.Records)
		for i := range notes {
			if err := store.Put(cmd.Context(), &notes[i]); err != nil {
				return fmt.Errorf("imported %d of %d notes: %w", i, len(notes), err)
			}
		}
		okColor.Printf("📥 Imported %d notes\n", len(notes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
