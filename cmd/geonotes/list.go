package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"geonotes/backend"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved notes in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		notes, err := store.GetAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing notes: %w", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(notes)
		}
		printNoteList(os.Stdout, notes, time.Local)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}

// printNoteList はアプリと同じ表示用データを使って一覧を出力する
func printNoteList(w io.Writer, notes []backend.Note, loc *time.Location) {
	view := backend.BuildNoteListView(notes, loc)
	if view.Empty {
		fmt.Fprintln(w, view.Placeholder)
		return
	}
	for i, card := range view.Cards {
		fmt.Fprintf(w, "%2d. %s  %s\n", i+1, titleColor.Sprint("📌 "+card.Title), idColor.Sprint(card.ID))
		fmt.Fprintf(w, "    %s  %s\n", coordColor.Sprint(card.Coordinates), timeColor.Sprint(card.Timestamp))
	}
}
