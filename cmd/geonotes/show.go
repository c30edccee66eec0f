package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"geonotes/backend"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a single note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		note, err := store.Get(cmd.Context(), args[0])
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Errorf("note not found: %s", args[0])
		}
		if err != nil {
			return err
		}
		printNote(os.Stdout, note, time.Local)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func printNote(w io.Writer, note *backend.Note, loc *time.Location) {
	card := backend.BuildNoteListView([]backend.Note{*note}, loc).Cards[0]
	fmt.Fprintln(w, titleColor.Sprint("📌 "+card.Title))
	fmt.Fprintln(w, idColor.Sprint(card.ID))
	fmt.Fprintln(w)
	fmt.Fprintln(w, card.Content)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "📍 %s\n", coordColor.Sprint(card.Coordinates))
	fmt.Fprintf(w, "🕒 %s\n", timeColor.Sprint(card.Timestamp))
}
