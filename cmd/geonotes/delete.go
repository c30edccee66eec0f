package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"geonotes/backend"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Long:  `Delete permanently removes a note from the store. The running app picks up the change.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		return deleteNote(cmd.Context(), store, args[0], deleteYes, os.Stdin, cmd.OutOrStdout())
	},
}

// deleteNote は確認の上でノートを削除する。存在しない id は警告だけ出して成功扱い
func deleteNote(ctx context.Context, store backend.NoteStore, id string, assumeYes bool, in io.Reader, out io.Writer) error {
	note, err := store.Get(ctx, id)
	if errors.Is(err, backend.ErrNotFound) {
		warnColor.Fprintf(out, "⚠️ Note not found, nothing to delete: %s\n", id)
		return nil
	}
	if err != nil {
		return err
	}

	if !assumeYes && !confirm(in, out, fmt.Sprintf("Delete %q? Are you sure you want to delete this note?", note.Title)) {
		warnColor.Fprintln(out, "Cancelled.")
		return nil
	}

	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting note: %w", err)
	}
	okColor.Fprintf(out, "🗑️ Note deleted: %s\n", id)
	return nil
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking for confirmation")
}

// confirm は y/N の入力を求める。y または yes のみ承諾とみなす
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
