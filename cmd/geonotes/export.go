package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"geonotes/backend"
)

var (
	exportFormat string
	exportOutput string
)

// YAML 出力用の形。JSON 出力はアプリのエクスポートと同じ形式を使う
type yamlExport struct {
	Version    string     `yaml:"version"`
	ExportedAt string     `yaml:"exportedAt"`
	Notes      []yamlNote `yaml:"notes"`
}

type yamlNote struct {
	ID        string  `yaml:"id"`
	Title     string  `yaml:"title"`
	Content   string  `yaml:"content"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timestamp string  `yaml:"timestamp"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all notes as JSON or YAML",
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

		var out io.Writer = os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		if err := writeExport(out, exportFormat, notes, time.Now()); err != nil {
			return err
		}
		if exportOutput != "" {
			okColor.Fprintf(os.Stderr, "📤 Exported %d notes to %s\n", len(notes), exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
}

func writeExport(w io.Writer, format string, notes []backend.Note, now time.Time) error {
	switch format {
	case "json":
		data, err := backend.EncodeSnapshot(notes, now)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		doc := yamlExport{
			Version:    "1.0",
			ExportedAt: now.UTC().Format(time.RFC3339),
			Notes:      make([]yamlNote, 0, len(notes)),
		}
		for _, note := range notes {
			doc.Notes = append(doc.Notes, yamlNote{
				ID:        note.ID,
				Title:     note.Title,
				Content:   note.Content,
				Latitude:  note.Location.Latitude,
				Longitude: note.Location.Longitude,
				Timestamp: note.Timestamp,
			})
		}
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
}
