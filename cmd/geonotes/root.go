package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"geonotes/backend"
)

var (
	dataDir   string
	storeKind string
	noColor   bool
)

var (
	titleColor = color.New(color.FgHiWhite, color.Bold)
	idColor    = color.New(color.FgYellow)
	coordColor = color.New(color.FgCyan)
	timeColor  = color.New(color.Faint)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgHiYellow)
	errorColor = color.New(color.FgRed)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "geonotes",
	Short: "Inspect and maintain the GeoNotes local store",
	Long: `geonotes works on the same store as the desktop app.
The data directory and backend come from GEONOTES_DATA_DIR / GEONOTES_STORE
(or .env) unless overridden by flags.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: GEONOTES_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Store backend: sqlite or file (default: GEONOTES_STORE)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// openStore は設定とフラグから保存先を決めてストアを開く
func openStore() (backend.NoteStore, *backend.Config, error) {
	config, err := backend.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if dataDir != "" {
		config.DataDir = dataDir
	}
	if storeKind != "" {
		config.Store = storeKind
	}

	store, err := backend.OpenNoteStore(config.Store, config.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store in %s: %w", config.Store, config.DataDir, err)
	}
	return store, config, nil
}
