package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wudi/gridpdf/observability"
)

var (
	rootSettingsPath string
	rootVerbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "gridpdf",
	Short: "Tile images onto a page grid and export a print-ready CMYK PDF",
	Long: `gridpdf lays source images out on a fixed-size cell grid and writes
the result as a CMYK PDF for print.

Images are fitted into their cells with the aspect ratio preserved and
cycled when there are more cells than images. Color conversion uses an
ICC output profile when one is given, or a direct channel inversion
otherwise.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootSettingsPath, "settings", "", "settings file (default ~/.gridpdf/settings.json)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "log progress details to stderr")
}

func settingsPath() (string, error) {
	if rootSettingsPath != "" {
		return rootSettingsPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gridpdf", "settings.json"), nil
}

func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func newLogger(errOut io.Writer) observability.Logger {
	if rootVerbose {
		return observability.NewWriterLogger(errOut)
	}
	return observability.NopLogger{}
}
