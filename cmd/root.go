package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "squeeze",
	Short: "squeeze - minify CSS/JS and recompress images in place, with backups",
	Long: "squeeze minifies stylesheets and scripts in place and recompresses PNG/JPEG images " +
		"through caesiumclt or ImageMagick, keeping a backup of every original it replaces.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "settings file (BACKUP_SUFFIX, BACKUP_OVERWRITE, DEFAULT_OUT_PATH, CAESIUM_BIN, MAGICK_BIN)")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
