package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"quoteclip/internal/config"
	"quoteclip/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "quoteclip",
	Short: "Locate and play movie quotes from subtitle timing",
	Long: `Quoteclip aligns a quote against a subtitle track, resolves the
time window where it is spoken, and plays or cuts exactly that segment
of the media file.

Subtitle sources can be local files, http(s) URLs, or inline text.
Resolved windows are cached so repeat playback skips alignment.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// missing .env files are fine; real env vars still apply
		_ = godotenv.Load()

		logger = logging.NewLogger(verbose)

		loaded, path, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if exists {
			logger.Debugw("Loaded config file", "path", path)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file path (default ~/.config/quoteclip/config.toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
