package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/boxocr/internal/config"
	"github.com/lehigh-university-libraries/boxocr/pkg/page"
)

var cfgFile string

var RootCmd = &cobra.Command{
	Use:   "boxocr",
	Short: "Draw boxes on a scanned PDF page and OCR what is inside them",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		ll, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}

		switch strings.ToUpper(ll) {
		case "DEBUG":
			level = slog.LevelDebug
		case "WARN":
			level = slog.LevelWarn
		case "ERROR":
			level = slog.LevelError
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		// stdout carries command output
		handler := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(handler)

		return nil
	},
}

func init() {
	ll := os.Getenv("LOG_LEVEL")
	if ll == "" {
		ll = "INFO"
	}
	RootCmd.PersistentFlags().String("log-level", ll, "The logging level for the command")
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is ./boxocr.yaml or $HOME/.boxocr/boxocr.yaml)")

	defaults := config.Default()
	RootCmd.PersistentFlags().String("provider", defaults.Provider, "OCR provider: tesseract, vision, openai, azure, claude, gemini, ollama")
	RootCmd.PersistentFlags().String("model", "", "Model to use (uses provider default if not specified)")
	RootCmd.PersistentFlags().String("language", defaults.Language, "Tesseract language, e.g. eng or eng+deu")
	RootCmd.PersistentFlags().Float64("temperature", 0, "Temperature for vision model providers")
	RootCmd.PersistentFlags().Duration("timeout", 0, "Per-region provider timeout (provider default if zero)")
	RootCmd.PersistentFlags().Int("dpi", page.DefaultDPI, "Resolution the PDF page is rasterized at")
	RootCmd.PersistentFlags().Float64("scale", page.DefaultScale, "Display size relative to the rasterized page")
}

// loadConfig resolves the configuration for cmd, letting its flags override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cfgFile, cmd.Flags())
}
