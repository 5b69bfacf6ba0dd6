package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/lehigh-university-libraries/boxocr/pkg/annotate"
	"github.com/lehigh-university-libraries/boxocr/pkg/overlay"
)

var (
	replayEventsPath string
	replayPNGPath    string
)

var replayCmd = &cobra.Command{
	Use:   "replay file.pdf --events events.yaml",
	Short: "Feed recorded mouse events through an annotation session",
	Long: `Replay a YAML list of mouse events against the first page of a PDF and
print the resulting boxes as YAML.

Each event has a type (press, move or release), a button (left, right or
middle) and x/y display coordinates:

  - {type: press, button: left, x: 100, y: 40}
  - {type: release, button: left, x: 300, y: 90}
  - {type: press, button: right, x: 150, y: 60}`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	RootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayEventsPath, "events", "", "YAML file with the events to replay (required)")
	replayCmd.Flags().StringVar(&replayPNGPath, "png", "", "Write the painted page to this PNG file")
	if err := replayCmd.MarkFlagRequired("events"); err != nil {
		panic(err)
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	events, err := readEvents(replayEventsPath)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rec, err := recognizerFor(cfg)
	if err != nil {
		return err
	}

	pg, m, err := openMachine(cmd.Context(), cfg, args[0], rec)
	if err != nil {
		return err
	}

	if err := replay(cmd.Context(), m, events); err != nil {
		return err
	}

	frame := m.Frame()
	if replayPNGPath != "" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, overlay.Paint(pg.Display, frame)); err != nil {
			return fmt.Errorf("failed to encode overlay: %w", err)
		}
		if err := os.WriteFile(replayPNGPath, buf.Bytes(), 0o644); err != nil {
			return err
		}
		slog.Info("Wrote overlay", "path", replayPNGPath)
	}

	return writeYAML(cmd.OutOrStdout(), m.Session().Boxes())
}

func readEvents(path string) ([]inputEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var events []inputEvent
	if err := yaml.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("invalid events file %s: %w", path, err)
	}
	return events, nil
}

// replay applies events in order and stops at the first failure.
func replay(ctx context.Context, m *annotate.Machine, events []inputEvent) error {
	for i, ev := range events {
		if err := applyEvent(ctx, m, ev); err != nil {
			return fmt.Errorf("event %d: %w", i+1, err)
		}
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
