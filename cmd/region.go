package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/boxocr/internal/config"
	"github.com/lehigh-university-libraries/boxocr/pkg/annotate"
)

var regionBox string

var regionCmd = &cobra.Command{
	Use:   "region file.pdf --box x0,y0,x1,y1",
	Short: "Recognize one box on the first page without the interface",
	Long: `Draw a single box on the first page of a PDF and print the recognized text.

The corners are given in display coordinates, the same ones the ui command
uses, so --scale and --dpi apply exactly as they do there.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegion,
}

func init() {
	RootCmd.AddCommand(regionCmd)
	regionCmd.Flags().StringVar(&regionBox, "box", "", "Box corners in display pixels: x0,y0,x1,y1 (required)")
	if err := regionCmd.MarkFlagRequired("box"); err != nil {
		panic(err)
	}
}

func runRegion(cmd *cobra.Command, args []string) error {
	from, to, err := parseBox(regionBox)
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

	text, err := regionText(cmd.Context(), cfg, args[0], rec, from, to)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

var errDegenerateBox = errors.New("box has zero width or height")

// regionText performs one left drag from one corner to the other and returns
// the text recognized for the resulting box.
func regionText(ctx context.Context, cfg *config.Config, path string, rec annotate.Recognizer, from, to image.Point) (string, error) {
	if from.X == to.X || from.Y == to.Y {
		return "", fmt.Errorf("%w: %v %v", errDegenerateBox, from, to)
	}

	_, m, err := openMachine(ctx, cfg, path, rec)
	if err != nil {
		return "", err
	}

	m.Press(annotate.ButtonLeft, from)
	m.Move(to)
	if err := m.Release(ctx, annotate.ButtonLeft, to); err != nil {
		return "", err
	}

	boxes := m.Session().Boxes()
	if len(boxes) != 1 {
		return "", fmt.Errorf("expected one box, session has %d", len(boxes))
	}
	return boxes[0].Text, nil
}

// parseBox reads "x0,y0,x1,y1".
func parseBox(s string) (image.Point, image.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Point{}, image.Point{}, fmt.Errorf("invalid box %q: want x0,y0,x1,y1", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Point{}, image.Point{}, fmt.Errorf("invalid box %q: %w", s, err)
		}
		v[i] = n
	}
	return image.Pt(v[0], v[1]), image.Pt(v[2], v[3]), nil
}
