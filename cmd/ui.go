package cmd

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/boxocr/internal/config"
	"github.com/lehigh-university-libraries/boxocr/internal/utils"
	"github.com/lehigh-university-libraries/boxocr/pkg/annotate"
	"github.com/lehigh-university-libraries/boxocr/pkg/hocr"
	"github.com/lehigh-university-libraries/boxocr/pkg/overlay"
	"github.com/lehigh-university-libraries/boxocr/pkg/page"
)

//go:embed static/index.html
var indexHTML []byte

var uiFile string

var uiCmd = &cobra.Command{
	Use:   "ui [file.pdf]",
	Short: "Open a PDF page in the box drawing interface",
	Long: `Rasterize the first page of a PDF and serve it in a browser window.

Drag with the left mouse button to draw a box; the region under it is sent to
the OCR provider and the recognized text is drawn next to the box. Right click
removes every box under the pointer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUI,
}

func init() {
	RootCmd.AddCommand(uiCmd)
	defaults := config.Default()
	uiCmd.Flags().StringVar(&uiFile, "file", "", "PDF to open (same as the positional argument)")
	uiCmd.Flags().String("port", defaults.Port, "Port to run the web server on")
	uiCmd.Flags().String("host", defaults.Host, "Host to bind the web server to")
}

func runUI(cmd *cobra.Command, args []string) error {
	path := uiFile
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No file selected")
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rec, err := recognizerFor(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, m, err := openMachine(ctx, cfg, path, rec)
	if err != nil {
		return err
	}

	s, err := newUIServer(pg, m)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	slog.Info("Box OCR interface available", "url", fmt.Sprintf("http://%s", cfg.Addr()), "file", path, "session", s.id)

	var result error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-s.fatal:
		slog.Error("Recognition failed, shutting down", "err", utils.MaskSensitiveError(err))
		result = err
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Server shutdown", "err", err)
	}
	return result
}

// uiServer exposes one annotation session over HTTP. All handlers hold mu,
// so events are applied one at a time and a slow recognition blocks any
// further input until it returns.
type uiServer struct {
	mu      sync.Mutex
	id      string
	page    *page.Page
	machine *annotate.Machine
	pagePNG []byte

	// fatal receives the first recognition failure.
	fatal chan error
}

type sessionResponse struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Display size           `json:"display"`
	Source  size           `json:"source"`
	State   string         `json:"state"`
	Boxes   []annotate.Box `json:"boxes"`
}

type size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// inputEvent is a mouse event in display coordinates. Type is press, move
// or release; Button is left, right or middle.
type inputEvent struct {
	Type   string `json:"type" yaml:"type"`
	Button string `json:"button" yaml:"button"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
}

type frameResponse struct {
	State string         `json:"state"`
	Frame annotate.Frame `json:"frame"`
}

func newUIServer(pg *page.Page, m *annotate.Machine) (*uiServer, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, pg.Display); err != nil {
		return nil, fmt.Errorf("failed to encode page: %w", err)
	}
	return &uiServer{
		id:      uuid.NewString(),
		page:    pg,
		machine: m,
		pagePNG: buf.Bytes(),
		fatal:   make(chan error, 1),
	}, nil
}

func (s *uiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/page.png", s.handlePage)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("GET /api/render.png", s.handleRender)
	mux.HandleFunc("GET /api/hocr", s.handleHOCR)
	return mux
}

func (s *uiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *uiServer) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(s.pagePNG)
}

func (s *uiServer) handleSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ss := s.page.DisplaySize(), s.page.SourceSize()
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:      s.id,
		Title:   s.machine.Session().Title,
		Display: size{Width: ds.X, Height: ds.Y},
		Source:  size{Width: ss.X, Height: ss.Y},
		State:   s.machine.State().String(),
		Boxes:   s.machine.Session().Boxes(),
	})
}

func (s *uiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	var ev inputEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respondWithError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// an aborted fetch must not cancel recognition
	if err := applyEvent(context.WithoutCancel(r.Context()), s.machine, ev); err != nil {
		if errors.Is(err, errUnknownEvent) {
			respondWithError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondWithError(w, utils.MaskSensitiveData(err.Error()), http.StatusInternalServerError)
		s.fail(err)
		return
	}

	writeJSON(w, http.StatusOK, frameResponse{
		State: s.machine.State().String(),
		Frame: s.machine.Frame(),
	})
}

func (s *uiServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, frameResponse{
		State: s.machine.State().String(),
		Frame: s.machine.Frame(),
	})
}

func (s *uiServer) handleRender(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	img := overlay.Paint(s.page.Display, s.machine.Frame())
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		respondWithError(w, "Failed to encode overlay: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *uiServer) handleHOCR(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := hocr.FromBoxes(s.machine.Session().Title, s.page.SourceSize(), sourceBoxes(s.machine))
	w.Header().Set("Content-Type", "application/xhtml+xml; charset=utf-8")
	w.Write([]byte(doc))
}

// fail hands err to the serving loop once; later failures are dropped.
func (s *uiServer) fail(err error) {
	select {
	case s.fatal <- err:
	default:
	}
}

var errUnknownEvent = errors.New("unknown event type")

// applyEvent feeds one mouse event to the machine.
func applyEvent(ctx context.Context, m *annotate.Machine, ev inputEvent) error {
	pt := image.Pt(ev.X, ev.Y)
	button := annotate.ParseButton(ev.Button)

	switch ev.Type {
	case "press":
		m.Press(button, pt)
	case "move":
		m.Move(pt)
	case "release":
		return m.Release(ctx, button, pt)
	default:
		return fmt.Errorf("%w: %q", errUnknownEvent, ev.Type)
	}
	return nil
}

// sourceBoxes returns the session's boxes in source pixels, text included.
func sourceBoxes(m *annotate.Machine) []annotate.Box {
	boxes := m.Session().Boxes()
	out := make([]annotate.Box, len(boxes))
	for i, b := range boxes {
		out[i] = m.Transform().ToSource(b)
		out[i].Text = b.Text
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "err", err)
	}
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
