// Command render turns a program document JSON file into a PDF and optional page previews
// without a running server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dpp-pk/constructor-backend/internal/document/compose"
	"github.com/dpp-pk/constructor-backend/internal/document/pdfwriter"
	"github.com/dpp-pk/constructor-backend/internal/document/preview"
	"github.com/dpp-pk/constructor-backend/internal/document/richtext"
	"github.com/dpp-pk/constructor-backend/internal/platform/envutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

func main() {
	out := flag.String("o", "", "PDF output path (default <input>.pdf)")
	pngDir := flag.String("png", "", "also write one PNG per page into this directory")
	width := flag.Int("width", preview.DefaultWidth, "PNG width in pixels")
	check := flag.Bool("check", false, "report validation problems and exit non-zero if any")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: render [flags] <document.json>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, flag.Arg(0), *out, *pngDir, *width, *check); err != nil {
		log.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger, input, out, pngDir string, width int, check bool) error {
	raw, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	var doc program.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", input, err)
	}
	if problems := program.Validate(&doc); len(problems) > 0 {
		for _, p := range problems {
			log.Warn("document field is invalid", "field", p.Field, "message", p.Message)
		}
		if check {
			return fmt.Errorf("%d invalid fields", len(problems))
		}
	}

	pages := compose.NewComposer(log).Compose(&doc, compose.DefaultTemplates(richtext.NewRenderer(log)))
	var buf bytes.Buffer
	if err := pdfwriter.NewWriter(log).Write(&buf, pages); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	log.Info("PDF written", "path", out, "pages", len(pages))

	if pngDir == "" {
		return nil
	}
	pv, err := preview.NewRenderer(log, width)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(pngDir, 0o755); err != nil {
		return err
	}
	for i, pg := range pages {
		var img bytes.Buffer
		if err := pv.PNG(&img, pg); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		path := filepath.Join(pngDir, fmt.Sprintf("page-%02d-%s.png", i+1, pg.Name))
		if err := os.WriteFile(path, img.Bytes(), 0o644); err != nil {
			return err
		}
	}
	log.Info("previews written", "dir", pngDir, "count", len(pages))
	return nil
}
