package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/document/compose"
	"github.com/dpp-pk/constructor-backend/internal/document/pdfwriter"
	"github.com/dpp-pk/constructor-backend/internal/document/preview"
	"github.com/dpp-pk/constructor-backend/internal/document/richtext"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/cache"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/platform/objectstore"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

type PageInfo struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Landscape  bool   `json:"landscape"`
	HideNumber bool   `json:"hide_number"`
}

type DocumentService interface {
	PDF(ctx context.Context, programID uuid.UUID) ([]byte, error)
	Pages(ctx context.Context, programID uuid.UUID) ([]PageInfo, error)
	// PreviewPNG renders page n (1-based, as numbered in the composed document).
	PreviewPNG(ctx context.Context, programID uuid.UUID, n int) ([]byte, error)
	// Render builds a PDF of a document that is not stored yet.
	Render(ctx context.Context, doc *program.Document) ([]byte, error)
	ArchiveProgram(ctx context.Context, programID uuid.UUID) (string, error)
}

type documentService struct {
	log       *logger.Logger
	programs  ProgramService
	cache     cache.Store
	store     objectstore.Store
	ttl       time.Duration
	composer  *compose.Composer
	templates []compose.Template
	writer    *pdfwriter.Writer
	preview   *preview.Renderer
}

func NewDocumentService(log *logger.Logger, programs ProgramService, cacheStore cache.Store, store objectstore.Store, ttl time.Duration) (DocumentService, error) {
	serviceLog := log.With("service", "DocumentService")
	pv, err := preview.NewRenderer(serviceLog, preview.DefaultWidth)
	if err != nil {
		return nil, fmt.Errorf("init preview renderer: %w", err)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &documentService{
		log:       serviceLog,
		programs:  programs,
		cache:     cacheStore,
		store:     store,
		ttl:       ttl,
		composer:  compose.NewComposer(serviceLog),
		templates: compose.DefaultTemplates(richtext.NewRenderer(serviceLog)),
		writer:    pdfwriter.NewWriter(serviceLog),
		preview:   pv,
	}, nil
}

func (ds *documentService) compose(doc *program.Document) []compose.Page {
	return ds.composer.Compose(doc, ds.templates)
}

func (ds *documentService) writePDF(pages []compose.Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := ds.writer.Write(&buf, pages); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// cacheKey changes whenever the program row changes, including status-only updates.
func cacheKey(kind string, p *types.Program, suffix string) string {
	return fmt.Sprintf("doc:%s:%s:%d:%d%s", kind, p.ID, p.Version, p.UpdatedAt.UnixNano(), suffix)
}

// cached returns the stored value under key or builds, stores and returns it.
func (ds *documentService) cached(ctx context.Context, key string, build func() ([]byte, error)) ([]byte, error) {
	if ds.cache != nil {
		b, err := ds.cache.Get(ctx, key)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			ds.log.Warn("Render cache read failed", "key", key, "error", err)
		}
	}
	b, err := build()
	if err != nil {
		return nil, err
	}
	if ds.cache != nil {
		if err := ds.cache.Set(ctx, key, b, ds.ttl); err != nil {
			ds.log.Warn("Render cache write failed", "key", key, "error", err)
		}
	}
	return b, nil
}

func (ds *documentService) PDF(ctx context.Context, programID uuid.UUID) ([]byte, error) {
	p, doc, err := ds.programs.Document(ctx, programID)
	if err != nil {
		return nil, err
	}
	return ds.cached(ctx, cacheKey("pdf", p, ""), func() ([]byte, error) {
		return ds.writePDF(ds.compose(doc))
	})
}

func (ds *documentService) Pages(ctx context.Context, programID uuid.UUID) ([]PageInfo, error) {
	_, doc, err := ds.programs.Document(ctx, programID)
	if err != nil {
		return nil, err
	}
	pages := ds.compose(doc)
	out := make([]PageInfo, 0, len(pages))
	for _, pg := range pages {
		out = append(out, PageInfo{
			Number:     pg.Number,
			Name:       pg.Name,
			Title:      pg.Title,
			Landscape:  pg.Landscape,
			HideNumber: pg.HideNumber,
		})
	}
	return out, nil
}

func (ds *documentService) PreviewPNG(ctx context.Context, programID uuid.UUID, n int) ([]byte, error) {
	p, doc, err := ds.programs.Document(ctx, programID)
	if err != nil {
		return nil, err
	}
	return ds.cached(ctx, cacheKey("png", p, fmt.Sprintf(":%d", n)), func() ([]byte, error) {
		pages := ds.compose(doc)
		if n < 1 || n > len(pages) {
			return nil, apierr.NotFound(fmt.Sprintf("page %d", n))
		}
		var buf bytes.Buffer
		if err := ds.preview.PNG(&buf, pages[n-1]); err != nil {
			return nil, fmt.Errorf("render preview: %w", err)
		}
		return buf.Bytes(), nil
	})
}

func (ds *documentService) Render(ctx context.Context, doc *program.Document) ([]byte, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apierr.Invalid("empty_document", "document is required")
	}
	return ds.writePDF(ds.compose(doc))
}

// ArchiveProgram stores the PDF and the first page thumbnail side by side.
func (ds *documentService) ArchiveProgram(ctx context.Context, programID uuid.UUID) (string, error) {
	if ds.store == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	p, doc, err := ds.programs.Document(ctx, programID)
	if err != nil {
		return "", err
	}
	pages := ds.compose(doc)
	base := fmt.Sprintf("programs/%s/v%d", p.ID, p.Version)
	pdfKey := base + ".pdf"

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := ds.writePDF(pages)
		if err != nil {
			return err
		}
		return ds.store.Put(gctx, pdfKey, bytes.NewReader(b))
	})
	if len(pages) > 0 {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := ds.preview.PNG(&buf, pages[0]); err != nil {
				return fmt.Errorf("render thumbnail: %w", err)
			}
			return ds.store.Put(gctx, base+".png", &buf)
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("archive program %s: %w", programID, err)
	}
	ds.log.Info("Program archived", "program_id", programID, "key", pdfKey, "storage", string(ds.store.Mode()))
	return pdfKey, nil
}
