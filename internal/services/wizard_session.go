package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/cache"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/program"
	"github.com/dpp-pk/constructor-backend/internal/wizard"
)

const DefaultWizardTTL = 24 * time.Hour

// WizardSession is a wizard state persisted between requests.
type WizardSession struct {
	ID        uuid.UUID     `json:"id"`
	OwnerID   uuid.UUID     `json:"owner_id"`
	ProgramID *uuid.UUID    `json:"program_id,omitempty"`
	Step      wizard.Step   `json:"step"`
	Steps     []wizard.Step `json:"steps"`
	State     wizard.State  `json:"state"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type WizardService interface {
	// Start opens a session, seeded from an editable program when programID is set.
	Start(ctx context.Context, programID *uuid.UUID) (*WizardSession, error)
	Get(ctx context.Context, id uuid.UUID) (*WizardSession, error)
	Update(ctx context.Context, id uuid.UUID, patch wizard.Patch) (*WizardSession, error)
	Next(ctx context.Context, id uuid.UUID) (*WizardSession, error)
	Back(ctx context.Context, id uuid.UUID) (*WizardSession, error)
	Preview(ctx context.Context, id uuid.UUID) ([]byte, error)
	// Finish validates the whole document and saves it as a new or existing program.
	Finish(ctx context.Context, id uuid.UUID) (*WizardSession, *ProgramResult, error)
}

// ProgramResult is the saved program returned by Finish.
type ProgramResult struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Version int       `json:"version"`
}

type wizardService struct {
	log       *logger.Logger
	cache     cache.Store
	programs  ProgramService
	documents DocumentService
	ttl       time.Duration
	now       func() time.Time
}

func NewWizardService(log *logger.Logger, cacheStore cache.Store, programs ProgramService, documents DocumentService, ttl time.Duration) WizardService {
	if ttl <= 0 {
		ttl = DefaultWizardTTL
	}
	return &wizardService{
		log:       log.With("service", "WizardService"),
		cache:     cacheStore,
		programs:  programs,
		documents: documents,
		ttl:       ttl,
		now:       time.Now,
	}
}

func wizardKey(id uuid.UUID) string { return "wizard:" + id.String() }

func (ws *wizardService) save(ctx context.Context, s *WizardSession) error {
	s.UpdatedAt = ws.now()
	s.Step = wizard.Steps[s.State.Step]
	s.Steps = wizard.Steps
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode wizard session: %w", err)
	}
	if err := ws.cache.Set(ctx, wizardKey(s.ID), raw, ws.ttl); err != nil {
		return fmt.Errorf("store wizard session: %w", err)
	}
	return nil
}

func (ws *wizardService) load(ctx context.Context, id uuid.UUID) (*WizardSession, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := ws.cache.Get(ctx, wizardKey(id))
	if errors.Is(err, cache.ErrMiss) {
		return nil, apierr.NotFound("wizard session")
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard session: %w", err)
	}
	var s WizardSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode wizard session: %w", err)
	}
	if s.OwnerID != rd.UserID {
		return nil, apierr.NotFound("wizard session")
	}
	s.State = wizard.Restore(s.State).State()
	return &s, nil
}

func (ws *wizardService) Start(ctx context.Context, programID *uuid.UUID) (*WizardSession, error) {
	rd, err := requireRole(ctx, types.RoleAuthor, types.RoleAdmin)
	if err != nil {
		return nil, err
	}
	var seed program.Document
	if programID != nil {
		ok, err := ws.programs.CanEdit(ctx, *programID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierr.Forbidden("program cannot be edited")
		}
		_, doc, err := ws.programs.Document(ctx, *programID)
		if err != nil {
			return nil, err
		}
		seed = *doc
		seed.Expertises = nil
	}
	s := &WizardSession{
		ID:        uuid.New(),
		OwnerID:   rd.UserID,
		ProgramID: programID,
		State:     wizard.New(seed).State(),
	}
	if err := ws.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (ws *wizardService) Get(ctx context.Context, id uuid.UUID) (*WizardSession, error) {
	return ws.load(ctx, id)
}

// step restores the wizard, applies fn and persists the new state only when fn succeeds.
func (ws *wizardService) step(ctx context.Context, id uuid.UUID, fn func(w *wizard.Wizard) error) (*WizardSession, error) {
	s, err := ws.load(ctx, id)
	if err != nil {
		return nil, err
	}
	w := wizard.Restore(s.State)
	if err := fn(w); err != nil {
		return nil, err
	}
	s.State = w.State()
	if err := ws.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (ws *wizardService) Update(ctx context.Context, id uuid.UUID, patch wizard.Patch) (*WizardSession, error) {
	return ws.step(ctx, id, func(w *wizard.Wizard) error { return w.Update(patch) })
}

func (ws *wizardService) Next(ctx context.Context, id uuid.UUID) (*WizardSession, error) {
	return ws.step(ctx, id, func(w *wizard.Wizard) error {
		err := w.Next()
		if errors.Is(err, wizard.ErrLastStep) {
			return apierr.Conflict("last_step", err.Error())
		}
		return err
	})
}

func (ws *wizardService) Back(ctx context.Context, id uuid.UUID) (*WizardSession, error) {
	return ws.step(ctx, id, func(w *wizard.Wizard) error {
		if !w.Back() {
			return apierr.Conflict("first_step", "wizard is at its first step")
		}
		return nil
	})
}

func (ws *wizardService) Preview(ctx context.Context, id uuid.UUID) ([]byte, error) {
	s, err := ws.load(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := s.State.Document
	return ws.documents.Render(ctx, &doc)
}

func (ws *wizardService) Finish(ctx context.Context, id uuid.UUID) (*WizardSession, *ProgramResult, error) {
	s, err := ws.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	doc, err := wizard.Restore(s.State).Finish()
	if err != nil {
		return s, nil, err
	}
	var saved *ProgramResult
	if s.ProgramID != nil {
		p, err := ws.programs.Update(ctx, *s.ProgramID, &doc)
		if err != nil {
			return s, nil, err
		}
		saved = &ProgramResult{ID: p.ID, Status: p.Status, Version: p.Version}
	} else {
		p, err := ws.programs.Create(ctx, &doc)
		if err != nil {
			return s, nil, err
		}
		saved = &ProgramResult{ID: p.ID, Status: p.Status, Version: p.Version}
	}
	if err := ws.cache.Delete(ctx, wizardKey(id)); err != nil {
		ws.log.Warn("Dropping finished wizard session failed", "session_id", id, "error", err)
	}
	ws.log.Info("Wizard finished", "session_id", id, "program_id", saved.ID)
	return s, saved, nil
}
