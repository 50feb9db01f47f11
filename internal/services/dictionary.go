package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/platform/validate"
)

type DictionaryInput struct {
	Type        string `json:"type" yaml:"type" validate:"required"`
	Value       string `json:"value" yaml:"value" validate:"required,max=500"`
	Code        string `json:"code" yaml:"code,omitempty"`
	Description string `json:"description" yaml:"description,omitempty"`
	SortOrder   int    `json:"sort_order" yaml:"sort_order,omitempty"`
	IsActive    *bool  `json:"is_active" yaml:"is_active,omitempty"`
}

// ExportFormat selects the dictionary dump encoding.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", apierr.Invalid("invalid_format", fmt.Sprintf("unsupported format %q", s))
}

type dictionaryDump struct {
	Entries []DictionaryInput `json:"entries" yaml:"entries"`
}

type DictionaryService interface {
	// List returns entries grouped by type. Inactive entries are only visible to administrators.
	List(ctx context.Context) (map[string][]*types.DictionaryEntry, error)
	ListByType(ctx context.Context, entryType string) ([]*types.DictionaryEntry, error)
	Search(ctx context.Context, query string, limit int) ([]*types.DictionaryEntry, error)
	Create(ctx context.Context, in DictionaryInput) (*types.DictionaryEntry, error)
	Update(ctx context.Context, id uuid.UUID, in DictionaryInput) (*types.DictionaryEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Export(ctx context.Context, format ExportFormat) ([]byte, error)
	// Import upserts every entry of the dump by (type, value) and returns how many were applied.
	Import(ctx context.Context, format ExportFormat, data []byte) (int, error)
}

type dictionaryService struct {
	db        *gorm.DB
	log       *logger.Logger
	entryRepo repos.DictionaryEntryRepo
}

func NewDictionaryService(db *gorm.DB, log *logger.Logger, entryRepo repos.DictionaryEntryRepo) DictionaryService {
	return &dictionaryService{
		db:        db,
		log:       log.With("service", "DictionaryService"),
		entryRepo: entryRepo,
	}
}

func (ds *dictionaryService) activeOnly(ctx context.Context) (bool, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return false, err
	}
	return !isAdmin(rd), nil
}

func (ds *dictionaryService) List(ctx context.Context) (map[string][]*types.DictionaryEntry, error) {
	active, err := ds.activeOnly(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := ds.entryRepo.List(dbctx.New(ctx), active)
	if err != nil {
		return nil, fmt.Errorf("list dictionary: %w", err)
	}
	out := make(map[string][]*types.DictionaryEntry, len(types.DictionaryTypes()))
	for _, t := range types.DictionaryTypes() {
		out[t] = []*types.DictionaryEntry{}
	}
	for _, e := range entries {
		out[e.Type] = append(out[e.Type], e)
	}
	return out, nil
}

func (ds *dictionaryService) ListByType(ctx context.Context, entryType string) ([]*types.DictionaryEntry, error) {
	if !types.IsValidDictionaryType(entryType) {
		return nil, apierr.Invalid("invalid_type", fmt.Sprintf("unknown dictionary type %q", entryType))
	}
	active, err := ds.activeOnly(ctx)
	if err != nil {
		return nil, err
	}
	return ds.entryRepo.ListByType(dbctx.New(ctx), entryType, active)
}

func (ds *dictionaryService) Search(ctx context.Context, query string, limit int) ([]*types.DictionaryEntry, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []*types.DictionaryEntry{}, nil
	}
	return ds.entryRepo.Search(dbctx.New(ctx), query, limit)
}

func checkDictionaryInput(in *DictionaryInput) error {
	in.Type = strings.TrimSpace(in.Type)
	in.Value = strings.TrimSpace(in.Value)
	in.Code = strings.TrimSpace(in.Code)
	if err := validate.Check(*in); err != nil {
		return err
	}
	if !types.IsValidDictionaryType(in.Type) {
		return apierr.Validation([]apierr.FieldError{{Field: "type", Message: "неизвестный тип справочника"}})
	}
	return nil
}

func (in DictionaryInput) entry() *types.DictionaryEntry {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &types.DictionaryEntry{
		Type:        in.Type,
		Value:       in.Value,
		Code:        in.Code,
		Description: strings.TrimSpace(in.Description),
		SortOrder:   in.SortOrder,
		IsActive:    active,
	}
}

func (ds *dictionaryService) Create(ctx context.Context, in DictionaryInput) (*types.DictionaryEntry, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	if err := checkDictionaryInput(&in); err != nil {
		return nil, err
	}
	e := in.entry()
	if _, err := ds.entryRepo.Create(dbctx.New(ctx), []*types.DictionaryEntry{e}); err != nil {
		if isUniqueViolation(err) {
			return nil, apierr.Conflict("duplicate_entry", "entry with this value already exists")
		}
		return nil, fmt.Errorf("create dictionary entry: %w", err)
	}
	return e, nil
}

func (ds *dictionaryService) Update(ctx context.Context, id uuid.UUID, in DictionaryInput) (*types.DictionaryEntry, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	if err := checkDictionaryInput(&in); err != nil {
		return nil, err
	}
	var out *types.DictionaryEntry
	err := inTx(ds.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		e, err := ds.entryRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load dictionary entry: %w", err)
		}
		if e == nil {
			return apierr.NotFound("dictionary entry")
		}
		next := in.entry()
		e.Type, e.Value, e.Code, e.Description, e.SortOrder = next.Type, next.Value, next.Code, next.Description, next.SortOrder
		if in.IsActive != nil {
			e.IsActive = *in.IsActive
		}
		if err := ds.entryRepo.Save(dbc, e); err != nil {
			if isUniqueViolation(err) {
				return apierr.Conflict("duplicate_entry", "entry with this value already exists")
			}
			return fmt.Errorf("save dictionary entry: %w", err)
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ds *dictionaryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return err
	}
	dbc := dbctx.New(ctx)
	e, err := ds.entryRepo.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load dictionary entry: %w", err)
	}
	if e == nil {
		return apierr.NotFound("dictionary entry")
	}
	return ds.entryRepo.DeleteByID(dbc, id)
}

func (ds *dictionaryService) Export(ctx context.Context, format ExportFormat) ([]byte, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	entries, err := ds.entryRepo.List(dbctx.New(ctx), false)
	if err != nil {
		return nil, fmt.Errorf("list dictionary: %w", err)
	}
	dump := dictionaryDump{Entries: make([]DictionaryInput, 0, len(entries))}
	for _, e := range entries {
		active := e.IsActive
		dump.Entries = append(dump.Entries, DictionaryInput{
			Type:        e.Type,
			Value:       e.Value,
			Code:        e.Code,
			Description: e.Description,
			SortOrder:   e.SortOrder,
			IsActive:    &active,
		})
	}
	if format == FormatYAML {
		return yaml.Marshal(dump)
	}
	return json.MarshalIndent(dump, "", "  ")
}

func (ds *dictionaryService) Import(ctx context.Context, format ExportFormat, data []byte) (int, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return 0, err
	}
	var dump dictionaryDump
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &dump)
	} else {
		err = json.Unmarshal(data, &dump)
	}
	if err != nil {
		return 0, apierr.Invalid("invalid_dump", fmt.Sprintf("decode dictionary dump: %v", err))
	}
	if len(dump.Entries) == 0 {
		return 0, apierr.Invalid("empty_dump", "dictionary dump has no entries")
	}

	byKey := make(map[string]*types.DictionaryEntry, len(dump.Entries))
	for i := range dump.Entries {
		in := dump.Entries[i]
		if err := checkDictionaryInput(&in); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i+1, err)
		}
		// Later duplicates win so the upsert batch never repeats a conflict key.
		byKey[in.Type+"\x00"+in.Value] = in.entry()
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := make([]*types.DictionaryEntry, 0, len(keys))
	for _, k := range keys {
		batch = append(batch, byKey[k])
	}

	if err := inTx(ds.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		return ds.entryRepo.Upsert(dbc, batch)
	}); err != nil {
		return 0, fmt.Errorf("import dictionary: %w", err)
	}
	ds.log.Info("Dictionary imported", "entries", len(batch), "format", string(format))
	return len(batch), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
