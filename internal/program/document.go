package program

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Section string

const (
	SectionNormative         Section = "normative"
	SectionSubjectMethodical Section = "subject_methodical"
	SectionVariative         Section = "variative"
)

// Sections in syllabus order.
var Sections = []Section{SectionNormative, SectionSubjectMethodical, SectionVariative}

func (s Section) Title() string {
	switch s {
	case SectionNormative:
		return "Нормативный раздел"
	case SectionSubjectMethodical:
		return "Предметно-методический раздел"
	case SectionVariative:
		return "Вариативный раздел"
	default:
		return string(s)
	}
}

// Document is the program aggregate assembled by the wizard and read by the page templates.
type Document struct {
	Title             string        `json:"title" validate:"required"`
	Institution       string        `json:"institution,omitempty" validate:"required_without=CustomInstitution"`
	CustomInstitution string        `json:"custom_institution,omitempty"`
	ProgramType       string        `json:"program_type,omitempty" validate:"required"`
	Category          string        `json:"category,omitempty"`
	City              string        `json:"city,omitempty"`
	Year              int           `json:"year,omitempty" validate:"omitempty,min=2000,max=2100"`
	Author            string        `json:"author,omitempty"`
	CoAuthors         []CoAuthorRef `json:"co_authors,omitempty" validate:"dive"`
	Approval          *Approval     `json:"approval,omitempty"`

	Abbreviations []Abbreviation `json:"abbreviations,omitempty" validate:"dive"`
	Explanatory   Explanatory    `json:"explanatory"`
	Modules       []Module       `json:"modules,omitempty" validate:"required,min=1,dive"`
	Attestations  []Attestation  `json:"attestations,omitempty" validate:"dive"`
	Topics        []Topic        `json:"topics,omitempty" validate:"dive"`
	Organization  Organization   `json:"organization"`
	Evaluation    Evaluation     `json:"evaluation"`

	// Expertises are linked review records; read-only for authors.
	Expertises []ExpertiseRef `json:"expertises,omitempty"`
}

// CoAuthorRef references a registered user or carries a free-text name.
type CoAuthorRef struct {
	UserID string `json:"user_id,omitempty" validate:"omitempty,uuid"`
	Name   string `json:"name,omitempty" validate:"required_without=UserID"`
}

type Approval struct {
	Position string `json:"position,omitempty"`
	Name     string `json:"name,omitempty"`
	Date     string `json:"date,omitempty"`
}

type Abbreviation struct {
	Abbreviation string `json:"abbreviation" validate:"required"`
	Fullname     string `json:"fullname" validate:"required"`
}

type Explanatory struct {
	Relevance        string   `json:"relevance,omitempty" validate:"required"`
	Goal             string   `json:"goal,omitempty" validate:"required"`
	StandardType     string   `json:"standard_type,omitempty"`
	LaborFunctions   string   `json:"labor_functions,omitempty"`
	LaborActions     string   `json:"labor_actions,omitempty"`
	Duties           string   `json:"duties,omitempty"`
	Knowledge        []string `json:"knowledge,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	AudienceCategory string   `json:"audience_category,omitempty" validate:"required"`
	StudyHours       int      `json:"study_hours,omitempty" validate:"min=0"`
	StudyForm        string   `json:"study_form,omitempty"`
}

type Hours struct {
	Lecture  int `json:"lecture_hours" validate:"min=0"`
	Practice int `json:"practice_hours" validate:"min=0"`
	Distance int `json:"distance_hours" validate:"min=0"`
}

func (h Hours) Total() int { return h.Lecture + h.Practice + h.Distance }

func (h Hours) Add(o Hours) Hours {
	return Hours{Lecture: h.Lecture + o.Lecture, Practice: h.Practice + o.Practice, Distance: h.Distance + o.Distance}
}

type Module struct {
	Section     Section `json:"section" validate:"required,oneof=normative subject_methodical variative"`
	Code        string  `json:"code,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Hours
	ContactDays int `json:"contact_days,omitempty" validate:"min=0"`
}

type Attestation struct {
	Name       string `json:"name" validate:"required"`
	Hours
	Form       string `json:"form" validate:"required"`
	ModuleCode string `json:"module_code,omitempty"`
}

type Topic struct {
	Name  string `json:"name" validate:"required"`
	Hours
}

type Organization struct {
	Staffing          string     `json:"staffing,omitempty" validate:"required"`
	Methodical        string     `json:"methodical,omitempty"`
	Material          string     `json:"material,omitempty"`
	Distance          string     `json:"distance,omitempty"`
	Equipment         []string   `json:"equipment,omitempty"`
	Software          []string   `json:"software,omitempty"`
	HasNetworkPartner bool       `json:"has_network_partner,omitempty"`
	NetworkPartner    string     `json:"network_partner,omitempty" validate:"required_if=HasNetworkPartner true"`
	Literature        Literature `json:"literature"`
}

type Literature struct {
	Required   []string `json:"required,omitempty"`
	Additional []string `json:"additional,omitempty"`
	Internet   []string `json:"internet,omitempty"`
}

func (l Literature) Empty() bool {
	return len(l.Required) == 0 && len(l.Additional) == 0 && len(l.Internet) == 0
}

type Evaluation struct {
	Requirements string `json:"requirements,omitempty" validate:"required"`
	Criteria     string `json:"criteria,omitempty"`
	Examples     string `json:"examples,omitempty"`
	Attempts     string `json:"attempts,omitempty"`
}

type ExpertiseRef struct {
	ExpertName  string     `json:"expert_name,omitempty"`
	Status      string     `json:"status,omitempty"`
	Approved    bool       `json:"approved,omitempty"`
	Conclusion  string     `json:"conclusion,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// InstitutionName prefers the free-text name when it was entered.
func (d *Document) InstitutionName() string {
	if d.CustomInstitution != "" {
		return d.CustomInstitution
	}
	return d.Institution
}

// Decode parses a stored or submitted document, rejecting unknown keys.
func Decode(raw []byte) (*Document, error) {
	var doc Document
	if len(bytes.TrimSpace(raw)) == 0 {
		return &doc, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode program document: %w", err)
	}
	return &doc, nil
}

func Encode(doc *Document) ([]byte, error) {
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}
