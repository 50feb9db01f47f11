package wizard

import "strings"

type Step string

const (
	StepGeneral       Step = "general"
	StepAbbreviations Step = "abbreviations"
	StepExplanatory   Step = "explanatory"
	StepSyllabus      Step = "syllabus"
	StepTopics        Step = "topics"
	StepOrganization  Step = "organization"
	StepEvaluation    Step = "evaluation"
	StepPreview       Step = "preview"
)

// Steps in wizard order.
var Steps = []Step{
	StepGeneral,
	StepAbbreviations,
	StepExplanatory,
	StepSyllabus,
	StepTopics,
	StepOrganization,
	StepEvaluation,
	StepPreview,
}

type stepDef struct {
	// keys are the top-level document JSON keys the step may change
	keys []string
	// fields are validated by Next, named as struct fields down to the leaves
	fields []string
}

var defs = map[Step]stepDef{
	StepGeneral: {
		keys:   []string{"title", "institution", "custom_institution", "program_type", "category", "city", "year", "author", "co_authors", "approval"},
		fields: []string{"Title", "Institution", "ProgramType", "Year", "CoAuthors"},
	},
	StepAbbreviations: {
		keys:   []string{"abbreviations"},
		fields: []string{"Abbreviations"},
	},
	StepExplanatory: {
		keys:   []string{"explanatory"},
		fields: []string{"Explanatory.Relevance", "Explanatory.Goal", "Explanatory.AudienceCategory", "Explanatory.StudyHours"},
	},
	StepSyllabus: {
		keys:   []string{"modules", "attestations"},
		fields: []string{"Modules", "Attestations"},
	},
	StepTopics: {
		keys:   []string{"topics"},
		fields: []string{"Topics"},
	},
	StepOrganization: {
		keys:   []string{"organization"},
		fields: []string{"Organization.Staffing", "Organization.NetworkPartner"},
	},
	StepEvaluation: {
		keys:   []string{"evaluation"},
		fields: []string{"Evaluation.Requirements"},
	},
	StepPreview: {},
}

func (s Step) Valid() bool {
	_, ok := defs[s]
	return ok
}

// Index returns the position of s in Steps, or -1.
func (s Step) Index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Keys lists the document keys owned by s.
func (s Step) Keys() []string {
	return append([]string(nil), defs[s].keys...)
}

func (s Step) owns(key string) bool {
	for _, k := range defs[s].keys {
		if k == key {
			return true
		}
	}
	return false
}

// StepForField returns the step owning a JSON field path such as "modules[0].name".
func StepForField(path string) Step {
	key := path
	if i := strings.IndexAny(key, ".["); i >= 0 {
		key = key[:i]
	}
	for _, s := range Steps {
		if s.owns(key) {
			return s
		}
	}
	return StepPreview
}
