package program

type Totals struct {
	Modules      Hours
	Attestations Hours
	Topics       Hours
	BySection    map[Section]Hours
	ContactDays  int
}

// All is module plus attestation hours.
func (t Totals) All() Hours { return t.Modules.Add(t.Attestations) }

func ComputeTotals(doc *Document) Totals {
	t := Totals{BySection: make(map[Section]Hours, len(Sections))}
	if doc == nil {
		return t
	}
	for _, m := range doc.Modules {
		t.Modules = t.Modules.Add(m.Hours)
		t.BySection[m.Section] = t.BySection[m.Section].Add(m.Hours)
		t.ContactDays += m.ContactDays
	}
	for _, a := range doc.Attestations {
		t.Attestations = t.Attestations.Add(a.Hours)
	}
	for _, tp := range doc.Topics {
		t.Topics = t.Topics.Add(tp.Hours)
	}
	return t
}

// ModulesBySection groups modules keeping their original order inside each section.
func ModulesBySection(doc *Document) map[Section][]Module {
	out := make(map[Section][]Module, len(Sections))
	if doc == nil {
		return out
	}
	for _, m := range doc.Modules {
		out[m.Section] = append(out[m.Section], m)
	}
	return out
}

// AttestationsFor returns attestations linked to moduleCode; an empty code selects the final ones.
func AttestationsFor(doc *Document, moduleCode string) []Attestation {
	var out []Attestation
	if doc == nil {
		return out
	}
	for _, a := range doc.Attestations {
		if a.ModuleCode == moduleCode {
			out = append(out, a)
		}
	}
	return out
}
