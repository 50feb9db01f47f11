package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

// Patch maps top-level document keys to their new JSON values. A null value clears the key.
type Patch map[string]json.RawMessage

// Keys returns the patch keys sorted.
func (p Patch) Keys() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Merge replaces every key present in patch and keeps the rest of doc. The result is decoded
// strictly, so unknown keys and values of the wrong shape fail here.
func Merge(doc program.Document, patch Patch) (program.Document, error) {
	if len(patch) == 0 {
		return doc, nil
	}
	raw, err := program.Encode(&doc)
	if err != nil {
		return doc, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return doc, fmt.Errorf("split document: %w", err)
	}
	for _, k := range patch.Keys() {
		v := bytes.TrimSpace(patch[k])
		if len(v) == 0 || bytes.Equal(v, []byte("null")) {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return doc, fmt.Errorf("join document: %w", err)
	}
	out, err := program.Decode(merged)
	if err != nil {
		return doc, apierr.Invalid("invalid_patch", err.Error())
	}
	return *out, nil
}
