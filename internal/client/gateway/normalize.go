package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FieldAlias maps a logical field onto the source names the server has used
// for it, highest priority first.
type FieldAlias struct {
	Field   string
	Sources []string
	// AsString coerces numeric ids to strings.
	AsString bool
}

// DefaultAliases covers the field names seen across API versions. Only
// self-identifying names feed "id"; a parent reference such as templateId
// or surveyId never does.
var DefaultAliases = []FieldAlias{
	{Field: "id", Sources: []string{"id", "appointmentId", "risktemplateid", "riskTemplateId", "_id"}, AsString: true},
	{Field: "name", Sources: []string{"name", "title", "templateName"}},
	{Field: "templateId", Sources: []string{"templateId", "risktemplateid", "riskTemplateId"}, AsString: true},
	{Field: "sectionId", Sources: []string{"sectionId", "section_id"}, AsString: true},
	{Field: "categoryId", Sources: []string{"categoryId", "category_id"}, AsString: true},
}

// ResourceAliases maps the collection segment of a request path onto the
// names its own objects use for their id. They apply only to responses of
// that collection, ahead of the default table.
var ResourceAliases = map[string][]FieldAlias{
	"risk-templates": {{Field: "id", Sources: []string{"id", "templateId"}, AsString: true}},
	"templates":      {{Field: "id", Sources: []string{"id", "templateId"}, AsString: true}},
	"sections":       {{Field: "id", Sources: []string{"id", "sectionId", "section_id"}, AsString: true}},
	"categories":     {{Field: "id", Sources: []string{"id", "categoryId", "category_id"}, AsString: true}},
	"items":          {{Field: "id", Sources: []string{"id", "itemId", "item_id"}, AsString: true}},
	"surveys":        {{Field: "id", Sources: []string{"id", "surveyId"}, AsString: true}},
	"uploads":        {{Field: "id", Sources: []string{"id", "fileId", "file_id"}, AsString: true}},
}

// Normalizer rewrites response bodies so logical fields are always present
// under their canonical name. Source fields are left in place.
type Normalizer struct {
	aliases []FieldAlias
	scoped  map[string][]FieldAlias
}

func NewNormalizer(aliases []FieldAlias) *Normalizer {
	return &Normalizer{aliases: aliases}
}

// WithResources returns a copy of n that also applies per-collection
// aliases, keyed by path segment.
func (n *Normalizer) WithResources(scoped map[string][]FieldAlias) *Normalizer {
	return &Normalizer{aliases: n.aliases, scoped: scoped}
}

// NormalizeFor normalizes the response of path. The collection is the last
// path segment with a scoped table, so /surveys/{id} and /risk-templates/{t}/sections
// resolve to "surveys" and "sections".
func (n *Normalizer) NormalizeFor(path string, raw json.RawMessage) json.RawMessage {
	if n == nil {
		return raw
	}
	scoped := n.resourceAliases(path)
	if len(scoped) == 0 {
		return n.Normalize(raw)
	}
	merged := make([]FieldAlias, 0, len(scoped)+len(n.aliases))
	merged = append(merged, scoped...)
	merged = append(merged, n.aliases...)
	return (&Normalizer{aliases: merged}).Normalize(raw)
}

func (n *Normalizer) resourceAliases(path string) []FieldAlias {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if a, ok := n.scoped[segs[i]]; ok {
			return a
		}
	}
	return nil
}

// Normalize handles a single object, an array of objects, and a
// {"data": ...} wrapper. Anything else is returned unchanged, as is input
// that is not valid JSON.
func (n *Normalizer) Normalize(raw json.RawMessage) json.RawMessage {
	if n == nil || len(n.aliases) == 0 || len(raw) == 0 {
		return raw
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}

	changed := false
	switch t := v.(type) {
	case []any:
		changed = n.normalizeList(t)
	case map[string]any:
		changed = n.normalizeObject(t)
		switch data := t["data"].(type) {
		case []any:
			changed = n.normalizeList(data) || changed
		case map[string]any:
			changed = n.normalizeObject(data) || changed
		}
	}
	if !changed {
		return raw
	}
	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}
	return out
}

func (n *Normalizer) normalizeList(list []any) bool {
	changed := false
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			changed = n.normalizeObject(obj) || changed
		}
	}
	return changed
}

func (n *Normalizer) normalizeObject(obj map[string]any) bool {
	changed := false
	for _, a := range n.aliases {
		for _, src := range a.Sources {
			val, ok := obj[src]
			if !ok || isBlank(val) {
				continue
			}
			coerced := false
			if num, isNum := val.(json.Number); isNum && a.AsString {
				val = num.String()
				coerced = true
			}
			if src == a.Field {
				if coerced {
					obj[a.Field] = val
					changed = true
				}
				break
			}
			if cur, exists := obj[a.Field]; !exists || isBlank(cur) {
				obj[a.Field] = val
				changed = true
			}
			break
		}
	}
	return changed
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}
