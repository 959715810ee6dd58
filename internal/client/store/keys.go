package store

import "strings"

// Cache key prefixes. A key is a prefix followed by its scoping ids joined
// with "_", e.g. Key(PrefixCategories, templateID, sectionID).
const (
	KeyTemplates       = "risk_templates"
	PrefixTemplate     = "risk_templates_"
	PrefixSections     = "template_sections_"
	PrefixCategories   = "section_categories_"
	PrefixItems        = "category_items_"
	KeyAppointments    = "appointments"
	PrefixAppointments = "appointments_"
	KeySurveys         = "surveys"
	PrefixSurvey       = "surveys_"
)

// TemplatePrefixes is the set removed by a full template cache reset.
var TemplatePrefixes = []string{KeyTemplates, PrefixSections, PrefixCategories, PrefixItems}

// Key composes a cache key from a prefix and scoping ids.
func Key(prefix string, ids ...string) string {
	return prefix + strings.Join(ids, "_")
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
