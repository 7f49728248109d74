package provider

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// countrySuffixes maps ISO-ish country names/codes to their common ccTLD
// patterns, tried after .com when guessing an official site.
var countrySuffixes = map[string][]string{
	"sa":           {"com.sa", "sa"},
	"saudi arabia": {"com.sa", "sa"},
	"ae":           {"ae"},
	"uae":          {"ae"},
	"eg":           {"com.eg"},
	"egypt":        {"com.eg"},
	"qa":           {"com.qa"},
	"qatar":        {"com.qa"},
	"kw":           {"com.kw"},
	"kuwait":       {"com.kw"},
	"bh":           {"com.bh"},
	"bahrain":      {"com.bh"},
	"om":           {"com.om"},
	"oman":         {"com.om"},
	"jo":           {"com.jo"},
	"jordan":       {"com.jo"},
}

// GuessDomains produces best-guess official domains for a company name:
// lower-cased, diacritics stripped, alphanumeric-only, against .com plus the
// country's ccTLD patterns. Pure string work, no network.
func GuessDomains(clientName, country string) []string {
	slug := domainSlug(clientName)
	if slug == "" {
		return nil
	}

	domains := []string{slug + ".com"}
	for _, suffix := range countrySuffixes[strings.ToLower(strings.TrimSpace(country))] {
		domains = append(domains, slug+"."+suffix)
	}
	return domains
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func domainSlug(name string) string {
	normalized, _, err := transform.String(stripMarks, name)
	if err != nil {
		normalized = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(normalized) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
