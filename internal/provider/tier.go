package provider

import (
	"net/url"
	"strings"
	"time"

	"github.com/sells-group/rfp-intel/internal/model"
)

// Source trust tiers. Tier 1 is most authoritative.
const (
	TierOfficial = 1
	TierNews     = 2
	TierGeneric  = 3
	TierWeak     = 4
)

// officialSuffixes mark government and registry hosts.
var officialSuffixes = []string{
	".gov", ".gov.sa", ".gov.ae", ".gov.eg", ".gov.qa", ".gov.kw",
	".gov.bh", ".gov.om", ".gov.jo", ".mil", ".edu",
}

// newsHosts are recognized business-news publishers.
var newsHosts = map[string]bool{
	"reuters.com":      true,
	"bloomberg.com":    true,
	"ft.com":           true,
	"wsj.com":          true,
	"cnbc.com":         true,
	"bbc.com":          true,
	"arabnews.com":     true,
	"argaam.com":       true,
	"zawya.com":        true,
	"meed.com":         true,
	"aleqt.com":        true,
	"asharqbusiness.com": true,
}

// weakHosts are user-generated or low-signal sources.
var weakHosts = map[string]bool{
	"reddit.com":   true,
	"medium.com":   true,
	"quora.com":    true,
	"facebook.com": true,
	"x.com":        true,
	"twitter.com":  true,
}

// ClassifySource assigns a trust tier and category to a source URL.
// ownDomains are the client's guessed official domains; a hit there is
// tier 1 "official".
func ClassifySource(sourceURL string, ownDomains []string) (tier int, category string) {
	host := hostOf(sourceURL)
	if host == "" {
		return TierWeak, model.CategoryGeneric
	}

	for _, d := range ownDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return TierOfficial, model.CategoryOfficial
		}
	}
	for _, suffix := range officialSuffixes {
		if strings.HasSuffix(host, suffix) {
			return TierOfficial, model.CategoryOfficial
		}
	}
	if newsHosts[host] || newsHosts[stripWWW(host)] {
		return TierNews, model.CategoryNews
	}
	if weakHosts[host] || weakHosts[stripWWW(host)] {
		return TierWeak, model.CategoryGeneric
	}
	return TierGeneric, model.CategoryGeneric
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return stripWWW(strings.ToLower(u.Host))
}

func stripWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}

// parseSourceDate parses the date formats the search APIs emit. Returns nil
// when absent or unparseable, which downstream treats as "stale unknown".
func parseSourceDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// truncate shortens s to max runes for claim values and warnings.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
