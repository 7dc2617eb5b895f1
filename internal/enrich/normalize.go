// Package enrich resolves a bare domain into a firmographic dossier, using
// the primary enrichment provider with an LLM-backed fallback.
package enrich

import (
	"net/url"
	"strings"
)

// NormalizeDomain reduces raw domain input to a bare lowercase hostname:
// scheme and path stripped, leading "www." removed, surrounding whitespace
// and stray dots or slashes trimmed. Hostnames are case-insensitive, so the
// whole input is folded before stripping. Normalization is idempotent.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))

	if strings.Contains(d, "http") {
		if u, err := url.Parse(d); err == nil && u.Host != "" {
			d = u.Host
		}
	}
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}

	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(strings.TrimSpace(d), "./")
}

// displayNameFromDomain derives a presentable company name from a hostname
// label, used when the fallback cannot determine an official name.
func displayNameFromDomain(domain string) string {
	label := domain
	if i := strings.IndexByte(label, '.'); i >= 0 {
		label = label[:i]
	}
	label = strings.NewReplacer("-", " ", "_", " ").Replace(label)
	return titleCaser.String(label)
}
