package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"acme.com", "acme.com"},
		{"www.acme.com", "acme.com"},
		{"https://www.acme.com/about", "acme.com"},
		{"http://acme.com", "acme.com"},
		{"acme.com/contact/us", "acme.com"},
		{"  acme.com  ", "acme.com"},
		{"acme.com.", "acme.com"},
		{"acme.com/", "acme.com"},
		{"https://acme.co.uk/path?x=1", "acme.co.uk"},
		{"HTTPS://WWW.Example.com/.", "example.com"},
		{"Example.com", "example.com"},
		{"WWW.ACME.COM", "acme.com"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeDomain(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeDomainIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://www.acme.com/about",
		"www.acme.com.",
		"acme-energy.io/",
		"sub.acme.com",
		"HTTPS://WWW.Example.com/.",
	}
	for _, in := range inputs {
		once := NormalizeDomain(in)
		assert.Equal(t, once, NormalizeDomain(once), "input %q", in)
	}
}

func TestDisplayNameFromDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Acme", displayNameFromDomain("acme.com"))
	assert.Equal(t, "Acme Energy", displayNameFromDomain("acme-energy.io"))
	assert.Equal(t, "Blue Sky", displayNameFromDomain("blue_sky.example"))
}
