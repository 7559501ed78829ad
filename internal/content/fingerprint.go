package content

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Fields excluded from the fingerprint because they change without the
// content changing.
var fingerprintExcluded = map[string]struct{}{
	mdfp.FingerprintField: {},
	"lastmod":             {},
	"aliases":             {},
}

// Fingerprint hashes the canonical front matter together with the body.
// YAML and TOML sources with equal values hash identically.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, skip := fingerprintExcluded[k]; skip {
			continue
		}
		hashed[k] = v
	}

	serialized, err := frontmatter.Canonical(hashed)
	if err != nil {
		return "", err
	}
	fm := strings.TrimSuffix(string(serialized), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}
