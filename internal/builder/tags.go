package builder

import (
	"regexp"
	"strings"
)

// TagPattern matches a comma-joined tag list containing any of tags as a
// whole token. It returns nil for an empty set.
func TagPattern(tags []string) *regexp.Regexp {
	alts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		alts = append(alts, "(^|,)"+regexp.QuoteMeta(t)+"(,|$)")
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}
