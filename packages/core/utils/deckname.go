package utils

import (
	"sort"
	"strings"

	"github.com/gosimple/slug"
)

const colorOrder = "wubrg"

// CanonicalAlias normalizes free-text deck names so that "Thrasios / Tymna",
// "thrasios-tymna" and "ThrasiosTymna" all compare equal.
func CanonicalAlias(alias string) string {
	return strings.ReplaceAll(slug.Make(alias), "-", "")
}

func CanonicalAliases(aliases []string) []string {
	seen := make(map[string]struct{}, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		c := CanonicalAlias(a)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ColorSignature lowercases a color identity, drops anything that is not a
// mana color and sorts the rest in WUBRG order. "GWu" becomes "wug".
func ColorSignature(colors string) string {
	var picked []byte
	seen := map[byte]bool{}
	for _, r := range strings.ToLower(colors) {
		if r > 127 {
			continue
		}
		c := byte(r)
		if strings.IndexByte(colorOrder, c) < 0 || seen[c] {
			continue
		}
		seen[c] = true
		picked = append(picked, c)
	}
	sort.Slice(picked, func(i, j int) bool {
		return strings.IndexByte(colorOrder, picked[i]) < strings.IndexByte(colorOrder, picked[j])
	})
	return string(picked)
}

// ShortestAlias picks the shortest alias, the first one on ties. A deck
// without aliases goes by its name.
func ShortestAlias(name string, aliases []string) string {
	short := ""
	for _, a := range aliases {
		if a != "" && (short == "" || len(a) < len(short)) {
			short = a
		}
	}
	if short == "" {
		return name
	}
	return short
}
