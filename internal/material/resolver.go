package material

import (
	"strings"

	"github.com/Faultbox/matbind/internal/texture"
)

// Resolved pairs a material identifier with its source entry.
type Resolved struct {
	ID    string
	Entry texture.Entry
}

// Rename records a collision resolved by suffixing the extension.
type Rename struct {
	From string
	To   string
	File string
}

// Skip records an entry dropped by the opposite-prefix guard.
type Skip struct {
	ID   string
	File string
}

// Resolution is the output of one resolve pass.
type Resolution struct {
	Strategy Strategy
	Resolved []Resolved
	Renamed  []Rename
	Skipped  []Skip
}

// IDs returns the resolved identifiers in order.
func (r Resolution) IDs() []string {
	ids := make([]string, len(r.Resolved))
	for i, res := range r.Resolved {
		ids[i] = res.ID
	}
	return ids
}

// Resolve maps entries to material identifiers in order.
//
// A candidate that starts with the opposite strategy's prefix is skipped.
// A candidate already seen in this batch gets "_<ext>" appended to the stem;
// the renamed form is not checked again.
func (n Naming) Resolve(entries []texture.Entry, s Strategy) Resolution {
	prefix := n.Prefix(s)
	opposite := n.Prefix(s.Opposite())

	res := Resolution{Strategy: s}
	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		id := prefix + e.Name

		if opposite != "" && strings.HasPrefix(id, opposite) {
			res.Skipped = append(res.Skipped, Skip{ID: id, File: e.FileName()})
			continue
		}

		if seen[id] {
			renamed := prefix + e.Name + "_" + e.ExtensionName()
			res.Renamed = append(res.Renamed, Rename{From: id, To: renamed, File: e.FileName()})
			id = renamed
		}

		seen[id] = true
		res.Resolved = append(res.Resolved, Resolved{ID: id, Entry: e})
	}

	return res
}
