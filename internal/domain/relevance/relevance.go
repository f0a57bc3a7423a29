// Package relevance orders search results for a term.
//
// Ordering is expressed as a composite key per group rather than a pairwise
// comparator:
//
//	tier      0 exact name match, 1 name contains the term, 2 anything else
//	event     entries[0].EventNum ascending
//	seed      seed entries before regular ones
//	rank      entries[0].Rank ascending
//
// Names are compared case-folded, using each group's newest entry. Groups with
// equal keys keep their input order.
package relevance

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/gwrank/internal/domain/model"
)

// ErrEmptyGroup signals a group without entries reached the sorter.
var ErrEmptyGroup = errors.New("relevance: group has no entries")

// Tier classifies how a name matches the search term.
type Tier int

// Match tiers, best first.
const (
	TierExact Tier = iota
	TierContains
	TierOther
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierContains:
		return "contains"
	default:
		return "other"
	}
}

// Key is the composite sort key of a group.
type Key struct {
	Tier     Tier
	EventNum int
	Seed     bool
	Rank     int
}

// Compare orders two keys; negative means a sorts before b.
func (a Key) Compare(b Key) int {
	if c := cmp.Compare(a.Tier, b.Tier); c != 0 {
		return c
	}
	if c := cmp.Compare(a.EventNum, b.EventNum); c != 0 {
		return c
	}
	if a.Seed != b.Seed {
		if a.Seed {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.Rank, b.Rank)
}

// Fold normalises a name or term for comparison.
func Fold(s string) string {
	return strings.ToLower(s)
}

// Classify returns the tier of name for an already folded term.
func Classify(name, foldedTerm string) Tier {
	n := Fold(name)
	switch {
	case n == foldedTerm:
		return TierExact
	case strings.Contains(n, foldedTerm):
		return TierContains
	default:
		return TierOther
	}
}

// KeyOf computes the sort key of g for an already folded term.
func KeyOf(g model.Group, foldedTerm string) (Key, error) {
	newest, ok := g.Newest()
	if !ok {
		return Key{}, fmt.Errorf("%w: guild %d", ErrEmptyGroup, g.GuildID)
	}
	return Key{
		Tier:     Classify(newest.Name, foldedTerm),
		EventNum: newest.EventNum,
		Seed:     newest.IsSeed,
		Rank:     newest.Rank,
	}, nil
}

// Rank returns groups ordered by relevance to term. The input slice is left
// untouched. Any empty group aborts with ErrEmptyGroup.
func Rank(groups []model.Group, term string) ([]model.Group, error) {
	folded := Fold(term)

	type keyed struct {
		key   Key
		group model.Group
	}
	items := make([]keyed, len(groups))
	for i, g := range groups {
		k, err := KeyOf(g, folded)
		if err != nil {
			return nil, err
		}
		items[i] = keyed{key: k, group: g}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return a.key.Compare(b.key)
	})

	out := make([]model.Group, len(items))
	for i, it := range items {
		out[i] = it.group
	}
	return out, nil
}
