package loadtool

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/gwrank/internal/domain/model"
	"github.com/okian/gwrank/internal/domain/relevance"
)

// Verification failures.
var (
	ErrNotCurrent     = errors.New("guild is not a current participant")
	ErrMissingGuild   = errors.New("matching guild missing from result")
	ErrHistoryOrder   = errors.New("history not newest first")
	ErrNoMatchingName = errors.New("no name in history matches the term")
	ErrResultOrder    = errors.New("result not in relevance order")
	ErrBoardMismatch  = errors.New("event board does not match upload")
)

// verifySearch checks one search response. current holds the ids of the latest
// event and expected the ids that must appear.
func verifySearch(term string, resp searchResponse, current, expected map[int64]bool) error {
	folded := relevance.Fold(term)
	groups := make([]model.Group, 0, len(resp.Result))
	seen := make(map[int64]bool, len(resp.Result))

	for _, g := range resp.Result {
		if !current[g.ID] {
			return fmt.Errorf("%q: guild %d: %w", term, g.ID, ErrNotCurrent)
		}
		seen[g.ID] = true

		matched := false
		entries := make([]model.Entry, 0, len(g.Data))
		for i, e := range g.Data {
			if i > 0 && e.GWNum >= g.Data[i-1].GWNum {
				return fmt.Errorf("%q: guild %d: %w", term, g.ID, ErrHistoryOrder)
			}
			if strings.Contains(relevance.Fold(e.Name), folded) {
				matched = true
			}
			entries = append(entries, model.Entry{
				EventNum: e.GWNum, GuildID: g.ID, Name: e.Name,
				Rank: e.Rank, Points: e.Points, IsSeed: e.IsSeed,
			})
		}
		if !matched {
			return fmt.Errorf("%q: guild %d: %w", term, g.ID, ErrNoMatchingName)
		}
		groups = append(groups, model.Group{GuildID: g.ID, Entries: entries})
	}

	for id := range expected {
		if !seen[id] {
			return fmt.Errorf("%q: guild %d: %w", term, id, ErrMissingGuild)
		}
	}

	ranked, err := relevance.Rank(groups, term)
	if err != nil {
		return fmt.Errorf("%q: %w", term, err)
	}
	if !slices.EqualFunc(ranked, groups, func(a, b model.Group) bool { return a.GuildID == b.GuildID }) {
		return fmt.Errorf("%q: %w", term, ErrResultOrder)
	}
	return nil
}

// verifyBoard checks the leaderboard of the last uploaded event.
func verifyBoard(resp fullResponse, uploaded []model.Entry) error {
	var seeds, regulars int
	for _, e := range uploaded {
		if e.IsSeed {
			seeds++
		} else {
			regulars++
		}
	}
	if len(resp.Data.Seed) != seeds || len(resp.Data.Regular) != regulars {
		return fmt.Errorf("event %d: got %d seed and %d regular, uploaded %d and %d: %w",
			resp.Num, len(resp.Data.Seed), len(resp.Data.Regular), seeds, regulars, ErrBoardMismatch)
	}
	for _, bucket := range [][]boardEntryJSON{resp.Data.Seed, resp.Data.Regular} {
		if !slices.IsSortedFunc(bucket, func(a, b boardEntryJSON) int { return a.Rank - b.Rank }) {
			return fmt.Errorf("event %d: ranks out of order: %w", resp.Num, ErrBoardMismatch)
		}
	}
	return nil
}
