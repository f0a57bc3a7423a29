package loadtool

import (
	"math/rand/v2"
	"strings"

	"github.com/okian/gwrank/internal/domain/model"
)

var syllables = []string{
	"ka", "ri", "zo", "mel", "tor", "an", "vi", "sha", "do", "rum",
	"el", "fa", "gran", "blu", "sky", "ne", "ra", "lo", "qu", "ix",
}

var suffixes = []string{"", "", "", " Order", " Knights", " Crew", " Guild", " 100%", " _alt"}

type guild struct {
	id   int64
	name string
}

// Population is a deterministic synthetic set of guilds taking part in a
// sequence of events. It remembers every name each guild has used.
type Population struct {
	rng     *rand.Rand
	guilds  []guild
	names   map[int64]map[string]struct{}
	current []model.Entry
}

// NewPopulation creates size guilds with ids 1..size.
func NewPopulation(size int, seed uint64) *Population {
	p := &Population{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		guilds: make([]guild, size),
		names:  make(map[int64]map[string]struct{}, size),
	}
	for i := range p.guilds {
		p.guilds[i] = guild{id: int64(i + 1), name: p.randomName()}
	}
	return p
}

func (p *Population) randomName() string {
	var b strings.Builder
	for range 2 + p.rng.IntN(2) {
		b.WriteString(syllables[p.rng.IntN(len(syllables))])
	}
	name := b.String()
	return strings.ToUpper(name[:1]) + name[1:] + suffixes[p.rng.IntN(len(suffixes))]
}

// NextEvent returns the rows of a new event. EventNum is left zero.
// Seed entries come first, each class ranked from 1.
func (p *Population) NextEvent() []model.Entry {
	for i := range p.guilds {
		if p.rng.Float64() < renameRate {
			p.guilds[i].name = p.randomName()
		}
	}

	order := p.rng.Perm(len(p.guilds))
	n := max(1, int(float64(len(order))*participationRate))
	seeds := int(float64(n) * seedRate)

	entries := make([]model.Entry, 0, n)
	for i, idx := range order[:n] {
		g := p.guilds[idx]
		e := model.Entry{GuildID: g.id, Name: g.name, IsSeed: i < seeds}
		if e.IsSeed {
			e.Rank = i + 1
		} else {
			e.Rank = i - seeds + 1
		}
		if p.rng.Float64() >= missingPointsRate {
			pts := int64(basePoints - e.Rank*1000 - p.rng.IntN(1000))
			if e.IsSeed {
				pts *= 2
			}
			e.Points = model.Int64Ptr(pts)
		}
		entries = append(entries, e)

		if p.names[g.id] == nil {
			p.names[g.id] = make(map[string]struct{})
		}
		p.names[g.id][g.name] = struct{}{}
	}

	p.current = entries
	return entries
}

// Current returns the ids of the guilds in the latest generated event.
func (p *Population) Current() map[int64]bool {
	out := make(map[int64]bool, len(p.current))
	for _, e := range p.current {
		out[e.GuildID] = true
	}
	return out
}

// Latest returns the rows of the latest generated event.
func (p *Population) Latest() []model.Entry {
	return p.current
}

// Matching returns the current guilds that used a name containing term,
// compared case-insensitively.
func (p *Population) Matching(term string) map[int64]bool {
	folded := strings.ToLower(term)
	out := make(map[int64]bool)
	for id := range p.Current() {
		for name := range p.names[id] {
			if strings.Contains(strings.ToLower(name), folded) {
				out[id] = true
				break
			}
		}
	}
	return out
}

// Terms returns n search terms drawn from current names: whole names, and
// substrings in random case.
func (p *Population) Terms(n int) []string {
	if len(p.current) == 0 {
		return nil
	}
	terms := make([]string, 0, n)
	for range n {
		name := p.current[p.rng.IntN(len(p.current))].Name
		if p.rng.IntN(3) == 0 || len(name) <= searchTermMinLen {
			terms = append(terms, name)
			continue
		}
		start := p.rng.IntN(len(name) - searchTermMinLen + 1)
		end := start + searchTermMinLen + p.rng.IntN(len(name)-start-searchTermMinLen+1)
		term := name[start:end]
		if p.rng.IntN(2) == 0 {
			term = strings.ToUpper(term)
		}
		terms = append(terms, term)
	}
	return terms
}
