package ranker

import "math"

const (
	// Longer inputs are cut before matching; the word bonus is skipped when
	// either side was cut.
	maxQueryLen     = 32
	maxCandidateLen = 256

	wordHitBonus = 4.0

	// Candidates need more than this many words to earn the word bonus.
	minWordsForBonus = 2
)

// match is the score of one assignment of query characters to candidate positions.
type match struct {
	score    int
	wordHits int
}

func (m match) betterThan(o match) bool {
	if m.score != o.score {
		return m.score > o.score
	}
	return m.wordHits > o.wordHits
}

// matcher finds the best order-preserving assignment of query characters.
// Results are memoized on (query offset, candidate offset) since both only
// ever shrink and the same suffix pairs recur many times.
type matcher struct {
	query      string
	candidate  string
	wordStarts []bool
	memo       []match
	seen       []bool
}

func newMatcher(query, candidate string) *matcher {
	size := (len(query) + 1) * (len(candidate) + 1)
	return &matcher{
		query:      Lower(query),
		candidate:  Lower(candidate),
		wordStarts: wordStartMask(candidate),
		memo:       make([]match, size),
		seen:       make([]bool, size),
	}
}

func (m *matcher) best(qi, ci int) match {
	if qi == len(m.query) {
		return match{}
	}
	key := qi*(len(m.candidate)+1) + ci
	if m.seen[key] {
		return m.memo[key]
	}

	var best match
	want := m.query[qi]
	for j := ci; j < len(m.candidate); j++ {
		if m.candidate[j] != want {
			continue
		}
		step := match{score: 1}
		if m.wordStarts[j] {
			step = match{score: 2, wordHits: 1}
		}
		rest := m.best(qi+1, j+1)
		cand := match{score: step.score + rest.score, wordHits: step.wordHits + rest.wordHits}
		if cand.betterThan(best) {
			best = cand
		}
	}

	m.seen[key] = true
	m.memo[key] = best
	return best
}

// Rank scores query against candidate. It is pure, never fails and never
// returns a negative number. An empty query always ranks 0.
func Rank(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}

	truncated := false
	if len(query) > maxQueryLen {
		query = query[:maxQueryLen]
		truncated = true
	}
	if len(candidate) > maxCandidateLen {
		candidate = candidate[:maxCandidateLen]
		truncated = true
	}

	m := newMatcher(query, candidate)
	basic := m.best(0, 0)
	rank := float64(basic.score)

	numWords := 0
	for _, ws := range m.wordStarts {
		if ws {
			numWords++
		}
	}
	if !truncated && numWords > minWordsForBonus {
		rank += wordHitBonus * float64(basic.wordHits) / float64(numWords)
	}

	return math.Floor(rank*10) / 10
}
