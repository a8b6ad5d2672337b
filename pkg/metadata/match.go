package metadata

import (
	"regexp"
	"sort"
	"strings"
)

// MinTitleSimilarity is the normalized similarity floor below which the top
// candidate is discarded. A wrong match is worse than no match.
const MinTitleSimilarity = 0.5

// Select ranks candidates against the parsed title and year and returns the
// best one, or a zero Match when nothing is close enough.
//
// Ranking, in priority order: exact case-insensitive title equality, exact
// year match, year within one, then provider popularity. The provider's kind
// for the winning candidate is authoritative over any filename heuristic.
func Select(title string, year *int, candidates []Candidate) Match {
	if len(candidates) == 0 {
		return Match{}
	}

	normalizedTitle := normalizeTitle(title)

	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	score := func(c Candidate) (exact bool, yearRank int, popularity float64) {
		exact = normalizeTitle(c.Title) == normalizedTitle
		yearRank = 2
		if year != nil && c.Year != 0 {
			switch diff := c.Year - *year; {
			case diff == 0:
				yearRank = 0
			case diff == 1 || diff == -1:
				yearRank = 1
			}
		}
		return exact, yearRank, c.Popularity
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		iExact, iYear, iPop := score(ranked[i])
		jExact, jYear, jPop := score(ranked[j])

		if iExact != jExact {
			return iExact
		}
		if iYear != jYear {
			return iYear < jYear
		}
		return iPop > jPop
	})

	best := ranked[0]
	if Similarity(title, best.Title) < MinTitleSimilarity {
		return Match{}
	}

	return Match{Candidate: best, OK: true}
}

var punctRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
var spaceRegex = regexp.MustCompile(`\s+`)

// normalizeTitle lowercases and strips punctuation so "Movie: Name" and
// "movie name" compare equal.
func normalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = punctRegex.ReplaceAllString(t, " ")
	t = spaceRegex.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Similarity computes a normalized edit-distance ratio between two titles in
// [0, 1], after normalization. Identical titles score 1.
func Similarity(a, b string) float64 {
	na, nb := normalizeTitle(a), normalizeTitle(b)
	if na == nb {
		return 1
	}

	ra, rb := []rune(na), []rune(nb)
	longer, shorter := ra, rb
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	if len(longer) == 0 {
		return 1
	}

	distance := levenshteinDistance(longer, shorter)
	return float64(len(longer)-distance) / float64(len(longer))
}

// levenshteinDistance calculates edit distance between two rune slices
func levenshteinDistance(r1, r2 []rune) int {
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
