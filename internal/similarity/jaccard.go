package similarity

// DefaultMaxTokenEdits is the edit distance within which two tokens count as the same.
const DefaultMaxTokenEdits = 2

// FuzzyJaccard is Jaccard similarity over the token sets of a and b, where two tokens
// match when their Levenshtein distance is at most maxEdits. Tokens are paired one-to-one
// using a maximum matching, so the result is symmetric and stays within [0, 1].
// With maxEdits 0 it is plain Jaccard. An empty side scores 0.
func FuzzyJaccard(a, b []string, maxEdits int) float64 {
	setA := uniqueTokens(a)
	setB := uniqueTokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	matches := maxMatching(setA, setB, maxEdits)
	union := len(setA) + len(setB) - matches
	return float64(matches) / float64(union)
}

// maxMatching returns the size of a maximum one-to-one pairing between tokens of a and b
// that are within maxEdits of each other (augmenting paths).
func maxMatching(a, b []string, maxEdits int) int {
	adj := make([][]int, len(a))
	for i, ta := range a {
		for j, tb := range b {
			if ta == tb || (maxEdits > 0 && LevenshteinDistance(ta, tb) <= maxEdits) {
				adj[i] = append(adj[i], j)
			}
		}
	}

	owner := make([]int, len(b))
	for j := range owner {
		owner[j] = -1
	}
	var augment func(i int, visited []bool) bool
	augment = func(i int, visited []bool) bool {
		for _, j := range adj[i] {
			if visited[j] {
				continue
			}
			visited[j] = true
			if owner[j] < 0 || augment(owner[j], visited) {
				owner[j] = i
				return true
			}
		}
		return false
	}

	matches := 0
	for i := range a {
		if len(adj[i]) > 0 && augment(i, make([]bool, len(b))) {
			matches++
		}
	}
	return matches
}

// PhraseSimilarity tokenizes both phrases and returns their fuzzy Jaccard similarity.
func PhraseSimilarity(a, b string, maxEdits int) float64 {
	return FuzzyJaccard(Tokenize(a), Tokenize(b), maxEdits)
}
