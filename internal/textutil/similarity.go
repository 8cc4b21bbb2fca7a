package textutil

// Set is an unordered collection of strings.
type Set map[string]struct{}

// NewSet builds a Set from values.
func NewSet(values ...string) Set {
	set := make(Set, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

// Has reports whether value is in the set.
func (s Set) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// Jaccard returns |a ∩ b| / max(|a ∪ b|, 1).
func Jaccard(a, b Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for item := range small {
		if large.Has(item) {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union < 1 {
		union = 1
	}
	return float64(intersection) / float64(union)
}

// TokenOverlap is the Jaccard similarity of the token sets of a and b.
func TokenOverlap(a, b string) float64 {
	return Jaccard(NewSet(Tokenize(a)...), NewSet(Tokenize(b)...))
}

// TrigramSimilarity is the Jaccard similarity of the trigram sets of the
// normalized forms of a and b.
func TrigramSimilarity(a, b string) float64 {
	return Jaccard(Trigrams(Normalize(a)), Trigrams(Normalize(b)))
}

// StringSimilarity returns 2*M/(len(a)+len(b)) where M is the number of
// characters matched by recursively taking the longest common substring and
// repeating on the unmatched left and right remainders. When several common
// substrings share the maximum length, the first found scanning a then b
// wins, so the result can differ when a and b are swapped.
func StringSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return 2 * float64(matchedChars(ra, rb)) / float64(total)
}

func matchedChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	posA, posB, best := longestCommonSubstring(a, b)
	if best == 0 {
		return 0
	}
	return best +
		matchedChars(a[:posA], b[:posB]) +
		matchedChars(a[posA+best:], b[posB+best:])
}

func longestCommonSubstring(a, b []rune) (int, int, int) {
	var posA, posB, best int
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > best {
				posA, posB, best = i, j, k
			}
		}
	}
	return posA, posB, best
}
