package matching

import (
	"math"
	"sort"

	"seopilot/internal/textutil"
)

const (
	overlapWeight = 0.45
	trigramWeight = 0.25
	stringWeight  = 0.30

	maxRelevanceBoost = 0.4
	relevanceDivisor  = 10.0
)

// Breakdown holds the sub-scores that produced a final score.
type Breakdown struct {
	Overlap float64
	Trigram float64
	String  float64
	Base    float64
	Boost   float64
	Final   float64
}

// Scored is a candidate with its confidence.
type Scored struct {
	Candidate
	Score     float64
	Breakdown Breakdown
}

// Score computes the confidence that candidate describes the context.
// The relevance boost applies only when indexed is true and the candidate
// carries a relevance value.
func Score(ctx SearchContext, candidate Candidate, indexed bool) float64 {
	return Explain(ctx, candidate, indexed).Final
}

// Explain returns the full score breakdown.
func Explain(ctx SearchContext, candidate Candidate, indexed bool) Breakdown {
	candidateNormalized := textutil.Normalize(candidate.Text)
	candidateTokens := textutil.NewSet(textutil.Tokenize(candidateNormalized)...)

	var b Breakdown
	b.Overlap = textutil.Jaccard(ctx.Tokens, candidateTokens)
	b.Trigram = textutil.Jaccard(textutil.Trigrams(ctx.Normalized), textutil.Trigrams(candidateNormalized))
	b.String = textutil.StringSimilarity(ctx.Normalized, candidateNormalized)
	b.Base = clamp(overlapWeight*b.Overlap + trigramWeight*b.Trigram + stringWeight*b.String)
	b.Final = b.Base
	if indexed && candidate.HasRelevance {
		b.Boost = math.Min(maxRelevanceBoost, candidate.Relevance/relevanceDivisor)
		if b.Boost < 0 {
			b.Boost = 0
		}
		b.Final = math.Min(1, b.Base+b.Boost)
	}
	return b
}

// Rank scores every candidate and orders them by score descending. Ties keep
// retrieval order.
func Rank(ctx SearchContext, set CandidateSet) []Scored {
	out := make([]Scored, 0, len(set.Items))
	for _, candidate := range set.Items {
		b := Explain(ctx, candidate, set.Indexed)
		out = append(out, Scored{Candidate: candidate, Score: b.Final, Breakdown: b})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
