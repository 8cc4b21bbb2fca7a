package matching_test

import (
	"math"
	"strings"
	"testing"

	"seopilot/internal/matching"
	"seopilot/internal/textutil"
)

func TestScoreIdenticalTextIsOne(t *testing.T) {
	ctx := matching.FromText("Cozy Reading Nook Tour")
	got := matching.Score(ctx, matching.Candidate{ReferenceID: "video_0001", Text: "cozy reading nook tour"}, false)
	if got != 1.0 {
		t.Fatalf("got %v want 1.0", got)
	}
}

func TestScoreRelevanceBoostRequiresIndexedPath(t *testing.T) {
	ctx := matching.FromText("sunset beach walk")
	candidate := matching.Candidate{ReferenceID: "page_00001", Text: "beach walk at dawn", Relevance: 2.5, HasRelevance: true}

	plain := matching.Explain(ctx, candidate, false)
	boosted := matching.Explain(ctx, candidate, true)
	if plain.Boost != 0 || plain.Final != plain.Base {
		t.Fatalf("unexpected boost without index: %+v", plain)
	}
	if math.Abs(boosted.Boost-0.25) > 1e-9 {
		t.Fatalf("boost got %v want 0.25", boosted.Boost)
	}
	if math.Abs(boosted.Final-math.Min(1, boosted.Base+0.25)) > 1e-9 {
		t.Fatalf("unexpected final %+v", boosted)
	}

	candidate.Relevance = 50
	if b := matching.Explain(ctx, candidate, true); b.Boost != 0.4 {
		t.Fatalf("boost must cap at 0.4, got %v", b.Boost)
	}
}

func TestScoreWeights(t *testing.T) {
	ctx := matching.FromText("alpha beta")
	candidate := matching.Candidate{Text: "alpha gamma"}
	b := matching.Explain(ctx, candidate, false)

	if math.Abs(b.Overlap-1.0/3.0) > 1e-9 {
		t.Fatalf("overlap got %v", b.Overlap)
	}
	want := 0.45*b.Overlap + 0.25*b.Trigram + 0.30*b.String
	if math.Abs(b.Base-want) > 1e-9 || b.Final != b.Base {
		t.Fatalf("base got %v want %v", b.Base, want)
	}
}

func TestOverlapAndTrigramAreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"cozy reading nook", "reading nook tour"},
		{"aabbbb", "bbab"},
		{"sunset", "sunrise over the sea"},
	}
	for _, pair := range pairs {
		if a, b := textutil.TokenOverlap(pair[0], pair[1]), textutil.TokenOverlap(pair[1], pair[0]); a != b {
			t.Fatalf("overlap asymmetric for %q: %v vs %v", pair, a, b)
		}
		if a, b := textutil.TrigramSimilarity(pair[0], pair[1]), textutil.TrigramSimilarity(pair[1], pair[0]); a != b {
			t.Fatalf("trigram asymmetric for %q: %v vs %v", pair, a, b)
		}
	}
}

func TestStringSimilarityDirectionIsDocumented(t *testing.T) {
	forward := matching.Explain(matching.FromText("aabbbb"), matching.Candidate{Text: "bbab"}, false).String
	reverse := matching.Explain(matching.FromText("bbab"), matching.Candidate{Text: "aabbbb"}, false).String
	if math.Abs(forward-0.4) > 1e-9 || math.Abs(reverse-0.6) > 1e-9 {
		t.Fatalf("got forward=%v reverse=%v want 0.4 and 0.6", forward, reverse)
	}
}

func TestRankIsStableOnTies(t *testing.T) {
	ctx := matching.FromText("red fox")
	set := matching.CandidateSet{Items: []matching.Candidate{
		{ReferenceID: "b", Text: "blue whale"},
		{ReferenceID: "a", Text: "red fox"},
		{ReferenceID: "c", Text: "blue whale"},
	}}
	ranked := matching.Rank(ctx, set)
	ids := make([]string, 0, len(ranked))
	for _, scored := range ranked {
		ids = append(ids, scored.ReferenceID)
	}
	if got := strings.Join(ids, ","); got != "a,b,c" {
		t.Fatalf("got %q want %q", got, "a,b,c")
	}
}

func TestSearchContextCombinesSources(t *testing.T) {
	ctx := matching.NewSearchContext("Cozy Reading Nook Tour", []string{"Home", "cozy reading"}, "cozy-reading-nook-tour")
	if ctx.Raw != "Cozy Reading Nook Tour Home" {
		t.Fatalf("raw got %q", ctx.Raw)
	}
	if ctx.Normalized != "cozy reading nook tour home" {
		t.Fatalf("normalized got %q", ctx.Normalized)
	}
	if len(ctx.Tokens) != 5 {
		t.Fatalf("tokens got %v", ctx.Tokens)
	}

	empty := matching.NewSearchContext("", nil, "")
	if !empty.Empty() {
		t.Fatal("expected empty context")
	}

	slugOnly := matching.NewSearchContext("", nil, "beach-walk_2024")
	if slugOnly.Normalized != "beach walk 2024" {
		t.Fatalf("slug words got %q", slugOnly.Normalized)
	}
}

func TestKeyTokensLongestFirst(t *testing.T) {
	ctx := matching.FromText("an old lighthouse keeper at dusk near the harbour")
	got := strings.Join(ctx.KeyTokens(4, 3), ",")
	if got != "lighthouse,harbour,keeper,dusk" {
		t.Fatalf("got %q", got)
	}
}
