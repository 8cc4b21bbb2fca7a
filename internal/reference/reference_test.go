package reference_test

import (
	"strings"
	"testing"

	"seopilot/internal/config"
	"seopilot/internal/reference"
)

func TestCanonicalID(t *testing.T) {
	cases := []struct {
		value string
		kind  string
		want  string
	}{
		{"7", config.KindVideo, "video_0007"},
		{" 0012 ", config.KindPage, "page_00012"},
		{"123456", config.KindVideo, "video_123456"},
		{"Video_0001", config.KindVideo, "video_0001"},
		{"cozy-reading-nook-tour", config.KindVideo, "cozyreadingnooktour"},
		{"Page 42!", config.KindPage, "page42"},
		{"", config.KindPage, ""},
		{strings.Repeat("a", 40), config.KindPage, strings.Repeat("a", 32)},
	}
	for _, tc := range cases {
		if got := reference.CanonicalID(tc.value, tc.kind); got != tc.want {
			t.Fatalf("CanonicalID(%q, %q) = %q want %q", tc.value, tc.kind, got, tc.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	if got := reference.CleanText("  a   b\tc ", 0); got != "a b c" {
		t.Fatalf("got %q", got)
	}
	if got := reference.CleanText("héllo world", 4); got != "héll" {
		t.Fatalf("got %q", got)
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]reference.Category{
		"titles":             reference.CategoryTitles,
		"video":              reference.CategoryTitles,
		"video-h2":           reference.CategoryPageVideo,
		"model_trait":        reference.CategoryPageModelTrait,
		"PAGE_MODEL_NOTRAIT": reference.CategoryPageModelNoTrait,
	}
	for input, want := range cases {
		got, err := reference.ParseCategory(input)
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseCategory(%q) = %q want %q", input, got, want)
		}
	}
	if _, err := reference.ParseCategory("sitemap"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestSchemaLayout(t *testing.T) {
	for _, category := range reference.AllCategories {
		schema := category.Schema()
		if schema.Table == "" || schema.KeyColumn == "" || len(schema.Columns) == 0 {
			t.Fatalf("incomplete schema for %s: %+v", category, schema)
		}
	}
	if reference.CategoryTitles.Kind() != config.KindVideo {
		t.Fatalf("titles must map through the video kind")
	}
	if reference.CategoryPageModelTrait.Kind() != config.KindPage {
		t.Fatalf("model rows must map through the page kind")
	}
	if got := reference.ModelCategory(config.ModelH2Trait); got != reference.CategoryPageModelTrait {
		t.Fatalf("got %q", got)
	}
	if got := reference.ModelCategory(config.ModelH2NoTrait); got != reference.CategoryPageModelNoTrait {
		t.Fatalf("got %q", got)
	}
}

func TestRowAccessors(t *testing.T) {
	row := reference.Row{
		Category: reference.CategoryPageModelTrait,
		ID:       "page_00001",
		Fields:   []string{"curious", "One", "", "Three", "Four"},
	}
	if got := row.Field("trait"); got != "curious" {
		t.Fatalf("got %q", got)
	}
	if got := row.SearchText(); got != "curious One Three Four" {
		t.Fatalf("got %q", got)
	}
	if got := strings.Join(row.H2s(), "|"); got != "One||Three|Four" {
		t.Fatalf("got %q", got)
	}

	set := reference.TitleSet{
		ID: "video_0001",
		Slots: map[string]reference.Row{
			"keyword_2": {Category: reference.CategoryTitles, Fields: []string{"second"}},
			"keyword_1": {Category: reference.CategoryTitles, Fields: []string{"first", "First Title"}},
		},
	}
	if got := strings.Join(set.FocusKeywords(), ","); got != "first,second" {
		t.Fatalf("got %q", got)
	}
	primary, ok := set.Primary()
	if !ok || primary.Field("seo_title") != "First Title" {
		t.Fatalf("unexpected primary %+v", primary)
	}
}
