package reference

import (
	"fmt"
	"strings"

	"seopilot/internal/config"
)

// Category identifies one reference table. The set is closed.
type Category string

const (
	CategoryTitles           Category = "titles"
	CategoryPageVideo        Category = "page_video"
	CategoryPageModelTrait   Category = "page_model_trait"
	CategoryPageModelNoTrait Category = "page_model_notrait"
)

// TitleSlots are the keyword slots of a titles row set, primary first.
var TitleSlots = []string{"keyword_1", "keyword_2", "keyword_3", "keyword_4", "keyword_5"}

// PrimarySlot is the titles slot that carries the SEO title.
const PrimarySlot = "keyword_1"

// Schema describes the fixed column layout of a category.
type Schema struct {
	Table     string
	KeyColumn string
	// SlotColumn is set for categories with several rows per id.
	SlotColumn string
	// Columns are the text columns in ReferenceRow.Fields order.
	Columns []string
	// SearchColumns feed candidate text and the full-text index.
	SearchColumns []string
	// Kind selects the mapping meta key and the numeric id prefix.
	Kind string
}

var h2Columns = []string{"h2_1", "h2_2", "h2_3", "h2_4"}

var schemas = map[Category]Schema{
	CategoryTitles: {
		Table:         "ref_titles",
		KeyColumn:     "video_id",
		SlotColumn:    "keyword_slot",
		Columns:       []string{"focus_keyword", "seo_title", "tone", "category", "source_longtail"},
		SearchColumns: []string{"focus_keyword", "seo_title", "source_longtail"},
		Kind:          config.KindVideo,
	},
	CategoryPageVideo: {
		Table:         "ref_video_h2",
		KeyColumn:     "page_id",
		Columns:       h2Columns,
		SearchColumns: h2Columns,
		Kind:          config.KindPage,
	},
	CategoryPageModelTrait: {
		Table:         "ref_model_h2",
		KeyColumn:     "page_id",
		Columns:       append([]string{"trait"}, h2Columns...),
		SearchColumns: append([]string{"trait"}, h2Columns...),
		Kind:          config.KindPage,
	},
	CategoryPageModelNoTrait: {
		Table:         "ref_model_h2_nt",
		KeyColumn:     "page_id",
		Columns:       h2Columns,
		SearchColumns: h2Columns,
		Kind:          config.KindPage,
	},
}

// AllCategories lists every category in a stable order.
var AllCategories = []Category{
	CategoryTitles,
	CategoryPageVideo,
	CategoryPageModelTrait,
	CategoryPageModelNoTrait,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := schemas[c]
	return ok
}

// Schema returns the column layout. It panics on an unknown category.
func (c Category) Schema() Schema {
	schema, ok := schemas[c]
	if !ok {
		panic(fmt.Sprintf("reference: unknown category %q", string(c)))
	}
	return schema
}

// Kind returns the mapping kind ("video" or "page").
func (c Category) Kind() string {
	return c.Schema().Kind
}

// ParseCategory converts user input into a Category.
func ParseCategory(value string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "video", "titles":
		return CategoryTitles, nil
	case "video_h2", "page_video":
		return CategoryPageVideo, nil
	case "model_trait", "page_model_trait":
		return CategoryPageModelTrait, nil
	case "model", "model_nt", "model_no_trait", "page_model_notrait":
		return CategoryPageModelNoTrait, nil
	}
	return "", fmt.Errorf("unknown reference category %q", value)
}

// ModelCategory returns the model H2 category selected by output.model_h2_source.
func ModelCategory(source string) Category {
	if source == config.ModelH2Trait {
		return CategoryPageModelTrait
	}
	return CategoryPageModelNoTrait
}
