package reference

import (
	"strings"
)

// Row is one imported reference record. Rows are immutable once imported.
type Row struct {
	Category Category
	ID       string
	// Slot is the keyword slot for titles rows and empty otherwise.
	Slot string
	// Fields follow Category.Schema().Columns.
	Fields []string
}

// Field returns the value of a named column, or "" when absent.
func (r Row) Field(column string) string {
	for i, name := range r.Category.Schema().Columns {
		if name == column {
			if i < len(r.Fields) {
				return r.Fields[i]
			}
			return ""
		}
	}
	return ""
}

// SearchText joins the non-empty search columns with single spaces.
func (r Row) SearchText() string {
	schema := r.Category.Schema()
	parts := make([]string, 0, len(schema.SearchColumns))
	for _, column := range schema.SearchColumns {
		if value := strings.TrimSpace(r.Field(column)); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, " ")
}

// H2s returns the four H2 columns in order. Titles rows return nil.
func (r Row) H2s() []string {
	if r.Category == CategoryTitles {
		return nil
	}
	out := make([]string, 0, len(h2Columns))
	for _, column := range h2Columns {
		out = append(out, r.Field(column))
	}
	return out
}

// TitleSet holds every keyword slot imported for one video id.
type TitleSet struct {
	ID    string
	Slots map[string]Row
}

// Primary returns the keyword_1 row.
func (s TitleSet) Primary() (Row, bool) {
	row, ok := s.Slots[PrimarySlot]
	return row, ok
}

// FocusKeywords returns the focus keywords of slots 1..5 in slot order.
func (s TitleSet) FocusKeywords() []string {
	out := make([]string, 0, len(TitleSlots))
	for _, slot := range TitleSlots {
		row, ok := s.Slots[slot]
		if !ok {
			continue
		}
		if kw := strings.TrimSpace(row.Field("focus_keyword")); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
