package writeback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"seopilot/internal/config"
	"seopilot/internal/logging"
	"seopilot/internal/reference"
	"seopilot/internal/store"
)

// Metadata keys written for titles rows.
const (
	MetaSEOTitle      = "rank_math_title"
	MetaDescription   = "rank_math_description"
	MetaFocusKeywords = "rank_math_focus_keyword"
)

// Outcome summarizes one write-back attempt.
type Outcome string

const (
	OutcomeWritten   Outcome = "written"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
)

// ErrWriteBack is matched by every WriteBackFault.
var ErrWriteBack = errors.New("write back rejected")

// WriteBackFault reports that the content store rejected a write.
type WriteBackFault struct {
	RecordID int64
	Field    string
	Err      error
}

func (e *WriteBackFault) Error() string {
	return fmt.Sprintf("write %s for record %d: %v", e.Field, e.RecordID, e.Err)
}

func (e *WriteBackFault) Unwrap() error { return e.Err }

func (e *WriteBackFault) Is(target error) bool { return target == ErrWriteBack }

// ErrorKind classifies the fault for logging.
func (e *WriteBackFault) ErrorKind() string { return "write_back" }

// ContentStore is the subset of the content record store the writer needs.
type ContentStore interface {
	GetField(ctx context.Context, id int64, field string) (string, error)
	GetMeta(ctx context.Context, id int64, key string) (string, error)
	SetMeta(ctx context.Context, id int64, key, value string) error
	TermLinks(ctx context.Context, id int64) ([]store.TermLink, error)
	UpdateTitle(ctx context.Context, id int64, title string) error
	UpdateBody(ctx context.Context, id int64, body string) error
}

// Writer applies reference rows to content records.
type Writer struct {
	cfg    *config.Config
	store  ContentStore
	filter Filter
	logger *slog.Logger
}

// NewWriter constructs a Writer. Output settings are read from cfg on every call.
func NewWriter(cfg *config.Config, st ContentStore, filter Filter, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{
		cfg:    cfg,
		store:  st,
		filter: filter,
		logger: logging.NewComponentLogger(logger, "writeback"),
	}
}

// ApplyTitles writes SEO metadata derived from set, and the record title when
// output.update_title is enabled. Values equal to what is stored are not
// rewritten.
func (w *Writer) ApplyTitles(ctx context.Context, recordID int64, set *reference.TitleSet) (Outcome, error) {
	fields, reason := BuildTitleFields(set, w.filter)
	if reason != "" {
		w.logSkip(recordID, reference.CategoryTitles, reason)
		return OutcomeSkipped, nil
	}

	changed := false
	if w.cfg.Output.WriteRankMath {
		writes := []struct{ key, value string }{
			{MetaSEOTitle, fields.SEOTitle},
			{MetaDescription, fields.Description},
			{MetaFocusKeywords, fields.FocusKeywords},
		}
		for _, write := range writes {
			if write.value == "" {
				continue
			}
			wrote, err := w.setMetaIfChanged(ctx, recordID, write.key, write.value)
			if err != nil {
				return OutcomeSkipped, err
			}
			changed = changed || wrote
		}
	}

	if w.cfg.Output.UpdateTitle {
		current, err := w.store.GetField(ctx, recordID, store.FieldTitle)
		if err != nil {
			return OutcomeSkipped, &WriteBackFault{RecordID: recordID, Field: store.FieldTitle, Err: err}
		}
		if current != fields.SEOTitle {
			if err := w.store.UpdateTitle(ctx, recordID, fields.SEOTitle); err != nil {
				return OutcomeSkipped, &WriteBackFault{RecordID: recordID, Field: store.FieldTitle, Err: err}
			}
			changed = true
		}
	}

	if !changed {
		return OutcomeUnchanged, nil
	}
	w.logger.Debug("titles written",
		logging.Int64(logging.FieldRecordID, recordID),
		logging.String(logging.FieldReferenceID, set.ID),
	)
	return OutcomeWritten, nil
}

func (w *Writer) setMetaIfChanged(ctx context.Context, recordID int64, key, value string) (bool, error) {
	current, err := w.store.GetMeta(ctx, recordID, key)
	if err != nil {
		return false, &WriteBackFault{RecordID: recordID, Field: key, Err: err}
	}
	if current == value {
		return false, nil
	}
	if err := w.store.SetMeta(ctx, recordID, key, value); err != nil {
		return false, &WriteBackFault{RecordID: recordID, Field: key, Err: err}
	}
	return true, nil
}

// ApplyH2 replaces or appends the marked H2 block in the record body. Every
// H2 must survive the filter; otherwise the record is skipped.
func (w *Writer) ApplyH2(ctx context.Context, recordID int64, row *reference.Row) (Outcome, error) {
	if row == nil {
		w.logSkip(recordID, "", "no reference row")
		return OutcomeSkipped, nil
	}
	h2s := make([]string, 0, RequiredH2s)
	for _, raw := range row.H2s() {
		value, blocked := w.filter.Apply(raw)
		if blocked || value == "" {
			continue
		}
		h2s = append(h2s, value)
	}
	if len(h2s) < RequiredH2s {
		w.logSkip(recordID, row.Category, "H2 blocked or missing")
		return OutcomeSkipped, nil
	}

	title, err := w.store.GetField(ctx, recordID, store.FieldTitle)
	if err != nil {
		return OutcomeSkipped, &WriteBackFault{RecordID: recordID, Field: store.FieldTitle, Err: err}
	}
	terms, err := w.store.TermLinks(ctx, recordID)
	if err != nil {
		return OutcomeSkipped, &WriteBackFault{RecordID: recordID, Field: "terms", Err: err}
	}
	body, err := w.store.GetField(ctx, recordID, store.FieldBody)
	if err != nil {
		return OutcomeSkipped, &WriteBackFault{RecordID: recordID, Field: store.FieldBody, Err: err}
	}

	updated := ReplaceOrAppend(body, BuildH2Block(title, h2s, terms))
	if updated == body {
		return OutcomeUnchanged, nil
	}
	if err := w.store.UpdateBody(ctx, recordID, updated); err != nil {
		return OutcomeSkipped, &WriteBackFault{RecordID: recordID, Field: store.FieldBody, Err: err}
	}
	w.logger.Debug("h2 block written",
		logging.Int64(logging.FieldRecordID, recordID),
		logging.String(logging.FieldCategory, string(row.Category)),
		logging.String(logging.FieldReferenceID, row.ID),
	)
	return OutcomeWritten, nil
}

func (w *Writer) logSkip(recordID int64, category reference.Category, reason string) {
	attrs := []logging.Attr{
		logging.Int64(logging.FieldRecordID, recordID),
		logging.String(logging.FieldCategory, string(category)),
	}
	attrs = append(attrs, logging.DecisionAttrs("write_back", "skipped", reason)...)
	w.logger.Info("write back skipped", logging.Args(attrs...)...)
}
