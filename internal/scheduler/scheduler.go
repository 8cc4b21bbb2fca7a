package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"seopilot/internal/config"
	"seopilot/internal/logging"
	"seopilot/internal/reference"
	"seopilot/internal/resolver"
	"seopilot/internal/store"
	"seopilot/internal/writeback"
)

// Pass names double as cursor keys.
const (
	PassTitles  = "titles"
	PassVideoH2 = "video_h2"
	PassModel   = "model"
)

// ErrTickInFlight is returned when a tick is requested while another runs.
var ErrTickInFlight = errors.New("tick already in progress")

// Pass is one bounded category walk within a tick.
type Pass struct {
	Name      string
	Category  reference.Category
	PostTypes []string
}

// Passes returns the fixed pass order for cfg.
func Passes(cfg *config.Config) []Pass {
	return []Pass{
		{Name: PassTitles, Category: reference.CategoryTitles, PostTypes: cfg.PostTypes.Titles},
		{Name: PassVideoH2, Category: reference.CategoryPageVideo, PostTypes: cfg.PostTypes.VideoH2},
		{Name: PassModel, Category: reference.ModelCategory(cfg.Output.ModelH2Source), PostTypes: cfg.PostTypes.Model},
	}
}

// State is the persistence the scheduler reads and advances.
type State interface {
	LoadProgress(ctx context.Context) (*store.Progress, error)
	AdvanceCursor(ctx context.Context, pass string, lastID int64) error
	SetRunning(ctx context.Context, running bool) error
	RecordTick(ctx context.Context, tickID string, at time.Time, result string) error
	ResetProgress(ctx context.Context) error
}

// Source lists content records and fetches reference rows.
type Source interface {
	ListIDs(ctx context.Context, postTypes []string, afterID int64, limit int) ([]int64, error)
	GetTitleSet(ctx context.Context, id string) (*reference.TitleSet, error)
	GetReference(ctx context.Context, category reference.Category, id string) (*reference.Row, error)
}

// Resolver maps a record to a reference id.
type Resolver interface {
	Resolve(ctx context.Context, recordID int64, category reference.Category) (resolver.Resolution, error)
	Commit(ctx context.Context, res resolver.Resolution) error
}

// Writer applies reference rows to records.
type Writer interface {
	ApplyTitles(ctx context.Context, recordID int64, set *reference.TitleSet) (writeback.Outcome, error)
	ApplyH2(ctx context.Context, recordID int64, row *reference.Row) (writeback.Outcome, error)
}

// Scheduler drives batch passes over content records.
type Scheduler struct {
	cfg      *config.Config
	state    State
	source   Source
	resolver Resolver
	writer   Writer
	logger   *slog.Logger
	now      func() time.Time

	tickMu sync.Mutex
}

// New constructs a Scheduler. Settings are read from cfg on every tick.
func New(cfg *config.Config, state State, source Source, res Resolver, writer Writer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		cfg:      cfg,
		state:    state,
		source:   source,
		resolver: res,
		writer:   writer,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		now:      time.Now,
	}
}

// PassReport summarizes one pass of a tick.
type PassReport struct {
	Pass       string
	Category   reference.Category
	Fetched    int
	Resolved   int
	Unresolved int
	Written    int
	Unchanged  int
	Skipped    int
	WriteFails int
	Cursor     int64
	// Err is the storage fault that cut the page short, if any.
	Err error
}

// TickReport summarizes a tick.
type TickReport struct {
	TickID  string
	Forced  bool
	Skipped bool
	DidWork bool
	Running bool
	Passes  []PassReport
}

// Faulted reports whether any pass ended on a storage fault.
func (r TickReport) Faulted() bool {
	for _, p := range r.Passes {
		if p.Err != nil {
			return true
		}
	}
	return false
}

// Summary renders the report as a single line for status output. A pass
// that faulted is marked with "!".
func (r TickReport) Summary() string {
	if r.Skipped {
		return "skipped: not running"
	}
	if !r.DidWork && !r.Faulted() {
		return "idle"
	}
	parts := make([]string, 0, len(r.Passes))
	for _, p := range r.Passes {
		part := fmt.Sprintf("%s=%d/%d", p.Pass, p.Written, p.Fetched)
		if p.Err != nil {
			part += "!"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

// Start marks the scheduler running so periodic ticks do work.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.state.SetRunning(ctx, true); err != nil {
		return err
	}
	s.logger.Info("batch scheduler started", logging.String(logging.FieldEventType, "scheduler_started"))
	return nil
}

// Stop clears the running flag. Cursors are kept.
func (s *Scheduler) Stop(ctx context.Context) error {
	if err := s.state.SetRunning(ctx, false); err != nil {
		return err
	}
	s.logger.Info("batch scheduler stopped", logging.String(logging.FieldEventType, "scheduler_stopped"))
	return nil
}

// Reset zeroes every cursor and stops the scheduler.
func (s *Scheduler) Reset(ctx context.Context) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if err := s.state.ResetProgress(ctx); err != nil {
		return err
	}
	s.logger.Info("batch progress reset", logging.String(logging.FieldEventType, "scheduler_reset"))
	return nil
}

// Tick runs one pass per category in fixed order. A non-forced tick does
// nothing unless the scheduler is running, and stops the scheduler when no
// pass found records and none faulted. A forced tick never changes the
// running flag.
func (s *Scheduler) Tick(ctx context.Context, forced bool) (TickReport, error) {
	if !s.tickMu.TryLock() {
		return TickReport{}, ErrTickInFlight
	}
	defer s.tickMu.Unlock()

	report := TickReport{TickID: uuid.NewString(), Forced: forced}
	ctx = logging.WithTickID(ctx, report.TickID)
	logger := logging.WithContext(ctx, s.logger)

	progress, err := s.state.LoadProgress(ctx)
	if err != nil {
		return report, fmt.Errorf("tick: %w", err)
	}
	report.Running = progress.Running
	if !forced && !progress.Running {
		report.Skipped = true
		logger.Debug("tick skipped; scheduler not running")
		return report, nil
	}

	for _, pass := range Passes(s.cfg) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		passReport := s.runPass(ctx, logger, pass, progress.Cursor(pass.Name))
		if passReport.Fetched > 0 {
			report.DidWork = true
		}
		report.Passes = append(report.Passes, passReport)
	}

	// A faulted pass may still hold records, so it never counts as idle.
	if !forced && !report.DidWork && !report.Faulted() {
		if err := s.state.SetRunning(ctx, false); err != nil {
			return report, fmt.Errorf("tick: %w", err)
		}
		report.Running = false
		logger.Info("no pending records; batch scheduler stopped",
			logging.String(logging.FieldEventType, "scheduler_idle"),
		)
	}

	if err := s.state.RecordTick(ctx, report.TickID, s.now(), report.Summary()); err != nil {
		return report, fmt.Errorf("tick: %w", err)
	}
	logger.Info("tick complete",
		logging.Bool("forced", forced),
		logging.Bool("did_work", report.DidWork),
		logging.String("result", report.Summary()),
	)
	return report, nil
}

func (s *Scheduler) runPass(ctx context.Context, logger *slog.Logger, pass Pass, cursor int64) PassReport {
	report := PassReport{Pass: pass.Name, Category: pass.Category, Cursor: cursor}
	logger = logger.With(logging.String(logging.FieldCategory, string(pass.Category)))
	if len(pass.PostTypes) == 0 {
		return report
	}

	ids, err := s.source.ListIDs(ctx, pass.PostTypes, cursor, s.cfg.ClampedBatchSize())
	if err != nil {
		report.Err = err
		s.logPassFault(logger, pass, 0, err)
		return report
	}
	report.Fetched = len(ids)
	if len(ids) == 0 {
		return report
	}

	// Every record that completes, whatever its outcome, moves the cursor.
	attempted := cursor
	for _, id := range ids {
		if err := s.processRecord(ctx, logger, pass, id, &report); err != nil {
			report.Err = err
			s.logPassFault(logger, pass, id, err)
			break
		}
		attempted = id
	}

	if attempted > cursor {
		if err := s.state.AdvanceCursor(ctx, pass.Name, attempted); err != nil {
			if report.Err == nil {
				report.Err = err
			}
			s.logPassFault(logger, pass, 0, err)
			return report
		}
		report.Cursor = attempted
	}

	logger.Info("batch pass applied",
		logging.String("pass", pass.Name),
		logging.Int("fetched", report.Fetched),
		logging.Int("written", report.Written),
		logging.Int("unresolved", report.Unresolved),
		logging.Int("skipped", report.Skipped),
		logging.Int64("cursor", report.Cursor),
	)
	return report
}

// processRecord returns only storage faults; write-back faults and
// unresolved records are counted and the page continues.
func (s *Scheduler) processRecord(ctx context.Context, logger *slog.Logger, pass Pass, recordID int64, report *PassReport) error {
	res, err := s.resolver.Resolve(ctx, recordID, pass.Category)
	if err != nil {
		return err
	}
	if !res.Resolved() {
		report.Unresolved++
		return nil
	}
	if err := s.resolver.Commit(ctx, res); err != nil {
		return err
	}
	report.Resolved++

	var outcome writeback.Outcome
	if pass.Category == reference.CategoryTitles {
		set, err := s.source.GetTitleSet(ctx, res.ID)
		if err != nil {
			return err
		}
		outcome, err = s.writer.ApplyTitles(ctx, recordID, set)
		if err != nil {
			return s.countWriteFault(logger, recordID, err, report)
		}
	} else {
		row, err := s.source.GetReference(ctx, pass.Category, res.ID)
		if err != nil {
			return err
		}
		outcome, err = s.writer.ApplyH2(ctx, recordID, row)
		if err != nil {
			return s.countWriteFault(logger, recordID, err, report)
		}
	}

	switch outcome {
	case writeback.OutcomeWritten:
		report.Written++
	case writeback.OutcomeUnchanged:
		report.Unchanged++
	default:
		report.Skipped++
	}
	return nil
}

func (s *Scheduler) countWriteFault(logger *slog.Logger, recordID int64, err error, report *PassReport) error {
	if !errors.Is(err, writeback.ErrWriteBack) {
		return err
	}
	report.WriteFails++
	logging.WarnWithContext(logger, "write back rejected; continuing with next record", "write_back_failed",
		logging.Int64(logging.FieldRecordID, recordID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the content record still exists and the database is writable"),
		logging.String(logging.FieldImpact, "record keeps its previous content"),
	)
	return nil
}

func (s *Scheduler) logPassFault(logger *slog.Logger, pass Pass, recordID int64, err error) {
	attrs := []logging.Attr{
		logging.String("pass", pass.Name),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check database health with seopilot status"),
		logging.String(logging.FieldImpact, "remaining records in this page retry on the next tick"),
	}
	if recordID > 0 {
		attrs = append(attrs, logging.Int64(logging.FieldRecordID, recordID))
	}
	logging.ErrorWithContext(logger, "batch pass aborted by storage fault", "batch_pass_fault", attrs...)
}
