// Package submission commits a completed questionnaire to the broadcast
// channel and the destination table.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/render"
)

var (
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrChannelUnavailable = errors.New("channel unavailable")
	ErrIncomplete         = errors.New("questionnaire is incomplete")
)

// Stage names a step of a submission run.
type Stage string

const (
	StageCount     Stage = "count"
	StageBuild     Stage = "build"
	StageRender    Stage = "render"
	StageBroadcast Stage = "broadcast"
	StageAppend    Stage = "append"
	StageDone      Stage = "done"
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageCount, StageBuild, StageRender, StageBroadcast, StageAppend, StageDone}

// RowStore is the append-only destination table.
type RowStore interface {
	RowCount(ctx context.Context, table string) (int, error)
	AppendRow(ctx context.Context, table string, row []any) error
}

// Channel receives the human readable report.
type Channel interface {
	Post(ctx context.Context, text string) error
}

// Observer is told the outcome of every run.
type Observer interface {
	Observe(Outcome)
}

// Outcome summarizes a run for observers.
type Outcome struct {
	UserID    int64           `json:"userId"`
	Category  models.Category `json:"category"`
	Ordinal   int             `json:"ordinal"`
	ID        string          `json:"id,omitempty"`
	Stage     Stage           `json:"stage"`
	Broadcast bool            `json:"broadcast"`
	Appended  bool            `json:"appended"`
	Error     string          `json:"error,omitempty"`
	At        time.Time       `json:"at"`
}

// ProgressFunc is called when a stage starts.
type ProgressFunc func(Stage)

// Result reports how far a run got. Stage is the failing stage when Err is
// set.
type Result struct {
	Record    *models.Record
	Stage     Stage
	Broadcast bool
	Appended  bool
	Err       error
}

func (r Result) OK() bool { return r.Err == nil }

// Partial reports the broadcast went out but the row was not appended.
func (r Result) Partial() bool {
	return r.Err != nil && r.Broadcast && !r.Appended
}

// Coordinator runs submissions. It keeps no state between runs, so two
// concurrent runs for the same table may read the same row count.
type Coordinator struct {
	flows    *flow.Registry
	store    RowStore
	channel  Channel
	observer Observer
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*Coordinator)

func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(flows *flow.Registry, store RowStore, channel Channel, log *zap.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coordinator{
		flows:   flows,
		store:   store,
		channel: channel,
		now:     time.Now,
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit counts rows, builds the record, posts the report and appends the
// row, strictly in that order. Nothing is retried.
func (c *Coordinator) Submit(ctx context.Context, s *models.Session, progress ProgressFunc) (res Result) {
	if progress == nil {
		progress = func(Stage) {}
	}
	log := c.log.With(zap.Int64("user", s.UserID), zap.String("category", string(s.Category)))
	defer func() { c.observe(s, res) }()

	f, ok := c.flows.Flow(s.Category)
	if !ok {
		return Result{Stage: StageCount, Err: fmt.Errorf("%w: no flow for category %q", ErrIncomplete, s.Category)}
	}
	for _, col := range f.Columns() {
		if _, ok := s.Fields[col]; !ok {
			return Result{Stage: StageCount, Err: fmt.Errorf("%w: %s is not answered", ErrIncomplete, col)}
		}
	}

	progress(StageCount)
	ordinal, err := c.store.RowCount(ctx, f.Table)
	if err != nil {
		log.Warn("row count failed", zap.String("table", f.Table), zap.Error(err))
		return Result{Stage: StageCount, Err: storeErr(err)}
	}

	progress(StageBuild)
	now := c.now()
	rec := &models.Record{
		Ordinal:   ordinal,
		ID:        strconv.FormatInt(now.Unix(), 10),
		Category:  s.Category,
		Fields:    s.Fields,
		Submitter: s.UserName,
		CreatedAt: now,
	}
	res = Result{Record: rec}

	progress(StageRender)
	report := render.Report(f, *rec)

	progress(StageBroadcast)
	if err := c.channel.Post(ctx, report); err != nil {
		log.Warn("broadcast failed", zap.Error(err))
		res.Stage, res.Err = StageBroadcast, channelErr(err)
		return res
	}
	res.Broadcast = true

	progress(StageAppend)
	if err := c.store.AppendRow(ctx, f.Table, Row(f, *rec)); err != nil {
		log.Error("append failed after broadcast", zap.String("table", f.Table), zap.Int("ordinal", ordinal), zap.Error(err))
		res.Stage, res.Err = StageAppend, storeErr(err)
		return res
	}
	res.Appended = true

	progress(StageDone)
	res.Stage = StageDone
	log.Info("submission stored", zap.String("table", f.Table), zap.Int("ordinal", ordinal), zap.String("id", rec.ID))
	return res
}

// Row lays out a record as [ordinal, id, submitter, fields..., date].
func Row(f *flow.Flow, rec models.Record) []any {
	row := make([]any, 0, len(f.Steps)+4)
	row = append(row, rec.Ordinal, rec.ID, rec.Submitter)
	for _, s := range f.Steps {
		row = append(row, s.Cell(rec.Fields[s.Field]))
	}
	return append(row, rec.Date())
}

func (c *Coordinator) observe(s *models.Session, res Result) {
	if c.observer == nil {
		return
	}
	o := Outcome{
		UserID:    s.UserID,
		Category:  s.Category,
		Stage:     res.Stage,
		Broadcast: res.Broadcast,
		Appended:  res.Appended,
		At:        c.now(),
	}
	if res.Record != nil {
		o.Ordinal = res.Record.Ordinal
		o.ID = res.Record.ID
	}
	if res.Err != nil {
		o.Error = res.Err.Error()
	}
	c.observer.Observe(o)
}

func storeErr(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func channelErr(err error) error {
	if errors.Is(err, ErrChannelUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrChannelUnavailable, err)
}
