package upload

import (
	"context"

	"github.com/bpchanges/bpchanges/internal/client"
	"github.com/bpchanges/bpchanges/internal/logging"
	"github.com/bpchanges/bpchanges/internal/metrics"
	"github.com/bpchanges/bpchanges/internal/record"
)

// Poster submits one transformed change.
type Poster interface {
	PostChange(ctx context.Context, payload any) (*client.PostResponse, error)
}

// Kind classifies what happened to a record.
type Kind string

const (
	KindSubmitted Kind = "submitted"
	KindFailed    Kind = "failed"
	KindSkipped   Kind = "skipped"
)

// Outcome is the result for a single source record.
type Outcome struct {
	Kind       Kind
	Identifier string
	StatusCode int
	Body       string
	Reason     string
}

// Report collects outcomes in input order, split by kind.
type Report struct {
	Submitted []Outcome
	Failed    []Outcome
	Skipped   []Outcome
	// Err is set only when the run was interrupted by its context.
	Err error
}

// Total is the number of records that were handled.
func (r Report) Total() int {
	return len(r.Submitted) + len(r.Failed) + len(r.Skipped)
}

// Driver uploads records sequentially. A failing record never stops the run.
type Driver struct {
	poster  Poster
	prefix  string
	dryRun  bool
	logger  *logging.Logger
	metrics *metrics.Recorder
	onEach  func(Outcome)
}

// Option configures a Driver.
type Option func(*Driver)

// WithPrefix prepends prefix to every uploaded identifier.
func WithPrefix(prefix string) Option {
	return func(d *Driver) { d.prefix = prefix }
}

// WithDryRun transforms records without posting them.
func WithDryRun(dryRun bool) Option {
	return func(d *Driver) { d.dryRun = dryRun }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithMetrics counts outcomes on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(d *Driver) { d.metrics = rec }
}

// WithOutcomeHandler calls fn after each record is handled.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(d *Driver) { d.onEach = fn }
}

// NewDriver creates a Driver posting through p.
func NewDriver(p Poster, opts ...Option) *Driver {
	d := &Driver{poster: p, logger: logging.Discard()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run transforms and submits each record in order.
func (d *Driver) Run(ctx context.Context, records []record.Record) Report {
	var report Report

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			report.Err = err
			return report
		}

		o := d.handle(ctx, rec)
		switch o.Kind {
		case KindSubmitted:
			report.Submitted = append(report.Submitted, o)
			d.metrics.AddRecords(metrics.StageSubmitted, 1)
		case KindFailed:
			report.Failed = append(report.Failed, o)
			d.metrics.AddRecords(metrics.StageFailed, 1)
		case KindSkipped:
			report.Skipped = append(report.Skipped, o)
			d.metrics.AddRecords(metrics.StageSkipped, 1)
		}
		if d.onEach != nil {
			d.onEach(o)
		}
	}

	d.logger.InfoContext(ctx, "upload finished",
		"submitted", len(report.Submitted),
		"failed", len(report.Failed),
		"skipped", len(report.Skipped),
	)
	return report
}

func (d *Driver) handle(ctx context.Context, rec record.Record) Outcome {
	id := rec.Identifier()

	payload, err := Transform(rec, d.prefix)
	if err != nil {
		d.logger.WarnContext(ctx, "skipping record", logging.Identifier(id), logging.Error(err))
		return Outcome{Kind: KindSkipped, Identifier: id, Reason: err.Error()}
	}

	if d.dryRun {
		d.logger.DebugContext(ctx, "dry run, not posting", logging.Identifier(payload.Identifier))
		return Outcome{Kind: KindSubmitted, Identifier: id}
	}

	resp, err := d.poster.PostChange(ctx, payload)
	if err != nil {
		o := Outcome{Kind: KindFailed, Identifier: id, Reason: err.Error()}
		if resp != nil {
			o.StatusCode = resp.StatusCode
			o.Body = resp.Body
		}
		d.logger.ErrorContext(ctx, "failed to post change",
			logging.Identifier(id), logging.Status(o.StatusCode), logging.Error(err))
		return o
	}

	d.logger.InfoContext(ctx, "posted change", logging.Identifier(id), logging.Status(resp.StatusCode))
	return Outcome{Kind: KindSubmitted, Identifier: id, StatusCode: resp.StatusCode, Body: resp.Body}
}
