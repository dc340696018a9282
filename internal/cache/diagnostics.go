package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifie/internal/shared"
)

// DiagnosticTTL is the expiry applied to every key written by a diagnostic run.
const DiagnosticTTL = time.Minute

// Stage is a step of the full lifecycle test.
type Stage int

const (
	StageStart Stage = iota
	StagePinged
	StageWritten
	StageRead
	StageDeleted
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StagePinged:
		return "pinged"
	case StageWritten:
		return "written"
	case StageRead:
		return "read"
	case StageDeleted:
		return "deleted"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// LifecycleReport is the outcome of [Diagnostics.FullLifecycleTest].
//
// When Stage is [StageFailed], FailedAt names the step that was being attempted
// and no later step ran.
type LifecycleReport struct {
	Key       string
	Written   string
	Retrieved string
	Found     bool
	Pong      string
	Deleted   int64
	Stage     Stage
	FailedAt  Stage
	Err       error
}

// OK reports whether every step completed.
func (r LifecycleReport) OK() bool { return r.Stage == StageDone }

// Matched reports whether the value read back equals the one written.
func (r LifecycleReport) Matched() bool {
	return r.Found && r.Retrieved == r.Written
}

// WriteReadResult is the outcome of [Diagnostics.WriteRead].
type WriteReadResult struct {
	Key       string
	Written   string
	Retrieved string
	Found     bool
}

// Matched reports whether the value read back equals the one written.
func (r WriteReadResult) Matched() bool {
	return r.Found && r.Retrieved == r.Written
}

// Diagnostics runs self-tests against a [Store].
//
// It holds no per-run state: every run generates its own key, so concurrent runs never collide.
type Diagnostics struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// NewDiagnostics creates a [Diagnostics] runner over store.
func NewDiagnostics(store Store, logger *log.Logger) *Diagnostics {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Diagnostics{store: store, logger: shared.WithLogger(logger, "component", "cache"), now: time.Now}
}

// Ping checks that the store is reachable.
func (d *Diagnostics) Ping(ctx context.Context) (string, error) {
	pong, err := d.store.Ping(ctx)
	if err != nil {
		d.logger.Error("redis ping failed", "error", err)
		return "", err
	}
	return pong, nil
}

// WriteRead writes a fresh value under a test: key with [DiagnosticTTL] and reads it back.
//
// The key is left to expire.
func (d *Diagnostics) WriteRead(ctx context.Context) (WriteReadResult, error) {
	now := d.now()
	res := WriteReadResult{
		Key:     d.key("test", now),
		Written: "Hola desde Redis - " + now.Format(time.RFC3339Nano),
	}

	if err := d.store.Set(ctx, res.Key, res.Written, DiagnosticTTL); err != nil {
		d.logger.Error("write/read test failed", "step", "write", "key", res.Key, "error", err)
		return res, err
	}

	found, err := d.store.Get(ctx, res.Key, &res.Retrieved)
	if err != nil {
		d.logger.Error("write/read test failed", "step", "read", "key", res.Key, "error", err)
		return res, err
	}
	res.Found = found

	d.logger.Info("write/read test completed", "key", res.Key, "match", res.Matched())
	return res, nil
}

// FullLifecycleTest runs ping, set, get and delete strictly in sequence.
//
// The first failing step moves the run to [StageFailed] and the remaining steps are skipped.
func (d *Diagnostics) FullLifecycleTest(ctx context.Context) LifecycleReport {
	now := d.now()
	r := LifecycleReport{
		Key:     d.key("fulltest", now),
		Written: "Test completo - " + now.Format(time.RFC3339Nano),
		Stage:   StageStart,
	}

	for _, next := range []Stage{StagePinged, StageWritten, StageRead, StageDeleted} {
		if err := d.step(ctx, &r, next); err != nil {
			r.FailedAt = next
			r.Stage = StageFailed
			r.Err = err
			d.logger.Error("full test failed", "step", next, "key", r.Key, "error", err)
			return r
		}
		r.Stage = next
	}

	r.Stage = StageDone
	d.logger.Info("full test completed", "key", r.Key, "match", r.Matched(), "deleted", r.Deleted)
	return r
}

func (d *Diagnostics) step(ctx context.Context, r *LifecycleReport, s Stage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrCacheFailure, err)
	}

	var err error
	switch s {
	case StagePinged:
		r.Pong, err = d.store.Ping(ctx)
	case StageWritten:
		err = d.store.Set(ctx, r.Key, r.Written, DiagnosticTTL)
	case StageRead:
		r.Found, err = d.store.Get(ctx, r.Key, &r.Retrieved)
	case StageDeleted:
		r.Deleted, err = d.store.Delete(ctx, r.Key)
	}
	return err
}

func (d *Diagnostics) key(prefix string, now time.Time) string {
	return fmt.Sprintf("%s:%d:%s", prefix, now.UnixMilli(), shared.GenerateID())
}
