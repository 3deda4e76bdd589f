package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/aerotiles/internal/store"
)

// tracker records a run and its phases. Store failures are logged and never
// fail the run; a nil store disables recording.
type tracker struct {
	ctx   context.Context
	st    store.Store
	runID string
	log   *zap.Logger
}

func newTracker(ctx context.Context, st store.Store, cycle, input string) *tracker {
	t := &tracker{ctx: ctx, st: st, log: zap.L().With(zap.String("component", "pipeline"))}
	if st == nil {
		return t
	}
	run, err := st.CreateRun(ctx, cycle, input)
	if err != nil {
		t.log.Warn("pipeline: failed to create run", zap.Error(err))
		t.st = nil
		return t
	}
	t.runID = run.ID
	return t
}

// phase runs fn as a named phase and records its outcome. fn's result is
// stored as the phase detail.
func (t *tracker) phase(name string, fn func() (any, error)) error {
	var phase *store.Phase
	if t.st != nil {
		p, err := t.st.CreatePhase(t.ctx, t.runID, name)
		if err != nil {
			t.log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(err))
		}
		phase = p
	}

	start := time.Now()
	detail, fnErr := fn()
	duration := time.Since(start).Milliseconds()

	status := store.RunStatusComplete
	if fnErr != nil {
		status = store.RunStatusFailed
		detail = map[string]string{"error": fnErr.Error()}
		t.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(fnErr),
		)
	} else {
		t.log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
		)
	}

	if phase != nil {
		if err := t.st.CompletePhase(t.ctx, phase.ID, status, detail); err != nil {
			t.log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
		}
	}
	return fnErr
}

func (t *tracker) complete(summary *Summary) {
	if t.st == nil {
		return
	}
	if err := t.st.CompleteRun(t.ctx, t.runID, summary); err != nil {
		t.log.Warn("pipeline: failed to complete run", zap.Error(err))
	}
}

func (t *tracker) fail(runErr error) {
	if t.st == nil {
		return
	}
	// The run context may already be cancelled; record the failure anyway.
	ctx := context.WithoutCancel(t.ctx)
	if err := t.st.FailRun(ctx, t.runID, runErr.Error()); err != nil {
		t.log.Warn("pipeline: failed to record run failure", zap.Error(err))
	}
}
