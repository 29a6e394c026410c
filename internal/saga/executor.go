package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fortressi/orgmanager/internal/telemetry"
)

const tracerName = "github.com/fortressi/orgmanager/internal/saga"

// Executor runs Plans.
type Executor struct {
	registry *ActionRegistry
	logger   zerolog.Logger
}

// NewExecutor creates an Executor whose compensations dispatch through
// registry.
func NewExecutor(registry *ActionRegistry, logger zerolog.Logger) *Executor {
	return &Executor{registry: registry, logger: logger}
}

// Execute runs the steps of plan in order with params available under
// ParamsStep. The saga always runs to completion, or to the end of its
// compensation, even if ctx is cancelled midway; bound individual remote
// calls instead.
//
// On success the Context is in StateCommitted. If a step fails, every record
// pushed so far is unwound and a *StepError is returned alongside the
// Context, now in StateFailed.
func (e *Executor) Execute(ctx context.Context, plan *Plan, params any) (*Context, error) {
	ctx = context.WithoutCancel(ctx)
	sc := newContext(plan.Name(), e.registry, params)
	log := e.loggerFor(ctx).With().Str("saga", plan.Name().String()).Str("saga_id", sc.ID.String()).Logger()
	ctx = log.WithContext(ctx)
	started := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "saga "+plan.Name().String(),
		trace.WithAttributes(attribute.String("saga.id", sc.ID.String())))
	defer span.End()

	for _, step := range plan.order {
		sc.current = step.Name
		e.record(log, sc, step.Name, EventStarted)
		log.Debug().Str("step", string(step.Name)).Msg("executing saga step")

		if err := e.runStep(ctx, step, sc); err != nil {
			e.record(log, sc, step.Name, EventFailed)
			log.Error().Err(err).Str("step", string(step.Name)).Msg("saga step failed, compensating")
			span.RecordError(err)
			span.SetStatus(codes.Error, "step "+string(step.Name)+" failed")

			err = e.compensate(ctx, log, sc, step.Name, err)
			observe(ctx, sc, "failed", started)
			return sc, err
		}

		e.record(log, sc, step.Name, EventSucceeded)
		e.transition(log, sc, step.Reaches)
	}

	e.transition(log, sc, StateCommitted)
	observe(ctx, sc, "committed", started)
	log.Info().Dur("duration", time.Since(started)).Msg("saga committed")
	return sc, nil
}

func observe(ctx context.Context, sc *Context, outcome string, started time.Time) {
	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("saga", sc.Saga.String()), attribute.String("outcome", outcome))
	m.SagaExecutionsTotal.Add(ctx, 1, attrs)
	m.SagaDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
}

func (e *Executor) compensate(ctx context.Context, log zerolog.Logger, sc *Context, failed StepName, cause error) error {
	e.transition(log, sc, StateCompensating)

	unwound := sc.stack.Unwind(ctx)
	for _, o := range unwound.Outcomes {
		telemetry.GetMetrics().SagaCompensationsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("saga", sc.Saga.String()),
			attribute.String("status", o.Status.String()),
		))

		e.record(log, sc, o.Step, EventUndoStarted)
		if o.Status == OutcomeFailed {
			e.record(log, sc, o.Step, EventUndoFailed)
			log.Error().Err(o.Err).Str("step", string(o.Step)).Str("kind", string(o.Kind)).Int("index", o.Index).
				Msg("compensation failed")
			continue
		}
		e.record(log, sc, o.Step, EventUndoFinished)
		log.Info().Str("step", string(o.Step)).Str("kind", string(o.Kind)).Int("index", o.Index).
			Msg("compensation succeeded")
	}

	e.transition(log, sc, StateFailed)
	return &StepError{Saga: sc.Saga, ID: sc.ID, Step: failed, Err: cause, Log: unwound}
}

func (e *Executor) runStep(ctx context.Context, step Step, sc *Context) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, string(step.Name))
	defer span.End()

	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("step %s panicked: %v", step.Name, v)
		}
	}()
	ctx = zerolog.Ctx(ctx).With().Str("step", string(step.Name)).Logger().WithContext(ctx)
	return step.Do(ctx, sc)
}

// loggerFor prefers the request-scoped logger carried by ctx.
func (e *Executor) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return e.logger
}

// Journal errors are logged; they never abort a saga.
func (e *Executor) record(log zerolog.Logger, sc *Context, step StepName, t EventType) {
	if err := sc.journal.Record(step, t); err != nil {
		log.Warn().Err(err).Msg("failed to record saga event")
	}
}

func (e *Executor) transition(log zerolog.Logger, sc *Context, to State) {
	if err := sc.journal.Transition(to); err != nil {
		log.Warn().Err(err).Msg("failed to record saga transition")
	}
}
