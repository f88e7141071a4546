package council

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelink/clinical-core/pkg/logging"
)

const tracerName = "github.com/carelink/clinical-core/internal/council"

// Metrics counts provider calls. The observability package implements it.
type Metrics interface {
	ObserveProviderCall(provider, status string, seconds float64)
}

// Orchestrator convenes all configured providers concurrently and waits
// for every call to settle. A timeout or transport failure on one provider
// cancels only that call; its deterministic fallback payload is substituted
// so the request always reaches synthesis.
type Orchestrator struct {
	timeout time.Duration
	logger  *logging.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// OrchestratorOption configures the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMetrics attaches provider-call metrics.
func WithMetrics(m Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator builds an orchestrator with a per-provider call timeout.
func NewOrchestrator(timeout time.Duration, logger *logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	o := &Orchestrator{
		timeout: timeout,
		logger:  logger.Component("council"),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Invoke fans out to every provider concurrently and blocks until all have
// settled. The returned slice preserves provider order and always has one
// result per provider; provider failures are absorbed, never surfaced as a
// failure of the overall request.
func (o *Orchestrator) Invoke(ctx context.Context, providers []Provider, anonymizedInput string) []Result {
	ctx, span := o.tracer.Start(ctx, "council.Invoke",
		trace.WithAttributes(attribute.Int("council.provider_count", len(providers))),
	)
	defer span.End()

	results := make([]Result, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(idx int, provider Provider) {
			defer wg.Done()
			results[idx] = o.callOne(ctx, provider, anonymizedInput)
		}(i, p)
	}
	wg.Wait()

	fallbacks := 0
	for _, r := range results {
		if r.Fallback {
			fallbacks++
		}
	}
	span.SetAttributes(attribute.Int("council.fallback_count", fallbacks))
	return results
}

func (o *Orchestrator) callOne(ctx context.Context, p Provider, input string) Result {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	callCtx, span := o.tracer.Start(callCtx, "council.provider",
		trace.WithAttributes(
			attribute.String("council.provider", p.Name()),
			attribute.String("council.role", string(p.Role())),
		),
	)
	defer span.End()

	type settled struct {
		payload Payload
		err     error
	}
	done := make(chan settled, 1)

	start := time.Now()
	go func() {
		payload, err := p.Generate(callCtx, input)
		done <- settled{payload: payload, err: err}
	}()

	// Settle on whichever comes first so a provider that ignores its
	// context cannot hold the whole council past one timeout window.
	var payload Payload
	var err error
	select {
	case s := <-done:
		payload, err = s.payload, s.err
	case <-callCtx.Done():
		err = callCtx.Err()
	}
	elapsed := time.Since(start)

	if err == nil {
		o.observe(p.Name(), "ok", elapsed)
		return Result{Provider: p.Name(), Role: p.Role(), Payload: payload, Elapsed: elapsed}
	}

	kind := ErrProvider
	status := "error"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		kind = ErrProviderTimeout
		status = "timeout"
	}
	o.observe(p.Name(), status, elapsed)

	o.logger.Warn("provider call failed, substituting fallback",
		"provider", p.Name(),
		"role", string(p.Role()),
		"status", status,
		"error", err,
	)

	return Result{
		Provider: p.Name(),
		Role:     p.Role(),
		Payload:  FallbackPayload(p.Role()),
		Err:      fmt.Errorf("%w: %v", kind, err),
		Fallback: true,
		Elapsed:  elapsed,
	}
}

func (o *Orchestrator) observe(provider, status string, elapsed time.Duration) {
	if o.metrics != nil {
		o.metrics.ObserveProviderCall(provider, status, elapsed.Seconds())
	}
}
