package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abhisek/ailp/internal/logger"
)

// RequestEvent is the audit record of one provider call.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	CostUSD      float64
	RequestBody  string
	ResponseBody string
}

// EventRecorder persists request events.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, ev RequestEvent) error
}

type instrumented struct {
	inner    Provider
	recorder EventRecorder
	log      *logger.Logger
}

// WithLogging traces, logs and records every call made through p. Either
// recorder or log may be nil.
func WithLogging(p Provider, recorder EventRecorder, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &instrumented{inner: p, recorder: recorder, log: log}
}

func (l *instrumented) ModelID() string      { return l.inner.ModelID() }
func (l *instrumented) ProviderName() string { return l.inner.ProviderName() }

func (l *instrumented) Generate(ctx context.Context, req Request) (*Response, error) {
	ev := RequestEvent{
		Provider:    l.inner.ProviderName(),
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		RequestBody: transcript(req),
	}
	ctx, span := otel.Tracer("ailp/llm").Start(ctx, "llm.generate")
	defer span.End()

	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	ev.LatencyMs = time.Since(start).Milliseconds()
	ev.Success = err == nil

	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
		if p, ok := PriceOf(resp.Model); ok {
			ev.CostUSD = p.Cost(ev.InputTokens, ev.OutputTokens)
		}
	}
	span.SetAttributes(
		attribute.String("llm.provider", ev.Provider),
		attribute.String("llm.model", ev.Model),
		attribute.String("llm.purpose", ev.Purpose),
		attribute.Int("llm.input_tokens", ev.InputTokens),
		attribute.Int("llm.output_tokens", ev.OutputTokens),
	)

	fields := []any{"provider", ev.Provider, "model", ev.Model, "purpose", ev.Purpose, "latency_ms", ev.LatencyMs}
	if err != nil {
		ev.ErrorMessage = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		l.log.Warn("llm request failed", append(fields, "error", err)...)
	} else {
		l.log.Debug("llm request", append(fields, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)...)
	}

	// A failed write never fails the request.
	if l.recorder != nil {
		if rerr := l.recorder.AppendLLMRequest(ctx, ev); rerr != nil {
			l.log.Warn("record llm request", "purpose", ev.Purpose, "error", rerr)
		}
	}
	return resp, err
}

// transcript renders a request the way `ailp llm view` shows it.
func transcript(req Request) string {
	var b strings.Builder
	section := func(title, body string) {
		b.WriteString("[" + title + "]\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		section(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			section("schema: "+req.Schema.Name, string(def))
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
