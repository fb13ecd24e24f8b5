package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

type restyHooks struct {
	tel     API
	tracer  trace.Tracer
	counter *atomic.Uint64
}

// InstrumentResty opens a span for every request made by client and reports it. Only the
// method, url, status and duration are reported, request bodies and headers carry the user's
// credential.
func InstrumentResty(client *resty.Client, tracerName string, tel API) {
	hooks := restyHooks{
		tel:     tel,
		tracer:  otel.Tracer(tracerName),
		counter: &atomic.Uint64{},
	}
	client.OnBeforeRequest(hooks.before)
	client.OnAfterResponse(hooks.after)
	client.OnError(hooks.failed)
}

type requestStateKey struct{}

type requestState struct {
	id      uint64
	started time.Time
}

func stateOf(ctx context.Context) (id uint64, elapsed time.Duration) {
	state, ok := ctx.Value(requestStateKey{}).(requestState)
	if !ok {
		return 0, 0
	}
	return state.id, time.Since(state.started)
}

func (h restyHooks) before(_ *resty.Client, req *resty.Request) error {
	ctx, _ := h.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))

	id := h.counter.Add(1)
	req.SetContext(context.WithValue(ctx, requestStateKey{}, requestState{
		id:      id,
		started: time.Now(),
	}))
	h.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)
	return nil
}

func (h restyHooks) after(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", res.Request.Method),
		attribute.String("http.url", res.Request.URL),
		attribute.Int("http.status_code", res.StatusCode()),
	)
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, res.Status())
	}

	id, elapsed := stateOf(ctx)
	h.tel.ReportDebug(report_resty_response, id, res.Status(), elapsed.String())
	return nil
}

func (h restyHooks) failed(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")

	id, elapsed := stateOf(ctx)
	h.tel.ReportBroken(report_resty_response, err, id, req.Method, req.URL, elapsed.String())
}
