package telemetry

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	scoped := NewScopedAPI("outer", NewScopedAPI("inner", rec))

	scoped.ReportBroken("client.sign-in", "param")
	scoped.ReportWarning("client.follow")
	scoped.ReportCount("forums", 3)

	broken := rec.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "inner: outer: client.sign-in", broken[0].Id)
	require.Equal(t, []any{"param"}, broken[0].Params)

	require.Equal(t, []string{"inner: outer: client.sign-in"}, rec.Broken("client.sign-in"))
	require.Empty(t, rec.Broken("client.follow"))

	counts := rec.Reports("count")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(3)}, counts[0].Params)

	require.Len(t, rec.Reports(""), 3)
}

func TestSlogAPI(t *testing.T) {
	var buf bytes.Buffer
	api := SlogAPI{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	api.ReportBroken("client.sign-in", errors.New("boom"), "go")
	out := buf.String()
	require.Contains(t, out, "level=ERROR")
	require.Contains(t, out, "id=client.sign-in")
	require.Contains(t, out, "err=boom")
	require.Contains(t, out, "p1=go")

	buf.Reset()
	api.ReportCount("forums", 12)
	require.Contains(t, buf.String(), "n=12")
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	rec := NewRecorder()
	client := resty.New().SetBaseURL(server.URL)
	InstrumentResty(client, "test", rec)

	_, err := client.R().
		SetHeader("Cookie", "BDUSS=secret-credential").
		SetFormData(map[string]string{"BDUSS": "secret-credential"}).
		Post("/c/c/forum/sign")
	require.NoError(t, err)

	debug := rec.Reports("debug")
	require.Len(t, debug, 2)
	require.Equal(t, report_resty_request, debug[0].Id)
	require.Equal(t, report_resty_response, debug[1].Id)
	require.Contains(t, debug[1].Params, "418 I'm a teapot")

	for _, report := range rec.Reports("") {
		require.NotContains(t, fmt.Sprint(report.Params...), "secret-credential")
	}
}
