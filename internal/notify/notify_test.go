package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"
	"time"
	"tieba-assist/internal/components/telemetry"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	path  string
	query string
	body  map[string]any
}

func newWebhookServer(t testing.TB, status int, response string) (*httptest.Server, *[]capturedRequest) {
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		captured = append(captured, capturedRequest{
			path:  r.URL.Path,
			query: r.URL.RawQuery,
			body:  body,
		})
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	return server, &captured
}

func TestLarkPayload(t *testing.T) {
	server, captured := newWebhookServer(t, http.StatusOK, `{"code":0,"msg":"success"}`)
	defer server.Close()

	sink := NewLark(server.URL+"/open-apis/bot/v2/hook/abc", time.Second, telemetry.NewRecorder())
	require.NoError(t, sink.Send(context.Background(), "hello"))

	require.Len(t, *captured, 1)
	require.Equal(t, "/open-apis/bot/v2/hook/abc", (*captured)[0].path)
	require.Equal(t, map[string]any{
		"msg_type": "text",
		"content":  map[string]any{"text": "hello"},
	}, (*captured)[0].body)
}

func TestWorkWechatPayload(t *testing.T) {
	server, captured := newWebhookServer(t, http.StatusOK, `{"errcode":0,"errmsg":"ok"}`)
	defer server.Close()

	sink := NewWorkWechat("the-key", server.URL, time.Second, telemetry.NewRecorder())
	require.NoError(t, sink.Send(context.Background(), "hello"))

	require.Len(t, *captured, 1)
	require.Equal(t, "/cgi-bin/webhook/send", (*captured)[0].path)
	require.Equal(t, "key=the-key", (*captured)[0].query)
	require.Equal(t, map[string]any{
		"msgtype": "text",
		"text":    map[string]any{"content": "hello"},
	}, (*captured)[0].body)
}

func TestWebhookFailures(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		response string
		sink     func(url string) Sink
	}{
		{
			name: "lark status", status: http.StatusBadRequest, response: `{}`,
			sink: func(url string) Sink { return NewLark(url, time.Second, telemetry.NewRecorder()) },
		},
		{
			name: "lark code", status: http.StatusOK, response: `{"code":19001,"msg":"param invalid"}`,
			sink: func(url string) Sink { return NewLark(url, time.Second, telemetry.NewRecorder()) },
		},
		{
			name: "lark legacy status code", status: http.StatusOK, response: `{"StatusCode":19021,"msg":"sign match fail"}`,
			sink: func(url string) Sink { return NewLark(url, time.Second, telemetry.NewRecorder()) },
		},
		{
			name: "wework errcode", status: http.StatusOK, response: `{"errcode":93000,"errmsg":"invalid webhook url"}`,
			sink: func(url string) Sink { return NewWorkWechat("k", url, time.Second, telemetry.NewRecorder()) },
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			server, _ := newWebhookServer(t, test.status, test.response)
			defer server.Close()
			require.Error(t, test.sink(server.URL).Send(context.Background(), "hello"))
		})
	}
}

type fakeSink struct {
	name string
	err  error
	sent []string
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	broken := &fakeSink{name: "broken", err: errors.New("connection refused")}
	working := &fakeSink{name: "working"}
	rec := telemetry.NewRecorder()

	delivered := Broadcast(context.Background(), []Sink{broken, working}, "summary", rec)
	require.Equal(t, 1, delivered)
	require.Equal(t, []string{"summary"}, broken.sent)
	require.Equal(t, []string{"summary"}, working.sent)
	require.Len(t, rec.Broken(report_broadcast), 1)
}

func TestEmail(t *testing.T) {
	var sent []*email.Email
	var auths []smtp.Auth
	sink := NewEmail(SmtpConfig{
		Server:       "smtp.example.com",
		Port:         587,
		EmailAddress: "bot@example.com",
		Password:     "secret",
	}, []string{"me@example.com"})
	sink.send = func(mail *email.Email, addr string, auth smtp.Auth) error {
		require.Equal(t, "smtp.example.com:587", addr)
		sent = append(sent, mail)
		auths = append(auths, auth)
		if auth != nil {
			return errors.New("smtp: server doesn't support AUTH")
		}
		return nil
	}

	require.NoError(t, sink.Send(context.Background(), "sign-in finished\n\ndetails"))
	require.Len(t, sent, 2)
	require.NotNil(t, auths[0])
	require.Nil(t, auths[1])
	require.Equal(t, "sign-in finished", sent[1].Subject)
	require.Equal(t, []string{"me@example.com"}, sent[1].To)
	require.Equal(t, "Tieba Assist <bot@example.com>", sent[1].From)

	require.Error(t, NewEmail(SmtpConfig{}, nil).Send(context.Background(), "x"))
}
