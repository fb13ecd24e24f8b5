package tieba

import (
	"context"
	"encoding/json"
	"fmt"
	"tieba-assist/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_session_auth_token = "session-auth.token"
)

// SessionAuth lazily fetches the session token (tbs) that write calls must carry.
//
// Once a non-empty token has been fetched it is reused for the lifetime of the SessionAuth,
// there is no expiry detection. Failed fetches are not cached, the next call tries again.
type SessionAuth struct {
	http       *resty.Client
	credential string
	token      string

	tel telemetry.API
}

func newSessionAuth(http *resty.Client, credential string, tel telemetry.API) *SessionAuth {
	return &SessionAuth{http: http, credential: credential, tel: tel}
}

type tokenResponse struct {
	Tbs     *string `json:"tbs"`
	IsLogin int     `json:"is_login"`
}

// Token returns the session token, or "" if it could not be acquired.
func (a *SessionAuth) Token(ctx context.Context) string {
	if a.token != "" {
		return a.token
	}

	ctx, span := tracer.Start(ctx, "session-auth:Token")
	defer span.End()

	res, err := a.http.R().
		SetContext(ctx).
		SetHeader("Cookie", fmt.Sprintf("BDUSS=%s", a.credential)).
		SetHeader("Host", "tieba.baidu.com").
		SetHeader("User-Agent", webUserAgent).
		SetHeader("Referer", "https://tieba.baidu.com/").
		Get("/dc/common/tbs")
	if err := transportError("token", res, err); err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		a.tel.ReportBroken(report_session_auth_token, err)
		return ""
	}

	var parsed tokenResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse json response")
		a.tel.ReportBroken(report_session_auth_token, decodeError("token", res, err))
		return ""
	}
	if parsed.Tbs == nil || *parsed.Tbs == "" {
		span.SetStatus(codes.Error, "missing tbs field")
		a.tel.ReportBroken(
			report_session_auth_token,
			fmt.Errorf("response has no tbs field"),
			parsed.IsLogin,
		)
		return ""
	}

	a.token = *parsed.Tbs
	return a.token
}
