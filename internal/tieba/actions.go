package tieba

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_client_sign_in = "client.sign-in"
	report_client_follow  = "client.follow"
)

// the sign-in endpoint reports errors at the top level
type signInResponse struct {
	ErrorCode scalar `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// SignIn performs the daily check-in on a forum. A nil error means the platform accepted it.
func (c *Client) SignIn(ctx context.Context, forum ForumRef) error {
	ctx, span := tracer.Start(ctx, "client:SignIn")
	defer span.End()
	span.SetAttributes(attribute.String("forum", forum.Name))

	tbs := c.auth.Token(ctx)
	if tbs == "" {
		span.SetStatus(codes.Error, "no session token")
		c.tel.ReportBroken(report_client_sign_in, ErrTokenUnavailable, forum.Name)
		return ErrTokenUnavailable
	}

	params := newParams(Params{
		"BDUSS":     c.credential,
		"fid":       forum.Id.String(),
		"kw":        forum.Name,
		"tbs":       tbs,
		"timestamp": c.timestamp(),
	})

	res, err := c.mobile.R().
		SetContext(ctx).
		SetFormDataFromValues(params.Signed()).
		Post("/c/c/forum/sign")
	if err := transportError("sign in", res, err); err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		c.tel.ReportBroken(report_client_sign_in, err, forum.Name)
		return err
	}

	var parsed signInResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		err = decodeError("sign in", res, err)
		span.SetStatus(codes.Error, "failed to parse json response")
		c.tel.ReportBroken(report_client_sign_in, err, forum.Name)
		return err
	}

	code, ok := parsed.ErrorCode.code()
	if !ok || code != 0 {
		appErr := &ApplicationError{
			Op:      "sign in",
			Code:    describeCode(parsed.ErrorCode),
			Message: parsed.ErrorMsg,
		}
		span.SetStatus(codes.Error, appErr.Error())
		c.tel.ReportWarning(report_client_sign_in, appErr, forum.Name)
		return appErr
	}

	c.tel.ReportInfo("signed in", forum.Name)
	return nil
}

// the follow endpoint nests its errors under "error", unlike sign-in
type followResponse struct {
	Error struct {
		Errno  scalar `json:"errno"`
		Errmsg string `json:"errmsg"`
	} `json:"error"`
}

// Follow subscribes the account to a forum. A nil error means the platform accepted it.
func (c *Client) Follow(ctx context.Context, forum ForumRef) error {
	ctx, span := tracer.Start(ctx, "client:Follow")
	defer span.End()
	span.SetAttributes(attribute.String("forum", forum.Name))

	tbs := c.auth.Token(ctx)
	if tbs == "" {
		span.SetStatus(codes.Error, "no session token")
		c.tel.ReportBroken(report_client_follow, ErrTokenUnavailable, forum.Name)
		return ErrTokenUnavailable
	}

	params := newParams(Params{
		"BDUSS":     c.credential,
		"fid":       forum.Id.String(),
		"kw":        forum.Name,
		"tbs":       tbs,
		"timestamp": c.timestamp(),
	})

	res, err := c.mobile.R().
		SetContext(ctx).
		SetFormDataFromValues(params.Signed()).
		Post("/c/c/forum/like")
	if err := transportError("follow", res, err); err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		c.tel.ReportBroken(report_client_follow, err, forum.Name)
		return err
	}

	var parsed followResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		err = decodeError("follow", res, err)
		span.SetStatus(codes.Error, "failed to parse json response")
		c.tel.ReportBroken(report_client_follow, err, forum.Name)
		return err
	}

	errno, ok := parsed.Error.Errno.code()
	if !ok || errno != 0 {
		appErr := &ApplicationError{
			Op:      "follow",
			Code:    describeCode(parsed.Error.Errno),
			Message: parsed.Error.Errmsg,
		}
		span.SetStatus(codes.Error, appErr.Error())
		c.tel.ReportWarning(report_client_follow, appErr, forum.Name)
		return appErr
	}

	c.tel.ReportInfo("followed", forum.Name)
	return nil
}

func describeCode(s scalar) string {
	if !s.present {
		return "<missing>"
	}
	if _, err := strconv.ParseInt(s.raw, 10, 64); err != nil {
		return fmt.Sprintf("%q", s.raw)
	}
	return s.raw
}
