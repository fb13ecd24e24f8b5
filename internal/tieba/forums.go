package tieba

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_client_list_followed = "client.list-followed"
	report_client_list_trending = "client.list-trending"
)

type followedResponse struct {
	HasMore   scalar          `json:"has_more"`
	ForumList json.RawMessage `json:"forum_list"`
}

// the platform splits followed forums into two categories
type followedForumList struct {
	NonGcon []ForumRef `json:"non-gconforum"`
	Gcon    []ForumRef `json:"gconforum"`
}

// ListFollowed fetches a single page (starting at 1) of the forums the account follows.
func (c *Client) ListFollowed(ctx context.Context, page, size int) (FollowedPage, error) {
	ctx, span := tracer.Start(ctx, "client:ListFollowed")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	params := newParams(Params{
		"BDUSS":     c.credential,
		"from":      "1008621y",
		"page_no":   strconv.Itoa(page),
		"page_size": strconv.Itoa(size),
		"timestamp": c.timestamp(),
	})

	res, err := c.mobile.R().
		SetContext(ctx).
		SetFormDataFromValues(params.Signed()).
		Post("/c/f/forum/like")
	if err := transportError("list followed", res, err); err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		c.tel.ReportBroken(report_client_list_followed, err, page)
		return FollowedPage{}, err
	}

	var parsed followedResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		err = decodeError("list followed", res, err)
		span.SetStatus(codes.Error, "failed to parse json response")
		c.tel.ReportBroken(report_client_list_followed, err, page)
		return FollowedPage{}, err
	}

	// accounts without followed forums get an empty array instead of an object
	var list followedForumList
	trimmed := bytes.TrimSpace(parsed.ForumList)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &list)
		if err != nil {
			err = decodeError("list followed", res, err)
			span.SetStatus(codes.Error, "failed to parse forum list")
			c.tel.ReportBroken(report_client_list_followed, err, page)
			return FollowedPage{}, err
		}
	}

	forums := make([]ForumRef, 0, len(list.NonGcon)+len(list.Gcon))
	forums = append(forums, list.NonGcon...)
	forums = append(forums, list.Gcon...)

	out := FollowedPage{
		Forums:  forums,
		HasMore: parsed.HasMore.present && parsed.HasMore.raw == "1",
	}
	c.tel.ReportDebug("list followed", page, len(out.Forums), out.HasMore)
	return out, nil
}

type trendingResponse struct {
	Data struct {
		ForumInfo []struct {
			ForumId   ForumId `json:"forum_id"`
			ForumName string  `json:"forum_name"`
		} `json:"forum_info"`
	} `json:"data"`
}

// ListTrending fetches the platform's recommended forums. It needs no credential.
func (c *Client) ListTrending(ctx context.Context, page, size int) ([]ForumRef, error) {
	ctx, span := tracer.Start(ctx, "client:ListTrending")
	defer span.End()

	res, err := c.web.R().
		SetContext(ctx).
		SetQueryParam("pn", strconv.Itoa(page)).
		SetQueryParam("rn", strconv.Itoa(size)).
		Get("/f/index/rcmdForum")
	if err := transportError("list trending", res, err); err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		c.tel.ReportBroken(report_client_list_trending, err)
		return nil, err
	}

	var parsed trendingResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		err = decodeError("list trending", res, err)
		span.SetStatus(codes.Error, "failed to parse json response")
		c.tel.ReportBroken(report_client_list_trending, err)
		return nil, err
	}

	forums := make([]ForumRef, 0, len(parsed.Data.ForumInfo))
	for _, info := range parsed.Data.ForumInfo {
		id := info.ForumId
		if id == "" {
			id = "0"
		}
		forums = append(forums, ForumRef{Id: id, Name: info.ForumName})
	}
	return forums, nil
}
