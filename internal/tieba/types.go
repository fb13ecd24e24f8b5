package tieba

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ForumId is the platform's identifier for a forum. It is kept exactly as the api sent it,
// whether that was a JSON string or number.
type ForumId string

func (id *ForumId) UnmarshalJSON(b []byte) error {
	value, err := decodeScalar(b)
	if err != nil {
		return err
	}
	*id = ForumId(value.raw)
	return nil
}

func (id ForumId) String() string {
	return string(id)
}

// ForumRef identifies a forum for sign-in and follow calls.
type ForumRef struct {
	Id   ForumId `json:"id"`
	Name string  `json:"name"`
}

// FollowedPage is one page of the followed forums listing.
type FollowedPage struct {
	Forums  []ForumRef
	HasMore bool
}

// scalar is a JSON value the platform sends inconsistently as a string or as a number.
type scalar struct {
	present bool
	raw     string
}

func decodeScalar(b []byte) (scalar, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return scalar{}, nil
	}
	if b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		if err != nil {
			return scalar{}, err
		}
		return scalar{present: true, raw: s}, nil
	}
	var n json.Number
	err := json.Unmarshal(b, &n)
	if err != nil {
		return scalar{}, err
	}
	return scalar{present: true, raw: n.String()}, nil
}

func (s *scalar) UnmarshalJSON(b []byte) error {
	value, err := decodeScalar(b)
	if err != nil {
		return err
	}
	*s = value
	return nil
}

// code returns the scalar as an integer error code, ok is false when the value is absent
// or not an integer.
func (s scalar) code() (code int64, ok bool) {
	if !s.present {
		return 0, false
	}
	code, err := strconv.ParseInt(s.raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return code, true
}
