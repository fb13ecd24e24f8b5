package tieba

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

const signatureSecret = "tiebaclient!!!"

const signField = "sign"

// Params is the payload of a single mobile api call.
type Params map[string]string

// Sign computes the checksum the mobile api expects in the `sign` field. Every field except
// `sign` itself takes part, keys are ordered by raw byte comparison.
func Sign(params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == signField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(params[k])
	}
	buf.WriteString(signatureSecret)

	sum := md5.Sum([]byte(buf.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Signed returns the form body for params with the signature attached. It must only be called
// once every other field has its final value.
func (p Params) Signed() url.Values {
	values := make(url.Values, len(p)+1)
	for k, v := range p {
		if k == signField {
			continue
		}
		values.Set(k, v)
	}
	values.Set(signField, Sign(p))
	return values
}

// clientIdentity is the set of fields the mobile api uses to identify the client, the
// platform rejects calls that don't carry the values of a known client build.
var clientIdentity = Params{
	"_client_type":    "2",
	"_client_id":      "wappc_1534235498291_488",
	"_client_version": "9.7.8.0",
	"_phone_imei":     "000000000000000",
	"model":           "MI+5",
	"net_type":        "1",
	"vcode_tag":       "11",
}

func newParams(fields Params) Params {
	out := make(Params, len(clientIdentity)+len(fields))
	for k, v := range clientIdentity {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
