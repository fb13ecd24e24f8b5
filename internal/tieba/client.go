package tieba

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"
	"tieba-assist/internal/components/assert"
	"tieba-assist/internal/components/chrono"
	"tieba-assist/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("tieba-assist/tieba")

const (
	DefaultMobileBaseUrl = "http://c.tieba.baidu.com"
	DefaultWebBaseUrl    = "https://tieba.baidu.com"

	// the page size the mobile client itself uses when listing followed forums
	DefaultPageSize = 200

	webUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/95.0.4638.69 Safari/537.36"
)

type ClientOptions struct {
	// Credential is the BDUSS cookie of the account.
	Credential string

	MobileBaseUrl string
	WebBaseUrl    string

	// Timeout applies to every request, it defaults to 15 seconds.
	Timeout time.Duration
	// RequestsPerSecond caps the client's request rate, zero disables the limit.
	RequestsPerSecond float64

	// PageSize and PageAttempts drive CollectAllFollowed, they default to DefaultPageSize
	// and DefaultPageAttempts.
	PageSize     int
	PageAttempts int
}

// Client talks to the two api surfaces of the platform: the signed mobile api used for
// listing, sign-in and follow, and the web api used for the session token and trending forums.
//
// A Client is meant to be used by a single goroutine.
type Client struct {
	credential string
	mobile     *resty.Client
	web        *resty.Client
	auth       *SessionAuth

	pageSize     int
	pageAttempts int

	clock chrono.API
	tel   telemetry.API
}

func NewClient(opts ClientOptions, clock chrono.API, tel telemetry.API) (*Client, error) {
	assert.NotEmptyStr(opts.Credential, "credential")
	assert.NotNil(clock, "clock")
	assert.NotNil(tel, "tel")

	tel = telemetry.NewScopedAPI("tieba", tel)

	if opts.MobileBaseUrl == "" {
		opts.MobileBaseUrl = DefaultMobileBaseUrl
	}
	if opts.WebBaseUrl == "" {
		opts.WebBaseUrl = DefaultWebBaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageAttempts <= 0 {
		opts.PageAttempts = DefaultPageAttempts
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		// burst of 1, requests are issued one at a time anyway
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	mobile := resty.New()
	mobile.SetBaseURL(opts.MobileBaseUrl)
	mobile.SetTimeout(opts.Timeout)
	mobile.SetHeader("user-agent", "bdtb for Android 9.7.8.0")
	limitRequests(mobile, limiter)
	telemetry.InstrumentResty(mobile, "tieba-assist/tieba/mobile", tel)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	web := resty.New()
	web.SetBaseURL(opts.WebBaseUrl)
	web.SetTimeout(opts.Timeout)
	web.SetCookieJar(jar)
	web.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(web.GetClient().Transport)
	limitRequests(web, limiter)
	telemetry.InstrumentResty(web, "tieba-assist/tieba/web", tel)

	return &Client{
		credential: opts.Credential,
		mobile:     mobile,
		web:        web,
		auth:       newSessionAuth(web, opts.Credential, tel),

		pageSize:     opts.PageSize,
		pageAttempts: opts.PageAttempts,

		clock: clock,
		tel:   tel,
	}, nil
}

func limitRequests(client *resty.Client, limiter *rate.Limiter) {
	if limiter == nil {
		return
	}
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})
}

// Auth returns the session token source owned by the client.
func (c *Client) Auth() *SessionAuth {
	return c.auth
}

func (c *Client) timestamp() string {
	return strconv.FormatInt(c.clock.Now().Unix(), 10)
}

func transportError(op string, res *resty.Response, err error) error {
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if res.StatusCode() != http.StatusOK {
		return &TransportError{
			Op:         op,
			StatusCode: res.StatusCode(),
			Body:       res.String(),
		}
	}
	return nil
}

func decodeError(op string, res *resty.Response, err error) error {
	return &TransportError{
		Op:         op,
		StatusCode: res.StatusCode(),
		Body:       res.String(),
		Err:        fmt.Errorf("decode json: %w", err),
	}
}
