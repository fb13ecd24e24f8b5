// Package tiebatest provides an in-process fake of the platform's http api for tests.
package tiebatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"tieba-assist/internal/tieba"
)

// Response is a canned http response.
type Response struct {
	Status int
	Body   string
}

func (r Response) write(w http.ResponseWriter) {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, r.Body)
}

// Page is one page of the followed forums listing.
type Page struct {
	NonGcon []tieba.ForumRef
	Gcon    []tieba.ForumRef
	HasMore bool
}

// Platform is a fake of both the mobile and the web api, point ClientOptions.MobileBaseUrl and
// ClientOptions.WebBaseUrl at Platform.URL.
//
// Signed endpoints reject bodies whose sign field doesn't match or whose BDUSS is not
// Credential, the same way the real platform does.
type Platform struct {
	*httptest.Server

	Credential string

	mutex sync.Mutex
	hits  map[string]int
	forms map[string][]url.Values

	Token         Response
	FollowedPages []Page
	// FollowedRaw overrides the response of a page (keyed by page_no).
	FollowedRaw map[int]Response
	// FollowedFailures makes a page (keyed by page_no) fail with a 500 this many times first.
	FollowedFailures map[int]int
	// SignIn and Follow responses are keyed by forum name, missing names succeed.
	SignIn   map[string]Response
	Follow   map[string]Response
	Trending Response
}

func NewPlatform(credential string) *Platform {
	p := &Platform{
		Credential:       credential,
		hits:             map[string]int{},
		forms:            map[string][]url.Values{},
		Token:            Response{Body: `{"tbs":"test-tbs","is_login":1}`},
		FollowedRaw:      map[int]Response{},
		FollowedFailures: map[int]int{},
		SignIn:           map[string]Response{},
		Follow:           map[string]Response{},
		Trending:         Response{Body: `{"data":{"forum_info":[]}}`},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/dc/common/tbs", p.handleToken)
	mux.HandleFunc("/c/f/forum/like", p.signed(p.handleFollowed))
	mux.HandleFunc("/c/c/forum/sign", p.signed(p.handleSignIn))
	mux.HandleFunc("/c/c/forum/like", p.signed(p.handleFollow))
	mux.HandleFunc("/f/index/rcmdForum", p.handleTrending)
	p.Server = httptest.NewServer(mux)

	return p
}

// Hits returns how many requests reached path.
func (p *Platform) Hits(path string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.hits[path]
}

// Forms returns the decoded bodies of every signed request sent to path.
func (p *Platform) Forms(path string) []url.Values {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]url.Values(nil), p.forms[path]...)
}

func (p *Platform) record(r *http.Request) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.hits[r.URL.Path]++
}

func (p *Platform) handleToken(w http.ResponseWriter, r *http.Request) {
	p.record(r)
	if r.Header.Get("Cookie") != "BDUSS="+p.Credential {
		Response{Body: `{"tbs":"","is_login":0}`}.write(w)
		return
	}
	p.mutex.Lock()
	res := p.Token
	p.mutex.Unlock()
	res.write(w)
}

func (p *Platform) signed(next func(http.ResponseWriter, url.Values)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.record(r)
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		err := r.ParseForm()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		form := r.PostForm

		p.mutex.Lock()
		p.forms[r.URL.Path] = append(p.forms[r.URL.Path], form)
		p.mutex.Unlock()

		params := tieba.Params{}
		for k := range form {
			params[k] = form.Get(k)
		}
		if form.Get("sign") != tieba.Sign(params) || form.Get("BDUSS") != p.Credential {
			Response{Body: `{"error_code":"-1","error_msg":"sign error","error":{"errno":-1,"errmsg":"sign error"}}`}.write(w)
			return
		}
		next(w, form)
	}
}

type forumListJSON struct {
	NonGcon []tieba.ForumRef `json:"non-gconforum"`
	Gcon    []tieba.ForumRef `json:"gconforum"`
}

type followedJSON struct {
	HasMore   string        `json:"has_more"`
	ForumList forumListJSON `json:"forum_list"`
}

func (p *Platform) handleFollowed(w http.ResponseWriter, form url.Values) {
	page, err := strconv.Atoi(form.Get("page_no"))
	if err != nil || page < 1 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.FollowedFailures[page] > 0 {
		p.FollowedFailures[page]--
		Response{Status: http.StatusInternalServerError, Body: "internal error"}.write(w)
		return
	}
	if raw, ok := p.FollowedRaw[page]; ok {
		raw.write(w)
		return
	}
	if page > len(p.FollowedPages) {
		Response{Body: `{"has_more":"0","forum_list":[]}`}.write(w)
		return
	}

	current := p.FollowedPages[page-1]
	body := followedJSON{
		HasMore: "0",
		ForumList: forumListJSON{
			NonGcon: nonNil(current.NonGcon),
			Gcon:    nonNil(current.Gcon),
		},
	}
	if current.HasMore {
		body.HasMore = "1"
	}
	serialized, _ := json.Marshal(body)
	Response{Body: string(serialized)}.write(w)
}

func nonNil(forums []tieba.ForumRef) []tieba.ForumRef {
	if forums == nil {
		return []tieba.ForumRef{}
	}
	return forums
}

func (p *Platform) handleSignIn(w http.ResponseWriter, form url.Values) {
	p.mutex.Lock()
	res, ok := p.SignIn[form.Get("kw")]
	p.mutex.Unlock()
	if !ok {
		res = Response{Body: `{"error_code":"0","user_info":{"is_sign_in":1}}`}
	}
	res.write(w)
}

func (p *Platform) handleFollow(w http.ResponseWriter, form url.Values) {
	p.mutex.Lock()
	res, ok := p.Follow[form.Get("kw")]
	p.mutex.Unlock()
	if !ok {
		res = Response{Body: `{"error":{"errno":0,"errmsg":"success"}}`}
	}
	res.write(w)
}

func (p *Platform) handleTrending(w http.ResponseWriter, r *http.Request) {
	p.record(r)
	p.mutex.Lock()
	res := p.Trending
	p.mutex.Unlock()
	res.write(w)
}

// Forums builds n forums named prefix-<i> with ids starting at firstId.
func Forums(prefix string, firstId, n int) []tieba.ForumRef {
	out := make([]tieba.ForumRef, n)
	for i := range out {
		out[i] = tieba.ForumRef{
			Id:   tieba.ForumId(strconv.Itoa(firstId + i)),
			Name: fmt.Sprintf("%s-%d", prefix, i),
		}
	}
	return out
}
