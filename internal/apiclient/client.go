package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dpp-pk/constructor-backend/internal/platform/ctxutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

const (
	DefaultTimeout = 30 * time.Second

	sessionCookie    = "dpp_session"
	sessionPath      = "/api/auth"
	refreshPath      = "/api/auth/refresh"
	maxResponseBytes = 64 << 20
)

type Config struct {
	BaseURL string
	Tokens  TokenStore
	// Transport overrides the HTTP transport, e.g. in tests.
	Transport http.RoundTripper
	Log       *logger.Logger
}

// Client talks to the constructor API. Build one per process and share it.
type Client struct {
	log       *logger.Logger
	base      *url.URL
	http      *http.Client
	jar       http.CookieJar
	tokens    TokenStore
	refreshes singleflight.Group

	Auth            *AuthService
	Users           *UserService
	Candidates      *CandidateService
	Programs        *ProgramService
	Wizard          *WizardService
	Expertises      *ExpertiseService
	Dictionaries    *DictionaryService
	Recommendations *RecommendationService
}

func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, fmt.Errorf("apiclient: base URL required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base URL %q", cfg.BaseURL)
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		log:    log.With("client", "APIClient"),
		base:   base,
		http:   &http.Client{Timeout: DefaultTimeout, Jar: jar, Transport: cfg.Transport},
		jar:    jar,
		tokens: tokens,
	}
	if creds, err := tokens.Load(); err == nil && creds.Session != "" {
		jar.SetCookies(c.sessionURL(), []*http.Cookie{{Name: sessionCookie, Value: creds.Session, Path: sessionPath}})
	}
	c.Auth = &AuthService{c: c}
	c.Users = &UserService{c: c}
	c.Candidates = &CandidateService{c: c}
	c.Programs = &ProgramService{c: c}
	c.Wizard = &WizardService{c: c}
	c.Expertises = &ExpertiseService{c: c}
	c.Dictionaries = &DictionaryService{c: c}
	c.Recommendations = &RecommendationService{c: c}
	return c, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) sessionURL() *url.URL {
	return c.base.ResolveReference(&url.URL{Path: c.base.Path + refreshPath})
}

// request describes one API call. JSON bodies are encoded once so the call can be replayed.
type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	raw         []byte
	contentType string
	public      bool
}

type result struct {
	status int
	header http.Header
	body   []byte
}

func (r request) encode() ([]byte, string, error) {
	if r.raw != nil {
		return r.raw, r.contentType, nil
	}
	if r.body == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
	}
	return b, "application/json", nil
}

// send performs r with the stored bearer token. A 401 triggers one shared refresh and exactly
// one retry; a second 401 drops the credentials.
func (c *Client) send(ctx context.Context, r request) (*result, error) {
	body, ctype, err := r.encode()
	if err != nil {
		return nil, err
	}
	creds, err := c.tokens.Load()
	if err != nil {
		return nil, err
	}
	res, err := c.roundTrip(ctx, r, body, ctype, creds.AccessToken)
	if err != nil {
		return nil, err
	}
	if res.status != http.StatusUnauthorized || r.public {
		return res, res.err()
	}

	token, err := c.refresh(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}
	res, err = c.roundTrip(ctx, r, body, ctype, token)
	if err != nil {
		return nil, err
	}
	if res.status == http.StatusUnauthorized {
		c.log.Debug("Request rejected after refresh", "path", r.path)
		c.forget()
		return nil, ErrSessionExpired
	}
	return res, res.err()
}

func (c *Client) roundTrip(ctx context.Context, r request, body []byte, ctype, token string) (*result, error) {
	u := c.base.ResolveReference(&url.URL{Path: c.base.Path + r.path})
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), r.method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" && !r.public {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", r.method, r.path, err)
	}
	return &result{status: resp.StatusCode, header: resp.Header, body: raw}, nil
}

func (r *result) err() error {
	if r.status >= 200 && r.status < 300 {
		return nil
	}
	return decodeError(r.status, r.body)
}

// refresh exchanges the session cookie for a new access token. Concurrent callers share one
// exchange; a caller holding a token that was already replaced gets the replacement.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		creds, err := c.tokens.Load()
		if err != nil {
			return "", err
		}
		if creds.AccessToken != "" && creds.AccessToken != stale {
			return creds.AccessToken, nil
		}
		sess, err := c.refreshSession(ctx)
		if err != nil {
			var ae *APIError
			if errors.As(err, &ae) {
				c.forget()
				return "", ErrSessionExpired
			}
			return "", err
		}
		return sess.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refreshSession(ctx context.Context) (*services.Session, error) {
	res, err := c.roundTrip(ctx, request{method: http.MethodPost, path: refreshPath, public: true}, nil, "", "")
	if err != nil {
		return nil, err
	}
	if err := res.err(); err != nil {
		return nil, err
	}
	var sess services.Session
	if err := json.Unmarshal(res.body, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if err := c.remember(&sess); err != nil {
		return nil, err
	}
	c.log.Debug("Access token refreshed")
	return &sess, nil
}

// remember stores the access token together with the session cookie the server just set.
func (c *Client) remember(sess *services.Session) error {
	creds, _ := c.tokens.Load()
	creds.AccessToken = sess.AccessToken
	if sess.User != nil {
		creds.Email = sess.User.Email
	}
	for _, ck := range c.jar.Cookies(c.sessionURL()) {
		if ck.Name == sessionCookie {
			creds.Session = ck.Value
		}
	}
	return c.tokens.Save(creds)
}

func (c *Client) forget() {
	if err := c.tokens.Clear(); err != nil {
		c.log.Warn("Could not clear credentials", "error", err)
	}
	c.jar.SetCookies(c.sessionURL(), []*http.Cookie{{Name: sessionCookie, Path: sessionPath, MaxAge: -1}})
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	res, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(res.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// Binary is a non-JSON payload such as a PDF or PNG.
type Binary struct {
	ContentType string
	Data        []byte
}

func (c *Client) binary(ctx context.Context, r request) (*Binary, error) {
	res, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Binary{ContentType: res.header.Get("Content-Type"), Data: res.body}, nil
}

func call[T any](ctx context.Context, c *Client, r request) (T, error) {
	var out T
	err := c.do(ctx, r, &out)
	return out, err
}

// ListOptions pages list endpoints. Zero values use the server defaults.
type ListOptions struct {
	Page  int
	Limit int
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

func setIf(q url.Values, key, val string) {
	if val = strings.TrimSpace(val); val != "" {
		q.Set(key, val)
	}
}
