package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/desertthunder/qbx/internal/shared"
	"golang.org/x/oauth2"
)

var md5Digest = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// PasswordDigest returns the md5 hex digest expected by the login endpoint.
// A password that already looks like a digest is returned unchanged.
func PasswordDigest(password string) string {
	if md5Digest.MatchString(password) {
		return strings.ToLower(password)
	}
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// SessionOpts configures a [Session].
type SessionOpts struct {
	BaseURL    string
	AppID      string
	Email      string
	Password   string
	Token      string             // previously saved user auth token, reused until rejected
	HTTPClient *http.Client       // defaults to [http.DefaultClient]
	OnLogin    func(token string) // called after every successful login
}

// Session provides the user auth token sent with every catalog request.
//
// It implements [oauth2.TokenSource]: tokens never expire locally, so [oauth2.ReuseTokenSource] caches the first
// one until [Session.Invalidate] discards it after the API rejects it.
type Session struct {
	ctx  context.Context
	opts SessionOpts

	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewSession creates a [Session]. ctx bounds every login request.
func NewSession(ctx context.Context, opts SessionOpts) *Session {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	s := &Session{ctx: ctx, opts: opts}
	var initial *oauth2.Token
	if opts.Token != "" {
		initial = &oauth2.Token{AccessToken: opts.Token}
	}
	s.src = oauth2.ReuseTokenSource(initial, loginSource{s})
	return s
}

// Token returns the cached token, logging in when there is none.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()
	return src.Token()
}

// CanLogin reports whether the session holds the credentials needed to obtain a new token.
func (s *Session) CanLogin() bool {
	return s.opts.Email != "" && s.opts.Password != ""
}

// Invalidate drops the cached token so the next call to [Session.Token] logs in again.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = oauth2.ReuseTokenSource(nil, loginSource{s})
}

type loginSource struct{ s *Session }

func (l loginSource) Token() (*oauth2.Token, error) {
	token, err := l.s.login(l.s.ctx)
	if err != nil {
		return nil, err
	}
	if l.s.opts.OnLogin != nil {
		l.s.opts.OnLogin(token)
	}
	return &oauth2.Token{AccessToken: token, TokenType: "X-User-Auth-Token"}, nil
}

type loginResponse struct {
	UserAuthToken string `json:"user_auth_token"`
	User          struct {
		ID    flexID `json:"id"`
		Login string `json:"login"`
	} `json:"user"`
}

// login exchanges the email and password for a user auth token.
func (s *Session) login(ctx context.Context) (string, error) {
	if !s.CanLogin() {
		return "", fmt.Errorf("%w: email and password are required to log in", shared.ErrNotAuthenticated)
	}

	params := url.Values{
		"email":    {s.opts.Email},
		"password": {PasswordDigest(s.opts.Password)},
		"app_id":   {s.opts.AppID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.BaseURL+"/user/login?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-App-Id", s.opts.AppID)

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, parseAPIError(resp.StatusCode, body))
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if lr.UserAuthToken == "" {
		return "", fmt.Errorf("%w: no token in login response", shared.ErrAuthFailed)
	}
	return lr.UserAuthToken, nil
}

var _ oauth2.TokenSource = (*Session)(nil)
