// Package riot logs into the game service and fetches competitive updates.
package riot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/okian/rrtrack/internal/domain/failure"
	"github.com/okian/rrtrack/internal/domain/model"
	"github.com/okian/rrtrack/pkg/logger"
	"github.com/okian/rrtrack/pkg/metrics"
	"github.com/sony/gobreaker"
)

// Default client configuration constants.
const (
	defaultAuthURL         = "https://auth.riotgames.com"
	defaultEntitlementsURL = "https://entitlements.auth.riotgames.com"
	defaultPDURLTemplate   = "https://pd.{region}.a.pvp.net"
	defaultTimeout         = 10 * time.Second
	defaultMatchCount      = 20
	defaultMaxRetries      = 2
	defaultRetryStep       = 250 * time.Millisecond
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
	maxBodyBytes           = 4 << 20
	abbreviatedBody        = 200
	nanosecondsPerMilli    = 1e6

	clientID     = "play-valorant-web-prod"
	redirectURI  = "https://playvalorant.com/opt_in"
	responseType = "token id_token"
	scope        = "account openid"
)

// Upstream steps, used as metric labels.
const (
	stepCookies      = "cookies"
	stepAuth         = "auth"
	stepEntitlements = "entitlements"
	stepUserInfo     = "userinfo"
	stepFetch        = "fetch"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Regions accepted by default.
var defaultRegions = []string{"na", "eu", "ap", "kr", "latam", "br"}

// Client fetches match histories from the game service.
type Client struct {
	httpClient      *http.Client
	timeout         time.Duration
	timeoutSet      bool
	authURL         string
	entitlementsURL string
	pdURLTemplate   string
	matchCount      int
	maxRetries      int
	retryStep       time.Duration
	breakerFailures int
	breakerTimeout  time.Duration
	regions         map[string]struct{}
	breaker         *gobreaker.CircuitBreaker
	logger          logger.Logger
}

// NewClient creates a game service client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		timeout:         defaultTimeout,
		authURL:         defaultAuthURL,
		entitlementsURL: defaultEntitlementsURL,
		pdURLTemplate:   defaultPDURLTemplate,
		matchCount:      defaultMatchCount,
		maxRetries:      defaultMaxRetries,
		retryStep:       defaultRetryStep,
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
		logger:          logger.Get().Named("riot"),
	}
	WithRegions(defaultRegions...)(c)

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "riot-pd",
		Timeout: c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(c.breakerFailures)
		},
		// Only transient failures count against the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, errTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(int(to))
			c.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return c
}

// session is the authenticated state for one lookup.
type session struct {
	hc           *http.Client
	clientAddr   string
	accessToken  string
	entitlements string
	subject      string
}

// FetchMatchHistory logs in with creds and returns the account's recent
// competitive updates, newest first. Login failures carry
// failure.ErrAuthentication; anything after login carries failure.ErrFetch.
func (c *Client) FetchMatchHistory(ctx context.Context, creds model.Credentials, clientAddr string) ([]model.RawMatchEvent, error) {
	region := strings.ToLower(strings.TrimSpace(creds.Region))
	if _, ok := c.regions[region]; !ok {
		return nil, failure.Wrap("riot.login", failure.ErrAuthentication, fmt.Errorf("%w: %q", ErrUnsupportedRegion, creds.Region))
	}

	s, err := c.login(ctx, creds, clientAddr)
	if err != nil {
		return nil, failure.Wrap("riot.login", failure.ErrAuthentication, err)
	}

	events, err := c.fetch(ctx, s, region)
	if err != nil {
		return nil, failure.Wrap("riot.fetch", failure.ErrFetch, err)
	}
	return events, nil
}

type authResponse struct {
	Type     string `json:"type"`
	Error    string `json:"error"`
	Response struct {
		Parameters struct {
			URI string `json:"uri"`
		} `json:"parameters"`
	} `json:"response"`
}

func (c *Client) login(ctx context.Context, creds model.Credentials, clientAddr string) (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	s := &session{
		hc: &http.Client{
			Transport: c.httpClient.Transport,
			Timeout:   c.timeout,
			Jar:       jar,
		},
		clientAddr: clientAddr,
	}

	authorizeURL := c.authURL + "/api/v1/authorization"
	cookieReq := map[string]string{
		"client_id":     clientID,
		"nonce":         "1",
		"redirect_uri":  redirectURI,
		"response_type": responseType,
		"scope":         scope,
	}
	if err := c.doJSON(ctx, s, stepCookies, http.MethodPost, authorizeURL, cookieReq, nil); err != nil {
		return nil, err
	}

	var auth authResponse
	authReq := map[string]any{
		"type":     "auth",
		"username": creds.Username,
		"password": creds.Password,
		"remember": false,
	}
	if err := c.doJSON(ctx, s, stepAuth, http.MethodPut, authorizeURL, authReq, &auth); err != nil {
		return nil, err
	}
	if auth.Error != "" || auth.Type != "response" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, firstNonEmpty(auth.Error, auth.Type))
	}
	token, err := accessTokenFrom(auth.Response.Parameters.URI)
	if err != nil {
		return nil, err
	}
	s.accessToken = token

	var ent struct {
		Token string `json:"entitlements_token"`
	}
	if err := c.doJSON(ctx, s, stepEntitlements, http.MethodPost, c.entitlementsURL+"/api/token/v1", struct{}{}, &ent); err != nil {
		return nil, err
	}
	if ent.Token == "" {
		return nil, fmt.Errorf("%w: entitlements_token", ErrMissingToken)
	}
	s.entitlements = ent.Token

	var info struct {
		Sub string `json:"sub"`
	}
	if err := c.doJSON(ctx, s, stepUserInfo, http.MethodPost, c.authURL+"/userinfo", struct{}{}, &info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingToken)
	}
	s.subject = info.Sub
	return s, nil
}

type competitiveUpdates struct {
	Subject string                `json:"Subject"`
	Matches []model.RawMatchEvent `json:"Matches"`
}

func (c *Client) fetch(ctx context.Context, s *session, region string) ([]model.RawMatchEvent, error) {
	base := strings.ReplaceAll(c.pdURLTemplate, "{region}", region)
	q := url.Values{}
	q.Set("startIndex", "0")
	q.Set("endIndex", strconv.Itoa(c.matchCount))
	fullURL := base + "/mmr/v1/players/" + url.PathEscape(s.subject) + "/competitiveupdates?" + q.Encode()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		var updates competitiveUpdates
		if err := c.doJSON(ctx, s, stepFetch, http.MethodGet, fullURL, nil, &updates); err != nil {
			return nil, err
		}
		return updates.Matches, nil
	})
	if err != nil {
		return nil, err
	}
	matches, _ := out.([]model.RawMatchEvent)
	if matches == nil {
		matches = []model.RawMatchEvent{}
	}
	return matches, nil
}

// doJSON sends one request, retrying transient failures, and decodes a 2xx
// body into target when target is non-nil.
func (c *Client) doJSON(ctx context.Context, s *session, step, method, fullURL string, body, target any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", step, err)
		}
		payload = b
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordUpstreamRetry(step)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", step, ctx.Err())
			case <-time.After(time.Duration(attempt) * c.retryStep):
			}
		}

		start := time.Now()
		raw, err := c.execute(ctx, s, method, fullURL, payload)
		elapsed := float64(time.Since(start).Nanoseconds()) / nanosecondsPerMilli
		if err == nil {
			metrics.RecordUpstreamCall(step, "ok", elapsed)
			if target == nil || len(raw) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, target); err != nil {
				return fmt.Errorf("%s: decode response: %w", step, err)
			}
			return nil
		}

		lastErr = fmt.Errorf("%s: %w", step, err)
		if !errors.Is(err, errTransient) {
			metrics.RecordUpstreamCall(step, "error", elapsed)
			return lastErr
		}
		metrics.RecordUpstreamCall(step, "transient", elapsed)
		c.logger.Debug(ctx, "retrying upstream call",
			logger.String("step", step),
			logger.Int("attempt", attempt+1),
			logger.Error(err))
	}
	return lastErr
}

func (c *Client) execute(ctx context.Context, s *session, method, fullURL string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}
	if s.entitlements != "" {
		req.Header.Set("X-Riot-Entitlements-JWT", s.entitlements)
	}
	if s.clientAddr != "" {
		req.Header.Set("X-Forwarded-For", s.clientAddr)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("send request: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: send request: %v", errTransient, err)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", errTransient, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	if isRetryableStatus(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %w: status=%d body=%s", errTransient, ErrUnexpectedStatus, resp.StatusCode, abbreviate(raw))
	}
	return nil, fmt.Errorf("%w: status=%d body=%s", ErrUnexpectedStatus, resp.StatusCode, abbreviate(raw))
}

// accessTokenFrom extracts access_token from the redirect URI fragment.
func accessTokenFrom(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse redirect uri: %w", err)
	}
	values, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return "", fmt.Errorf("parse redirect fragment: %w", err)
	}
	token := values.Get("access_token")
	if token == "" {
		return "", fmt.Errorf("%w: access_token", ErrMissingToken)
	}
	return token, nil
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > abbreviatedBody {
		return s[:abbreviatedBody] + "..."
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func trimURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
