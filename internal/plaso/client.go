package plaso

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"

	"github.com/oneyoungman/bosuoyun/internal/model"
)

const (
	// DefaultBaseURL is the production endpoint of the learning platform.
	DefaultBaseURL = "https://www.plaso.cn"

	pathCourseList  = "/course/api/v1/m/package/student/list"
	pathChapterList = "/yxt/servlet/bigDir/getXfgTask"

	userAgent     = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36"
	clientVersion = "5.62.327"

	validateTimeout = 10 * time.Second
	listTimeout     = 30 * time.Second

	retryBackoffMin = 500 * time.Millisecond
	retryBackoffMax = 2 * time.Second
	maxRetries      = 2
)

// Client defines the interface for querying the learning platform
type Client interface {
	// Validate checks the access token against the platform and returns the
	// signed-in user's profile when available.
	Validate(ctx context.Context) (*model.Profile, error)

	// ListCourses returns every course package the account is enrolled in.
	ListCourses(ctx context.Context) ([]model.Course, error)

	// ListChapters returns the chapters of a course's recording directory.
	ListChapters(ctx context.Context, originID string, dirID int64) ([]model.Chapter, error)
}

// client implements the Client interface
type client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
	retry      retrypolicy.RetryPolicy[json.RawMessage]
}

// Option customizes a Client built by NewClient.
type Option func(*client)

// WithBaseURL points the client at a different platform host.
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a platform client that authenticates every request with
// the given access token.
func NewClient(token string, logger zerolog.Logger, opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		token:      token,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.retry = retrypolicy.NewBuilder[json.RawMessage]().
		HandleIf(func(_ json.RawMessage, err error) bool {
			return isTransient(err)
		}).
		WithBackoff(retryBackoffMin, retryBackoffMax).
		WithMaxRetries(maxRetries).
		Build()

	return c
}

// envelope is the wrapper every platform endpoint answers with. Code zero
// means success and Obj carries the payload, whose shape depends on the
// endpoint.
type envelope struct {
	Code int             `json:"code"`
	Obj  json.RawMessage `json:"obj"`
}

type courseListRequest struct {
	Search string `json:"search"`
}

type chapterListRequest struct {
	HiddenTask   int    `json:"hiddenTask"`
	SourceWay    int    `json:"sourceWay"`
	NeedMyFav    bool   `json:"needMyFav"`
	ID           int64  `json:"id"`
	NeedProgress bool   `json:"needProgress"`
	XFileID      string `json:"xFileId"`
}

// Validate checks the access token by hitting the course list endpoint with
// a short deadline. An auth refusal maps to ErrTokenRejected; transport
// faults are passed through so callers can distinguish a bad token from a
// broken network.
func (c *client) Validate(ctx context.Context) (*model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	obj, err := c.postJSON(ctx, pathCourseList, courseListRequest{Search: ""})
	if err != nil {
		if isAuthFailure(err) {
			return nil, fmt.Errorf("%w: %w", ErrTokenRejected, err)
		}
		return nil, err
	}

	// The endpoint answers the session check with whatever it has; a course
	// array decodes to an empty profile and that is fine.
	var profile model.Profile
	if err := json.Unmarshal(obj, &profile); err != nil {
		return &model.Profile{}, nil
	}
	return &profile, nil
}

// ListCourses returns every course package the account is enrolled in.
func (c *client) ListCourses(ctx context.Context) ([]model.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	obj, err := c.postJSON(ctx, pathCourseList, courseListRequest{Search: ""})
	if err != nil {
		return nil, err
	}

	var courses []model.Course
	if err := json.Unmarshal(obj, &courses); err != nil {
		return nil, fmt.Errorf("failed to decode course list: %w", err)
	}

	c.logger.Debug().Int("count", len(courses)).Msg("Fetched course list")
	return courses, nil
}

// ListChapters returns the chapters of a course's recording directory.
func (c *client) ListChapters(ctx context.Context, originID string, dirID int64) ([]model.Chapter, error) {
	if originID == "" || dirID == 0 {
		return nil, ErrNoChapterDir
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	obj, err := c.postJSON(ctx, pathChapterList, chapterListRequest{
		HiddenTask:   1,
		SourceWay:    1,
		NeedMyFav:    true,
		ID:           dirID,
		NeedProgress: true,
		XFileID:      originID,
	})
	if err != nil {
		return nil, err
	}

	var chapters []model.Chapter
	if err := json.Unmarshal(obj, &chapters); err != nil {
		return nil, fmt.Errorf("failed to decode chapter list: %w", err)
	}

	c.logger.Debug().
		Str("originID", originID).
		Int64("dirID", dirID).
		Int("count", len(chapters)).
		Msg("Fetched chapter list")
	return chapters, nil
}

// postJSON sends one authenticated POST and returns the envelope payload,
// retrying transient faults with backoff.
func (c *client) postJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return failsafe.With[json.RawMessage](c.retry).
		WithContext(ctx).
		Get(func() (json.RawMessage, error) {
			return c.doPost(ctx, path, body)
		})
}

func (c *client) doPost(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("access-token", c.token)
	req.Header.Set("device", "pc")
	req.Header.Set("version", clientVersion)
	req.Header.Set("platform", "plaso")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Code != 0 {
		return nil, &APIError{Code: env.Code}
	}
	return env.Obj, nil
}

// isTransient reports whether err is worth retrying. Server-side faults and
// transport errors qualify; auth refusals, platform error codes and a
// cancelled context do not.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	return true
}
