// Package catalog is a small Comic Vine API client: volume search and the
// issue list of a volume.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/brogergvhs/comicd/internal/ui"
	"github.com/brogergvhs/comicd/internal/util"
)

const (
	BaseURL  = "https://comicvine.gamespot.com/api"
	PageSize = 100

	volumeFields = "id,name,publisher,start_year,count_of_issues"
	issueFields  = "id,issue_number,name,image,cover_date,site_detail_url"
)

var (
	ErrNotFound      = errors.New("not found in catalog")
	ErrMissingAPIKey = errors.New("comic vine API key not set (COMICVINE_API_KEY or comicvine_api_key)")
)

// APIError is a response whose status_code is not 1.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("comic vine: %s (status %d)", e.Message, e.StatusCode)
}

type Publisher struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Volume struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Publisher     *Publisher `json:"publisher"`
	StartYear     string     `json:"start_year"`
	CountOfIssues int        `json:"count_of_issues"`
}

func (v Volume) PublisherName() string {
	if v.Publisher == nil || v.Publisher.Name == "" {
		return "Unknown"
	}
	return v.Publisher.Name
}

type Image struct {
	SuperURL    string `json:"super_url"`
	OriginalURL string `json:"original_url"`
}

type Issue struct {
	ID            int    `json:"id"`
	IssueNumber   string `json:"issue_number"`
	Name          string `json:"name"`
	Image         Image  `json:"image"`
	CoverDate     string `json:"cover_date"`
	SiteDetailURL string `json:"site_detail_url"`
}

type envelope[T any] struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
	Results    []T    `json:"results"`
}

type Options struct {
	BaseURL      string
	APIKey       string
	HTTPClient   *http.Client
	RequestDelay time.Duration
	Attempts     int
	Log          *ui.Logger
}

type Client struct {
	base     string
	key      string
	http     *http.Client
	limiter  *rate.Limiter
	attempts int
	log      *ui.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		key:      opts.APIKey,
		http:     opts.HTTPClient,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		attempts: opts.Attempts,
		log:      opts.Log,
	}

	if c.base == "" {
		c.base = BaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.RequestDelay > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.RequestDelay), 1)
	}
	if c.attempts < 1 {
		c.attempts = 3
	}
	if c.log == nil {
		c.log = ui.NewLogger(false)
	}

	return c, nil
}

// APIKeyFromEnv loads envFile (a missing file is fine) and reads the key from
// COMICVINE_API_KEY or comicvine_api_key.
func APIKeyFromEnv(envFile string) string {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	for _, k := range []string{"COMICVINE_API_KEY", "comicvine_api_key"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}

	return ""
}

func get[T any](ctx context.Context, c *Client, resource string, q url.Values) (envelope[T], error) {
	var env envelope[T]

	if err := c.limiter.Wait(ctx); err != nil {
		return env, err
	}

	q.Set("api_key", c.key)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+resource+"/?"+q.Encode(), nil)
	if err != nil {
		return env, err
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debugf("catalog GET %s %s\n", resource, q.Get("filter"))

	resp, err := util.DoWithRetry(c.http, req, c.attempts, time.Second)
	if err != nil {
		return env, fmt.Errorf("comic vine %s: %w", resource, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return env, fmt.Errorf("comic vine %s: HTTP %d", resource, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, fmt.Errorf("comic vine %s: decode: %w", resource, err)
	}

	if env.StatusCode != 1 {
		return env, &APIError{StatusCode: env.StatusCode, Message: env.Error}
	}

	return env, nil
}

// SearchVolume prefers a case-insensitive exact name match and otherwise
// returns the first result.
func (c *Client) SearchVolume(ctx context.Context, name string) (Volume, error) {
	q := url.Values{}
	q.Set("filter", "name:"+name)
	q.Set("field_list", volumeFields)

	env, err := get[Volume](ctx, c, "volumes", q)
	if err != nil {
		return Volume{}, err
	}

	if len(env.Results) == 0 {
		return Volume{}, fmt.Errorf("volume %q: %w", name, ErrNotFound)
	}

	for _, v := range env.Results {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}

	c.log.Warnf("No exact match for %q, using %q\n", name, env.Results[0].Name)
	return env.Results[0], nil
}

// ListIssues pages through every issue of volumeID and returns them sorted
// with SortIssues.
func (c *Client) ListIssues(ctx context.Context, volumeID int) ([]Issue, error) {
	var issues []Issue

	for offset := 0; ; offset += PageSize {
		q := url.Values{}
		q.Set("filter", "volume:"+strconv.Itoa(volumeID))
		q.Set("field_list", issueFields)
		q.Set("limit", strconv.Itoa(PageSize))
		q.Set("offset", strconv.Itoa(offset))

		env, err := get[Issue](ctx, c, "issues", q)
		if err != nil {
			return issues, err
		}

		issues = append(issues, env.Results...)
		if len(env.Results) < PageSize {
			break
		}

		c.log.Debugf("fetched %d issues so far\n", len(issues))
	}

	SortIssues(issues)
	return issues, nil
}

// SortIssues orders issues by numeric issue number. If any number does not
// parse the input order is kept untouched.
func SortIssues(issues []Issue) {
	type keyed struct {
		issue Issue
		num   float64
	}

	ks := make([]keyed, len(issues))
	for i, is := range issues {
		f, err := strconv.ParseFloat(strings.TrimSpace(is.IssueNumber), 64)
		if err != nil {
			return
		}
		ks[i] = keyed{issue: is, num: f}
	}

	sort.SliceStable(ks, func(i, j int) bool { return ks[i].num < ks[j].num })

	for i := range ks {
		issues[i] = ks[i].issue
	}
}

// Numbers returns the issue numbers in order, skipping blanks.
func Numbers(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		if n := strings.TrimSpace(is.IssueNumber); n != "" {
			out = append(out, n)
		}
	}
	return out
}
