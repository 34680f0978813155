// Package redmine fetches ticket titles from a Redmine instance using a
// scraped login session. The tracker's markup is an unstable collaborator;
// only the identifier-to-title contract matters to the pipeline, so the
// fallback extraction is deliberately loose.
package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ysakai/filedrop/internal/common"
)

const requestTimeout = 10 * time.Second

var (
	csrfRe = regexp.MustCompile(`name="authenticity_token"\s+value="([^"]+)"`)

	// Title extraction fallbacks when the JSON API is unavailable: the
	// subject heading, then the page title stripped of its "#id:" prefix.
	subjectHeadingRe = regexp.MustCompile(`<h2[^>]*class="[^"]*subject[^"]*"[^>]*>([^<]+)</h2>`)
	subjectDivRe     = regexp.MustCompile(`<div class="subject"[^>]*>\s*<h2>([^<]+)</h2>`)
	pageTitleRe      = regexp.MustCompile(`<title>([^<]+)</title>`)
	titlePrefixRe    = regexp.MustCompile(`#\d+[:\s]+(.+?)\s*[-–]\s*\S+$`)
)

// Client is an authenticated Redmine session. It implements
// service.TitleLookup.
type Client struct {
	httpClient *http.Client
	baseURL    string
	mu         sync.Mutex
	loggedIn   bool
	username   string
}

// NewClient creates a client for host. A bare host name gets an https
// scheme; a full URL (as test servers supply) is used as-is.
func NewClient(host string) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: redmine host", common.ErrMissingConfig)
	}
	base := host
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
		},
	}, nil
}

// Login authenticates against the Redmine login form, scraping the CSRF
// token from the login page first.
func (c *Client) Login(ctx context.Context, username, password string) error {
	loginURL := c.baseURL + "/login"

	page, _, err := c.get(ctx, loginURL)
	if err != nil {
		return fmt.Errorf("failed to fetch login page: %w", err)
	}

	form := url.Values{
		"username": {username},
		"password": {password},
		"login":    {"Login"},
		"back_url": {c.baseURL},
	}
	if m := csrfRe.FindStringSubmatch(page); m != nil {
		form.Set("authenticity_token", m[1])
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	// Success shows up as a redirect away from the form or a page with a
	// logout link.
	finalURL := resp.Request.URL.String()
	if strings.Contains(strings.ToLower(string(body)), "logout") || finalURL != loginURL {
		c.mu.Lock()
		c.loggedIn = true
		c.username = username
		c.mu.Unlock()
		return nil
	}
	return common.NewUserError("invalid username or password", nil)
}

// IsLoggedIn reports whether a login has succeeded on this session.
func (c *Client) IsLoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}

// Username returns the logged-in user, or "".
func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

type issueResponse struct {
	Issue struct {
		Subject string `json:"subject"`
	} `json:"issue"`
}

// FetchTitle returns the subject of an issue, preferring the JSON API and
// falling back to scraping the issue page.
func (c *Client) FetchTitle(ctx context.Context, issue string) (string, error) {
	if !c.IsLoggedIn() {
		return "", common.ErrNotLoggedIn
	}

	body, status, err := c.get(ctx, fmt.Sprintf("%s/issues/%s.json", c.baseURL, issue))
	if err == nil && status == http.StatusOK {
		var parsed issueResponse
		if jsonErr := json.Unmarshal([]byte(body), &parsed); jsonErr == nil && parsed.Issue.Subject != "" {
			return parsed.Issue.Subject, nil
		}
	}

	body, status, err = c.get(ctx, fmt.Sprintf("%s/issues/%s", c.baseURL, issue))
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
		if title := extractTitle(body); title != "" {
			return title, nil
		}
		return "", fmt.Errorf("could not extract title for issue #%s", issue)
	case http.StatusNotFound:
		return "", fmt.Errorf("issue #%s not found", issue)
	case http.StatusForbidden:
		return "", fmt.Errorf("access denied for issue #%s", issue)
	default:
		return "", fmt.Errorf("unexpected status %d for issue #%s", status, issue)
	}
}

func (c *Client) get(ctx context.Context, rawURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), resp.StatusCode, nil
}

func extractTitle(page string) string {
	if m := subjectDivRe.FindStringSubmatch(page); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := subjectHeadingRe.FindStringSubmatch(page); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := pageTitleRe.FindStringSubmatch(page); m != nil {
		title := strings.TrimSpace(m[1])
		if clean := titlePrefixRe.FindStringSubmatch(title); clean != nil {
			return strings.TrimSpace(clean[1])
		}
		return title
	}
	return ""
}
