package tipstrr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Vodeneev/tipstrr-export/internal/pkg/config"
)

// Listing page size fixed by the site API.
const pageSize = 10

var ErrLoginFailed = errors.New("tipstrr: login failed")

// Client holds the authenticated session against tipstrr.com. Cookies acquired
// during Login are reused by every later request; the client is not safe for
// concurrent use and the scrape is strictly sequential anyway.
type Client struct {
	http      *resty.Client
	baseURL   string
	loginURL  string
	origin    string
	tipster   string
	pageDelay time.Duration

	// Set by the redirect policy, inspected by Login to disambiguate
	// non-200 responses that went through the client's own redirect handling.
	redirected atomic.Bool
}

func NewClient(cfg *config.TipstrrConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{
		baseURL:   baseURL,
		loginURL:  cfg.LoginURL,
		origin:    originOf(cfg.LoginURL),
		tipster:   cfg.Tipster,
		pageDelay: cfg.PageDelay,
	}

	client := resty.New()
	if jar, err := cookiejar.New(nil); err == nil {
		client.SetCookieJar(jar)
	}
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept", "application/json, text/plain, */*")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.SetHeader("Referer", fmt.Sprintf("%s/tipster/%s/results", baseURL, cfg.Tipster))
	for key, value := range cfg.Headers {
		client.SetHeader(key, value)
	}
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		c.redirected.Store(true)
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}))

	c.http = client
	return c
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

// Login establishes the authenticated session: a warm-up request on the site
// root for baseline cookies, then a form-encoded login. A 200 is success. A
// non-200 final status that was reached through a redirect is treated as
// tentative success (the site 30x-es into the account page and the redirect
// target does not always answer 200); a plain non-200 is ErrLoginFailed.
func (c *Client) Login(ctx context.Context, username, password string) error {
	slog.Info("tipstrr: acquiring baseline cookies")
	if _, err := c.http.R().SetContext(ctx).Get(c.origin); err != nil {
		return fmt.Errorf("warm-up request: %w", err)
	}

	slog.Info("tipstrr: logging in", "username", username)
	c.redirected.Store(false)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Origin", c.origin).
		SetHeader("Referer", c.loginURL).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		Post(c.loginURL)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		if c.redirected.Load() {
			slog.Warn("tipstrr: login answered non-200 after a redirect, assuming session is live",
				"status", resp.StatusCode())
			return nil
		}
		return fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode())
	}

	slog.Info("tipstrr: login successful")
	return nil
}

// FetchTips walks the completed-tips listing in offset order, 10 tips per
// page, until target tips are collected or the source is exhausted (an empty
// or short page). target <= 0 means fetch everything. A failure on the first
// page aborts; a failure on a later page keeps what was already collected.
func (c *Client) FetchTips(ctx context.Context, target int) ([]TipStub, error) {
	listURL := fmt.Sprintf("%s/api/portfolio/%s/tips/completed", c.baseURL, c.tipster)

	var tips []TipStub
	skip := 0
	page := 1
	for {
		select {
		case <-ctx.Done():
			return tips, ctx.Err()
		default:
		}

		if target > 0 && len(tips) >= target {
			break
		}

		slog.Info("tipstrr: fetching listing page", "page", page, "skip", skip)
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("skip", strconv.Itoa(skip)).
			Get(listURL)
		if err != nil {
			if len(tips) == 0 {
				return nil, fmt.Errorf("list tips: %w", err)
			}
			slog.Warn("tipstrr: listing request failed, keeping collected tips", "error", err)
			break
		}
		if resp.StatusCode() != http.StatusOK {
			if len(tips) == 0 {
				return nil, fmt.Errorf("list tips: status %d", resp.StatusCode())
			}
			slog.Warn("tipstrr: listing answered non-200, keeping collected tips", "status", resp.StatusCode())
			break
		}

		var batch []TipStub
		if err := json.Unmarshal(resp.Body(), &batch); err != nil {
			slog.Warn("tipstrr: listing body is not a tip array, stopping", "error", err)
			break
		}
		if len(batch) == 0 {
			break
		}

		if target > 0 {
			needed := target - len(tips)
			if len(batch) > needed {
				tips = append(tips, batch[:needed]...)
				break
			}
			tips = append(tips, batch...)
		} else {
			tips = append(tips, batch...)
		}

		// A short page is the last page.
		if len(batch) < pageSize {
			break
		}

		skip += pageSize
		page++
		time.Sleep(c.pageDelay)
	}

	return tips, nil
}

// GetTip fetches the detail payload for one tip reference. Non-200 statuses
// and non-object bodies are errors; the caller decides whether that fails the
// record or the run.
func (c *Client) GetTip(ctx context.Context, reference string) (*TipDetail, error) {
	u := fmt.Sprintf("%s/api/portfolio/%s/tips/cached/%s", c.baseURL, c.tipster, reference)
	resp, err := c.http.R().SetContext(ctx).Get(u)
	if err != nil {
		return nil, fmt.Errorf("get tip %s: %w", reference, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get tip %s: status %d", reference, resp.StatusCode())
	}
	var detail TipDetail
	if err := json.Unmarshal(resp.Body(), &detail); err != nil {
		return nil, fmt.Errorf("decode tip %s: %w", reference, err)
	}
	return &detail, nil
}

// GetFixture fetches the match context for a fixture reference.
func (c *Client) GetFixture(ctx context.Context, fixtureReference string) (*FixtureDetail, error) {
	u := fmt.Sprintf("%s/api/fixture/%s", c.baseURL, fixtureReference)
	resp, err := c.http.R().SetContext(ctx).Get(u)
	if err != nil {
		return nil, fmt.Errorf("get fixture %s: %w", fixtureReference, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get fixture %s: status %d", fixtureReference, resp.StatusCode())
	}
	var fixture FixtureDetail
	if err := json.Unmarshal(resp.Body(), &fixture); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", fixtureReference, err)
	}
	return &fixture, nil
}
