package dsda

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/keshon/dsda-bot/internal/mapid"
	"github.com/keshon/dsda-bot/internal/version"
	"github.com/keshon/dsda-bot/pkg/retrylimit"
	"github.com/keshon/dsda-bot/pkg/util"
)

const (
	playersPath = "/players/"
	wadsPath    = "/wads/"

	unavailableMessage = "Could not reach DSDA right now, try again later."
)

// Config configures HTTPClient.
type Config struct {
	BaseURL string
	Rate    float64       // initial requests per second
	Timeout time.Duration // per request
	HTTP    *http.Client  // optional, overrides Timeout
	Logger  logrus.FieldLogger
}

// HTTPClient scrapes the records site. Player and wad indexes and demo tables
// are cached until the next SyncFull.
type HTTPClient struct {
	base  *url.URL
	http  *http.Client
	lim   *retrylimit.AdaptiveLimiter
	retry retrylimit.RetryConfig
	log   logrus.FieldLogger

	mu      sync.RWMutex
	players []Page
	wads    []Page
	demos   map[string][]demo
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates cfg and returns a ready client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid DSDA base URL %q", cfg.BaseURL)
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "dsda")

	hc := cfg.HTTP
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	r := cfg.Rate
	if r <= 0 {
		r = 2
	}

	retry := retrylimit.DefaultRetryConfig()
	retry.Logger = log

	return &HTTPClient{
		base:  base,
		http:  hc,
		lim:   retrylimit.NewAdaptiveLimiter(rate.Limit(r), 1, rate.Limit(r*2), 0.5, 0.5),
		retry: retry,
		log:   log,
		demos: make(map[string][]demo),
	}, nil
}

// GetRecord returns the fastest demo for wad, category and map.
func (c *HTTPClient) GetRecord(ctx context.Context, wad, category string, m mapid.ID) (*Record, string) {
	page, msg := c.lookup(ctx, wadsPath, wad, "Wad")
	if page == nil {
		return nil, msg
	}

	demos, err := c.pageDemos(ctx, page.URL, wadColumns)
	if err != nil {
		return nil, c.failure(err, "Wad "+wad)
	}

	level := ""
	if m.IsFirstMap() {
		if len(demos) == 0 {
			return nil, fmt.Sprintf("No demos found for %s.", page.Name)
		}
		level = demos[0].Level
	}

	var best *demo
	for i := range demos {
		d := &demos[i]
		if !strings.EqualFold(d.Category, category) {
			continue
		}
		if m.IsFirstMap() {
			if d.Level != level {
				continue
			}
		} else if !matchLevel(d.Level, m) {
			continue
		}
		if best == nil || d.Time < best.Time {
			best = d
		}
	}

	if best == nil {
		where := m.String()
		if m.IsFirstMap() {
			where = level
		}
		return nil, fmt.Sprintf("No %s record found for %s on %s.", category, page.Name, where)
	}

	return &Record{
		Time:    best.TimeText,
		Player:  strings.Join(best.Players, ", "),
		DemoURL: best.DemoURL,
	}, ""
}

// GetPlayerStats computes stats from every demo on the player's page.
func (c *HTTPClient) GetPlayerStats(ctx context.Context, player string) (*PlayerStats, string) {
	page, msg := c.lookup(ctx, playersPath, player, "Player")
	if page == nil {
		return nil, msg
	}
	demos, err := c.pageDemos(ctx, page.URL, playerColumns)
	if err != nil {
		return nil, c.failure(err, "Player "+player)
	}
	return playerStats(page.Name, demos), ""
}

// GetWadStats computes stats from every demo on the wad's page.
func (c *HTTPClient) GetWadStats(ctx context.Context, wad string) (*WadStats, string) {
	page, msg := c.lookup(ctx, wadsPath, wad, "Wad")
	if page == nil {
		return nil, msg
	}
	demos, err := c.pageDemos(ctx, page.URL, wadColumns)
	if err != nil {
		return nil, c.failure(err, "Wad "+wad)
	}
	return wadStats(page.Name, demos), ""
}

func (c *HTTPClient) RandomPlayerPage(ctx context.Context) (*Page, string) {
	return c.random(ctx, playersPath)
}

func (c *HTTPClient) RandomWadPage(ctx context.Context) (*Page, string) {
	return c.random(ctx, wadsPath)
}

// LastUpdate fetches the freshness marker from the site's front page. It is never cached.
func (c *HTTPClient) LastUpdate(ctx context.Context) (string, error) {
	doc, err := c.fetch(ctx, c.base.String())
	if err != nil {
		return "", fmt.Errorf("fetch last update: %w", err)
	}
	return parseLastUpdate(doc)
}

// SyncFull drops every cached page and reloads the player and wad indexes.
func (c *HTTPClient) SyncFull(ctx context.Context) error {
	c.mu.Lock()
	c.players, c.wads = nil, nil
	c.demos = make(map[string][]demo)
	c.mu.Unlock()

	start := time.Now()
	err := util.Parallel(ctx, []string{playersPath, wadsPath}, 2, func(ctx context.Context, prefix string) error {
		_, err := c.index(ctx, prefix)
		return err
	})
	if err != nil {
		return fmt.Errorf("full sync: %w", err)
	}
	c.log.Infof("Full sync finished in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

func (c *HTTPClient) random(ctx context.Context, prefix string) (*Page, string) {
	pages, err := c.index(ctx, prefix)
	if err != nil {
		return nil, c.failure(err, "")
	}
	if len(pages) == 0 {
		return nil, "No pages found."
	}
	p := pages[rand.IntN(len(pages))]
	return &p, ""
}

// lookup finds a page by exact name, then by slug, then by substring.
func (c *HTTPClient) lookup(ctx context.Context, prefix, query, kind string) (*Page, string) {
	pages, err := c.index(ctx, prefix)
	if err != nil {
		return nil, c.failure(err, "")
	}
	if p := findPage(pages, query); p != nil {
		return p, ""
	}
	return nil, fmt.Sprintf("%s %s not found.", kind, query)
}

func findPage(pages []Page, query string) *Page {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	for i := range pages {
		if strings.ToLower(pages[i].Name) == q {
			return &pages[i]
		}
	}
	for i := range pages {
		if strings.ToLower(path.Base(pages[i].URL)) == q {
			return &pages[i]
		}
	}
	for i := range pages {
		if strings.Contains(strings.ToLower(pages[i].Name), q) {
			return &pages[i]
		}
	}
	return nil
}

func (c *HTTPClient) index(ctx context.Context, prefix string) ([]Page, error) {
	c.mu.RLock()
	cached := c.players
	if prefix == wadsPath {
		cached = c.wads
	}
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	doc, err := c.fetch(ctx, c.base.ResolveReference(&url.URL{Path: strings.TrimSuffix(prefix, "/")}).String())
	if err != nil {
		return nil, err
	}
	pages := parseIndex(doc, c.base, prefix)

	c.mu.Lock()
	if prefix == wadsPath {
		c.wads = pages
	} else {
		c.players = pages
	}
	c.mu.Unlock()
	return pages, nil
}

func (c *HTTPClient) pageDemos(ctx context.Context, pageURL string, columns []string) ([]demo, error) {
	c.mu.RLock()
	cached, ok := c.demos[pageURL]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	doc, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	demos, skipped := parseDemos(doc, c.base, columns)
	if len(skipped) > 0 {
		c.log.WithFields(logrus.Fields{
			"page":    pageURL,
			"skipped": len(skipped),
			"times":   skipped,
		}).Warn("Skipped demo rows without a valid time")
	}

	c.mu.Lock()
	c.demos[pageURL] = demos
	c.mu.Unlock()
	return demos, nil
}

func (c *HTTPClient) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := retrylimit.WithRetryConfig(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return retrylimit.Fatal(err)
		}
		req.Header.Set("User-Agent", version.UserAgent())

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return retrylimit.Fatal(fmt.Errorf("%w: %w", ErrNotFound, &retrylimit.StatusError{Code: resp.StatusCode, URL: target}))
		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			return &retrylimit.StatusError{Code: resp.StatusCode, URL: target}
		case resp.StatusCode != http.StatusOK:
			return retrylimit.Fatal(&retrylimit.StatusError{Code: resp.StatusCode, URL: target})
		}

		d, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return err
		}
		doc = d
		return nil
	}, c.lim, c.retry)
	return doc, err
}

// failure logs err and turns it into a fallback message.
func (c *HTTPClient) failure(err error, subject string) string {
	if errors.Is(err, ErrNotFound) && subject != "" {
		return subject + " not found."
	}
	c.log.WithError(err).Warn("DSDA request failed")
	return unavailableMessage
}
