// Package news reads the RSS/Atom feed shown on the news page
package news

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/recipeapp/recipe-app/model"
)

const (
	defaultLimit       = 10
	maxSummaryRunes    = 280
	defaultHTTPTimeout = 10 * time.Second
)

// ErrNoFeed is returned by Fetch when no feed url is configured
var ErrNoFeed = errors.New("no news feed configured")

type Option func(*Fetcher)

// WithHTTPClient replaces the default http client
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithLimit caps the number of returned items
func WithLimit(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.limit = n
		}
	}
}

// Fetcher downloads a feed and turns its entries into plain text news items
type Fetcher struct {
	feedURL string
	client  *http.Client
	limit   int
	policy  *bluemonday.Policy
}

func NewFetcher(feedURL string, opts ...Option) *Fetcher {
	f := &Fetcher{
		feedURL: feedURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		limit:   defaultLimit,
		policy:  bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads the feed. Cancelling ctx aborts the download.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	if f.feedURL == "" {
		return nil, ErrNoFeed
	}

	parser := gofeed.NewParser()
	parser.Client = f.client
	feed, err := parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read news feed: %w", err)
	}

	items := make([]model.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if len(items) >= f.limit {
			break
		}
		title := f.plainText(it.Title)
		if title == "" {
			continue
		}
		summary := it.Description
		if summary == "" {
			summary = it.Content
		}
		item := model.NewsItem{
			Title:   title,
			Link:    it.Link,
			Summary: truncate(f.plainText(summary), maxSummaryRunes),
		}
		if it.PublishedParsed != nil {
			item.Published = it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			item.Published = it.UpdatedParsed
		}
		items = append(items, item)
	}
	return items, nil
}

// plainText strips all markup; templates escape the result again on output
func (f *Fetcher) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(f.policy.Sanitize(s)))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
