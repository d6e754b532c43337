package model

import "time"

// NewsItem is one entry of the news feed
type NewsItem struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Summary   string     `json:"summary"`
	Published *time.Time `json:"published,omitempty"`
}
