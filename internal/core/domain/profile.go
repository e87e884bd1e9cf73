package domain

import (
	"strings"
	"time"
)

// ActionType is the kind of engagement a reader had with an article
type ActionType string

const (
	ActionView      ActionType = "view"
	ActionLike      ActionType = "like"
	ActionShare     ActionType = "share"
	ActionComment   ActionType = "comment"
	ActionBookmark  ActionType = "bookmark"
	ActionSubscribe ActionType = "subscribe"
	ActionDownload  ActionType = "download"
)

// IsValid reports whether a is a known action type
func (a ActionType) IsValid() bool {
	switch a {
	case ActionView, ActionLike, ActionShare, ActionComment, ActionBookmark, ActionSubscribe, ActionDownload:
		return true
	}
	return false
}

// Article is the read-only content metadata the ranking core consumes
type Article struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Content            string    `json:"content,omitempty"`
	Excerpt            string    `json:"excerpt,omitempty"`
	Language           string    `json:"language,omitempty"`
	Category           string    `json:"category,omitempty"`
	Tags               []string  `json:"tags,omitempty"`
	Author             string    `json:"author,omitempty"`
	PublishedAt        time.Time `json:"published_at"`
	ReadingTimeMinutes int       `json:"reading_time_minutes"`
	WordCount          int       `json:"word_count"`
	ViewCount          int64     `json:"view_count"`
	LikeCount          int64     `json:"like_count"`
	ShareCount         int64     `json:"share_count"`
	CommentCount       int64     `json:"comment_count"`
	RecentEngagements  int64     `json:"recent_engagements"`
	QualityScore       float64   `json:"quality_score"`
}

// Text returns the lower-cased searchable text of the article
func (a *Article) Text() string {
	return lowerJoin(a.Title, a.Content, a.Excerpt)
}

// EngagementRate is interactions per view, capped at 1
func (a *Article) EngagementRate() float64 {
	if a.ViewCount <= 0 {
		return 0
	}
	rate := float64(a.LikeCount+a.ShareCount+a.CommentCount) / float64(a.ViewCount)
	if rate > 1 {
		return 1
	}
	return rate
}

// Quality returns the stored quality score, defaulting to 0.5 when unset
func (a *Article) Quality() float64 {
	if a.QualityScore <= 0 {
		return 0.5
	}
	return a.QualityScore
}

// Hit converts the article into a SourceHit with the given score
func (a *Article) Hit(score float64, origin Source) *SourceHit {
	published := a.PublishedAt
	var publishedAt *time.Time
	if !published.IsZero() {
		publishedAt = &published
	}
	return &SourceHit{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Summary:     a.Excerpt,
		Language:    a.Language,
		Category:    a.Category,
		Tags:        append([]string(nil), a.Tags...),
		Author:      a.Author,
		PublishedAt: publishedAt,
		Score:       score,
		Origin:      origin,
	}
}

// Reader is the identity record the profile builder resolves a user id to
type Reader struct {
	ID                 string   `json:"id"`
	PreferredLanguages []string `json:"preferred_languages,omitempty"`
	Country            string   `json:"country,omitempty"`
}

// Engagement is one historical interaction, newest-first in store results
type Engagement struct {
	UserID          string     `json:"user_id"`
	ArticleID       string     `json:"article_id"`
	Action          ActionType `json:"action_type"`
	DurationSeconds int        `json:"duration_seconds,omitempty"`
	Device          string     `json:"device,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Article         *Article   `json:"article,omitempty"`
}

// EngagementEvent announces that a new engagement was recorded elsewhere.
// The ranking core only uses it to invalidate caches.
type EngagementEvent struct {
	UserID     string     `json:"user_id"`
	ArticleID  string     `json:"article_id"`
	Action     ActionType `json:"action_type"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// RegionalFocus captures the markets a reader pays attention to
type RegionalFocus struct {
	Countries           []string `json:"countries"`
	Exchanges           []string `json:"exchanges"`
	MobileMoneyInterest bool     `json:"mobile_money_interest"`
}

// ContentLength buckets articles by reading time
type ContentLength string

const (
	ContentShort  ContentLength = "short"
	ContentMedium ContentLength = "medium"
	ContentLong   ContentLength = "long"
)

// ReadingPatterns summarizes how a reader consumes content
type ReadingPatterns struct {
	AverageReadingTime     float64       `json:"average_reading_time_seconds"`
	PreferredContentLength ContentLength `json:"preferred_content_length"`
	ActiveHours            []int         `json:"active_hours"`
	DevicePreference       string        `json:"device_preference"`
}

// UserProfile is the personalization input derived from engagement history.
// Built fresh per call and never mutated after construction.
type UserProfile struct {
	UserID              string             `json:"user_id"`
	TopicInterests      map[string]float64 `json:"topic_interests"`
	PreferredCategories []string           `json:"preferred_categories"`
	PreferredLanguages  []string           `json:"preferred_languages,omitempty"`
	Region              string             `json:"region,omitempty"`
	RegionalFocus       RegionalFocus      `json:"regional_focus"`
	EngagementScore     float64            `json:"engagement_score"`
	ReadingPatterns     ReadingPatterns    `json:"reading_patterns"`
	Interactions        int                `json:"interactions"`
	BuiltAt             time.Time          `json:"built_at"`
}

// PrefersLanguage reports whether lang is one of the reader's languages
func (p *UserProfile) PrefersLanguage(lang string) bool {
	if p == nil || lang == "" {
		return false
	}
	for _, l := range p.PreferredLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// PrefersCategory reports whether category is in the preferred list
func (p *UserProfile) PrefersCategory(category string) bool {
	if p == nil || category == "" {
		return false
	}
	for _, c := range p.PreferredCategories {
		if c == category {
			return true
		}
	}
	return false
}

func lowerJoin(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}
