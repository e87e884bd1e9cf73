package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/runtime"
)

// ProfileConfig tunes profile construction and caching
type ProfileConfig struct {
	// Window is the number of most recent engagements considered
	Window    int           `yaml:"window"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`
}

// DefaultProfileConfig returns the default profile settings
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{
		Window:    1000,
		CacheTTL:  30 * time.Minute,
		CacheSize: 10000,
	}
}

const (
	topCategories      = 5
	topRegionalEntries = 3
	topActiveHours     = 6
	mobileMoneyShare   = 0.1
	completionRatio    = 0.7
	maxActionWeight    = 6.0
)

// engagementWeights scores actions for the overall engagement score
var engagementWeights = map[domain.ActionType]float64{
	domain.ActionView:      1,
	domain.ActionLike:      3,
	domain.ActionShare:     4,
	domain.ActionComment:   5,
	domain.ActionBookmark:  6,
	domain.ActionSubscribe: 2,
	domain.ActionDownload:  3,
}

// ProfileBuilder derives reader profiles from engagement history
type ProfileBuilder struct {
	store   driven.EngagementStore
	lexicon domain.RegionalLexicon
	config  ProfileConfig
	cache   *expirable.LRU[string, *domain.UserProfile]
	clock   driven.Clock
	logger  *slog.Logger
}

// NewProfileBuilder creates a ProfileBuilder with an expiring LRU in front of the store
func NewProfileBuilder(store driven.EngagementStore, lexicon domain.RegionalLexicon, config ProfileConfig, clock driven.Clock, logger *slog.Logger) *ProfileBuilder {
	if config.Window <= 0 {
		config.Window = DefaultProfileConfig().Window
	}
	if config.CacheSize <= 0 {
		config.CacheSize = DefaultProfileConfig().CacheSize
	}
	if clock == nil {
		clock = runtime.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileBuilder{
		store:   store,
		lexicon: lexicon,
		config:  config,
		cache:   expirable.NewLRU[string, *domain.UserProfile](config.CacheSize, nil, config.CacheTTL),
		clock:   clock,
		logger:  logger,
	}
}

// Build returns the profile of userID. Errors wrap domain.ErrProfileBuild.
func (b *ProfileBuilder) Build(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: no user identity", domain.ErrProfileBuild)
	}
	if profile, ok := b.cache.Get(userID); ok {
		return profile, nil
	}

	reader, err := b.store.GetReader(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s not found", domain.ErrProfileBuild, userID)
		}
		return nil, fmt.Errorf("%w: load reader: %v", domain.ErrProfileBuild, err)
	}

	engagements, err := b.store.RecentEngagements(ctx, userID, b.config.Window)
	if err != nil {
		return nil, fmt.Errorf("%w: load engagements: %v", domain.ErrProfileBuild, err)
	}
	if len(engagements) > b.config.Window {
		engagements = engagements[:b.config.Window]
	}

	profile := BuildProfile(reader, engagements, b.lexicon, b.clock.Now())
	b.cache.Add(userID, profile)

	b.logger.Debug("profile built",
		"user_id", userID,
		"interactions", profile.Interactions,
		"categories", len(profile.PreferredCategories),
	)
	return profile, nil
}

// Invalidate drops the cached profile of userID
func (b *ProfileBuilder) Invalidate(userID string) {
	b.cache.Remove(userID)
}

// BuildProfile derives a profile from a reader and their engagements (newest first)
func BuildProfile(reader *domain.Reader, engagements []*domain.Engagement, lexicon domain.RegionalLexicon, now time.Time) *domain.UserProfile {
	profile := &domain.UserProfile{
		UserID:          reader.ID,
		Region:          reader.Country,
		TopicInterests:  topicInterests(engagements, lexicon),
		RegionalFocus:   regionalFocus(engagements, lexicon),
		EngagementScore: engagementScore(engagements),
		ReadingPatterns: readingPatterns(engagements),
		Interactions:    len(engagements),
		BuiltAt:         now,
	}
	profile.PreferredLanguages = append([]string(nil), reader.PreferredLanguages...)
	profile.PreferredCategories = preferredCategories(engagements)
	return profile
}

// actionWeight weighs an engagement for topic interests
func actionWeight(e *domain.Engagement) float64 {
	switch e.Action {
	case domain.ActionLike:
		return 3
	case domain.ActionShare:
		return 4
	case domain.ActionComment:
		return 5
	case domain.ActionBookmark:
		return 6
	case domain.ActionView:
		if e.DurationSeconds > 0 {
			return math.Min(float64(e.DurationSeconds)/60, 3)
		}
		return 1
	default:
		return 1
	}
}

func topicInterests(engagements []*domain.Engagement, lexicon domain.RegionalLexicon) map[string]float64 {
	scores := make(map[string]float64)
	for _, e := range engagements {
		if e.Article == nil {
			continue
		}
		w := actionWeight(e)
		seen := make(map[string]bool)
		for _, tag := range e.Article.Tags {
			topic := strings.ToLower(strings.TrimSpace(tag))
			if topic == "" || seen[topic] {
				continue
			}
			seen[topic] = true
			scores[topic] += w
		}
		text := strings.ToLower(e.Article.Title + " " + e.Article.Content)
		for _, t := range lexicon.Topics {
			topic := strings.ToLower(t)
			if !seen[topic] && strings.Contains(text, topic) {
				seen[topic] = true
				scores[topic] += w
			}
		}
	}

	highest := 0.0
	for _, s := range scores {
		if s > highest {
			highest = s
		}
	}
	if highest > 0 {
		for topic, s := range scores {
			scores[topic] = s / highest
		}
	}
	return scores
}

func preferredCategories(engagements []*domain.Engagement) []string {
	counts := make(map[string]int)
	for _, e := range engagements {
		if e.Article != nil && e.Article.Category != "" {
			counts[e.Article.Category]++
		}
	}
	return topKeys(counts, topCategories)
}

func regionalFocus(engagements []*domain.Engagement, lexicon domain.RegionalLexicon) domain.RegionalFocus {
	countries := make([]int, len(lexicon.Countries))
	exchanges := make([]int, len(lexicon.Exchanges))
	total, mobileMoney := 0, 0

	for _, e := range engagements {
		if e.Article == nil {
			continue
		}
		total++
		text := e.Article.Text()
		for i, c := range lexicon.Countries {
			if strings.Contains(text, strings.ToLower(c)) {
				countries[i]++
			}
		}
		for i, x := range lexicon.Exchanges {
			if strings.Contains(text, strings.ToLower(x)) {
				exchanges[i]++
			}
		}
		if lexicon.MentionsMobileMoney(text) {
			mobileMoney++
		}
	}

	return domain.RegionalFocus{
		Countries:           topMentioned(lexicon.Countries, countries, topRegionalEntries),
		Exchanges:           topMentioned(lexicon.Exchanges, exchanges, topRegionalEntries),
		MobileMoneyInterest: total > 0 && float64(mobileMoney)/float64(total) > mobileMoneyShare,
	}
}

func engagementScore(engagements []*domain.Engagement) float64 {
	if len(engagements) == 0 {
		return 0
	}
	total := 0.0
	for _, e := range engagements {
		w, ok := engagementWeights[e.Action]
		if !ok {
			w = 1
		}
		total += w
	}
	return math.Min(total/(float64(len(engagements))*maxActionWeight), 1)
}

func readingPatterns(engagements []*domain.Engagement) domain.ReadingPatterns {
	patterns := domain.ReadingPatterns{
		PreferredContentLength: domain.ContentMedium,
		ActiveHours:            []int{},
		DevicePreference:       "mobile",
	}

	var reads []*domain.Engagement
	for _, e := range engagements {
		if e.Action == domain.ActionView && e.DurationSeconds > 0 {
			reads = append(reads, e)
		}
	}
	if len(reads) == 0 {
		return patterns
	}

	sum := 0
	lengths := map[domain.ContentLength]int{}
	for _, e := range reads {
		sum += e.DurationSeconds
		if e.Article == nil || e.Article.ReadingTimeMinutes <= 0 {
			continue
		}
		ratio := float64(e.DurationSeconds) / float64(e.Article.ReadingTimeMinutes*60)
		if ratio <= completionRatio {
			continue
		}
		switch {
		case e.Article.ReadingTimeMinutes <= 3:
			lengths[domain.ContentShort]++
		case e.Article.ReadingTimeMinutes <= 8:
			lengths[domain.ContentMedium]++
		default:
			lengths[domain.ContentLong]++
		}
	}
	patterns.AverageReadingTime = float64(sum) / float64(len(reads))

	best := 0
	for _, l := range []domain.ContentLength{domain.ContentShort, domain.ContentMedium, domain.ContentLong} {
		if lengths[l] > best {
			best = lengths[l]
			patterns.PreferredContentLength = l
		}
	}

	hours := make([]int, 24)
	devices := make(map[string]int)
	for _, e := range engagements {
		hours[e.CreatedAt.UTC().Hour()]++
		if e.Device != "" {
			devices[e.Device]++
		}
	}
	patterns.ActiveHours = append(patterns.ActiveHours, topIndexes(hours, topActiveHours)...)
	if top := topKeys(devices, 1); len(top) == 1 {
		patterns.DevicePreference = top[0]
	}
	return patterns
}

// topKeys returns up to n keys by descending count, ties alphabetical
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// topMentioned returns up to n names with a non-zero count, by descending
// count and then list order
func topMentioned(names []string, counts []int, n int) []string {
	idx := topIndexes(counts, n)
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, names[i])
	}
	return out
}

// topIndexes returns up to n indexes with a non-zero count, by descending
// count and then index
func topIndexes(counts []int, n int) []int {
	idx := make([]int, 0, len(counts))
	for i, c := range counts {
		if c > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return counts[idx[a]] > counts[idx[b]]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}
