// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package gamification

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/metrics"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
)

var (
	// ErrInvalidUser is returned for an empty user ID.
	ErrInvalidUser = errors.New("user id is required")

	// ErrUnknownLeaderboard is returned for an unsupported leaderboard category.
	ErrUnknownLeaderboard = errors.New("unknown leaderboard category")
)

// Event topics published by the service.
const (
	TopicPoints = "gamification.points"
	TopicBadge  = "gamification.badge"
	TopicLevel  = "gamification.level"
	TopicSpin   = "gamification.spin"
)

// Event is the payload published for every progress change.
type Event struct {
	UserID string  `json:"userId"`
	Reason string  `json:"reason"`
	Points int     `json:"points,omitempty"`
	Total  int     `json:"total"`
	Level  int     `json:"level"`
	Badge  *Badge  `json:"badge,omitempty"`
	Reward *Reward `json:"reward,omitempty"`
}

// EventUserID routes the event to the user's connections.
func (e *Event) EventUserID() string { return e.UserID }

// Publisher delivers events. Publish failures are logged, never returned.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Service owns profiles and progress. Mutations for one user are serialized.
type Service struct {
	store     store.Store
	publisher Publisher
	badges    []Badge
	rewards   []Reward
	city      string
	logger    zerolog.Logger

	rngMu sync.Mutex
	rng   func() float64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option customizes a Service.
type Option func(*Service)

// WithRandom replaces the spin-wheel random source. fn must return values in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(s *Service) { s.rng = fn }
}

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithDefaultCity sets the city given to profiles created without one.
func WithDefaultCity(city string) Option {
	return func(s *Service) { s.city = city }
}

// NewService creates the gamification service over st.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(st store.Store, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		badges:  DefaultBadges(),
		rewards: DefaultRewards(),
		rng:     rand.Float64,
		locks:   make(map[string]*sync.Mutex),
		logger:  logger.With().Str("component", "gamification").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Badges returns the badge catalog.
func (s *Service) Badges() []Badge {
	return slices.Clone(s.badges)
}

func (s *Service) lock(userID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// CreateProfile stores p and initializes progress if the user has none.
func (s *Service) CreateProfile(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error) {
	if p == nil || strings.TrimSpace(p.UserID) == "" {
		return nil, ErrInvalidUser
	}
	if p.Location.Current == "" {
		p.Location.Current = s.city
	}
	if p.Demographics.Age == "" {
		p.Demographics.Age = models.DefaultAgeBucket
	}

	defer s.lock(p.UserID)()
	if err := s.store.Set(ctx, p.UserID, store.KeyProfile, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	var existing Progress
	err := s.store.Get(ctx, p.UserID, store.KeyProgress, &existing)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrCorrupt):
		if err := s.store.Set(ctx, p.UserID, store.KeyProgress, NewProgress(p.UserID)); err != nil {
			return nil, fmt.Errorf("init progress: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load progress: %w", err)
	}

	s.logger.Info().Str("user_id", p.UserID).Msg("profile created")
	return p, nil
}

// GetProfile returns models.ErrProfileNotFound for unknown users.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	var p models.UserProfile
	err := s.store.Get(ctx, userID, store.KeyProfile, &p)
	switch {
	case err == nil:
		return &p, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, models.ErrProfileNotFound
	case errors.Is(err, store.ErrCorrupt):
		metrics.StoreCorruptValues.WithLabelValues(store.KeyProfile).Inc()
		return nil, models.ErrProfileNotFound
	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}
}

// UpdateProfile replaces an existing profile.
func (s *Service) UpdateProfile(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error) {
	if p == nil || p.UserID == "" {
		return nil, ErrInvalidUser
	}
	if _, err := s.GetProfile(ctx, p.UserID); err != nil {
		return nil, err
	}
	defer s.lock(p.UserID)()
	if err := s.store.Set(ctx, p.UserID, store.KeyProfile, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// GetProgress returns the user's progress, or fresh progress if none is stored.
func (s *Service) GetProgress(ctx context.Context, userID string) (*Progress, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	return s.loadProgress(ctx, userID)
}

func (s *Service) loadProgress(ctx context.Context, userID string) (*Progress, error) {
	var p Progress
	err := s.store.Get(ctx, userID, store.KeyProgress, &p)
	switch {
	case err == nil:
		normalize(&p, userID)
		return &p, nil
	case errors.Is(err, store.ErrNotFound):
		return NewProgress(userID), nil
	case errors.Is(err, store.ErrCorrupt):
		metrics.StoreCorruptValues.WithLabelValues(store.KeyProgress).Inc()
		s.logger.Warn().Str("user_id", userID).Msg("corrupt progress reset")
		return NewProgress(userID), nil
	default:
		return nil, fmt.Errorf("load progress: %w", err)
	}
}

// normalize repairs fields older documents may lack.
func normalize(p *Progress, userID string) {
	if p.UserID == "" {
		p.UserID = userID
	}
	if p.Level < 1 {
		p.Level = 1
	}
	if p.Badges == nil {
		p.Badges = []Badge{}
	}
	if p.Achievements.CuisinesTried == nil {
		p.Achievements.CuisinesTried = []string{}
	}
	if p.Achievements.CulturesExplored == nil {
		p.Achievements.CulturesExplored = []string{}
	}
	if p.Achievements.PhotoUploads.Locations == nil {
		p.Achievements.PhotoUploads.Locations = []string{}
	}
}

func (s *Service) saveProgress(ctx context.Context, p *Progress) error {
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Set(ctx, p.UserID, store.KeyProgress, p); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// mutate loads progress, applies fn and saves the result under the user lock.
func (s *Service) mutate(ctx context.Context, userID string, fn func(p *Progress) []Event) (*Progress, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	defer s.lock(userID)()

	p, err := s.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	events := fn(p)
	if err := s.saveProgress(ctx, p); err != nil {
		return nil, err
	}
	for i := range events {
		s.publish(ctx, &events[i])
	}
	return p, nil
}

// AwardLike grants the points for liking a recommendation.
func (s *Service) AwardLike(ctx context.Context, userID string) (*Progress, error) {
	return s.mutate(ctx, userID, func(p *Progress) []Event {
		events := []Event{s.addPoints(p, "like", PointsLike)}
		return append(events, s.updateLevel(p)...)
	})
}

// RecordActivity updates counters, grants activity points, re-levels and
// checks badges.
func (s *Service) RecordActivity(ctx context.Context, userID string, a Activity) (*ActivityResult, error) {
	var awarded []Badge
	p, err := s.mutate(ctx, userID, func(p *Progress) []Event {
		switch a.Type {
		case ActivityVisit:
			if a.IsHeritage {
				p.Achievements.HeritageVisits++
			}
		case ActivityCuisine:
			if a.Cuisine != "" && !slices.Contains(p.Achievements.CuisinesTried, a.Cuisine) {
				p.Achievements.CuisinesTried = append(p.Achievements.CuisinesTried, a.Cuisine)
			}
		case ActivityFestival:
			p.Achievements.FestivalParticipation++
		}

		events := []Event{s.addPoints(p, "activity_"+activityLabel(a.Type), ActivityPoints(a.Type))}
		events = append(events, s.updateLevel(p)...)
		var badgeEvents []Event
		awarded, badgeEvents = s.checkBadges(p)
		return append(events, badgeEvents...)
	})
	if err != nil {
		return nil, err
	}
	return &ActivityResult{NewBadges: nonNil(awarded), Progress: p}, nil
}

// RecordPhoto counts a photo at entityID once, classifying it by entityType,
// and checks the photo badges.
func (s *Service) RecordPhoto(ctx context.Context, userID, entityID, entityType string) (*ActivityResult, error) {
	if entityID == "" {
		return nil, fmt.Errorf("%w: entity id is required", recommend.ErrInvalidRequest)
	}
	var awarded []Badge
	p, err := s.mutate(ctx, userID, func(p *Progress) []Event {
		var events []Event
		photos := &p.Achievements.PhotoUploads
		if !slices.Contains(photos.Locations, entityID) {
			photos.Total++
			photos.Locations = append(photos.Locations, entityID)
			kind := strings.ToLower(entityType)
			if strings.Contains(kind, "heritage") || strings.Contains(kind, "temple") || strings.Contains(kind, "museum") {
				photos.HeritagePhotos++
			}
			if strings.Contains(kind, "restaurant") || strings.Contains(kind, "food") {
				photos.RestaurantPhotos++
			}
			events = append(events, s.addPoints(p, "photo", PointsPhoto))
		}
		var badgeEvents []Event
		awarded, badgeEvents = s.checkBadges(p)
		return append(events, badgeEvents...)
	})
	if err != nil {
		return nil, err
	}
	return &ActivityResult{NewBadges: nonNil(awarded), Progress: p}, nil
}

// Spin costs SpinCost points and draws a weighted reward. Below the cost
// it changes nothing and returns a nil Reward.
func (s *Service) Spin(ctx context.Context, userID string) (*SpinResult, error) {
	var reward *Reward
	p, err := s.mutate(ctx, userID, func(p *Progress) []Event {
		if p.Points < SpinCost {
			return nil
		}
		p.Points -= SpinCost
		r := s.draw()
		reward = &r

		events := []Event{{UserID: p.UserID, Reason: "spin", Points: -SpinCost, Total: p.Points, Level: p.Level, Reward: reward}}
		switch r.Type {
		case RewardPoints:
			events = append(events, s.addPoints(p, "spin", r.Points))
		case RewardBadge:
			if !p.HasBadge(r.Value) {
				b := Badge{ID: r.Value, Name: r.Description, Description: "Earned from spin wheel", Icon: "🎰",
					Category: CategoryCultural, Requirement: Requirement{Type: RequirementNone}}
				p.Badges = append(p.Badges, b)
				metrics.BadgesAwarded.WithLabelValues(b.ID).Inc()
				events = append(events, Event{UserID: p.UserID, Reason: "spin", Total: p.Points, Level: p.Level, Badge: &b})
			}
		}
		return events
	})
	if err != nil {
		return nil, err
	}

	label := "insufficient"
	if reward != nil {
		label = reward.Type
	}
	metrics.SpinsTotal.WithLabelValues(label).Inc()
	return &SpinResult{Reward: reward, Progress: p}, nil
}

// draw picks a reward by cumulative probability. Rounding slack falls
// through to the last reward.
func (s *Service) draw() Reward {
	s.rngMu.Lock()
	x := s.rng()
	s.rngMu.Unlock()

	acc := 0.0
	for _, r := range s.rewards {
		acc += r.Probability
		if x <= acc {
			return r
		}
	}
	return s.rewards[len(s.rewards)-1]
}

// Leaderboard ranks users by category and returns the top LeaderboardSize.
// Ties keep store order.
func (s *Service) Leaderboard(ctx context.Context, category string) ([]LeaderboardEntry, error) {
	if category == "" {
		category = BoardPoints
	}
	var metric func(p *Progress) int
	switch category {
	case BoardPoints:
		metric = func(p *Progress) int { return p.Points }
	case BoardBadges:
		metric = func(p *Progress) int { return len(p.Badges) }
	case BoardHeritage:
		metric = func(p *Progress) int { return p.Achievements.HeritageVisits }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLeaderboard, category)
	}

	var all []*Progress
	err := s.store.Scan(ctx, store.KeyProgress, func(userID string, decode func(dst interface{}) error) error {
		var p Progress
		if err := decode(&p); err != nil {
			s.logger.Debug().Err(err).Str("user_id", userID).Msg("skipping undecodable progress")
			return nil
		}
		normalize(&p, userID)
		all = append(all, &p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}

	slices.SortStableFunc(all, func(a, b *Progress) int { return metric(b) - metric(a) })
	if len(all) > LeaderboardSize {
		all = all[:LeaderboardSize]
	}

	entries := make([]LeaderboardEntry, 0, len(all))
	for i, p := range all {
		entry := LeaderboardEntry{
			Rank:           i + 1,
			UserID:         p.UserID,
			Points:         p.Points,
			Level:          p.Level,
			Badges:         len(p.Badges),
			HeritageVisits: p.Achievements.HeritageVisits,
		}
		if profile, err := s.GetProfile(ctx, p.UserID); err == nil {
			entry.Name = profile.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) addPoints(p *Progress, reason string, n int) Event {
	p.Points += n
	metrics.RecordPoints(reason, n)
	return Event{UserID: p.UserID, Reason: reason, Points: n, Total: p.Points, Level: p.Level}
}

// updateLevel raises the level once when the points total passes a
// threshold and grants the level-up bonus.
func (s *Service) updateLevel(p *Progress) []Event {
	next := LevelFor(p.Points)
	if next <= p.Level {
		return nil
	}
	p.Level = next
	ev := s.addPoints(p, "level_up", PointsLevelUp)
	ev.Level = p.Level
	return []Event{ev}
}

// checkBadges awards every catalog badge whose requirement is now met and
// re-levels afterwards.
func (s *Service) checkBadges(p *Progress) ([]Badge, []Event) {
	var (
		awarded []Badge
		events  []Event
	)
	for i := range s.badges {
		b := s.badges[i]
		if p.HasBadge(b.ID) || !requirementMet(&b, &p.Achievements) {
			continue
		}
		p.Badges = append(p.Badges, b)
		awarded = append(awarded, b)
		metrics.BadgesAwarded.WithLabelValues(b.ID).Inc()

		ev := s.addPoints(p, "badge", PointsBadge)
		ev.Badge = &b
		events = append(events, ev)
	}
	return awarded, append(events, s.updateLevel(p)...)
}

func (s *Service) publish(ctx context.Context, ev *Event) {
	if s.publisher == nil {
		return
	}
	topic := TopicPoints
	switch {
	case ev.Badge != nil:
		topic = TopicBadge
	case ev.Reward != nil:
		topic = TopicSpin
	case ev.Reason == "level_up":
		topic = TopicLevel
	}
	if err := s.publisher.Publish(ctx, topic, ev); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Str("user_id", ev.UserID).Msg("event publish failed")
	}
}

func activityLabel(t string) string {
	switch t {
	case ActivityVisit, ActivityCuisine, ActivityFestival, ActivityBooking:
		return t
	default:
		return "other"
	}
}

func nonNil(b []Badge) []Badge {
	if b == nil {
		return []Badge{}
	}
	return b
}

var _ recommend.ProfileSource = (*Service)(nil)
