// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package gamification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T, opts ...Option) (*Service, store.Store) {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, zerolog.Nop(), opts...), st
}

func fixedRandom(x float64) Option {
	return WithRandom(func() float64 { return x })
}

func seedProgress(t *testing.T, st store.Store, p *Progress) {
	t.Helper()
	if err := st.Set(context.Background(), p.UserID, store.KeyProgress, p); err != nil {
		t.Fatal(err)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{-10, 1}, {0, 1}, {999, 1}, {1000, 2}, {2500, 3}, {10000, 11},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.points); got != tt.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestActivityPoints(t *testing.T) {
	tests := map[string]int{
		ActivityVisit:    50,
		ActivityCuisine:  30,
		ActivityFestival: 100,
		ActivityBooking:  75,
		"concert":        10,
	}
	for typ, want := range tests {
		if got := ActivityPoints(typ); got != want {
			t.Errorf("ActivityPoints(%q) = %d, want %d", typ, got, want)
		}
	}
}

func TestDefaultRewards_SumToOne(t *testing.T) {
	sum := 0.0
	for _, r := range DefaultRewards() {
		sum += r.Probability
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("probabilities sum to %f", sum)
	}
}

func TestProfiles(t *testing.T) {
	s, _ := newTestService(t, WithDefaultCity("Mumbai"))
	ctx := context.Background()

	if _, err := s.GetProfile(ctx, "nobody"); !errors.Is(err, models.ErrProfileNotFound) {
		t.Errorf("GetProfile(unknown) error = %v, want ErrProfileNotFound", err)
	}
	if _, err := s.CreateProfile(ctx, &models.UserProfile{}); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("CreateProfile(empty) error = %v", err)
	}

	created, err := s.CreateProfile(ctx, &models.UserProfile{UserID: "u1", Name: "Asha"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if created.Location.Current != "Mumbai" || created.Demographics.Age != models.DefaultAgeBucket {
		t.Errorf("defaults not applied: %+v", created)
	}

	got, err := s.GetProfile(ctx, "u1")
	if err != nil || got.Name != "Asha" {
		t.Fatalf("GetProfile() = %+v, %v", got, err)
	}

	prog, err := s.GetProgress(ctx, "u1")
	if err != nil || prog.Level != 1 || prog.Points != 0 {
		t.Errorf("initial progress = %+v, %v", prog, err)
	}

	got.Name = "Asha R"
	if _, err := s.UpdateProfile(ctx, got); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if again, _ := s.GetProfile(ctx, "u1"); again.Name != "Asha R" {
		t.Errorf("name after update = %q", again.Name)
	}
	if _, err := s.UpdateProfile(ctx, &models.UserProfile{UserID: "ghost"}); !errors.Is(err, models.ErrProfileNotFound) {
		t.Errorf("UpdateProfile(unknown) error = %v", err)
	}
}

func TestCreateProfile_KeepsExistingProgress(t *testing.T) {
	s, st := newTestService(t)
	ctx := context.Background()
	seedProgress(t, st, &Progress{UserID: "u1", Points: 700, Level: 1})

	if _, err := s.CreateProfile(ctx, &models.UserProfile{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	prog, _ := s.GetProgress(ctx, "u1")
	if prog.Points != 700 {
		t.Errorf("points = %d, want 700", prog.Points)
	}
}

func TestGetProgress_CorruptResets(t *testing.T) {
	s, st := newTestService(t)
	ctx := context.Background()
	if err := st.Set(ctx, "u1", store.KeyProgress, "not an object"); err != nil {
		t.Fatal(err)
	}
	prog, err := s.GetProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if prog.Points != 0 || prog.Level != 1 {
		t.Errorf("progress = %+v, want fresh", prog)
	}
}

func TestAwardLike_LevelsUp(t *testing.T) {
	pub := &recordingPublisher{}
	s, st := newTestService(t, WithPublisher(pub))
	ctx := context.Background()
	seedProgress(t, st, &Progress{UserID: "u1", Points: 980, Level: 1})

	prog, err := s.AwardLike(ctx, "u1")
	if err != nil {
		t.Fatalf("AwardLike() error = %v", err)
	}
	// 980 + 50 crosses 1000, then the level bonus adds 500.
	if prog.Points != 1530 || prog.Level != 2 {
		t.Errorf("progress = %d points level %d, want 1530 level 2", prog.Points, prog.Level)
	}
	if pub.count(TopicPoints) != 1 || pub.count(TopicLevel) != 1 {
		t.Errorf("published topics = %v", pub.topics)
	}

	stored, _ := s.GetProgress(ctx, "u1")
	if stored.Points != 1530 {
		t.Errorf("stored points = %d", stored.Points)
	}
}

func TestAwardLike_Concurrent(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AwardLike(ctx, "u1"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	prog, _ := s.GetProgress(ctx, "u1")
	if prog.Points != 500 {
		t.Errorf("points = %d, want 500", prog.Points)
	}
}

func TestRecordActivity(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		activity   Activity
		wantPoints int
	}{
		{"heritage visit", Activity{Type: ActivityVisit, IsHeritage: true}, 50},
		{"cuisine", Activity{Type: ActivityCuisine, Cuisine: "Chettinad"}, 80},
		{"same cuisine again", Activity{Type: ActivityCuisine, Cuisine: "Chettinad"}, 110},
		{"festival", Activity{Type: ActivityFestival}, 210},
		{"other", Activity{Type: "concert"}, 220},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.RecordActivity(ctx, "u1", tt.activity)
			if err != nil {
				t.Fatal(err)
			}
			if res.Progress.Points != tt.wantPoints {
				t.Errorf("points = %d, want %d", res.Progress.Points, tt.wantPoints)
			}
		})
	}

	prog, _ := s.GetProgress(ctx, "u1")
	a := prog.Achievements
	if a.HeritageVisits != 1 || len(a.CuisinesTried) != 1 || a.FestivalParticipation != 1 {
		t.Errorf("achievements = %+v", a)
	}
}

func TestRecordActivity_AwardsBadge(t *testing.T) {
	pub := &recordingPublisher{}
	s, st := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	p := NewProgress("u1")
	p.Achievements.HeritageVisits = 4
	seedProgress(t, st, p)

	res, err := s.RecordActivity(ctx, "u1", Activity{Type: ActivityVisit, IsHeritage: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NewBadges) != 1 || res.NewBadges[0].ID != "diwali_explorer" {
		t.Fatalf("NewBadges = %+v", res.NewBadges)
	}
	// 50 visit + 1000 badge + 500 level bonus.
	if res.Progress.Points != 1550 || res.Progress.Level != 2 {
		t.Errorf("progress = %d points level %d", res.Progress.Points, res.Progress.Level)
	}
	if pub.count(TopicBadge) != 1 {
		t.Errorf("badge events = %d", pub.count(TopicBadge))
	}

	again, err := s.RecordActivity(ctx, "u1", Activity{Type: ActivityVisit})
	if err != nil {
		t.Fatal(err)
	}
	if len(again.NewBadges) != 0 {
		t.Errorf("badge awarded twice: %+v", again.NewBadges)
	}
}

func TestRecordPhoto(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	res, err := s.RecordPhoto(ctx, "u1", "loc-1", "urn:entity:place:temple")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NewBadges) != 1 || res.NewBadges[0].ID != "first_snap" {
		t.Errorf("NewBadges = %+v", res.NewBadges)
	}
	photos := res.Progress.Achievements.PhotoUploads
	if photos.Total != 1 || photos.HeritagePhotos != 1 || photos.RestaurantPhotos != 0 {
		t.Errorf("photos = %+v", photos)
	}
	before := res.Progress.Points

	dup, err := s.RecordPhoto(ctx, "u1", "loc-1", "temple")
	if err != nil {
		t.Fatal(err)
	}
	if dup.Progress.Points != before || dup.Progress.Achievements.PhotoUploads.Total != 1 {
		t.Errorf("duplicate location counted: %+v", dup.Progress)
	}

	res, _ = s.RecordPhoto(ctx, "u1", "loc-2", "Restaurant")
	if res.Progress.Achievements.PhotoUploads.RestaurantPhotos != 1 {
		t.Errorf("restaurant photo not counted")
	}

	if _, err := s.RecordPhoto(ctx, "u1", "", "museum"); err == nil {
		t.Error("expected error for empty entity id")
	}
}

func TestRecordPhoto_ManyLocations(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	var last *ActivityResult
	for i := range 5 {
		res, err := s.RecordPhoto(ctx, "u1", fmt.Sprintf("loc-%d", i), "park")
		if err != nil {
			t.Fatal(err)
		}
		last = res
	}
	if !last.Progress.HasBadge("photo_explorer") || !last.Progress.HasBadge("first_snap") {
		t.Errorf("badges = %+v", last.Progress.Badges)
	}
}

func TestSpin(t *testing.T) {
	tests := []struct {
		name       string
		draw       float64
		wantType   string
		wantPoints int
	}{
		{"first discount", 0.1, RewardDiscount, 400},
		{"500 points", 0.5, RewardPoints, 900},
		{"1000 points", 0.75, RewardPoints, 1900},
		{"experience", 0.9, RewardExperience, 400},
		{"badge", 0.99, RewardBadge, 400},
		{"rounding slack", 1.5, RewardBadge, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := newTestService(t, fixedRandom(tt.draw))
			seedProgress(t, st, &Progress{UserID: "u1", Points: 500, Level: 1})

			res, err := s.Spin(context.Background(), "u1")
			if err != nil {
				t.Fatal(err)
			}
			if res.Reward == nil || res.Reward.Type != tt.wantType {
				t.Fatalf("Reward = %+v, want %s", res.Reward, tt.wantType)
			}
			if res.Progress.Points != tt.wantPoints {
				t.Errorf("points = %d, want %d", res.Progress.Points, tt.wantPoints)
			}
		})
	}
}

func TestSpin_Insufficient(t *testing.T) {
	s, st := newTestService(t, fixedRandom(0.1))
	seedProgress(t, st, &Progress{UserID: "u1", Points: 99, Level: 1})

	res, err := s.Spin(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reward != nil || res.Progress.Points != 99 {
		t.Errorf("result = %+v", res)
	}
}

func TestSpin_BadgeNotDuplicated(t *testing.T) {
	s, st := newTestService(t, fixedRandom(0.99))
	seedProgress(t, st, &Progress{UserID: "u1", Points: 300, Level: 1})
	ctx := context.Background()

	for range 2 {
		if _, err := s.Spin(ctx, "u1"); err != nil {
			t.Fatal(err)
		}
	}
	prog, _ := s.GetProgress(ctx, "u1")
	if len(prog.Badges) != 1 || prog.Points != 100 {
		t.Errorf("badges = %d points = %d", len(prog.Badges), prog.Points)
	}
}

func TestLeaderboard(t *testing.T) {
	s, st := newTestService(t)
	ctx := context.Background()

	for i := range 12 {
		id := fmt.Sprintf("user-%02d", i)
		p := NewProgress(id)
		p.Points = i * 100
		p.Achievements.HeritageVisits = 12 - i
		seedProgress(t, st, p)
	}
	if _, err := s.CreateProfile(ctx, &models.UserProfile{UserID: "user-11", Name: "Top"}); err != nil {
		t.Fatal(err)
	}

	board, err := s.Leaderboard(ctx, BoardPoints)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != LeaderboardSize {
		t.Fatalf("len = %d", len(board))
	}
	if board[0].UserID != "user-11" || board[0].Name != "Top" || board[0].Rank != 1 {
		t.Errorf("first = %+v", board[0])
	}
	for i := 1; i < len(board); i++ {
		if board[i].Points > board[i-1].Points {
			t.Errorf("not sorted at %d", i)
		}
	}

	heritage, err := s.Leaderboard(ctx, BoardHeritage)
	if err != nil || heritage[0].UserID != "user-00" {
		t.Errorf("heritage leader = %+v, %v", heritage, err)
	}

	if _, err := s.Leaderboard(ctx, "karma"); !errors.Is(err, ErrUnknownLeaderboard) {
		t.Errorf("unknown category error = %v", err)
	}
}

func TestPublishFailureIgnored(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("bus down")}
	s, _ := newTestService(t, WithPublisher(pub))
	if _, err := s.AwardLike(context.Background(), "u1"); err != nil {
		t.Errorf("AwardLike() error = %v", err)
	}
}

func TestInvalidUser(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	if _, err := s.AwardLike(ctx, ""); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("AwardLike error = %v", err)
	}
	if _, err := s.GetProgress(ctx, ""); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("GetProgress error = %v", err)
	}
}
