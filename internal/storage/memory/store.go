// Package memory is an in-process Store for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"review_hub/internal/domain"
)

type Store struct {
	mu        sync.Mutex
	reviews   map[string]domain.Review
	byKey     map[string]string // platform + "\x00" + external id -> review id
	platforms map[string]domain.PlatformIntegration
	cards     map[string]domain.NfcQrCard
}

func New() *Store {
	return &Store{
		reviews:   map[string]domain.Review{},
		byKey:     map[string]string{},
		platforms: map[string]domain.PlatformIntegration{},
		cards:     map[string]domain.NfcQrCard{},
	}
}

func reviewKey(r domain.Review) string { return string(r.Platform) + "\x00" + r.ExternalID() }

// ---- reviews ----

func (s *Store) UpsertReview(_ context.Context, r domain.Review) (domain.Review, error) {
	if r.ExternalID() == "" {
		return domain.Review{}, domain.ErrInvalidRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := reviewKey(r)
	if id, ok := s.byKey[k]; ok {
		cur := s.reviews[id]
		cur.Author, cur.Avatar, cur.Rating, cur.Content, cur.Date = r.Author, r.Avatar, r.Rating, r.Content, r.Date
		cur.PlatformData = r.PlatformData
		s.reviews[id] = cur
		return cur, nil
	}
	r.ID = uuid.NewString()
	r.AIResponse, r.UserResponse, r.IsResponded = nil, nil, false
	s.reviews[r.ID] = r
	s.byKey[k] = r.ID
	return r, nil
}

func (s *Store) CreateReview(_ context.Context, r domain.Review) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ExternalID() != "" {
		if _, ok := s.byKey[reviewKey(r)]; ok {
			return domain.Review{}, domain.ErrInvalidRequest
		}
	}
	r.ID = uuid.NewString()
	s.reviews[r.ID] = r
	if r.ExternalID() != "" {
		s.byKey[reviewKey(r)] = r.ID
	}
	return r, nil
}

func (s *Store) GetReview(_ context.Context, id string) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListReviews(_ context.Context, platform string) ([]domain.Review, error) {
	s.mu.Lock()
	out := make([]domain.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		if platform == "" || string(r.Platform) == platform {
			out = append(out, r)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ReplyToReview(_ context.Context, id string, reply domain.ReviewReply) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	if reply.UserResponse != nil {
		v := *reply.UserResponse
		r.UserResponse = &v
	}
	if reply.AIResponse != nil {
		v := *reply.AIResponse
		r.AIResponse = &v
	}
	if reply.IsResponded != nil {
		r.IsResponded = *reply.IsResponded
	}
	s.reviews[id] = r
	return r, nil
}

// ---- platforms ----

func (s *Store) GetPlatform(_ context.Context, platform string) (domain.PlatformIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.platforms[platform]
	if !ok {
		return domain.PlatformIntegration{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPlatforms(_ context.Context) ([]domain.PlatformIntegration, error) {
	s.mu.Lock()
	out := make([]domain.PlatformIntegration, 0, len(s.platforms))
	for _, p := range s.platforms {
		out = append(out, p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (s *Store) UpsertPlatform(_ context.Context, platform string, enabled bool, creds domain.Credentials) (domain.PlatformIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.platforms[platform]
	p.Platform = platform
	p.IsEnabled = enabled
	c := creds
	p.Credentials = &c
	s.platforms[platform] = p
	return p, nil
}

func (s *Store) TouchLastSync(_ context.Context, platform string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.platforms[platform]
	if !ok {
		return nil
	}
	t := at.UTC()
	p.LastSync = &t
	s.platforms[platform] = p
	return nil
}

// ---- cards ----

func (s *Store) CreateCard(_ context.Context, c domain.NfcQrCard) (domain.NfcQrCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.cards[c.ID] = c
	return c, nil
}

func (s *Store) ListCards(_ context.Context) ([]domain.NfcQrCard, error) {
	s.mu.Lock()
	out := make([]domain.NfcQrCard, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetCard(_ context.Context, id string) (domain.NfcQrCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return domain.NfcQrCard{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *Store) UpdateCard(_ context.Context, id string, p domain.CardPatch) (domain.NfcQrCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return domain.NfcQrCard{}, domain.ErrNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.QRCodeURL != nil {
		c.QRCodeURL = *p.QRCodeURL
	}
	if p.RedirectURL != nil {
		c.RedirectURL = *p.RedirectURL
	}
	if p.CustomLink != nil {
		c.CustomLink = *p.CustomLink
	}
	if p.CustomizationSlots != nil {
		c.CustomizationSlots = append([]domain.CustomizationSlot(nil), (*p.CustomizationSlots)...)
	}
	if p.ImageType != nil {
		c.ImageType = *p.ImageType
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	s.cards[id] = c
	return c, nil
}

func (s *Store) DeleteCard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.cards, id)
	return nil
}

func (s *Store) RecordClick(_ context.Context, id string, at time.Time) (domain.NfcQrCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return domain.NfcQrCard{}, domain.ErrNotFound
	}
	t := at.UTC()
	c.ClickCount++
	c.LastClicked = &t
	s.cards[id] = c
	return c, nil
}
