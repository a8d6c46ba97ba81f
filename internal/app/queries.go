package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"review_hub/internal/domain"
)

var validate = validator.New()

type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// filterKey returns the store filter and, for cacheable filters, the cache key.
func filterKey(platform string) (filter, key string) {
	platform = strings.TrimSpace(platform)
	if platform == "" || platform == domain.AllPlatforms {
		return "", "reviews:" + domain.AllPlatforms
	}
	for _, p := range domain.KnownPlatforms() {
		if string(p) == platform {
			return platform, "reviews:" + platform
		}
	}
	// arbitrary filters bypass the cache so invalidation stays bounded
	return platform, ""
}

// ListReviews returns every review, or one platform's, newest first.
// "" and "All" both mean no filter.
func (s *QueryService) ListReviews(ctx context.Context, platform string) ([]domain.Review, error) {
	filter, key := filterKey(platform)
	if s.cache != nil && key != "" {
		var out []domain.Review
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	rs, err := s.repo.ListReviews(ctx, filter)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		rs = []domain.Review{}
	}
	if s.cache != nil && key != "" {
		_ = s.cache.Set(ctx, key, rs, int(s.cacheTTL.Seconds()))
	}
	return rs, nil
}

// InvalidateReviews drops the "All" listing and the given platforms' listings.
func (s *QueryService) InvalidateReviews(ctx context.Context, platforms ...domain.Platform) {
	if s.cache == nil {
		return
	}
	keys := []string{"reviews:" + domain.AllPlatforms}
	for _, p := range platforms {
		keys = append(keys, "reviews:"+string(p))
	}
	_ = s.cache.Del(ctx, keys...)
}

type NewReview struct {
	Platform  string     `json:"platform" validate:"required,max=32"`
	Author    string     `json:"author" validate:"required"`
	Avatar    string     `json:"avatar"`
	Rating    float64    `json:"rating" validate:"gte=0,lte=10"`
	Content   string     `json:"content" validate:"required"`
	Date      *time.Time `json:"date"`
	Sentiment *string    `json:"sentiment"`
	// ExternalID is optional; when set the manual row shares the sync key space.
	// Only known platforms carry one.
	ExternalID string `json:"externalId"`
	ProfileURL string `json:"profileUrl" validate:"omitempty,url"`
}

// AddReview stores an operator-entered review.
func (s *QueryService) AddReview(ctx context.Context, in NewReview) (domain.Review, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Review{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if _, ok := domain.ParsePlatform(in.Platform); !ok && in.ExternalID != "" {
		return domain.Review{}, fmt.Errorf("%w: externalId requires a known platform", domain.ErrInvalidRequest)
	}
	rv := domain.Review{
		Platform:  domain.Platform(canonical(in.Platform)),
		Author:    in.Author,
		Avatar:    in.Avatar,
		Rating:    in.Rating,
		Content:   in.Content,
		Sentiment: in.Sentiment,
		Date:      time.Now().UTC(),
	}
	if rv.Avatar == "" {
		rv.Avatar = domain.PlaceholderAvatar
	}
	if in.Date != nil {
		rv.Date = in.Date.UTC()
	}
	rv.PlatformData.SetExternalID(rv.Platform, in.ExternalID)
	rv.PlatformData.ProfileURL = in.ProfileURL

	out, err := s.repo.CreateReview(ctx, rv)
	if err != nil {
		return domain.Review{}, err
	}
	s.InvalidateReviews(ctx, out.Platform)
	return out, nil
}

type Reply struct {
	UserResponse *string `json:"userResponse"`
	AIResponse   *string `json:"aiResponse"`
	IsResponded  *bool   `json:"isResponded"`
}

// ReplyToReview records an operator response. isResponded follows
// userResponse unless the caller sets it explicitly.
func (s *QueryService) ReplyToReview(ctx context.Context, id string, in Reply) (domain.Review, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Review{}, fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}
	if in.UserResponse == nil && in.AIResponse == nil && in.IsResponded == nil {
		return domain.Review{}, fmt.Errorf("%w: nothing to update", domain.ErrInvalidRequest)
	}
	reply := domain.ReviewReply{UserResponse: in.UserResponse, AIResponse: in.AIResponse, IsResponded: in.IsResponded}
	if reply.IsResponded == nil && in.UserResponse != nil {
		v := strings.TrimSpace(*in.UserResponse) != ""
		reply.IsResponded = &v
	}

	out, err := s.repo.ReplyToReview(ctx, id, reply)
	if err != nil {
		return domain.Review{}, err
	}
	s.InvalidateReviews(ctx, out.Platform)
	return out, nil
}
