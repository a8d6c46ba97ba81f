package domain

import (
	"context"
	"time"
)

// ReviewRepository is the normalized review store.
type ReviewRepository interface {
	// UpsertReview creates or updates the review keyed by (Platform, ExternalID()).
	// Response fields of an existing row are never overwritten.
	UpsertReview(ctx context.Context, r Review) (Review, error)
	CreateReview(ctx context.Context, r Review) (Review, error)
	GetReview(ctx context.Context, id string) (Review, error)
	// ListReviews returns reviews newest first; platform "" means every platform.
	ListReviews(ctx context.Context, platform string) ([]Review, error)
	ReplyToReview(ctx context.Context, id string, reply ReviewReply) (Review, error)
}

// PlatformRepository is the per-platform credential store.
type PlatformRepository interface {
	GetPlatform(ctx context.Context, platform string) (PlatformIntegration, error)
	ListPlatforms(ctx context.Context) ([]PlatformIntegration, error)
	// UpsertPlatform creates the row if absent, else overwrites enabled + credentials.
	UpsertPlatform(ctx context.Context, platform string, enabled bool, creds Credentials) (PlatformIntegration, error)
	// TouchLastSync updates an existing row only.
	TouchLastSync(ctx context.Context, platform string, at time.Time) error
}

type CardRepository interface {
	CreateCard(ctx context.Context, c NfcQrCard) (NfcQrCard, error)
	ListCards(ctx context.Context) ([]NfcQrCard, error)
	GetCard(ctx context.Context, id string) (NfcQrCard, error)
	UpdateCard(ctx context.Context, id string, p CardPatch) (NfcQrCard, error)
	DeleteCard(ctx context.Context, id string) error
	RecordClick(ctx context.Context, id string, at time.Time) (NfcQrCard, error)
}

// Store groups the three repositories a storage backend provides.
type Store interface {
	ReviewRepository
	PlatformRepository
	CardRepository
}

// Adapter talks to one upstream review platform.
type Adapter interface {
	Platform() Platform
	FetchRawReviews(ctx context.Context) ([]RawReview, error)
	SyncReviews(ctx context.Context) (SyncResult, error)
}

// AdapterFactory validates a credential bundle and builds the matching adapter.
type AdapterFactory interface {
	New(platform string, creds *Credentials) (Adapter, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
}

// QRRenderer turns a payload into an image data URL.
type QRRenderer interface {
	Render(payload string, opts QROptions) (string, error)
}
