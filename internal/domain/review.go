package domain

import (
	"strings"
	"time"
)

type Platform string

const (
	PlatformGoogle   Platform = "Google"
	PlatformYelp     Platform = "Yelp"
	PlatformFacebook Platform = "Facebook"
)

// AllPlatforms is the listing filter that disables platform filtering.
const AllPlatforms = "All"

// PlaceholderAvatar is stored when upstream has no reviewer picture.
const PlaceholderAvatar = "/placeholder.svg"

// KnownPlatforms lists every platform an adapter exists for.
func KnownPlatforms() []Platform {
	return []Platform{PlatformGoogle, PlatformYelp, PlatformFacebook}
}

// ParsePlatform matches name case-insensitively against the known platforms.
func ParsePlatform(name string) (Platform, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range KnownPlatforms() {
		if strings.ToLower(string(p)) == n {
			return p, true
		}
	}
	return "", false
}

func (p Platform) String() string { return string(p) }

// ExternalIDField is the platformData key holding p's review id (e.g. "googleReviewId").
func ExternalIDField(p Platform) string {
	switch p {
	case PlatformGoogle:
		return "googleReviewId"
	case PlatformYelp:
		return "yelpReviewId"
	case PlatformFacebook:
		return "facebookReviewId"
	}
	return ""
}

// PlatformData holds one platform-specific review id and an optional back-link.
type PlatformData struct {
	GoogleReviewID   string `json:"googleReviewId,omitempty"`
	YelpReviewID     string `json:"yelpReviewId,omitempty"`
	FacebookReviewID string `json:"facebookReviewId,omitempty"`
	ProfileURL       string `json:"profileUrl,omitempty"`
}

// ExternalID returns the id stored for p, or "" (manual reviews have none).
func (d PlatformData) ExternalID(p Platform) string {
	switch p {
	case PlatformGoogle:
		return d.GoogleReviewID
	case PlatformYelp:
		return d.YelpReviewID
	case PlatformFacebook:
		return d.FacebookReviewID
	}
	return ""
}

// SetExternalID stores id in the field belonging to p. Unknown platforms are ignored.
func (d *PlatformData) SetExternalID(p Platform, id string) {
	switch p {
	case PlatformGoogle:
		d.GoogleReviewID = id
	case PlatformYelp:
		d.YelpReviewID = id
	case PlatformFacebook:
		d.FacebookReviewID = id
	}
}

type Review struct {
	ID           string       `json:"id"`
	Platform     Platform     `json:"platform"`
	Author       string       `json:"author"`
	Avatar       string       `json:"avatar"`
	Rating       float64      `json:"rating"`
	Content      string       `json:"content"`
	Date         time.Time    `json:"date"`
	AIResponse   *string      `json:"aiResponse,omitempty"`
	UserResponse *string      `json:"userResponse,omitempty"`
	Sentiment    *string      `json:"sentiment,omitempty"`
	PlatformData PlatformData `json:"platformData"`
	IsResponded  bool         `json:"isResponded"`
}

// ExternalID is the second half of the (platform, external id) upsert key.
func (r Review) ExternalID() string { return r.PlatformData.ExternalID(r.Platform) }

// ReviewReply is an operator update of the response fields; nil fields are left alone.
type ReviewReply struct {
	UserResponse *string
	AIResponse   *string
	IsResponded  *bool
}

// RawReview is one upstream review payload, decoded but not interpreted.
type RawReview = map[string]any

type SyncResult struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Platform Platform `json:"platform"`
	Synced   int      `json:"synced"`
}
