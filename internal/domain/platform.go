package domain

import "time"

// Credentials is the stored credential bundle. Each platform reads its own subset.
type Credentials struct {
	APIKey      string `json:"apiKey,omitempty"`
	PlaceID     string `json:"placeId,omitempty"`
	BusinessID  string `json:"businessId,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	PageID      string `json:"pageId,omitempty"`
}

type PlatformIntegration struct {
	Platform    string       `json:"platform"`
	IsEnabled   bool         `json:"isEnabled"`
	Credentials *Credentials `json:"credentials"`
	LastSync    *time.Time   `json:"lastSync,omitempty"`
}

// Redacted masks every secret so the integration can be listed publicly.
func (p PlatformIntegration) Redacted() PlatformIntegration {
	if p.Credentials == nil {
		return p
	}
	c := *p.Credentials
	c.APIKey = mask(c.APIKey)
	c.AccessToken = mask(c.AccessToken)
	p.Credentials = &c
	return p
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// PlatformCredentials is a validated credential set for exactly one platform.
// The set of implementations is closed: GoogleCredentials, YelpCredentials, FacebookCredentials.
type PlatformCredentials interface {
	Platform() Platform
	sealed()
}

type GoogleCredentials struct {
	APIKey  string
	PlaceID string
}

type YelpCredentials struct {
	BusinessID  string
	AccessToken string
}

type FacebookCredentials struct {
	PageID      string
	AccessToken string
}

func (GoogleCredentials) Platform() Platform   { return PlatformGoogle }
func (YelpCredentials) Platform() Platform     { return PlatformYelp }
func (FacebookCredentials) Platform() Platform { return PlatformFacebook }

func (GoogleCredentials) sealed()   {}
func (YelpCredentials) sealed()     {}
func (FacebookCredentials) sealed() {}
