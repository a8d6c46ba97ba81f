package mongo

import (
	"time"

	"review_hub/internal/domain"
)

const (
	colReviews   = "reviews"
	colPlatforms = "platform_integrations"
	colCards     = "nfc_qr_cards"
)

type platformDataDoc struct {
	GoogleReviewID   string `bson:"googleReviewId,omitempty"`
	YelpReviewID     string `bson:"yelpReviewId,omitempty"`
	FacebookReviewID string `bson:"facebookReviewId,omitempty"`
	ProfileURL       string `bson:"profileUrl,omitempty"`
}

type reviewDoc struct {
	ID           string          `bson:"_id"`
	Platform     string          `bson:"platform"`
	Author       string          `bson:"author"`
	Avatar       string          `bson:"avatar"`
	Rating       float64         `bson:"rating"`
	Content      string          `bson:"content"`
	Date         time.Time       `bson:"date"`
	AIResponse   *string         `bson:"aiResponse,omitempty"`
	UserResponse *string         `bson:"userResponse,omitempty"`
	Sentiment    *string         `bson:"sentiment,omitempty"`
	PlatformData platformDataDoc `bson:"platformData"`
	IsResponded  bool            `bson:"isResponded"`
}

func toReviewDoc(r domain.Review) reviewDoc {
	return reviewDoc{
		ID: r.ID, Platform: string(r.Platform), Author: r.Author, Avatar: r.Avatar, Rating: r.Rating,
		Content: r.Content, Date: r.Date.UTC(), AIResponse: r.AIResponse, UserResponse: r.UserResponse,
		Sentiment: r.Sentiment, IsResponded: r.IsResponded,
		PlatformData: platformDataDoc(r.PlatformData),
	}
}

func (d reviewDoc) domain() domain.Review {
	return domain.Review{
		ID: d.ID, Platform: domain.Platform(d.Platform), Author: d.Author, Avatar: d.Avatar, Rating: d.Rating,
		Content: d.Content, Date: d.Date.UTC(), AIResponse: d.AIResponse, UserResponse: d.UserResponse,
		Sentiment: d.Sentiment, IsResponded: d.IsResponded,
		PlatformData: domain.PlatformData(d.PlatformData),
	}
}

type credentialsDoc struct {
	APIKey      string `bson:"apiKey,omitempty"`
	PlaceID     string `bson:"placeId,omitempty"`
	BusinessID  string `bson:"businessId,omitempty"`
	AccessToken string `bson:"accessToken,omitempty"`
	PageID      string `bson:"pageId,omitempty"`
}

type platformDoc struct {
	Platform    string          `bson:"_id"`
	IsEnabled   bool            `bson:"isEnabled"`
	Credentials *credentialsDoc `bson:"credentials,omitempty"`
	LastSync    *time.Time      `bson:"lastSync,omitempty"`
}

func (d platformDoc) domain() domain.PlatformIntegration {
	p := domain.PlatformIntegration{Platform: d.Platform, IsEnabled: d.IsEnabled}
	if d.Credentials != nil {
		c := domain.Credentials(*d.Credentials)
		p.Credentials = &c
	}
	if d.LastSync != nil {
		t := d.LastSync.UTC()
		p.LastSync = &t
	}
	return p
}

type slotDoc struct {
	SlotName  string `bson:"slotName"`
	SlotValue string `bson:"slotValue"`
}

type cardDoc struct {
	ID                 string     `bson:"_id"`
	Name               string     `bson:"name"`
	QRCodeURL          string     `bson:"qrCodeUrl"`
	RedirectURL        string     `bson:"redirectUrl"`
	CustomLink         string     `bson:"customLink"`
	ClickCount         int64      `bson:"clickCount"`
	LastClicked        *time.Time `bson:"lastClicked,omitempty"`
	CustomizationSlots []slotDoc  `bson:"customizationSlots"`
	ImageType          string     `bson:"imageType"`
	ImageURL           string     `bson:"imageUrl"`
	CreatedAt          time.Time  `bson:"createdAt"`
}

func slotDocs(in []domain.CustomizationSlot) []slotDoc {
	out := make([]slotDoc, 0, len(in))
	for _, s := range in {
		out = append(out, slotDoc(s))
	}
	return out
}

func toCardDoc(c domain.NfcQrCard) cardDoc {
	return cardDoc{
		ID: c.ID, Name: c.Name, QRCodeURL: c.QRCodeURL, RedirectURL: c.RedirectURL, CustomLink: c.CustomLink,
		ClickCount: c.ClickCount, LastClicked: c.LastClicked, CustomizationSlots: slotDocs(c.CustomizationSlots),
		ImageType: string(c.ImageType), ImageURL: c.ImageURL, CreatedAt: c.CreatedAt.UTC(),
	}
}

func (d cardDoc) domain() domain.NfcQrCard {
	c := domain.NfcQrCard{
		ID: d.ID, Name: d.Name, QRCodeURL: d.QRCodeURL, RedirectURL: d.RedirectURL, CustomLink: d.CustomLink,
		ClickCount: d.ClickCount, ImageType: domain.CardImageType(d.ImageType), ImageURL: d.ImageURL,
		CreatedAt: d.CreatedAt.UTC(), CustomizationSlots: make([]domain.CustomizationSlot, 0, len(d.CustomizationSlots)),
	}
	if d.LastClicked != nil {
		t := d.LastClicked.UTC()
		c.LastClicked = &t
	}
	for _, s := range d.CustomizationSlots {
		c.CustomizationSlots = append(c.CustomizationSlots, domain.CustomizationSlot(s))
	}
	return c
}
