package domain

import (
	"fmt"
	"time"
)

type CardImageType string

const (
	CardImageQR  CardImageType = "qr"
	CardImageNFC CardImageType = "3d_nfc"
)

type CustomizationSlot struct {
	SlotName  string `json:"slotName"`
	SlotValue string `json:"slotValue"`
}

// NfcQrCard binds a rendered QR image to a redirect destination and counts visits.
type NfcQrCard struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	QRCodeURL          string              `json:"qrCodeUrl"`
	RedirectURL        string              `json:"redirectUrl"`
	CustomLink         string              `json:"customLink"`
	ClickCount         int64               `json:"clickCount"`
	LastClicked        *time.Time          `json:"lastClicked"`
	CustomizationSlots []CustomizationSlot `json:"customizationSlots"`
	ImageType          CardImageType       `json:"imageType"`
	ImageURL           string              `json:"imageUrl"`
	CreatedAt          time.Time           `json:"createdAt"`
}

// CardPatch is a partial card update; nil fields are kept.
type CardPatch struct {
	Name               *string
	QRCodeURL          *string
	RedirectURL        *string
	CustomLink         *string
	CustomizationSlots *[]CustomizationSlot
	ImageType          *CardImageType
	ImageURL           *string
}

type QRColor struct {
	Dark  string `json:"dark"`
	Light string `json:"light"`
}

// QROptions mirrors the rendering knobs exposed to operators.
type QROptions struct {
	ErrorCorrectionLevel string  `json:"errorCorrectionLevel"`
	Type                 string  `json:"type"`
	Quality              float64 `json:"quality,omitempty"`
	Margin               int     `json:"margin"`
	Width                int     `json:"width,omitempty"`
	Color                QRColor `json:"color"`
}

// Rendering bounds; the image buffer grows with the square of the width.
const (
	MaxQRWidth  = 2000
	MaxQRMargin = 16
)

// CheckBounds rejects sizes the renderer will not allocate.
func (o QROptions) CheckBounds() error {
	if o.Width < 0 || o.Width > MaxQRWidth {
		return fmt.Errorf("%w: width must be between 0 and %d", ErrInvalidRequest, MaxQRWidth)
	}
	if o.Margin < 0 || o.Margin > MaxQRMargin {
		return fmt.Errorf("%w: margin must be between 0 and %d", ErrInvalidRequest, MaxQRMargin)
	}
	return nil
}

type GeneratedQR struct {
	QRCodeURL  string    `json:"qrCodeUrl"`
	PreviewURL string    `json:"previewUrl"`
	Data       string    `json:"data"`
	Options    QROptions `json:"options"`
}
