package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"review_hub/internal/domain"
)

const previewWidth = 100

type CardService struct {
	repo     domain.CardRepository
	renderer domain.QRRenderer
	width    int
	now      func() time.Time
}

func NewCardService(r domain.CardRepository, qr domain.QRRenderer, defaultWidth int) *CardService {
	if defaultWidth <= 0 {
		defaultWidth = 300
	}
	if defaultWidth > domain.MaxQRWidth {
		defaultWidth = domain.MaxQRWidth
	}
	return &CardService{repo: r, renderer: qr, width: defaultWidth, now: time.Now}
}

// DefaultQROptions are the rendering defaults operators override field by field.
func (s *CardService) DefaultQROptions() domain.QROptions {
	return domain.QROptions{
		ErrorCorrectionLevel: "H",
		Type:                 "image/png",
		Quality:              0.92,
		Margin:               1,
		Width:                s.width,
		Color:                domain.QRColor{Dark: "#000000", Light: "#FFFFFF"},
	}
}

// QROverrides are caller-supplied rendering options; unset fields keep the defaults.
type QROverrides struct {
	ErrorCorrectionLevel string   `json:"errorCorrectionLevel"`
	Type                 string   `json:"type"`
	Quality              *float64 `json:"quality"`
	Margin               *int     `json:"margin"`
	Width                *int     `json:"width"`
	Color                *struct {
		Dark  string `json:"dark"`
		Light string `json:"light"`
	} `json:"color"`
}

func (s *CardService) mergeQROptions(o *QROverrides) domain.QROptions {
	out := s.DefaultQROptions()
	if o == nil {
		return out
	}
	if o.ErrorCorrectionLevel != "" {
		out.ErrorCorrectionLevel = o.ErrorCorrectionLevel
	}
	if o.Type != "" {
		out.Type = o.Type
	}
	if o.Quality != nil {
		out.Quality = *o.Quality
	}
	if o.Margin != nil {
		out.Margin = *o.Margin
	}
	if o.Width != nil {
		out.Width = *o.Width
	}
	if o.Color != nil {
		if o.Color.Dark != "" {
			out.Color.Dark = o.Color.Dark
		}
		if o.Color.Light != "" {
			out.Color.Light = o.Color.Light
		}
	}
	return out
}

// GenerateQR renders data at full size and as a fixed-width preview.
func (s *CardService) GenerateQR(data string, opts *QROverrides) (domain.GeneratedQR, error) {
	if strings.TrimSpace(data) == "" {
		return domain.GeneratedQR{}, fmt.Errorf("%w: data is required for QR code generation", domain.ErrInvalidRequest)
	}
	o := s.mergeQROptions(opts)
	if err := o.CheckBounds(); err != nil {
		return domain.GeneratedQR{}, err
	}
	full, err := s.renderer.Render(data, o)
	if err != nil {
		return domain.GeneratedQR{}, err
	}
	po := o
	po.Width = previewWidth
	preview, err := s.renderer.Render(data, po)
	if err != nil {
		return domain.GeneratedQR{}, err
	}
	return domain.GeneratedQR{QRCodeURL: full, PreviewURL: preview, Data: data, Options: o}, nil
}

type CardInput struct {
	Name               string                     `json:"name" validate:"required"`
	RedirectURL        string                     `json:"redirectUrl" validate:"required,url"`
	QRCodeURL          string                     `json:"qrCodeUrl"`
	CustomLink         string                     `json:"customLink" validate:"omitempty,url"`
	CustomizationSlots []domain.CustomizationSlot `json:"customizationSlots" validate:"dive"`
	ImageType          domain.CardImageType       `json:"imageType" validate:"omitempty,oneof=qr 3d_nfc"`
	ImageURL           string                     `json:"imageUrl"`
}

// CreateCard stores a card. Without a supplied image, the QR is rendered from
// the custom link when present, else from the redirect URL.
func (s *CardService) CreateCard(ctx context.Context, in CardInput) (domain.NfcQrCard, error) {
	if err := validate.Struct(in); err != nil {
		return domain.NfcQrCard{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	c := domain.NfcQrCard{
		Name:               in.Name,
		QRCodeURL:          in.QRCodeURL,
		RedirectURL:        in.RedirectURL,
		CustomLink:         in.CustomLink,
		CustomizationSlots: in.CustomizationSlots,
		ImageType:          in.ImageType,
		ImageURL:           in.ImageURL,
		CreatedAt:          s.now().UTC(),
	}
	if c.ImageType == "" {
		c.ImageType = domain.CardImageQR
	}
	if c.CustomizationSlots == nil {
		c.CustomizationSlots = []domain.CustomizationSlot{}
	}
	if c.QRCodeURL == "" {
		target := c.CustomLink
		if target == "" {
			target = c.RedirectURL
		}
		url, err := s.renderer.Render(target, s.DefaultQROptions())
		if err != nil {
			return domain.NfcQrCard{}, err
		}
		c.QRCodeURL = url
	}
	if c.ImageURL == "" {
		c.ImageURL = c.QRCodeURL
	}
	return s.repo.CreateCard(ctx, c)
}

func (s *CardService) ListCards(ctx context.Context) ([]domain.NfcQrCard, error) {
	cs, err := s.repo.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []domain.NfcQrCard{}
	}
	return cs, nil
}

type CardUpdate struct {
	Name               *string                     `json:"name" validate:"omitempty,min=1"`
	RedirectURL        *string                     `json:"redirectUrl" validate:"omitempty,url"`
	QRCodeURL          *string                     `json:"qrCodeUrl"`
	CustomLink         *string                     `json:"customLink" validate:"omitempty,url"`
	CustomizationSlots *[]domain.CustomizationSlot `json:"customizationSlots"`
	ImageType          *domain.CardImageType       `json:"imageType" validate:"omitempty,oneof=qr 3d_nfc"`
	ImageURL           *string                     `json:"imageUrl"`
}

func (s *CardService) UpdateCard(ctx context.Context, id string, in CardUpdate) (domain.NfcQrCard, error) {
	if err := validate.Struct(in); err != nil {
		return domain.NfcQrCard{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return s.repo.UpdateCard(ctx, id, domain.CardPatch{
		Name:               in.Name,
		QRCodeURL:          in.QRCodeURL,
		RedirectURL:        in.RedirectURL,
		CustomLink:         in.CustomLink,
		CustomizationSlots: in.CustomizationSlots,
		ImageType:          in.ImageType,
		ImageURL:           in.ImageURL,
	})
}

func (s *CardService) DeleteCard(ctx context.Context, id string) error {
	return s.repo.DeleteCard(ctx, id)
}

// Visit counts a scan and returns the card so the caller can redirect.
func (s *CardService) Visit(ctx context.Context, id string) (domain.NfcQrCard, error) {
	return s.repo.RecordClick(ctx, id, s.now())
}
