package qrcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"

	"review_hub/internal/domain"
)

func decode(t *testing.T, url string) (w, h int, dark bool) {
	t.Helper()
	if !strings.HasPrefix(url, dataURLPrefix) {
		t.Fatalf("not a png data url: %.40s", url)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, dataURLPrefix))
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	b := img.Bounds()
	r, _, _, _ := img.At(0, 0).RGBA()
	return b.Dx(), b.Dy(), r < 0x8000
}

func TestRender_SizeAndMargin(t *testing.T) {
	opts := domain.QROptions{ErrorCorrectionLevel: "H", Type: "image/png", Margin: 1, Width: 300,
		Color: domain.QRColor{Dark: "#000000", Light: "#FFFFFF"}}
	url, err := New().Render("https://example.com/review", opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	w, h, dark := decode(t, url)
	if w != 300 || h != 300 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
	if dark {
		t.Fatalf("margin pixel should be light")
	}

	// no margin: the top-left finder pattern starts on the first pixel
	opts.Margin = 0
	url, _ = New().Render("https://example.com/review", opts)
	if _, _, dark := decode(t, url); !dark {
		t.Fatalf("expected finder pattern at origin")
	}
}

func TestRender_Rejects(t *testing.T) {
	base := domain.QROptions{ErrorCorrectionLevel: "M", Width: 100}
	cases := map[string]func(o *domain.QROptions){
		"type":   func(o *domain.QROptions) { o.Type = "image/jpeg" },
		"level":  func(o *domain.QROptions) { o.ErrorCorrectionLevel = "X" },
		"color":  func(o *domain.QROptions) { o.Color.Dark = "#12" },
		"width":  func(o *domain.QROptions) { o.Width = domain.MaxQRWidth + 1 },
		"margin": func(o *domain.QROptions) { o.Margin = domain.MaxQRMargin + 1 },
	}
	for name, mut := range cases {
		o := base
		mut(&o)
		if _, err := New().Render("x", o); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("%s: expected invalid request, got %v", name, err)
		}
	}
	if _, err := New().Render("", base); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("empty payload should be rejected")
	}
}

func TestRender_SmallWidthFallsBackToDefaultScale(t *testing.T) {
	opts := domain.QROptions{ErrorCorrectionLevel: "L", Margin: 2, Width: 10}
	url, err := New().Render("hi", opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// version 1 code: 21 modules plus 2*2 quiet zone
	if w, h, _ := decode(t, url); w != 25*defaultScale || h != w {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
}
