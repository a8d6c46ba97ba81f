// Package qrcode renders QR payloads to PNG data URLs.
package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	qr "github.com/skip2/go-qrcode"

	"review_hub/internal/domain"
)

const dataURLPrefix = "data:image/png;base64,"

type Renderer struct{}

func New() *Renderer { return &Renderer{} }

const defaultScale = 4

// Render draws payload with a quiet zone of opts.Margin modules. The image is
// exactly opts.Width pixels wide when that fits every module, otherwise each
// module is drawn defaultScale pixels wide. Only image/png output is supported.
func (Renderer) Render(payload string, opts domain.QROptions) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("%w: empty qr payload", domain.ErrInvalidRequest)
	}
	if opts.Type != "" && opts.Type != "image/png" {
		return "", fmt.Errorf("%w: unsupported qr type %q", domain.ErrInvalidRequest, opts.Type)
	}
	level, err := recoveryLevel(opts.ErrorCorrectionLevel)
	if err != nil {
		return "", err
	}
	dark, err := parseHex(opts.Color.Dark, color.Black)
	if err != nil {
		return "", err
	}
	light, err := parseHex(opts.Color.Light, color.White)
	if err != nil {
		return "", err
	}
	if err := opts.CheckBounds(); err != nil {
		return "", err
	}

	code, err := qr.New(payload, level)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	code.DisableBorder = true
	bits := code.Bitmap()

	n := len(bits)
	modules := n + 2*opts.Margin
	side := opts.Width
	if side < modules {
		side = modules * defaultScale
	}

	// nearest-neighbour: pixel p falls in module p*modules/side
	img := image.NewPaletted(image.Rect(0, 0, side, side), color.Palette{light, dark})
	for py := 0; py < side; py++ {
		y := py*modules/side - opts.Margin
		if y < 0 || y >= n {
			continue
		}
		for px := 0; px < side; px++ {
			x := px*modules/side - opts.Margin
			if x >= 0 && x < n && bits[y][x] {
				img.SetColorIndex(px, py, 1)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr png: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func recoveryLevel(l string) (qr.RecoveryLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(l)) {
	case "L":
		return qr.Low, nil
	case "M":
		return qr.Medium, nil
	case "Q":
		return qr.High, nil
	case "H", "":
		return qr.Highest, nil
	}
	return 0, fmt.Errorf("%w: unknown error correction level %q", domain.ErrInvalidRequest, l)
}

// parseHex accepts #RGB, #RRGGBB and #RRGGBBAA.
func parseHex(s string, def color.Color) (color.Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return def, nil
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return nil, fmt.Errorf("%w: bad color %q", domain.ErrInvalidRequest, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad color %q", domain.ErrInvalidRequest, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
