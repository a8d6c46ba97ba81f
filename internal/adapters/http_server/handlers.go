package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_hub/internal/app"
	"review_hub/internal/domain"
)

const maxBody = 1 << 20

type Handlers struct {
	Sync  *app.SyncService
	Q     *app.QueryService
	Cards *app.CardService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		r.Route("/platforms", func(r chi.Router) {
			r.Get("/", h.listPlatforms(false))
			r.Get("/enabled", h.listPlatforms(true))
			r.Post("/toggle", h.togglePlatform)
			r.Post("/sync/{platform}", h.syncPlatform)
		})
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.listReviews)
			r.Post("/", h.addReview)
			r.Put("/{id}/reply", h.replyToReview)
		})
		r.Route("/nfc-qr", func(r chi.Router) {
			r.Post("/generate-qr", h.generateQR)
			r.Get("/cards", h.listCards)
			r.Post("/cards", h.createCard)
			r.Put("/cards/{id}", h.updateCard)
			r.Delete("/cards/{id}", h.deleteCard)
			r.Get("/cards/{id}/visit", h.visitCard)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamFetch):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrPlatformNotConfigured),
		errors.Is(err, domain.ErrPlatformDisabled),
		errors.Is(err, domain.ErrMissingCredentials),
		errors.Is(err, domain.ErrMissingRequiredField),
		errors.Is(err, domain.ErrUnsupportedPlatform):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		detail = "internal error"
	}
	writeProblem(w, status, http.StatusText(status), detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidRequest)
	}
	return nil
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- platforms ----

func (h *Handlers) listPlatforms(enabledOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.Sync.ListPlatforms(r.Context(), enabledOnly)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// toggleBody decodes field by field so wrong JSON types are reported as bad requests.
type toggleBody struct {
	Platform    json.RawMessage `json:"platform"`
	IsEnabled   json.RawMessage `json:"isEnabled"`
	Credentials json.RawMessage `json:"credentials"`
}

func (b toggleBody) parse() (string, bool, domain.Credentials, error) {
	var (
		name    string
		enabled bool
		creds   domain.Credentials
	)
	if json.Unmarshal(b.Platform, &name) != nil || name == "" {
		return "", false, creds, fmt.Errorf("%w: platform must be a non-empty string", domain.ErrInvalidRequest)
	}
	if isNull(b.IsEnabled) || json.Unmarshal(b.IsEnabled, &enabled) != nil {
		return "", false, creds, fmt.Errorf("%w: isEnabled must be a boolean", domain.ErrInvalidRequest)
	}
	var obj map[string]json.RawMessage
	if len(b.Credentials) == 0 || json.Unmarshal(b.Credentials, &obj) != nil {
		return "", false, creds, fmt.Errorf("%w: credentials must be an object", domain.ErrInvalidRequest)
	}
	if obj != nil && json.Unmarshal(b.Credentials, &creds) != nil {
		return "", false, creds, fmt.Errorf("%w: credential fields must be strings", domain.ErrInvalidRequest)
	}
	return name, enabled, creds, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func (h *Handlers) togglePlatform(w http.ResponseWriter, r *http.Request) {
	var body toggleBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	name, enabled, creds, err := body.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Sync.SetPlatformEnabled(r.Context(), name, enabled, creds)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Redacted())
}

func (h *Handlers) syncPlatform(w http.ResponseWriter, r *http.Request) {
	res, err := h.Sync.SyncPlatform(r.Context(), chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- reviews ----

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ListReviews(r.Context(), r.URL.Query().Get("platform"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}

func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	var in app.NewReview
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.AddReview(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) replyToReview(w http.ResponseWriter, r *http.Request) {
	var in app.Reply
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.ReplyToReview(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- nfc / qr cards ----

type generateQRBody struct {
	Data    string           `json:"data"`
	Options *app.QROverrides `json:"options"`
}

func (h *Handlers) generateQR(w http.ResponseWriter, r *http.Request) {
	var in generateQRBody
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Cards.GenerateQR(in.Data, in.Options)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) listCards(w http.ResponseWriter, r *http.Request) {
	out, err := h.Cards.ListCards(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createCard(w http.ResponseWriter, r *http.Request) {
	var in app.CardInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Cards.CreateCard(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) updateCard(w http.ResponseWriter, r *http.Request) {
	var in app.CardUpdate
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Cards.UpdateCard(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.Cards.DeleteCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) visitCard(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cards.Visit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, c.RedirectURL, http.StatusFound)
}
