package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"review_hub/internal/adapters/platforms"
	"review_hub/internal/app"
	"review_hub/internal/domain"
	"review_hub/internal/storage/memory"
)

// ---- fakes ----

type fakeRenderer struct{}

func (fakeRenderer) Render(payload string, o domain.QROptions) (string, error) {
	return "data:image/png;base64,stub-" + payload, nil
}

type fixture struct {
	srv   *Server
	store *memory.Store
	hits  *int32
}

// newFixture wires the real factory against a fake Google endpoint.
func newFixture(t *testing.T, upstreamStatus int) fixture {
	t.Helper()
	var hits int32
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if upstreamStatus != http.StatusOK {
			http.Error(w, "nope", upstreamStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"reviews":[{"id":"123","rating":5,"text":"great","author_name":"A","time":1690000000}]}}`))
	}))
	t.Cleanup(up.Close)

	store := memory.New()
	f := platforms.NewFactory(store, platforms.Options{GoogleBase: up.URL, RPS: 100})
	q := app.NewQueryService(store, nil, time.Minute)
	s := New()
	s.MountHandlers(&Handlers{
		Sync:  app.NewSyncService(store, f, q, nil),
		Q:     q,
		Cards: app.NewCardService(store, fakeRenderer{}, 300),
	})
	return fixture{srv: s, store: store, hits: &hits}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.srv.Mux().ServeHTTP(rr, req)
	return rr
}

func problemOf(t *testing.T, rr *httptest.ResponseRecorder) problem {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type = %q, body=%s", ct, rr.Body.String())
	}
	var p problem
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return p
}

// ---- tests ----

func TestToggle_RejectsWrongTypes(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	bodies := []string{
		`{"platform":1,"isEnabled":true,"credentials":{}}`,
		`{"platform":"Google","isEnabled":"yes","credentials":{}}`,
		`{"platform":"Google","isEnabled":null,"credentials":{}}`,
		`{"platform":"Google","isEnabled":true,"credentials":"k"}`,
		`{"platform":"Google","isEnabled":true}`,
		`not json`,
	}
	for _, b := range bodies {
		rr := f.do(t, http.MethodPost, "/api/platforms/toggle", b)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", b, rr.Code)
		}
		_ = problemOf(t, rr)
	}
	if all, _ := f.store.ListPlatforms(context.Background()); len(all) != 0 {
		t.Fatalf("rejected toggles must not write")
	}
}

func TestSync_GoogleScenario(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rr := f.do(t, http.MethodPost, "/api/platforms/toggle",
		`{"platform":"Google","isEnabled":true,"credentials":{"apiKey":"secret-key-1234","placeId":"P"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle status=%d body=%s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "secret-key") {
		t.Fatalf("toggle response leaked the api key: %s", rr.Body.String())
	}

	rr = f.do(t, http.MethodPost, "/api/platforms/sync/Google", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("sync status=%d body=%s", rr.Code, rr.Body.String())
	}
	var res domain.SyncResult
	_ = json.Unmarshal(rr.Body.Bytes(), &res)
	if !res.Success || res.Synced != 1 || res.Platform != domain.PlatformGoogle {
		t.Fatalf("unexpected result: %+v", res)
	}

	rr = f.do(t, http.MethodGet, "/api/reviews?platform=Google", "")
	var got []domain.Review
	_ = json.Unmarshal(rr.Body.Bytes(), &got)
	if len(got) != 1 || got[0].PlatformData.GoogleReviewID != "123" {
		t.Fatalf("unexpected reviews: %s", rr.Body.String())
	}
	if want := time.Date(2023, 7, 22, 4, 26, 40, 0, time.UTC); !got[0].Date.Equal(want) {
		t.Fatalf("date = %v, want %v", got[0].Date, want)
	}

	// ETag round trip
	etag := rr.Header().Get("ETag")
	req := httptest.NewRequest(http.MethodGet, "/api/reviews?platform=Google", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	f.srv.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rec.Code)
	}

	rr = f.do(t, http.MethodGet, "/api/platforms/enabled", "")
	var integ []domain.PlatformIntegration
	_ = json.Unmarshal(rr.Body.Bytes(), &integ)
	if len(integ) != 1 || integ[0].LastSync == nil {
		t.Fatalf("lastSync not set: %s", rr.Body.String())
	}
}

func TestSync_ErrorStatuses(t *testing.T) {
	f := newFixture(t, http.StatusForbidden)

	if rr := f.do(t, http.MethodPost, "/api/platforms/sync/Google", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("unconfigured: status=%d", rr.Code)
	}

	f.do(t, http.MethodPost, "/api/platforms/toggle", `{"platform":"Google","isEnabled":false,"credentials":{"apiKey":"k","placeId":"p"}}`)
	if rr := f.do(t, http.MethodPost, "/api/platforms/sync/Google", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("disabled: status=%d", rr.Code)
	}

	f.do(t, http.MethodPost, "/api/platforms/toggle", `{"platform":"Google","isEnabled":true,"credentials":{"placeId":"p"}}`)
	rr := f.do(t, http.MethodPost, "/api/platforms/sync/Google", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing key: status=%d", rr.Code)
	}
	if atomic.LoadInt32(f.hits) != 0 {
		t.Fatalf("upstream hit before credentials were valid")
	}

	f.do(t, http.MethodPost, "/api/platforms/toggle", `{"platform":"Google","isEnabled":true,"credentials":{"apiKey":"hidden-key","placeId":"p"}}`)
	rr = f.do(t, http.MethodPost, "/api/platforms/sync/Google", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("upstream failure: status=%d", rr.Code)
	}
	if p := problemOf(t, rr); strings.Contains(p.Detail, "hidden-key") {
		t.Fatalf("problem detail leaked credentials: %s", p.Detail)
	}
}

func TestReviews_AddAndReply(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rr := f.do(t, http.MethodPost, "/api/reviews", `{"platform":"Yelp","author":"Walk-in","rating":4,"content":"ok"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add status=%d body=%s", rr.Code, rr.Body.String())
	}
	var rv domain.Review
	_ = json.Unmarshal(rr.Body.Bytes(), &rv)

	rr = f.do(t, http.MethodPut, "/api/reviews/"+rv.ID+"/reply", `{"userResponse":"Thanks!"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("reply status=%d body=%s", rr.Code, rr.Body.String())
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &rv)
	if !rv.IsResponded || rv.UserResponse == nil || *rv.UserResponse != "Thanks!" {
		t.Fatalf("unexpected reply: %+v", rv)
	}

	if rr := f.do(t, http.MethodPut, "/api/reviews/nope/reply", `{"userResponse":"x"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("missing review: status=%d", rr.Code)
	}
}

func TestCards_CreateVisitDelete(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rr := f.do(t, http.MethodPost, "/api/nfc-qr/generate-qr", `{"data":"https://example.com","options":{"width":200}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("generate status=%d body=%s", rr.Code, rr.Body.String())
	}
	var qr domain.GeneratedQR
	_ = json.Unmarshal(rr.Body.Bytes(), &qr)
	if qr.Options.Width != 200 || qr.PreviewURL == "" || qr.Options.ErrorCorrectionLevel != "H" {
		t.Fatalf("unexpected qr: %+v", qr)
	}
	if rr := f.do(t, http.MethodPost, "/api/nfc-qr/generate-qr", `{"data":""}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty data: status=%d", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, "/api/nfc-qr/generate-qr", `{"data":"https://example.com","options":{"width":100000}}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("oversized width: status=%d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/api/nfc-qr/cards", `{"name":"Desk","redirectUrl":"https://g.page/r/x/review"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var card domain.NfcQrCard
	_ = json.Unmarshal(rr.Body.Bytes(), &card)

	rr = f.do(t, http.MethodGet, "/api/nfc-qr/cards/"+card.ID+"/visit", "")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "https://g.page/r/x/review" {
		t.Fatalf("visit: status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}

	rr = f.do(t, http.MethodPut, "/api/nfc-qr/cards/"+card.ID, `{"name":"Lobby"}`)
	_ = json.Unmarshal(rr.Body.Bytes(), &card)
	if rr.Code != http.StatusOK || card.Name != "Lobby" || card.ClickCount != 1 {
		t.Fatalf("update: status=%d card=%+v", rr.Code, card)
	}

	if rr := f.do(t, http.MethodDelete, "/api/nfc-qr/cards/"+card.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/api/nfc-qr/cards/"+card.ID+"/visit", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("visit deleted: status=%d", rr.Code)
	}
}
