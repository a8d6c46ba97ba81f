//go:build integration || !unit

package integration

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "review_hub/internal/adapters/http_server"
	"review_hub/internal/adapters/platforms"
	"review_hub/internal/adapters/qrcode"
	redisad "review_hub/internal/adapters/redis"
	"review_hub/internal/app"
	"review_hub/internal/domain"
	mysqlrepo "review_hub/internal/storage/mysql"
)

// ---------- helpers ----------
func migrationsDir(t *testing.T) string {
	t.Helper()
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		t.Skip("MIGRATIONS_DIR not set; export it (e.g. MIGRATIONS_DIR=$(pwd)/migrations)")
	}
	return dir
}

func applyMigrations(t *testing.T, db *sql.DB, dir string) {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=reviews"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/reviews?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func call(t *testing.T, h http.Handler, method, path, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if out != nil && rr.Code < 300 {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode: %v body=%s", method, path, err, rr.Body.String())
		}
	}
	return rr.Code
}

// ---------- the test ----------
func TestE2E_ToggleSyncListReply(t *testing.T) {
	dir := migrationsDir(t)
	db := startMySQL(t)
	applyMigrations(t, db, dir)

	var content atomic.Value
	content.Store("great")
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"reviews": []any{
			map[string]any{"id": "123", "rating": 5, "text": content.Load(), "author_name": "A", "time": 1690000000},
		}}})
	}))
	defer google.Close()

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	defer cache.Close()

	repo := mysqlrepo.New(db)
	q := app.NewQueryService(repo, cache, time.Minute)
	factory := platforms.NewFactory(repo, platforms.Options{GoogleBase: google.URL, RPS: 50})
	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Sync:  app.NewSyncService(repo, factory, q, nil),
		Q:     q,
		Cards: app.NewCardService(repo, qrcode.New(), 300),
	})
	h := srv.Mux()

	if code := call(t, h, http.MethodPost, "/api/platforms/toggle",
		`{"platform":"Google","isEnabled":true,"credentials":{"apiKey":"k","placeId":"p"}}`, nil); code != http.StatusOK {
		t.Fatalf("toggle: %d", code)
	}

	var res domain.SyncResult
	if code := call(t, h, http.MethodPost, "/api/platforms/sync/Google", "", &res); code != http.StatusOK || res.Synced != 1 {
		t.Fatalf("sync: %d %+v", code, res)
	}

	var list []domain.Review
	call(t, h, http.MethodGet, "/api/reviews?platform=All", "", &list)
	if len(list) != 1 || list[0].PlatformData.GoogleReviewID != "123" {
		t.Fatalf("list: %+v", list)
	}
	if !mr.Exists("reviews:All") {
		t.Fatalf("expected cached listing")
	}

	var replied domain.Review
	if code := call(t, h, http.MethodPut, "/api/reviews/"+list[0].ID+"/reply", `{"userResponse":"Thanks"}`, &replied); code != http.StatusOK {
		t.Fatalf("reply: %d", code)
	}

	// edited upstream review: content changes, reply stays, row count stays 1
	content.Store("edited")
	call(t, h, http.MethodPost, "/api/platforms/sync/google", "", &res)
	call(t, h, http.MethodGet, "/api/reviews", "", &list)
	if len(list) != 1 || list[0].Content != "edited" || list[0].UserResponse == nil || !list[0].IsResponded {
		t.Fatalf("after resync: %+v", list)
	}

	var integ []domain.PlatformIntegration
	call(t, h, http.MethodGet, "/api/platforms", "", &integ)
	if len(integ) != 1 || integ[0].LastSync == nil {
		t.Fatalf("platforms: %+v", integ)
	}
}
