//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"review_hub/internal/domain"
	mysqlrepo "review_hub/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string { return &s }

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
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

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

// ---------- the test ----------
func TestRepo_MySQL_UpsertAndQuery(t *testing.T) {
	dir := migrationsDir(t)

	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviews",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "reviews")

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

	applyMigrations(t, db, dir)

	repo := mysqlrepo.New(db)
	ctx := context.Background()
	date := time.Unix(1690000000, 0).UTC()

	rv := domain.Review{Platform: domain.PlatformGoogle, Author: "A", Avatar: domain.PlaceholderAvatar, Rating: 5, Content: "great", Date: date}
	rv.PlatformData.SetExternalID(domain.PlatformGoogle, "123")
	first, err := repo.UpsertReview(ctx, rv)
	if err != nil {
		t.Fatalf("UpsertReview: %v", err)
	}

	if _, err := repo.ReplyToReview(ctx, first.ID, domain.ReviewReply{UserResponse: pstr("Thanks")}); err != nil {
		t.Fatalf("ReplyToReview: %v", err)
	}

	// re-sync overwrites content, keeps the reply and the id
	rv.Content = "edited"
	second, err := repo.UpsertReview(ctx, rv)
	if err != nil {
		t.Fatalf("second UpsertReview: %v", err)
	}
	if second.ID != first.ID || second.Content != "edited" || second.UserResponse == nil || *second.UserResponse != "Thanks" {
		t.Fatalf("unexpected upsert result: %+v", second)
	}
	if !second.Date.Equal(date) {
		t.Fatalf("date = %v, want %v", second.Date, date)
	}

	all, err := repo.ListReviews(ctx, "Google")
	if err != nil || len(all) != 1 {
		t.Fatalf("ListReviews: %v (%d rows)", err, len(all))
	}

	if _, err := repo.UpsertPlatform(ctx, "Google", true, domain.Credentials{APIKey: "k", PlaceID: "p"}); err != nil {
		t.Fatalf("UpsertPlatform: %v", err)
	}
	if err := repo.TouchLastSync(ctx, "Google", time.Now()); err != nil {
		t.Fatalf("TouchLastSync: %v", err)
	}
	p, err := repo.GetPlatform(ctx, "Google")
	if err != nil || p.LastSync == nil || p.Credentials.PlaceID != "p" {
		t.Fatalf("GetPlatform: %v %+v", err, p)
	}
}
