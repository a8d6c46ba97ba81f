package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"review_hub/internal/domain"
)

const errDuplicateEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
func valNonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type scanner interface {
	Scan(dest ...any) error
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- reviews ----

func (r *Repo) UpsertReview(ctx context.Context, rv domain.Review) (domain.Review, error) {
	ext := rv.ExternalID()
	if ext == "" {
		return domain.Review{}, fmt.Errorf("%w: %s review has no external id", domain.ErrInvalidRequest, rv.Platform)
	}
	if _, err := r.db.ExecContext(ctx, upsertReviewSQL,
		uuid.NewString(),
		string(rv.Platform),
		ext,
		rv.Author,
		rv.Avatar,
		rv.Rating,
		rv.Content,
		rv.Date.UTC(),
		valNonEmpty(rv.PlatformData.ProfileURL),
	); err != nil {
		return domain.Review{}, err
	}
	return scanReview(r.db.QueryRowContext(ctx, getReviewByKeySQL, string(rv.Platform), ext))
}

func (r *Repo) CreateReview(ctx context.Context, rv domain.Review) (domain.Review, error) {
	rv.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ID,
		string(rv.Platform),
		valNonEmpty(rv.ExternalID()),
		rv.Author,
		rv.Avatar,
		rv.Rating,
		rv.Content,
		rv.Date.UTC(),
		valStr(rv.AIResponse),
		valStr(rv.UserResponse),
		valStr(rv.Sentiment),
		valNonEmpty(rv.PlatformData.ProfileURL),
		rv.IsResponded,
	)
	var me *gomysql.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateEntry {
		return domain.Review{}, fmt.Errorf("%w: %s review %s already exists", domain.ErrInvalidRequest, rv.Platform, rv.ExternalID())
	}
	if err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}

func (r *Repo) GetReview(ctx context.Context, id string) (domain.Review, error) {
	return scanReview(r.db.QueryRowContext(ctx, getReviewSQL, id))
}

func (r *Repo) ListReviews(ctx context.Context, platform string) ([]domain.Review, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if platform == "" {
		rows, err = r.db.QueryContext(ctx, listReviewsSQL)
	} else {
		rows, err = r.db.QueryContext(ctx, listReviewsByPlatformSQL, platform)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) ReplyToReview(ctx context.Context, id string, reply domain.ReviewReply) (domain.Review, error) {
	if _, err := r.db.ExecContext(ctx, replyReviewSQL,
		valStr(reply.UserResponse),
		valStr(reply.AIResponse),
		valBool(reply.IsResponded),
		id,
	); err != nil {
		return domain.Review{}, err
	}
	// unchanged rows report zero affected, so existence is decided by the read
	return r.GetReview(ctx, id)
}

func scanReview(s scanner) (domain.Review, error) {
	var (
		rv                        domain.Review
		platform                  string
		ext, ai, user, sent, prof sql.NullString
	)
	if err := s.Scan(&rv.ID, &platform, &ext, &rv.Author, &rv.Avatar, &rv.Rating, &rv.Content, &rv.Date,
		&ai, &user, &sent, &prof, &rv.IsResponded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, err
	}
	rv.Platform = domain.Platform(platform)
	rv.Date = rv.Date.UTC()
	rv.AIResponse, rv.UserResponse, rv.Sentiment = strPtr(ai), strPtr(user), strPtr(sent)
	rv.PlatformData.SetExternalID(rv.Platform, ext.String)
	rv.PlatformData.ProfileURL = prof.String
	return rv, nil
}

// ---- platform integrations ----

func (r *Repo) GetPlatform(ctx context.Context, platform string) (domain.PlatformIntegration, error) {
	return scanPlatform(r.db.QueryRowContext(ctx, getPlatformSQL, platform))
}

func (r *Repo) ListPlatforms(ctx context.Context) ([]domain.PlatformIntegration, error) {
	rows, err := r.db.QueryContext(ctx, listPlatformsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PlatformIntegration{}
	for rows.Next() {
		p, err := scanPlatform(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertPlatform(ctx context.Context, platform string, enabled bool, creds domain.Credentials) (domain.PlatformIntegration, error) {
	blob, err := json.Marshal(creds)
	if err != nil {
		return domain.PlatformIntegration{}, err
	}
	if _, err := r.db.ExecContext(ctx, upsertPlatformSQL, platform, enabled, string(blob)); err != nil {
		return domain.PlatformIntegration{}, err
	}
	return r.GetPlatform(ctx, platform)
}

func (r *Repo) TouchLastSync(ctx context.Context, platform string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, touchLastSyncSQL, at.UTC(), platform)
	return err
}

func scanPlatform(s scanner) (domain.PlatformIntegration, error) {
	var (
		p     domain.PlatformIntegration
		creds []byte
		last  sql.NullTime
	)
	if err := s.Scan(&p.Platform, &p.IsEnabled, &creds, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PlatformIntegration{}, domain.ErrNotFound
		}
		return domain.PlatformIntegration{}, err
	}
	if len(creds) > 0 {
		var c domain.Credentials
		if err := json.Unmarshal(creds, &c); err != nil {
			return domain.PlatformIntegration{}, fmt.Errorf("decode %s credentials: %w", p.Platform, err)
		}
		p.Credentials = &c
	}
	if last.Valid {
		t := last.Time.UTC()
		p.LastSync = &t
	}
	return p, nil
}

// ---- cards ----

func (r *Repo) CreateCard(ctx context.Context, c domain.NfcQrCard) (domain.NfcQrCard, error) {
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	slots, err := json.Marshal(c.CustomizationSlots)
	if err != nil {
		return domain.NfcQrCard{}, err
	}
	if _, err := r.db.ExecContext(ctx, insertCardSQL,
		c.ID, c.Name, c.QRCodeURL, c.RedirectURL, c.CustomLink, c.ClickCount, nil,
		string(slots), string(c.ImageType), c.ImageURL, c.CreatedAt.UTC(),
	); err != nil {
		return domain.NfcQrCard{}, err
	}
	return c, nil
}

func (r *Repo) ListCards(ctx context.Context) ([]domain.NfcQrCard, error) {
	rows, err := r.db.QueryContext(ctx, listCardsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.NfcQrCard{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetCard(ctx context.Context, id string) (domain.NfcQrCard, error) {
	return scanCard(r.db.QueryRowContext(ctx, getCardSQL, id))
}

func (r *Repo) UpdateCard(ctx context.Context, id string, p domain.CardPatch) (domain.NfcQrCard, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NfcQrCard{}, err
	}
	defer func() { _ = tx.Rollback() }()

	c, err := scanCard(tx.QueryRowContext(ctx, getCardForUpdateSQL, id))
	if err != nil {
		return domain.NfcQrCard{}, err
	}
	applyPatch(&c, p)
	slots, err := json.Marshal(c.CustomizationSlots)
	if err != nil {
		return domain.NfcQrCard{}, err
	}
	if _, err := tx.ExecContext(ctx, updateCardSQL,
		c.Name, c.QRCodeURL, c.RedirectURL, c.CustomLink, string(slots), string(c.ImageType), c.ImageURL, id,
	); err != nil {
		return domain.NfcQrCard{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.NfcQrCard{}, err
	}
	return c, nil
}

func applyPatch(c *domain.NfcQrCard, p domain.CardPatch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.QRCodeURL != nil {
		c.QRCodeURL = *p.QRCodeURL
	}
	if p.RedirectURL != nil {
		c.RedirectURL = *p.RedirectURL
	}
	if p.CustomLink != nil {
		c.CustomLink = *p.CustomLink
	}
	if p.CustomizationSlots != nil {
		c.CustomizationSlots = *p.CustomizationSlots
	}
	if p.ImageType != nil {
		c.ImageType = *p.ImageType
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
}

func (r *Repo) DeleteCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteCardSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) RecordClick(ctx context.Context, id string, at time.Time) (domain.NfcQrCard, error) {
	res, err := r.db.ExecContext(ctx, recordClickSQL, at.UTC(), id)
	if err != nil {
		return domain.NfcQrCard{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NfcQrCard{}, domain.ErrNotFound
	}
	return r.GetCard(ctx, id)
}

func scanCard(s scanner) (domain.NfcQrCard, error) {
	var (
		c         domain.NfcQrCard
		imageType string
		last      sql.NullTime
		slots     []byte
	)
	if err := s.Scan(&c.ID, &c.Name, &c.QRCodeURL, &c.RedirectURL, &c.CustomLink, &c.ClickCount, &last,
		&slots, &imageType, &c.ImageURL, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NfcQrCard{}, domain.ErrNotFound
		}
		return domain.NfcQrCard{}, err
	}
	c.ImageType = domain.CardImageType(imageType)
	c.CreatedAt = c.CreatedAt.UTC()
	if last.Valid {
		t := last.Time.UTC()
		c.LastClicked = &t
	}
	c.CustomizationSlots = []domain.CustomizationSlot{}
	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &c.CustomizationSlots); err != nil {
			return domain.NfcQrCard{}, fmt.Errorf("decode card %s slots: %w", c.ID, err)
		}
		if c.CustomizationSlots == nil {
			c.CustomizationSlots = []domain.CustomizationSlot{}
		}
	}
	return c, nil
}
