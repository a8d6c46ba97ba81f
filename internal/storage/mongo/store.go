package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"review_hub/internal/domain"
)

type Store struct {
	reviews   *mongo.Collection
	platforms *mongo.Collection
	cards     *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		reviews:   db.Collection(colReviews),
		platforms: db.Collection(colPlatforms),
		cards:     db.Collection(colCards),
	}
}

// EnsureIndexes creates the per-platform unique external id indexes and the listing index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{{
		Keys:    bson.D{{Key: "platform", Value: 1}, {Key: "date", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("platform_date"),
	}}
	for _, p := range domain.KnownPlatforms() {
		field := "platformData." + domain.ExternalIDField(p)
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: "platform", Value: 1}, {Key: field, Value: 1}},
			Options: options.Index().
				SetName("uniq_" + domain.ExternalIDField(p)).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{field: bson.M{"$exists": true}}),
		})
	}
	if _, err := s.reviews.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create review indexes: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}

var after = options.FindOneAndUpdate().SetReturnDocument(options.After)

// ---- reviews ----

func (s *Store) UpsertReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	field := domain.ExternalIDField(r.Platform)
	ext := r.ExternalID()
	if field == "" || ext == "" {
		return domain.Review{}, fmt.Errorf("%w: %s review has no external id", domain.ErrInvalidRequest, r.Platform)
	}
	filter := bson.M{"platform": string(r.Platform), "platformData." + field: ext}
	update := bson.M{
		"$set": bson.M{
			"author":                  r.Author,
			"avatar":                  r.Avatar,
			"rating":                  r.Rating,
			"content":                 r.Content,
			"date":                    r.Date.UTC(),
			"platformData.profileUrl": r.PlatformData.ProfileURL,
		},
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "isResponded": false},
	}
	var doc reviewDoc
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := s.reviews.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return domain.Review{}, fmt.Errorf("upsert %s review %s: %w", r.Platform, ext, err)
	}
	return doc.domain(), nil
}

func (s *Store) CreateReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	r.ID = uuid.NewString()
	if _, err := s.reviews.InsertOne(ctx, toReviewDoc(r)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Review{}, fmt.Errorf("%w: %s review %s already exists", domain.ErrInvalidRequest, r.Platform, r.ExternalID())
		}
		return domain.Review{}, err
	}
	return r, nil
}

func (s *Store) GetReview(ctx context.Context, id string) (domain.Review, error) {
	var doc reviewDoc
	if err := s.reviews.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.Review{}, notFound(err)
	}
	return doc.domain(), nil
}

func (s *Store) ListReviews(ctx context.Context, platform string) ([]domain.Review, error) {
	filter := bson.M{}
	if platform != "" {
		filter["platform"] = platform
	}
	cur, err := s.reviews.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

func (s *Store) ReplyToReview(ctx context.Context, id string, reply domain.ReviewReply) (domain.Review, error) {
	set := bson.M{}
	if reply.UserResponse != nil {
		set["userResponse"] = *reply.UserResponse
	}
	if reply.AIResponse != nil {
		set["aiResponse"] = *reply.AIResponse
	}
	if reply.IsResponded != nil {
		set["isResponded"] = *reply.IsResponded
	}
	if len(set) == 0 {
		return s.GetReview(ctx, id)
	}
	var doc reviewDoc
	if err := s.reviews.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, after).Decode(&doc); err != nil {
		return domain.Review{}, notFound(err)
	}
	return doc.domain(), nil
}

// ---- platform integrations ----

func (s *Store) GetPlatform(ctx context.Context, platform string) (domain.PlatformIntegration, error) {
	var doc platformDoc
	if err := s.platforms.FindOne(ctx, bson.M{"_id": platform}).Decode(&doc); err != nil {
		return domain.PlatformIntegration{}, notFound(err)
	}
	return doc.domain(), nil
}

func (s *Store) ListPlatforms(ctx context.Context) ([]domain.PlatformIntegration, error) {
	cur, err := s.platforms.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []platformDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.PlatformIntegration, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

func (s *Store) UpsertPlatform(ctx context.Context, platform string, enabled bool, creds domain.Credentials) (domain.PlatformIntegration, error) {
	c := credentialsDoc(creds)
	update := bson.M{"$set": bson.M{"isEnabled": enabled, "credentials": c}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc platformDoc
	if err := s.platforms.FindOneAndUpdate(ctx, bson.M{"_id": platform}, update, opts).Decode(&doc); err != nil {
		return domain.PlatformIntegration{}, err
	}
	return doc.domain(), nil
}

func (s *Store) TouchLastSync(ctx context.Context, platform string, at time.Time) error {
	_, err := s.platforms.UpdateOne(ctx, bson.M{"_id": platform}, bson.M{"$set": bson.M{"lastSync": at.UTC()}})
	return err
}

// ---- cards ----

func (s *Store) CreateCard(ctx context.Context, c domain.NfcQrCard) (domain.NfcQrCard, error) {
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if _, err := s.cards.InsertOne(ctx, toCardDoc(c)); err != nil {
		return domain.NfcQrCard{}, err
	}
	return c, nil
}

func (s *Store) ListCards(ctx context.Context) ([]domain.NfcQrCard, error) {
	cur, err := s.cards.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []cardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.NfcQrCard, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

func (s *Store) GetCard(ctx context.Context, id string) (domain.NfcQrCard, error) {
	var doc cardDoc
	if err := s.cards.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.NfcQrCard{}, notFound(err)
	}
	return doc.domain(), nil
}

func (s *Store) UpdateCard(ctx context.Context, id string, p domain.CardPatch) (domain.NfcQrCard, error) {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.QRCodeURL != nil {
		set["qrCodeUrl"] = *p.QRCodeURL
	}
	if p.RedirectURL != nil {
		set["redirectUrl"] = *p.RedirectURL
	}
	if p.CustomLink != nil {
		set["customLink"] = *p.CustomLink
	}
	if p.CustomizationSlots != nil {
		set["customizationSlots"] = slotDocs(*p.CustomizationSlots)
	}
	if p.ImageType != nil {
		set["imageType"] = string(*p.ImageType)
	}
	if p.ImageURL != nil {
		set["imageUrl"] = *p.ImageURL
	}
	if len(set) == 0 {
		return s.GetCard(ctx, id)
	}
	var doc cardDoc
	if err := s.cards.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, after).Decode(&doc); err != nil {
		return domain.NfcQrCard{}, notFound(err)
	}
	return doc.domain(), nil
}

func (s *Store) DeleteCard(ctx context.Context, id string) error {
	res, err := s.cards.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) RecordClick(ctx context.Context, id string, at time.Time) (domain.NfcQrCard, error) {
	update := bson.M{"$inc": bson.M{"clickCount": 1}, "$set": bson.M{"lastClicked": at.UTC()}}
	var doc cardDoc
	if err := s.cards.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, after).Decode(&doc); err != nil {
		return domain.NfcQrCard{}, notFound(err)
	}
	return doc.domain(), nil
}
