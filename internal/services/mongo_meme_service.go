package services

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memestream/backend/internal/models"
)

// MongoMemeService is the self-hosted store backend. Likes live in a flat
// collection with a unique (memeId, uid) index instead of a subcollection;
// the index is what keeps the at-most-one-like-per-pair invariant under
// concurrent toggles.
type MongoMemeService struct {
	client     *mongo.Client
	db         *mongo.Database
	memesCol   *mongo.Collection
	likesCol   *mongo.Collection
	profaneCol *mongo.Collection
	usersCol   *mongo.Collection
}

type mongoMemeDoc struct {
	ID          string    `bson:"_id"`
	Text        string    `bson:"text"`
	IsPublished bool      `bson:"isPublished"`
	Likes       int64     `bson:"likes"`
	UserID      string    `bson:"userId"`
	MediaURL    string    `bson:"mediaURL"`
	Moderated   bool      `bson:"moderated"`
	CreatedAt   time.Time `bson:"createdAt"`
}

type mongoLikeDoc struct {
	ID        string    `bson:"_id"`
	MemeID    string    `bson:"memeId"`
	UID       string    `bson:"uid"`
	CreatedAt time.Time `bson:"createdAt"`
}

func NewMongoMemeService(ctx context.Context, mongoURI, dbName string) (*MongoMemeService, error) {
	if mongoURI == "" || dbName == "" {
		return nil, ErrBadInput
	}

	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	svc := &MongoMemeService{
		client:     client,
		db:         db,
		memesCol:   db.Collection("memes"),
		likesCol:   db.Collection("likes"),
		profaneCol: db.Collection("profane"),
		usersCol:   db.Collection("users"),
	}

	// Best-effort indexes.
	_, _ = svc.likesCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "memeId", Value: 1}, {Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	_, _ = svc.memesCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "isPublished", Value: 1}}},
	})

	log.Printf("MongoDB connected (memes): db=%s", dbName)
	return svc, nil
}

func (s *MongoMemeService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoMemeService) CreateMeme(ctx context.Context, meme *models.Meme) (string, error) {
	doc := &mongoMemeDoc{
		ID:          uuid.New().String(),
		Text:        meme.Text,
		IsPublished: meme.IsPublished,
		Likes:       meme.Likes,
		UserID:      meme.UserID,
		Moderated:   false,
		CreatedAt:   meme.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := s.memesCol.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (s *MongoMemeService) GetMeme(ctx context.Context, id string) (*models.Meme, error) {
	var doc mongoMemeDoc
	if err := s.memesCol.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMemeNotFound
		}
		return nil, err
	}
	return docToMeme(&doc), nil
}

func (s *MongoMemeService) ListMemes(ctx context.Context, publishedOnly bool) ([]*models.Meme, error) {
	filter := bson.M{}
	if publishedOnly {
		filter = bson.M{"isPublished": true}
	}

	cur, err := s.memesCol.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	memes := make([]*models.Meme, 0)
	for cur.Next(ctx) {
		var doc mongoMemeDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		memes = append(memes, docToMeme(&doc))
	}
	return memes, cur.Err()
}

func (s *MongoMemeService) MemeOwner(ctx context.Context, id string) (string, error) {
	var doc struct {
		UserID string `bson:"userId"`
	}
	err := s.memesCol.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"userId": 1})).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrMemeNotFound
		}
		return "", err
	}
	return doc.UserID, nil
}

func (s *MongoMemeService) UpdateMemeText(ctx context.Context, id, text string) error {
	return s.updateMeme(ctx, id, bson.M{"$set": bson.M{"text": text}})
}

func (s *MongoMemeService) SetMemeMedia(ctx context.Context, id, mediaURL string) error {
	return s.updateMeme(ctx, id, bson.M{"$set": bson.M{"mediaURL": mediaURL}})
}

func (s *MongoMemeService) updateMeme(ctx context.Context, id string, update bson.M) error {
	res, err := s.memesCol.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMemeNotFound
	}
	return nil
}

func (s *MongoMemeService) DeleteMeme(ctx context.Context, id string) error {
	if _, err := s.likesCol.DeleteMany(ctx, bson.M{"memeId": id}); err != nil {
		return err
	}
	res, err := s.memesCol.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrMemeNotFound
	}
	return nil
}

func (s *MongoMemeService) ToggleLike(ctx context.Context, memeID, uid string, count int64) (bool, error) {
	if _, err := s.MemeOwner(ctx, memeID); err != nil {
		return false, err
	}

	like := &mongoLikeDoc{
		ID:        uuid.New().String(),
		MemeID:    memeID,
		UID:       uid,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.likesCol.InsertOne(ctx, like)
	if err == nil {
		return true, s.updateMeme(ctx, memeID, bson.M{"$inc": bson.M{"likes": count}})
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}

	// Already liked: remove the marker and take the count back.
	if _, err := s.likesCol.DeleteMany(ctx, bson.M{"memeId": memeID, "uid": uid}); err != nil {
		return false, err
	}
	return false, s.updateMeme(ctx, memeID, bson.M{"$inc": bson.M{"likes": -count}})
}

func (s *MongoMemeService) ApplyModeration(ctx context.Context, memeID string, penalty int64) (bool, error) {
	res, err := s.memesCol.UpdateOne(ctx,
		bson.M{"_id": memeID, "moderated": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"moderated": true}, "$inc": bson.M{"likes": -penalty}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		// Either already moderated or gone.
		if _, err := s.MemeOwner(ctx, memeID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *MongoMemeService) SetProfaneWords(ctx context.Context, words []string) error {
	_, err := s.profaneCol.UpdateOne(ctx,
		bson.M{"_id": profaneWordListDoc},
		bson.M{"$set": bson.M{"profaneWords": words}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoMemeService) ProfaneWords(ctx context.Context) ([]string, error) {
	cur, err := s.profaneCol.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	words := make([]string, 0)
	for cur.Next(ctx) {
		var doc struct {
			ProfaneWords []string `bson:"profaneWords"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		words = append(words, doc.ProfaneWords...)
	}
	return words, cur.Err()
}

func (s *MongoMemeService) SaveProfile(ctx context.Context, uid string, user *models.User) error {
	_, err := s.usersCol.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{
			"email":       user.Email,
			"displayName": user.DisplayName,
			"role":        string(user.Role),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoMemeService) DeleteProfile(ctx context.Context, uid string) error {
	_, err := s.usersCol.DeleteOne(ctx, bson.M{"_id": uid})
	return err
}

func docToMeme(doc *mongoMemeDoc) *models.Meme {
	return &models.Meme{
		ID:          doc.ID,
		Text:        doc.Text,
		IsPublished: doc.IsPublished,
		Likes:       doc.Likes,
		UserID:      doc.UserID,
		MediaURL:    doc.MediaURL,
		Moderated:   doc.Moderated,
		CreatedAt:   doc.CreatedAt,
	}
}
