package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"souverain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	birthdaysCollection = "birthdays"
	configsCollection   = "configs"
)

// MongoStore is a Store backed by MongoDB. Each record is a single document, so every
// operation is atomic without transactions.
type MongoStore struct {
	client    *mongo.Client
	birthdays *mongo.Collection
	configs   *mongo.Collection
}

type birthdayDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	GuildID   string             `bson:"guild_id"`
	UserID    string             `bson:"user_id"`
	Birthday  time.Time          `bson:"birthday"`
	Month     int                `bson:"month"`
	Day       int                `bson:"day"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type configDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	GuildID           string             `bson:"guild_id"`
	BirthdayChannelID string             `bson:"birthday_channel_id"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

// OpenMongo connects to MongoDB, verifies the connection and ensures indexes.
func OpenMongo(ctx context.Context, uri, dbName string, logger *zap.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("Connected to database.", zap.String("backend", "mongodb"), zap.String("database", dbName))

	store := NewMongoStore(client, client.Database(dbName))
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("Ensured database indexes.")

	return store, nil
}

// NewMongoStore creates a store over the given database.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:    client,
		birthdays: db.Collection(birthdaysCollection),
		configs:   db.Collection(configsCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes both collections rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.birthdays.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_guild_user"),
		},
		{
			Keys:    bson.D{{Key: "month", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetName("idx_month_day"),
		},
	})
	if err != nil {
		return fmt.Errorf("create birthday indexes: %w", err)
	}

	_, err = s.configs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_guild"),
	})
	if err != nil {
		return fmt.Errorf("create config indexes: %w", err)
	}

	return nil
}

// CreateBirthday inserts a new birthday document.
func (s *MongoStore) CreateBirthday(ctx context.Context, birthday models.Birthday) error {
	now := time.Now().UTC()
	doc := birthdayDoc{
		GuildID:   birthday.GuildID,
		UserID:    birthday.UserID,
		Birthday:  birthday.Date,
		Month:     int(birthday.Month),
		Day:       int(birthday.Day),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.birthdays.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyRegistered
	}
	return err
}

// UpdateBirthday replaces the date of an existing birthday document.
func (s *MongoStore) UpdateBirthday(
	ctx context.Context,
	guildID string,
	userID string,
	date time.Time,
) (*models.Birthday, error) {
	updated := models.NewBirthday(guildID, userID, date)

	filter := bson.M{"guild_id": guildID, "user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"birthday":   updated.Date,
			"month":      int(updated.Month),
			"day":        int(updated.Day),
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc birthdayDoc
	err := s.birthdays.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return doc.model(), nil
}

// GetBirthday returns the birthday document for the given guild & user.
func (s *MongoStore) GetBirthday(ctx context.Context, guildID, userID string) (*models.Birthday, error) {
	var doc birthdayDoc
	err := s.birthdays.FindOne(ctx, bson.M{"guild_id": guildID, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return doc.model(), nil
}

// BirthdaysOn returns every birthday document falling on the given month and day.
func (s *MongoStore) BirthdaysOn(ctx context.Context, month time.Month, day int) ([]models.Birthday, error) {
	filter := bson.M{"month": int(month), "day": day}
	opts := options.Find().SetSort(bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}})

	cur, err := s.birthdays.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []birthdayDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	birthdays := make([]models.Birthday, 0, len(docs))
	for _, doc := range docs {
		birthdays = append(birthdays, *doc.model())
	}
	return birthdays, nil
}

// UpsertGuildConfig inserts or replaces the guild's announcement channel.
func (s *MongoStore) UpsertGuildConfig(ctx context.Context, config models.GuildConfig) error {
	now := time.Now().UTC()
	filter := bson.M{"guild_id": config.GuildID}
	update := bson.M{
		"$set": bson.M{
			"birthday_channel_id": config.BirthdayChannelID,
			"updated_at":          now,
		},
		"$setOnInsert": bson.M{
			"guild_id":   config.GuildID,
			"created_at": now,
		},
	}

	_, err := s.configs.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetGuildConfig returns the configuration document for the given guild.
func (s *MongoStore) GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	var doc configDoc
	err := s.configs.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	config := &models.GuildConfig{
		GuildID:           doc.GuildID,
		BirthdayChannelID: doc.BirthdayChannelID,
	}
	config.CreatedAt = doc.CreatedAt
	config.UpdatedAt = doc.UpdatedAt
	return config, nil
}

// Ping checks the connection to the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (d birthdayDoc) model() *models.Birthday {
	b := models.NewBirthday(d.GuildID, d.UserID, d.Birthday)
	b.CreatedAt = d.CreatedAt
	b.UpdatedAt = d.UpdatedAt
	return &b
}
