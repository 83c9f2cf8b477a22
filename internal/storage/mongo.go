package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"accessible-backend/internal/model"
	"accessible-backend/pkg/logger"
)

const (
	usersCollection  = "users"
	eventsCollection = "accessibility_logs"
)

type MongoStorage struct {
	client *mongo.Client
	users  *mongo.Collection
	events *mongo.Collection
}

// NewMongoStorage connects to uri and verifies the connection with a ping.
func NewMongoStorage(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStorage, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to MongoDB: %v", ErrStorageInit, err)
	}

	if err := client.Database("admin").RunCommand(connectCtx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping MongoDB: %v", ErrStorageInit, err)
	}

	logger.Infof("Connected to MongoDB database %s", database)

	db := client.Database(database)
	return &MongoStorage{
		client: client,
		users:  db.Collection(usersCollection),
		events: db.Collection(eventsCollection),
	}, nil
}

// Init creates the indexes both collections rely on.
func (m *MongoStorage) Init(ctx context.Context) error {
	_, err := m.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: tokenField(model.PurposeEmailVerification), Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: tokenField(model.PurposePasswordReset), Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("%w: users indexes: %v", ErrStorageInit, err)
	}

	_, err = m.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "event_type", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("%w: accessibility_logs indexes: %v", ErrStorageInit, err)
	}
	return nil
}

func (m *MongoStorage) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoStorage) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoStorage) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return ErrInvalidData
	}
	doc := *user
	doc.Email = strings.ToLower(user.Email)

	if _, err := m.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MongoStorage) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return m.findUser(ctx, bson.M{"_id": userID})
}

func (m *MongoStorage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (m *MongoStorage) GetUserByToken(ctx context.Context, purpose model.TokenPurpose, hash string) (*model.User, error) {
	if hash == "" {
		return nil, ErrUserNotFound
	}
	return m.findUser(ctx, bson.M{tokenField(purpose): hash})
}

func tokenField(purpose model.TokenPurpose) string {
	return "security." + string(purpose) + ".hash"
}

func (m *MongoStorage) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	err := m.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (m *MongoStorage) UpdateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return ErrInvalidData
	}
	doc := *user
	doc.Email = strings.ToLower(user.Email)

	result, err := m.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *MongoStorage) DeleteUser(ctx context.Context, userID string) error {
	result, err := m.users.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *MongoStorage) AddEvent(ctx context.Context, event *model.AccessibilityEvent) error {
	if event == nil || event.UserID == "" {
		return ErrInvalidData
	}
	if _, err := m.events.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert accessibility event: %w", err)
	}
	return nil
}

func (m *MongoStorage) ListEvents(ctx context.Context, userID string, limit int) ([]*model.AccessibilityEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.events.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find accessibility events: %w", err)
	}
	defer cursor.Close(ctx)

	events := make([]*model.AccessibilityEvent, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode accessibility events: %w", err)
	}
	return events, nil
}

func (m *MongoStorage) DeleteEvents(ctx context.Context, userID string) error {
	if _, err := m.events.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("delete accessibility events: %w", err)
	}
	return nil
}
