package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"accounts-api/internal/domain"
)

const colAccounts = "accounts"

// MongoAccountRepository implementa AccountRepository sobre una colección de MongoDB.
type MongoAccountRepository struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoAccountRepository conecta, verifica la conexión y crea los índices únicos.
func NewMongoAccountRepository(ctx context.Context, uri, dbName string) (*MongoAccountRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	r := &MongoAccountRepository{
		client: client,
		col:    client.Database(dbName).Collection(colAccounts),
	}
	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return r, nil
}

func (r *MongoAccountRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// ensureIndexes hace que el motor rechace emails y tokens de reseteo repetidos.
func (r *MongoAccountRepository) ensureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reset_password_token", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "reset_password_token", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

func (r *MongoAccountRepository) Insert(ctx context.Context, account domain.Account) error {
	_, err := r.col.InsertOne(ctx, account)
	return wrapMongoError(err)
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoAccountRepository) FindByResetToken(ctx context.Context, token string) (domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "reset_password_token", Value: token}})
}

// Save reemplaza el documento completo; un token nil elimina el campo.
func (r *MongoAccountRepository) Save(ctx context.Context, account domain.Account) error {
	res, err := r.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: account.ID}}, account)
	if err != nil {
		return wrapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.D) (domain.Account, error) {
	var account domain.Account
	if err := r.col.FindOne(ctx, filter).Decode(&account); err != nil {
		return domain.Account{}, wrapMongoError(err)
	}
	return account, nil
}

func wrapMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}
