package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"application-intake-go/internal/application"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type mongoMirror struct {
	cli  *mongo.Client
	coll *mongo.Collection
}

func openMongoMirror(ctx context.Context, uri, dbName string) (*mongoMirror, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("MONGO_URI is empty")
	}
	dbName = strings.TrimSpace(dbName)
	if dbName == "" {
		dbName = "application_intake"
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	coll := cli.Database(dbName).Collection(submissionsTable)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_kind_submitted_at"),
		},
	})
	if err != nil {
		_ = cli.Disconnect(ctx)
		return nil, fmt.Errorf("mongo create indexes submissions: %w", err)
	}
	return &mongoMirror{cli: cli, coll: coll}, nil
}

func (m *mongoMirror) Backend() string { return string(backendMongoDB) }

func (m *mongoMirror) Insert(ctx context.Context, sub application.Submission) error {
	rec := recordFromSubmission(sub)
	if _, err := m.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("mongodb mirror insert %s: %w", rec.ID, err)
	}
	return nil
}

func (m *mongoMirror) Recent(ctx context.Context, kind application.Kind, limit int) ([]MirrorRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := m.coll.Find(ctx, bson.M{"kind": string(kind)}, opts)
	if err != nil {
		return nil, err
	}
	out := []MirrorRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mongoMirror) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.cli.Disconnect(ctx)
}
