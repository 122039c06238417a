// Package dynamostore persists permission records in a DynamoDB table
// keyed by username, matching the table layout the desktop client's
// deployment used. Whole-item puts give the replace semantics the
// store contract requires; last write wins.
package dynamostore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/store"
)

// Options configures the DynamoDB backend.
type Options struct {
	Table  string
	Region string
	// CredentialsFile points at a shared AWS credentials file. When
	// empty the SDK's default chain (env, instance profile) applies.
	CredentialsFile string
	Profile         string
}

type Store struct {
	table string
	db    dynamodbiface.DynamoDBAPI
}

var _ store.Store = (*Store)(nil)

// item mirrors the DynamoDB attribute layout of one record.
type item struct {
	ID           string   `dynamodbav:"id"`
	Username     string   `dynamodbav:"username"`
	PasswordHash string   `dynamodbav:"password_hash"`
	Level        string   `dynamodbav:"access_level"`
	Folders      []string `dynamodbav:"folder_access"`
	Disabled     bool     `dynamodbav:"disabled"`
	Created      int64    `dynamodbav:"created_at"`
	Updated      int64    `dynamodbav:"updated_at"`
}

// Open builds a DynamoDB-backed store.
func Open(opt Options) (*Store, error) {
	if opt.Table == "" {
		return nil, errors.New("dynamo table is required")
	}
	if opt.Region == "" {
		return nil, errors.New("aws region is required")
	}

	cfg := aws.NewConfig().WithRegion(opt.Region)
	if opt.CredentialsFile != "" {
		cfg = cfg.WithCredentials(credentials.NewSharedCredentials(opt.CredentialsFile, opt.Profile))
	}
	s := session.Must(session.NewSession(cfg))

	return &Store{table: opt.Table, db: dynamodb.New(s)}, nil
}

// newWithClient wires a caller-supplied client; tests use it.
func newWithClient(table string, db dynamodbiface.DynamoDBAPI) *Store {
	return &Store{table: table, db: db}
}

func (s *Store) GetRecord(ctx context.Context, username string) (*access.Record, error) {
	out, err := s.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			"username": {S: aws.String(username)},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}
	var it item
	if err := dynamodbattribute.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	return it.record()
}

func (s *Store) PutRecord(ctx context.Context, rec *access.Record) error {
	if rec == nil {
		return access.ErrNoRecord
	}
	if rec.Username == "" {
		return errors.New("username is required")
	}
	av, err := dynamodbattribute.MarshalMap(itemFrom(rec))
	if err != nil {
		return err
	}
	_, err = s.db.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	return err
}

func (s *Store) DeleteRecord(ctx context.Context, username string) error {
	out, err := s.db.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		ReturnValues: aws.String(dynamodb.ReturnValueAllOld),
		Key: map[string]*dynamodb.AttributeValue{
			"username": {S: aws.String(username)},
		},
	})
	if err != nil {
		return err
	}
	if len(out.Attributes) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context) ([]*access.Record, error) {
	var out []*access.Record
	err := s.db.ScanPagesWithContext(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	}, func(page *dynamodb.ScanOutput, _ bool) bool {
		for _, raw := range page.Items {
			var it item
			if err := dynamodbattribute.UnmarshalMap(raw, &it); err != nil {
				continue
			}
			rec, err := it.record()
			if err != nil {
				continue
			}
			out = append(out, rec)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) Close() error { return nil }

func itemFrom(rec *access.Record) item {
	return item{
		ID:           rec.ID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		Level:        rec.Level.String(),
		Folders:      append([]string(nil), rec.Folders...),
		Disabled:     rec.Disabled,
		Created:      rec.Created.Unix(),
		Updated:      rec.Updated.Unix(),
	}
}

func (it item) record() (*access.Record, error) {
	level, err := access.ParseLevel(it.Level)
	if err != nil {
		return nil, err
	}
	return &access.Record{
		ID:           it.ID,
		Username:     it.Username,
		PasswordHash: it.PasswordHash,
		Level:        level,
		Folders:      it.Folders,
		Disabled:     it.Disabled,
		Created:      time.Unix(it.Created, 0).UTC(),
		Updated:      time.Unix(it.Updated, 0).UTC(),
	}, nil
}
