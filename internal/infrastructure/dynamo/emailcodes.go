package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sing4u/song-request-api/internal/domain"
)

// EmailCodeRepo manages one-time email verification codes. PK: email.
// Put is an unconditional overwrite: re-requesting a code replaces the
// previous one and restarts its validity clock. Expired rows are reaped by
// the table's TTL.
type EmailCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEmailCodeRepo(client *dynamodb.Client, tableName string) *EmailCodeRepo {
	return &EmailCodeRepo{client: client, tableName: tableName}
}

func (r *EmailCodeRepo) Put(ctx context.Context, c *domain.EmailCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal email code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *EmailCodeRepo) Get(ctx context.Context, email string) (*domain.EmailCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("email code for %s: %w", email, domain.ErrNotFound)
	}
	var c domain.EmailCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
