package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sing4u/song-request-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table and its
// uniqueness-claim table. A claim is a marker item whose key is the claimed
// value ("email#..." or "provider#GOOGLE#..."); writing it with
// attribute_not_exists inside the same transaction as the user item is what
// makes email and provider-id unique across all users. There is no
// pre-check-then-insert anywhere: the rejected transaction is the only
// duplicate signal.
type UserRepo struct {
	client      *dynamodb.Client
	tableName   string
	claimsTable string
}

func NewUserRepo(client *dynamodb.Client, tableName, claimsTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, claimsTable: claimsTable}
}

// EmailClaim returns the uniqueness-claim key for an email address.
func EmailClaim(email string) string { return "email#" + email }

// ProviderClaim returns the uniqueness-claim key for a provider identity.
func ProviderClaim(provider, providerID string) string {
	return "provider#" + provider + "#" + providerID
}

// Create inserts the user together with its uniqueness claims in one
// transaction. If any claim is already taken the whole transaction is
// cancelled and domain.ErrConflict is returned.
func (r *UserRepo) Create(ctx context.Context, u *domain.User, claims []string) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	writes := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(user_id)"),
		},
	}}
	for _, claim := range claims {
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.claimsTable),
				Item: map[string]types.AttributeValue{
					"claim":   &types.AttributeValueMemberS{Value: claim},
					"user_id": &types.AttributeValueMemberS{Value: u.UserID},
				},
				ConditionExpression: aws.String("attribute_not_exists(claim)"),
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if conditionFailed(err) {
		return fmt.Errorf("email or provider identity already registered: %w", domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("email-index"),
		KeyConditionExpression:    aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":e": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user with email %s: %w", email, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByProvider resolves a user through its provider claim item.
func (r *UserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.claimsTable),
		Key:       strKey("claim", ProviderClaim(provider, providerID)),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("provider identity %s/%s: %w", provider, providerID, domain.ErrNotFound)
	}
	var marker struct {
		UserID string `dynamodbav:"user_id"`
	}
	if err := attributevalue.UnmarshalMap(out.Item, &marker); err != nil {
		return nil, err
	}
	return r.Get(ctx, marker.UserID)
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// UpdateEmail swaps the email attribute and its uniqueness claim in one
// transaction: release the old claim, take the new one (conditioned on it
// being free), rewrite the user. A taken claim surfaces as ErrConflict.
func (r *UserRepo) UpdateEmail(ctx context.Context, userID, oldEmail, newEmail string) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName: aws.String(r.claimsTable),
					Key:       strKey("claim", EmailClaim(oldEmail)),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(r.claimsTable),
					Item: map[string]types.AttributeValue{
						"claim":   &types.AttributeValueMemberS{Value: EmailClaim(newEmail)},
						"user_id": &types.AttributeValueMemberS{Value: userID},
					},
					ConditionExpression: aws.String("attribute_not_exists(claim)"),
				},
			},
			{
				Update: &types.Update{
					TableName:        aws.String(r.tableName),
					Key:              strKey("user_id", userID),
					UpdateExpression: aws.String("SET email = :e, updated_at = :t"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":e": &types.AttributeValueMemberS{Value: newEmail},
						":t": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
					},
				},
			},
		},
	})
	if conditionFailed(err) {
		return fmt.Errorf("email %s already registered: %w", newEmail, domain.ErrConflict)
	}
	return err
}

// Delete removes the user item and all its uniqueness claims atomically.
// Owned song lists are cascaded by the caller before this is invoked.
func (r *UserRepo) Delete(ctx context.Context, u *domain.User) error {
	writes := []types.TransactWriteItem{{
		Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key:       strKey("user_id", u.UserID),
		},
	}, {
		Delete: &types.Delete{
			TableName: aws.String(r.claimsTable),
			Key:       strKey("claim", EmailClaim(u.Email)),
		},
	}}
	if u.Provider != domain.ProviderEmail && u.ProviderID != "" {
		writes = append(writes, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(r.claimsTable),
				Key:       strKey("claim", ProviderClaim(u.Provider, u.ProviderID)),
			},
		})
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	return err
}
