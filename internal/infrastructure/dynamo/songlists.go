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

// SongListRepo provides typed DynamoDB operations for the song-lists table.
// Open and Close also touch the users table: the window row and the owner's
// status flag are two halves of the same state and must commit together.
type SongListRepo struct {
	client     *dynamodb.Client
	tableName  string
	usersTable string
}

func NewSongListRepo(client *dynamodb.Client, tableName, usersTable string) *SongListRepo {
	return &SongListRepo{client: client, tableName: tableName, usersTable: usersTable}
}

// OpenWindow creates the window and flips the owner's status to OPENED in
// one transaction. The status update is conditioned on CLOSED, so two
// racing opens can never both commit; the loser gets ErrConflict.
func (r *SongListRepo) OpenWindow(ctx context.Context, sl *domain.SongList) error {
	item, err := attributevalue.MarshalMap(sl)
	if err != nil {
		return fmt.Errorf("marshal song list: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(song_list_id)"),
				},
			},
			{
				Update: &types.Update{
					TableName:                aws.String(r.usersTable),
					Key:                      strKey("user_id", sl.UserID),
					UpdateExpression:         aws.String("SET #s = :opened"),
					ConditionExpression:      aws.String("#s = :closed"),
					ExpressionAttributeNames: map[string]string{"#s": "status"},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":opened": &types.AttributeValueMemberS{Value: domain.StatusOpened},
						":closed": &types.AttributeValueMemberS{Value: domain.StatusClosed},
					},
				},
			},
		},
	})
	if conditionFailed(err) {
		return fmt.Errorf("request window already open: %w", domain.ErrConflict)
	}
	return err
}

// CloseWindow stamps the end date and flips the owner's status to CLOSED in
// one transaction. The window update is conditioned on ownership and on the
// end date being absent: closing someone else's window, a closed window, or
// a missing one cancels the whole transaction and returns ErrNotFound, and
// the status flag is left untouched.
func (r *SongListRepo) CloseWindow(ctx context.Context, userID, songListID string, endDate time.Time) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:           aws.String(r.tableName),
					Key:                 strKey("song_list_id", songListID),
					UpdateExpression:    aws.String("SET end_date = :end"),
					ConditionExpression: aws.String("user_id = :uid AND attribute_not_exists(end_date)"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":end": &types.AttributeValueMemberS{Value: endDate.UTC().Format(time.RFC3339Nano)},
						":uid": &types.AttributeValueMemberS{Value: userID},
					},
				},
			},
			{
				Update: &types.Update{
					TableName:                aws.String(r.usersTable),
					Key:                      strKey("user_id", userID),
					UpdateExpression:         aws.String("SET #s = :closed"),
					ExpressionAttributeNames: map[string]string{"#s": "status"},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":closed": &types.AttributeValueMemberS{Value: domain.StatusClosed},
					},
				},
			},
		},
	})
	if conditionFailed(err) {
		return fmt.Errorf("open song list %s owned by %s: %w", songListID, userID, domain.ErrNotFound)
	}
	return err
}

func (r *SongListRepo) Get(ctx context.Context, songListID string) (*domain.SongList, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("song_list_id", songListID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("song list %s: %w", songListID, domain.ErrNotFound)
	}
	var sl domain.SongList
	if err := attributevalue.UnmarshalMap(out.Item, &sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

// FindOpenByUser returns the user's window with no end date, or ErrNotFound.
func (r *SongListRepo) FindOpenByUser(ctx context.Context, userID string) (*domain.SongList, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("user_id-index"),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		FilterExpression:          aws.String("attribute_not_exists(end_date)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("open song list for user %s: %w", userID, domain.ErrNotFound)
	}
	var sl domain.SongList
	if err := attributevalue.UnmarshalMap(out.Items[0], &sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

func (r *SongListRepo) ListByUser(ctx context.Context, userID string) ([]domain.SongList, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("user_id-index"),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
	})
	if err != nil {
		return nil, err
	}
	var lists []domain.SongList
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// Delete removes the window row. Used to prune windows that closed empty.
func (r *SongListRepo) Delete(ctx context.Context, songListID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("song_list_id", songListID),
	})
	return err
}
