package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sing4u/song-request-api/internal/domain"
)

// batchWriteMax is DynamoDB's BatchWriteItem request limit.
const batchWriteMax = 25

// SongRepo provides typed DynamoDB operations for the songs table.
// PK: song_list_id, SK: submission_key (email#artist#title); the sort key
// is the duplicate-submission constraint.
type SongRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSongRepo(client *dynamodb.Client, tableName string) *SongRepo {
	return &SongRepo{client: client, tableName: tableName}
}

// Put inserts a submission. A second submission with the same
// (window, email, artist, title) is rejected by the storage engine at
// write time and surfaced as ErrConflict; there is no read-then-write
// window for concurrent submitters to slip through.
func (r *SongRepo) Put(ctx context.Context, s *domain.Song) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal song: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(song_list_id) AND attribute_not_exists(submission_key)"),
	})
	if conditionFailed(err) {
		return fmt.Errorf("song already requested by this email: %w", domain.ErrConflict)
	}
	return err
}

func (r *SongRepo) ListByList(ctx context.Context, songListID string) ([]domain.Song, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("song_list_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":id": &types.AttributeValueMemberS{Value: songListID}},
	})
	if err != nil {
		return nil, err
	}
	var songs []domain.Song
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// CountByList returns how many submissions the window holds.
func (r *SongRepo) CountByList(ctx context.Context, songListID string) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("song_list_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":id": &types.AttributeValueMemberS{Value: songListID}},
		Select:                    types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}

// DeleteByList removes every submission of a window, batched in chunks of
// 25 (the BatchWriteItem limit). Used when a user account is deleted.
func (r *SongRepo) DeleteByList(ctx context.Context, songListID string) error {
	songs, err := r.ListByList(ctx, songListID)
	if err != nil {
		return err
	}
	for start := 0; start < len(songs); start += batchWriteMax {
		end := start + batchWriteMax
		if end > len(songs) {
			end = len(songs)
		}
		var writes []types.WriteRequest
		for _, s := range songs[start:end] {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: compositeKey("song_list_id", s.SongListID, "submission_key", s.SubmissionKey),
				},
			})
		}
		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: writes},
		})
		if err != nil {
			return fmt.Errorf("batch delete songs: %w", err)
		}
	}
	return nil
}
