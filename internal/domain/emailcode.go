package domain

import "time"

// EmailCode is a one-time email-ownership proof. At most one live code per
// email: re-requesting overwrites the row and resets CreatedAt, restarting
// the validity window. ExpiresAt is a Unix timestamp used as DynamoDB TTL
// so stale rows are cleaned up without an explicit sweep.
type EmailCode struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"-" dynamodbav:"expires_at"`
}
