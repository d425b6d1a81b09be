package domain

import "time"

// Authentication providers.
const (
	ProviderEmail  = "EMAIL"
	ProviderGoogle = "GOOGLE"
)

// Request-window statuses. Status on the user mirrors whether the user
// currently has a song list with no end date; the two are updated in the
// same transaction.
const (
	StatusClosed = "CLOSED"
	StatusOpened = "OPENED"
)

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Provider     string    `json:"provider" dynamodbav:"provider"` // "EMAIL" | "GOOGLE"
	ProviderID   string    `json:"-" dynamodbav:"provider_id,omitempty"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash,omitempty"` // EMAIL users only
	Name         string    `json:"name" dynamodbav:"name"`
	Image        *string   `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Status       string    `json:"status" dynamodbav:"status"` // "CLOSED" | "OPENED"
	RefreshToken string    `json:"-" dynamodbav:"refresh_token,omitempty"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// RequestForm is the public view a submitter sees before requesting a song.
type RequestForm struct {
	UserID string  `json:"id"`
	Name   string  `json:"name"`
	Image  *string `json:"image"`
	Status string  `json:"status"`
}

type RegisterEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required"`
}

type LoginEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SocialLoginRequest struct {
	Provider            string `json:"provider" validate:"required,oneof=GOOGLE"`
	ProviderAccessToken string `json:"providerAccessToken" validate:"required"`
}

type GetEmailCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyEmailCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type UpdateNameRequest struct {
	Name string `json:"name" validate:"required"`
}

type UpdateEmailRequest struct {
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type UpdatePasswordByCodeRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}
