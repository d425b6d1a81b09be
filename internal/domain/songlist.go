package domain

import "time"

// SongList is one request window owned by a user.
// EndDate is absent while the window is open; at most one song list per
// user may have an absent end date at any time.
type SongList struct {
	SongListID string     `json:"id" dynamodbav:"song_list_id"`
	UserID     string     `json:"userId" dynamodbav:"user_id"`
	StartDate  time.Time  `json:"startDate" dynamodbav:"start_date"`
	EndDate    *time.Time `json:"endDate" dynamodbav:"end_date,omitempty"`
}

// Open reports whether the window is still accepting submissions.
func (l *SongList) Open() bool { return l.EndDate == nil }

// Song is a single submission inside a window. The sort key
// (email#artist#title) makes the tuple unique per window: one submitter
// cannot request the same song twice, different submitters can.
type Song struct {
	SongListID    string    `json:"-" dynamodbav:"song_list_id"`
	SubmissionKey string    `json:"-" dynamodbav:"submission_key"`
	Email         string    `json:"email" dynamodbav:"email"`
	Artist        string    `json:"artist" dynamodbav:"artist"`
	Title         string    `json:"title" dynamodbav:"title"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
}

// SongCount is one aggregated row of a window's submissions.
type SongCount struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
}

// SongListView is a window plus its aggregated submissions.
type SongListView struct {
	SongListID string      `json:"id"`
	StartDate  time.Time   `json:"startDate"`
	EndDate    *time.Time  `json:"endDate"`
	Songs      []SongCount `json:"songs"`
}

type SubmitSongRequest struct {
	UserID string `json:"userId" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Artist string `json:"artist" validate:"required"`
	Title  string `json:"title" validate:"required"`
}

type CloseRequest struct {
	SongListID string `json:"songListId" validate:"required"`
}
