package history

import (
	"context"
	"time"
)

// Action enumerates the auditable user actions.
type Action string

const (
	ActionRegister       Action = "register"
	ActionLogin          Action = "login"
	ActionAccountUpdate  Action = "account_update"
	ActionPDFSummarized  Action = "pdf_summarized"
	ActionTextSummarized Action = "text_summarized"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionRegister, ActionLogin, ActionAccountUpdate, ActionPDFSummarized, ActionTextSummarized:
		return true
	}
	return false
}

// Summarization reports whether a carries a summary payload.
func (a Action) Summarization() bool {
	return a == ActionPDFSummarized || a == ActionTextSummarized
}

// DefaultListLimit caps history listings.
const DefaultListLimit = 50

// Record is an append-only audit entry.
type Record struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	UserID      int64     `json:"userId" bson:"userId"`
	Action      Action    `json:"action" bson:"action"`
	SummaryText string    `json:"summaryText,omitempty" bson:"summaryText,omitempty"`
	Keywords    []string  `json:"keywords,omitempty" bson:"keywords,omitempty"`
	Metadata    Metadata  `json:"metadata" bson:"metadata"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// Metadata describes the input that produced a record.
type Metadata struct {
	Filename            string `json:"filename,omitempty" bson:"filename,omitempty"`
	FileSize            int64  `json:"fileSize,omitempty" bson:"fileSize,omitempty"`
	ExtractedTextLength int    `json:"extractedTextLength,omitempty" bson:"extractedTextLength,omitempty"`
	SummaryLength       int    `json:"summaryLength,omitempty" bson:"summaryLength,omitempty"`
	ObjectKey           string `json:"objectKey,omitempty" bson:"objectKey,omitempty"`
	Model               string `json:"model,omitempty" bson:"model,omitempty"`
}

// KeywordCount is one entry of a user's keyword trend.
type KeywordCount struct {
	Keyword string  `json:"keyword"`
	Count   float64 `json:"count"`
}

// Repository persists history records.
type Repository interface {
	Append(ctx context.Context, rec Record) (Record, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]Record, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

// KeywordStore aggregates keyword frequencies per user.
type KeywordStore interface {
	Increment(ctx context.Context, userID int64, keywords []string) error
	Top(ctx context.Context, userID int64, limit int) ([]KeywordCount, error)
	Delete(ctx context.Context, userID int64) error
}

// Handler persists a dequeued record.
type Handler func(ctx context.Context, rec Record) error

// Queue delivers records to the handler at most once.
type Queue interface {
	Enqueue(ctx context.Context, rec Record) error
	SetHandler(handler Handler)
	Close(ctx context.Context) error
}

// Observer counts write outcomes.
type Observer interface {
	ObserveHistoryWrite(action string, ok bool)
}
