package domain

import (
	"errors"
	"time"
)

// Where a saved bet came from.
const (
	SourceUser       = "usuario"
	SourceSuggestion = "sugestao_app"
)

var ErrBetNotFound = errors.New("bet not found")

// SavedBet is a user's bet kept under their token subject.
type SavedBet struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"-"`
	Numbers   []int     `json:"numbers"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}
