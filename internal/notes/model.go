package notes

import "time"

// Note carries the ownership link the authorization layer relies on:
// CreatedBy is the creator's username and never changes, UpdatedBy
// tracks the last mutator.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Filter struct {
	CreatedBy string
	Tag       string
	Limit     int
}
