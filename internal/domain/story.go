package domain

import "time"

type Story struct {
	ID             string
	AuthorUsername string
	Title          string
	Body           string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// LikesCount is derived from the likes table at read time, never stored
	// on the story row itself.
	LikesCount int
}

// StoryPage is a paginated slice of stories with the total match count so
// clients can render page controls.
type StoryPage struct {
	Stories []Story `json:"stories"`
	Total   int     `json:"total"`
	Offset  int     `json:"offset"`
	Limit   int     `json:"limit"`
}
