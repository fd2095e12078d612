package store

import "time"

// Session groups the messages exchanged under one session identifier. A
// session is created implicitly the first time its identifier is seen.
type Session struct {
	ID        string    `json:"id"` // UUID, client-supplied or generated
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        string    `json:"id"` // UUID
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "model"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
