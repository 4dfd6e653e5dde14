package model

import "time"

type Note struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}
