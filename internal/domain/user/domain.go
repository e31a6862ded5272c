package user

import "time"

// User carries the identity bits this core needs: a display name and one
// address per notification channel. An empty address disables that
// channel for the user no matter what their preferences say.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PushTopic string    `json:"push_topic"`
	CreatedAt time.Time `json:"created_at"`
}
