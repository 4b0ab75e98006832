package store

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Do not expose this in JSON responses
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	DateJoined   time.Time `db:"date_joined" json:"date_joined"`
}

// Profile is the singleton-per-user metadata record, materialized lazily on
// first write.
type Profile struct {
	ID       int64   `db:"id" json:"id"`
	UserID   int64   `db:"user_id" json:"user_id"`
	IsParent bool    `db:"is_parent" json:"is_parent"`
	Image    string  `db:"image" json:"image"`
	Bio      string  `db:"bio" json:"bio"`
	Age      *int64  `db:"age" json:"age"`
	Gender   *string `db:"gender" json:"gender"`
	Job      string  `db:"job" json:"job"`

	// Dependents holds the user IDs this profile is a parent of, backed by
	// the profile_dependents join table.
	Dependents []int64 `db:"-" json:"dependents"`
}

type Chat struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ChatName  string    `db:"chat_name" json:"chat_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Message belongs to one chat and is authored either by a user or by the AI,
// never both: AI=true implies UserID is nil.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	ChatID    int64     `db:"chat_id" json:"chat_id"`
	UserID    *int64    `db:"user_id" json:"user_id"`
	AI        bool      `db:"ai" json:"ai"`
	Image     *string   `db:"image" json:"image"`
	Content   string    `db:"content" json:"content"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// PersonaStatus is the singleton-per-user record holding the free-text
// persona prompt the AI replies with.
type PersonaStatus struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	PersonaPrompt string    `db:"persona_prompt" json:"persona_prompt"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
