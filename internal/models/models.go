// Package models defines the core data structures for users, secrets,
// their change history and categories.
package models

import "time"

// DecryptionFailed is shown in place of a password whose sealed blob could
// not be opened.
const DecryptionFailed = "[decryption failed]"

// User represents an account holder. The login password is only ever
// stored as an Argon2id hash.
type User struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	Active       bool       `json:"active"`
}

// NewUser is the registration input.
type NewUser struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	Password  string  `json:"password"`
}

// UserUpdate is a partial update; nil fields keep their current value.
type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Password  *string `json:"password,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

// Secret is a stored domain credential as persisted: the password is
// kept only as a sealed blob.
type Secret struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"owner_id"`
	Label      string    `json:"label"`
	SealedBlob string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SecretView is a secret with its password opened for display.
type SecretView struct {
	ID       int64  `json:"id"`
	OwnerID  int64  `json:"owner_id"`
	Label    string `json:"label"`
	Password string `json:"password"`
	// Corrupt is set when the sealed blob could not be opened.
	Corrupt   bool      `json:"corrupt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SecretUpdate is a partial update; nil fields keep their current value.
type SecretUpdate struct {
	Label    *string `json:"label,omitempty"`
	Password *string `json:"password,omitempty"`
}

// HistoryEntry is an immutable snapshot of a secret's sealed blob taken
// right before it was overwritten or deleted.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	SecretID  int64     `json:"secret_id"`
	PriorBlob string    `json:"prior_blob"`
	ChangedAt time.Time `json:"changed_at"`
}

// LabelChanges counts history entries per label.
type LabelChanges struct {
	Label   string `json:"label"`
	Changes int64  `json:"changes"`
}

// Category groups secrets under a name.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SecretCategory links a secret to a category.
type SecretCategory struct {
	SecretID   int64 `json:"secret_id"`
	CategoryID int64 `json:"category_id"`
}
