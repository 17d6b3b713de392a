package domain

import "time"

const MinPasswordLength = 6

// User is a registered account. Email is stored lower-cased and is unique.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
