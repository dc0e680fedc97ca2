package model

import "time"

// Staff is a box office operator allowed to sell at the door and check
// tickets in.  Only the bcrypt hash of the password is stored.
type Staff struct {
	ID           uint64    // staff.id
	Username     string    // staff.username
	PasswordHash string    // staff.password_hash
	CreatedAt    time.Time // staff.created_at
}
