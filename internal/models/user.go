package models

import (
	"time"
)

// User represents a user in the system. Credentials live with the
// authentication service; this service only reads display data.
type User struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Email     string    `json:"email" bson:"email" db:"email"`
	Name      string    `json:"name" bson:"name" db:"name"`
	Role      string    `json:"role" bson:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updatedAt" db:"updated_at"`
}

