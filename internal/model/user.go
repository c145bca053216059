package model

import "time"

// User is a registered account. PasswordHash never leaves the server: the "-"
// json tag drops it from every response.
type User struct {
	ID           string    `json:"id" bson:"id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Phone        string    `json:"phone" bson:"phone"`
	PasswordHash string    `json:"-" bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserPatch is a partial profile update. PasswordHash must already be hashed.
type UserPatch struct {
	Name         *string
	Email        *string
	Phone        *string
	PasswordHash *string
}

// Apply merges the patch into u and stamps UpdatedAt.
func (p UserPatch) Apply(u *User, now time.Time) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	u.UpdatedAt = now
}
