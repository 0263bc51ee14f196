package model

// User represents an application user record as stored in the
// `users` table. Fields map 1:1 to columns; json tags use the
// snake_case column names so the PostgREST-backed store can
// marshal records directly. Handlers define their own response
// types with the API's camelCase field names.
//
// PasswordHash is a bcrypt hash; the plaintext password is never
// stored. SequentialID is assigned by the store at creation and
// only ever grows; it exists for stable ordering and display.
type User struct {
	ID                string  `json:"id"`                  // users.id (UUID string)
	Email             string  `json:"email"`               // users.email, unique, stored lower-cased
	PasswordHash      string  `json:"password_hash"`       // users.password_hash
	PersonalName      *string `json:"personal_name"`       // users.personal_name
	BreederName       *string `json:"breeder_name"`        // users.breeder_name
	ProfilePictureURL *string `json:"profile_picture_url"` // users.profile_picture_url
	IsBreederProfile  bool    `json:"is_breeder_profile"`  // users.is_breeder_profile
	SequentialID      int     `json:"sequential_id"`       // users.sequential_id
}

// UserUpdate carries a partial profile update. Nil fields are
// left unchanged by the store; only non-nil fields are applied.
type UserUpdate struct {
	PersonalName      *string `json:"personal_name,omitempty"`
	BreederName       *string `json:"breeder_name,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	IsBreederProfile  *bool   `json:"is_breeder_profile,omitempty"`
}

// IsZero reports whether the update contains no fields at all.
func (u UserUpdate) IsZero() bool {
	return u.PersonalName == nil && u.BreederName == nil &&
		u.ProfilePictureURL == nil && u.IsBreederProfile == nil
}
