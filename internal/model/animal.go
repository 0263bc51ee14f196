package model

// Animal represents an animal record owned by exactly one user.
// UserID references users.id with ON DELETE CASCADE. FatherID and
// MotherID are deliberately plain strings rather than foreign
// keys: a dangling parent reference is valid data and must never
// fail a query. BirthDate is kept as an ISO date string
// (YYYY-MM-DD) end to end.
//
// The five Show* booleans control which fields the public profile
// endpoints expose. They default to false so nothing leaks unless
// the owner opts in.
type Animal struct {
	ID               string  `json:"id"`            // animals.id (UUID string)
	UserID           string  `json:"user_id"`       // owning user, cascade on user delete
	SequentialID     int     `json:"sequential_id"` // assigned at creation
	Name             *string `json:"name"`
	Species          string  `json:"species"` // required
	Breeder          *string `json:"breeder"`
	BirthDate        *string `json:"birth_date"`
	Gender           *string `json:"gender"`
	ColorVariety     *string `json:"color_variety"`
	CoatVariety      *string `json:"coat_variety"`
	RegistryCode     *string `json:"registry_code"`
	Owner            *string `json:"owner"` // free-text owner label, not a user reference
	Remarks          *string `json:"remarks"`
	FatherID         *string `json:"father_id"`
	MotherID         *string `json:"mother_id"`
	ShowOnProfile    bool    `json:"show_on_profile"`
	ShowRegistryCode bool    `json:"show_registry_code"`
	ShowOwner        bool    `json:"show_owner"`
	ShowRemarks      bool    `json:"show_remarks"`
	ShowParents      bool    `json:"show_parents"`
	GeneticsCode     *string `json:"genetics_code"`
}

// AnimalUpdate carries a partial animal update. Nil fields are
// left unchanged by the store.
type AnimalUpdate struct {
	Name             *string `json:"name,omitempty"`
	Species          *string `json:"species,omitempty"`
	Breeder          *string `json:"breeder,omitempty"`
	BirthDate        *string `json:"birth_date,omitempty"`
	Gender           *string `json:"gender,omitempty"`
	ColorVariety     *string `json:"color_variety,omitempty"`
	CoatVariety      *string `json:"coat_variety,omitempty"`
	RegistryCode     *string `json:"registry_code,omitempty"`
	Owner            *string `json:"owner,omitempty"`
	Remarks          *string `json:"remarks,omitempty"`
	FatherID         *string `json:"father_id,omitempty"`
	MotherID         *string `json:"mother_id,omitempty"`
	ShowOnProfile    *bool   `json:"show_on_profile,omitempty"`
	ShowRegistryCode *bool   `json:"show_registry_code,omitempty"`
	ShowOwner        *bool   `json:"show_owner,omitempty"`
	ShowRemarks      *bool   `json:"show_remarks,omitempty"`
	ShowParents      *bool   `json:"show_parents,omitempty"`
	GeneticsCode     *string `json:"genetics_code,omitempty"`
}

// IsZero reports whether the update contains no fields at all.
func (u AnimalUpdate) IsZero() bool {
	return u.Name == nil && u.Species == nil && u.Breeder == nil &&
		u.BirthDate == nil && u.Gender == nil && u.ColorVariety == nil &&
		u.CoatVariety == nil && u.RegistryCode == nil && u.Owner == nil &&
		u.Remarks == nil && u.FatherID == nil && u.MotherID == nil &&
		u.ShowOnProfile == nil && u.ShowRegistryCode == nil && u.ShowOwner == nil &&
		u.ShowRemarks == nil && u.ShowParents == nil && u.GeneticsCode == nil
}
