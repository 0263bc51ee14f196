package model

// Litter represents a litter record owned by exactly one user.
// ParentIDs holds animal ids as advisory data only; the store does
// not enforce that they exist, and listing a litter whose parents
// were deleted must still succeed.
type Litter struct {
	ID           string   `json:"id"`            // litters.id (UUID string)
	UserID       string   `json:"user_id"`       // owning user, cascade on user delete
	SequentialID int      `json:"sequential_id"` // assigned at creation
	Name         string   `json:"name"`
	Date         string   `json:"date"` // ISO date string (YYYY-MM-DD)
	Count        int      `json:"count"`
	ParentIDs    []string `json:"parent_ids"`
}

// LitterUpdate carries a partial litter update. Nil fields are
// left unchanged by the store.
type LitterUpdate struct {
	Name      *string   `json:"name,omitempty"`
	Date      *string   `json:"date,omitempty"`
	Count     *int      `json:"count,omitempty"`
	ParentIDs *[]string `json:"parent_ids,omitempty"`
}

// IsZero reports whether the update contains no fields at all.
func (u LitterUpdate) IsZero() bool {
	return u.Name == nil && u.Date == nil && u.Count == nil && u.ParentIDs == nil
}
