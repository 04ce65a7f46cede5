package models

// Organization is a single tenant. OwnerUserID always resolves to an active
// Owner membership; AdminUserID, when set, resolves to the single active Admin.
type Organization struct {
	BaseModel

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	OwnerUserID string  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	AdminUserID *string `gorm:"type:uuid" json:"admin_user_id"`

	Active bool `gorm:"default:true;index" json:"active"`

	Memberships []Membership `gorm:"foreignKey:OrgID" json:"memberships,omitempty"`
}
