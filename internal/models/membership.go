package models

// Membership binds one user to one organization with exactly one role.
//
// ManagerUserID, when set, points at another active membership in the same
// organization whose role can manage (Owner, Admin or Manager). The pointer is
// only ever assigned by the role engine, which keeps the reporting relation a
// tree of depth at most two rooted at the Owner.
type Membership struct {
	BaseModel

	OrgID  string `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_org_user;index" json:"org_id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_org_user" json:"user_id"`

	Role          Role    `gorm:"type:varchar(16);not null" json:"role"`
	ManagerUserID *string `gorm:"type:uuid;index" json:"manager_user_id"`

	Active bool `gorm:"default:true;index" json:"active"`

	Organization *Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
}
