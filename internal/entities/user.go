package entities

import "time"

// PermissionMarkReturned gates all librarian-only actions: the borrowed-books
// overview, loan renewal and catalog mutations.
const PermissionMarkReturned = "can_mark_returned"

// User is a library account: a patron who can borrow copies, or a staff
// member when IsStaff is set. Permissions are granted as named rows rather
// than roles so callers check for a capability, not a title.
type User struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	Username     string           `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string           `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string           `gorm:"size:100" json:"-"`
	IsStaff      bool             `gorm:"default:false" json:"is_staff"`
	Permissions  []UserPermission `gorm:"foreignKey:UserID" json:"permissions,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// HasPermission checks the preloaded permission rows for a named grant.
func (u *User) HasPermission(name string) bool {
	for _, p := range u.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// UserPermission is a single named grant for a user.
type UserPermission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_user_permission,unique" json:"user_id"`
	Name      string    `gorm:"index:idx_user_permission,unique;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
