package models

type UserRole string

const (
	RoleAdmin          UserRole = "Admin"
	RoleProjectManager UserRole = "Project Manager"
	RoleOperator       UserRole = "Operator"
)

var UserRoles = []UserRole{RoleAdmin, RoleProjectManager, RoleOperator}

func (r UserRole) Valid() bool { return oneOf(r, UserRoles) }

type User struct {
	Base
	Username     string   `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(50);not null;default:Operator" json:"role"`
}

func (User) TableName() string { return "users" }
