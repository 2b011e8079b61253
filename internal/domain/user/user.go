package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCitizen = "CITIZEN"
	RoleAdmin   = "ADMIN"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"not null;column:name" json:"name"`
	Email    string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Mobile   string    `gorm:"uniqueIndex;not null;column:mobile" json:"mobile"`
	Password string    `gorm:"not null;column:password" json:"-"`
	Role     string    `gorm:"not null;default:CITIZEN;column:role" json:"role"`
	Coins    int       `gorm:"not null;default:0;column:coins" json:"coins"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleCitizen
	}
	return nil
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Balance is the account snapshot returned after a reward.
type Balance struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Coins int       `json:"coins"`
}

func (u *User) Balance() Balance {
	return Balance{ID: u.ID, Name: u.Name, Email: u.Email, Coins: u.Coins}
}

// Summary is the public projection embedded in complaint listings.
type Summary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
