package complaint

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/civicpulse-backend/internal/domain/user"
)

type Complaint struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CitizenID   uuid.UUID  `gorm:"type:uuid;index;not null;column:citizen_id" json:"citizen_id"`
	Citizen     *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:CitizenID;references:ID" json:"-"`
	Title       string     `gorm:"not null;column:title" json:"title"`
	Description string     `gorm:"type:text;not null;column:description" json:"description"`
	Location    string     `gorm:"column:location" json:"location,omitempty"`
	Latitude    *float64   `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude   *float64   `gorm:"column:longitude" json:"longitude,omitempty"`
	PhotoURL    string     `gorm:"column:photo_url" json:"photo_url,omitempty"`

	Category       string `gorm:"index;not null;column:category" json:"category"`
	Priority       int    `gorm:"index;not null;default:5;column:priority" json:"priority"`
	PriorityTier   string `gorm:"not null;column:priority_tier" json:"priority_tier"`
	PrioritySource string `gorm:"not null;column:priority_source" json:"priority_source"`
	// Triage holds the category and score, including the raw model output.
	Triage datatypes.JSON `gorm:"column:triage" json:"triage,omitempty"`

	Status     string     `gorm:"index;not null;default:RECEIVED;column:status" json:"status"`
	AssignedTo *string    `gorm:"index;column:assigned_to" json:"assigned_to"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Complaint) TableName() string { return "complaint" }

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusReceived
	}
	return nil
}

// View is the API shape of a complaint, with the submitting citizen inlined.
type View struct {
	Complaint
	Citizen *user.Summary `json:"citizen,omitempty"`
}

func NewView(c *Complaint) View {
	v := View{Complaint: *c}
	if c.Citizen != nil {
		v.Citizen = &user.Summary{Name: c.Citizen.Name, Email: c.Citizen.Email}
	}
	return v
}
