package models

import (
	"time"

	"github.com/google/uuid"
)

// IssueModel represents the database model for Issue
type IssueModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title       string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:text;not null"`
	Category    string    `gorm:"type:varchar(50);not null;index"`
	Status      string    `gorm:"type:varchar(50);not null;default:'open';index"`
	Longitude   float64   `gorm:"type:double precision;not null"`
	Latitude    float64   `gorm:"type:double precision;not null"`
	Address     *string   `gorm:"type:varchar(255)"`
	ReporterID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Anonymous   bool      `gorm:"default:true;not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`

	// Relations
	Images []IssueImageModel `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
}

func (IssueModel) TableName() string {
	return "issues"
}

// IssueImageModel represents one hosted photo attached to an issue. Position
// preserves the order the reporter attached them in.
type IssueImageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IssueID   uuid.UUID `gorm:"type:uuid;not null;index"`
	URL       string    `gorm:"type:text;not null"`
	ObjectKey string    `gorm:"type:varchar(255);not null"`
	Position  int       `gorm:"type:integer;not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
}

func (IssueImageModel) TableName() string {
	return "issue_images"
}
