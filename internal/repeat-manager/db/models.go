package db

import (
	"gorm.io/gorm"
)

// Record is a page in the SQL record store: a repeat template or an
// instance created from one.
type Record struct {
	gorm.Model              // Includes ID, CreatedAt, UpdatedAt, DeletedAt
	IsRepeatTemplate bool   `json:"is_repeat_template" gorm:"index"` // Query filter for templates
	Properties       string `json:"properties" gorm:"type:json"`     // JSON object of property values
}
