package model

import "time"

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentOpen   AssignmentStatus = "open"
	AssignmentClosed AssignmentStatus = "closed"
)

// Announcement is a news item shown on the front page.
type Announcement struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"size:200;not null" validate:"required,max=200"`
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Assignment is a piece of homework.
type Assignment struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	Title     string           `json:"title" gorm:"size:200;not null" validate:"required,max=200"`
	Subject   string           `json:"subject" gorm:"size:64" validate:"max=64"`
	Due       string           `json:"due" gorm:"size:20" validate:"omitempty,datetime=2006-01-02"`
	Status    AssignmentStatus `json:"status" gorm:"size:16;not null" validate:"omitempty,oneof=open closed"`
	Detail    string           `json:"detail" gorm:"type:text"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Resource is an external link shared with the class.
type Resource struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"size:200;not null" validate:"required,max=200"`
	URL       string    `json:"url" gorm:"size:500;not null" validate:"required,max=500"`
	Category  string    `json:"category" gorm:"size:64" validate:"max=64"`
	Desc      string    `json:"desc" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GalleryItem is a photo in the class album.
type GalleryItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"size:200" validate:"max=200"`
	URL       string    `json:"url" gorm:"size:500;not null" validate:"required,max=500"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName keeps the original table name.
func (GalleryItem) TableName() string { return "gallery" }

// Rule is a class rule.
type Rule struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"size:200;not null" validate:"required,max=200"`
	Content   string    `json:"content" gorm:"type:text;not null" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplyDefaults fills in the status of a new assignment.
func (a *Assignment) ApplyDefaults() {
	if a.Status == "" {
		a.Status = AssignmentOpen
	}
}
