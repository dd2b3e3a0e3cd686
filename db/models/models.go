package models

import "time"

// User is one registered chat user. The primary key is the
// platform-assigned id, never generated locally.
type User struct {
	ID       int64   `gorm:"primaryKey;autoIncrement:false"`
	Username *string `gorm:"index"`
	FullName string
	Phone    *string `gorm:"index"`
}

// Folder is a named bucket of cataloged posts.
type Folder struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

// Post points at one archived broadcast. ArchiveMessageID references
// the copy in the archive channel, not the admin's original message.
type Post struct {
	ID               uint   `gorm:"primaryKey"`
	FolderID         uint   `gorm:"index;not null"`
	Title            string `gorm:"size:100;not null"`
	ArchiveMessageID int64  `gorm:"not null"`
	CreatedAt        time.Time
}

const (
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

// SupportTicket tracks one inbound user message awaiting an admin reply.
type SupportTicket struct {
	ID              uint  `gorm:"primaryKey"`
	UserID          int64 `gorm:"index;not null"`
	UserName        string
	Excerpt         string `gorm:"size:200"`
	Status          string `gorm:"size:16;index;default:open"`
	CreatedAt       time.Time
	ClosedAt        *time.Time
	ClosedByAdminID *int64
}
