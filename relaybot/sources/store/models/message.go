package models

import "time"

const (
	SenderUser  = "user"
	SenderAdmin = "admin"
)

// Message is one row of the relay log. Binary media is never stored, only
// its caption (or a per-kind default label); the media itself is forwarded
// live. Admin-sender rows keep the TARGET user's id in UserID and leave the
// identity columns empty, so user_id never holds the administrator's id.
type Message struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int64     `json:"user_id" gorm:"not null;index"`
	Sender      string    `json:"sender" gorm:"type:varchar(16);not null"`
	ContentType string    `json:"content_type" gorm:"type:varchar(32);not null"`
	Content     string    `json:"content" gorm:"type:text"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;default:CURRENT_TIMESTAMP"`
	FirstName   string    `json:"first_name" gorm:"type:varchar(255)"`
	Username    string    `json:"username" gorm:"type:varchar(255)"`
}

func (Message) TableName() string {
	return "messages"
}

// UserRef is the distinct (id, identity snapshot) projection used for the
// admin user list.
type UserRef struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}
