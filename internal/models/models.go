package models

import "time"

// User is the credential-store record. PasswordHash is empty for
// OAuth-only accounts; token columns are cleared once consumed.
type User struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	Username       string            `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email          string            `gorm:"uniqueIndex;size:254;not null" json:"email"`
	PasswordHash   string            `json:"-"`
	Verified       bool              `json:"isVerified"`
	Admin          bool              `json:"isAdmin"`
	Bio            string            `gorm:"size:500" json:"bio"`
	ProfilePicture string            `json:"profilePicture"`
	SocialLinks    map[string]string `gorm:"serializer:json" json:"socialLinks"`

	VerifyToken               string     `json:"-"`
	VerifyTokenExpiry         *time.Time `json:"-"`
	ForgotPasswordToken       string     `json:"-"`
	ForgotPasswordTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message lives inside its parent chat's JSON column and has no
// identity of its own.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chat is a per-user conversation. The message list is stored
// document-style and replaced wholesale on every update.
type Chat struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"size:120;not null" json:"title"`
	Messages  []Message `gorm:"serializer:json" json:"messages"`
	Model     string    `gorm:"size:128" json:"model"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
