// Package models - user records as read by the notification service.
// Users are owned by the identity service; this service only reads them.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User - the fields the notification engine needs from a platform user
type User struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name               string             `json:"name" bson:"name"`
	Email              string             `json:"email,omitempty" bson:"email,omitempty" index:"unique,sparse"`
	Role               string             `json:"role" bson:"role" index:"single:1"`
	LanguagePreference string             `json:"languagePreference,omitempty" bson:"languagePreference,omitempty"` // en, ta, both
	EmailOptOut        bool               `json:"emailOptOut" bson:"emailOptOut"`                                   // true = no notification emails
	IsBlock            bool               `json:"-" bson:"isBlock"`
	CreatedAt          int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt          int64              `json:"updatedAt" bson:"updatedAt"`
}

// IsAdmin reports whether the user holds the administrative role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
