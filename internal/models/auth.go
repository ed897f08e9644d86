package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload issued by the identity provider.
// TeacherID is only present for users holding the TEACHER role.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	SchoolID  string   `json:"school_id"`
	TeacherID string   `json:"teacher_id,omitempty"`
	FullName  string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}
