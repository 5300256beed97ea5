package model

import "time"

// Admin is the operator allowed to trigger pipeline runs. There is a single
// admin configured through the environment.
type Admin struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// AdminLoginRequest is the payload for admin authentication.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// AdminLoginResponse is returned after successful admin login.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Admin     Admin     `json:"admin"`
}
