package dto

import (
	"time"

	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/service"
)

// SignupRequest is bound from the signup form or a JSON body.
type SignupRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// Input converts the request for the auth service.
func (r SignupRequest) Input() service.SignupInput {
	return service.SignupInput{
		Name:            r.Name,
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
	}
}

// Old returns the values safe to echo back into the form.
func (r SignupRequest) Old() map[string]string {
	return map[string]string{"name": r.Name, "email": r.Email}
}

// LoginRequest is bound from the login form or a JSON body.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Input converts the request for the auth service.
func (r LoginRequest) Input() service.LoginInput {
	return service.LoginInput{Email: r.Email, Password: r.Password}
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserFromSession builds the public view from a session identity.
func UserFromSession(info domain.SessionInfo) UserResponse {
	return UserResponse{ID: info.UserID, Name: info.Name, Email: info.Email}
}
