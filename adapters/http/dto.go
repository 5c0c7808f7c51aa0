package http

import (
	"github.com/khoahotran/account-service/internal/domain/account"
)

// Signup DTOs

type SignupRequest struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Login DTOs

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type ProfileDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoUrl"`
}

type LoginResponse struct {
	Message string     `json:"message"`
	User    ProfileDTO `json:"user"`
}

func ToProfileDTO(p account.Profile) ProfileDTO {
	return ProfileDTO{
		Name:     p.Name,
		Email:    p.Email,
		PhotoURL: p.PhotoURL,
	}
}
