package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/account-service/internal/application/usecase/auth"
	"github.com/khoahotran/account-service/pkg/apperror"
	"github.com/khoahotran/account-service/pkg/logger"
)

const photoField = "photo"

type AuthHandler struct {
	signupUseCase *auth.SignupUseCase
	loginUseCase  *auth.LoginUseCase
	logger        logger.Logger
}

func NewAuthHandler(signupUC *auth.SignupUseCase, loginUC *auth.LoginUseCase, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		signupUseCase: signupUC,
		loginUseCase:  loginUC,
		logger:        log,
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperror.NewInvalidInput("All fields are required", err.Error()))
		return
	}

	// an absent or empty file leaves photo nil and fails validation as missing
	var photo io.Reader
	if fileHeader, err := c.FormFile(photoField); err == nil && fileHeader.Size > 0 {
		file, err := fileHeader.Open()
		if err != nil {
			c.Error(apperror.NewInternal("failed to open photo", err))
			return
		}
		defer file.Close()
		photo = file
	}

	input := auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Photo:    photo,
	}

	if _, err := h.signupUseCase.Execute(c.Request.Context(), input); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperror.NewInvalidInput("All fields are required", err.Error()))
		return
	}

	input := auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    ToProfileDTO(output.Profile),
	})
}
