package handlers

import (
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/auth"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	validate       *service.Validator
	log            log.FieldLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, logger log.FieldLogger) *AuthHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		validate:       service.NewValidator(),
		log:            logger,
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, Response{Message: message})
}

// session issues a token pair for user.
func (h *AuthHandler) session(user *models.User) (*models.LoginResponse, error) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, RefreshToken: refreshToken, User: *user}, nil
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decode(r, &loginReq); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := h.validate.Struct(loginReq); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if errors.Is(err, db.ErrNotFound) {
		unauthorized(w, auth.ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if !user.IsActive {
		unauthorized(w, auth.ErrUserInactive.Error())
		return
	}
	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		unauthorized(w, auth.ErrInvalidCredentials.Error())
		return
	}

	response, err := h.session(user)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		h.log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}
	respond(w, http.StatusOK, response, "Login successful")
}

// Register creates a customer or service center account. Admins are
// provisioned out of band.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := decode(r, &registerReq); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := h.validate.Struct(registerReq); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if _, err := h.userCollection.FindUserByUsername(r.Context(), registerReq.Username); err == nil {
		respondError(w, r, h.log, errors.Wrap(db.ErrConflict, "username already exists"))
		return
	}
	if _, err := h.userCollection.FindUserByEmail(r.Context(), registerReq.Email); err == nil {
		respondError(w, r, h.log, errors.Wrap(db.ErrConflict, "email already exists"))
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		Phone:        registerReq.Phone,
		PasswordHash: passwordHash,
		Role:         registerReq.Role,
		FirstName:    registerReq.FirstName,
		LastName:     registerReq.LastName,
		BusinessName: registerReq.BusinessName,
		Address:      registerReq.Address,
		IsActive:     true,
	}
	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		respondError(w, r, h.log, errors.Wrap(err, "failed to create user"))
		return
	}

	response, err := h.session(&user)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	h.log.WithFields(log.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("User registered")
	respond(w, http.StatusCreated, response, "Registration successful")
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		unauthorized(w, "User context not found")
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusOK, user, "")
}

type profileRequest struct {
	FirstName    string `json:"first_name" validate:"max=100"`
	LastName     string `json:"last_name" validate:"max=100"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	BusinessName string `json:"business_name" validate:"max=200"`
	Address      string `json:"address" validate:"max=500"`
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		unauthorized(w, "User context not found")
		return
	}

	var updateReq profileRequest
	if err := decode(r, &updateReq); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := h.validate.Struct(updateReq); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if updateReq.FirstName != "" {
		user.FirstName = updateReq.FirstName
	}
	if updateReq.LastName != "" {
		user.LastName = updateReq.LastName
	}
	if updateReq.Phone != "" {
		user.Phone = updateReq.Phone
	}
	if updateReq.BusinessName != "" {
		user.BusinessName = updateReq.BusinessName
	}
	if updateReq.Address != "" {
		user.Address = updateReq.Address
	}
	if updateReq.Email != "" && updateReq.Email != user.Email {
		existingUser, err := h.userCollection.FindUserByEmail(r.Context(), updateReq.Email)
		if err == nil && existingUser.ID.Hex() != claims.UserID {
			respondError(w, r, h.log, errors.Wrap(db.ErrConflict, "email already exists"))
			return
		}
		user.Email = updateReq.Email
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		respondError(w, r, h.log, errors.Wrap(err, "failed to update user"))
		return
	}
	respond(w, http.StatusOK, user, "Profile updated successfully")
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		unauthorized(w, "User context not found")
		return
	}

	var passwordReq passwordRequest
	if err := decode(r, &passwordReq); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := h.validate.Struct(passwordReq); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		unauthorized(w, "Current password is incorrect")
		return
	}

	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		respondError(w, r, h.log, errors.Wrap(err, "failed to update password"))
		return
	}
	respond(w, http.StatusOK, nil, "Password changed successfully")
}

// ListUsers lists accounts, optionally restricted by the role query parameter.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	if role != "" && !models.IsValidRole(role) {
		respondError(w, r, h.log, &service.ValidationError{Fields: map[string]string{"role": "must be a valid role"}})
		return
	}
	users, err := h.userCollection.FindUsers(r.Context(), role)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusOK, users, "")
}
