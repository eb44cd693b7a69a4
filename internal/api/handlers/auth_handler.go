package handlers

import (
	"net/http"

	"github.com/dynprot/engine/internal/api/middleware"
	"github.com/dynprot/engine/internal/api/types"
	"github.com/dynprot/engine/internal/services"
	appErr "github.com/dynprot/engine/pkg/errors"
)

type AuthHandler struct {
	auth     services.AuthService
	profiles services.ProfileService
}

func NewAuthHandler(auth services.AuthService, profiles services.ProfileService) *AuthHandler {
	return &AuthHandler{auth: auth, profiles: profiles}
}

// Register godoc
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      types.RegisterRequest  true  "credentials"
// @Success      201   {object}  types.APIResponse{data=types.AuthResponse}
// @Failure      400   {object}  types.APIResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.auth.Register(r.Context(), &services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, types.AuthResponse{User: res.User, Token: res.Token})
}

// Login godoc
// @Summary      Exchange credentials for a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      types.LoginRequest  true  "credentials"
// @Success      200   {object}  types.APIResponse{data=types.AuthResponse}
// @Failure      401   {object}  types.APIResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, types.AuthResponse{User: res.User, Token: res.Token})
}

// RegisterProfile godoc
// @Summary      Complete onboarding
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      types.OnboardingRequest  true  "profile"
// @Success      200   {object}  types.APIResponse{data=types.UserResponse}
// @Failure      400   {object}  types.APIResponse
// @Router       /auth/register-profile [post]
func (h *AuthHandler) RegisterProfile(w http.ResponseWriter, r *http.Request) {
	var req types.OnboardingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	uid, err := resolveUserID(r, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.profiles.CompleteOnboarding(r.Context(), uid, &services.OnboardingInput{
		DisplayName:      req.DisplayName,
		Age:              req.Age,
		WeightKg:         req.Weight,
		ActivityLevel:    req.ActivityLevel,
		PrimaryObjective: req.PrimaryObjective,
		DailyProteinGoal: req.DailyProteinGoal,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, types.NewUserResponse(u))
}

// Profile godoc
// @Summary      Get a user with their profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "user id"
// @Success      200     {object}  types.APIResponse{data=types.UserResponse}
// @Failure      404     {object}  types.APIResponse
// @Router       /auth/profile/{userId} [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.profiles.GetProfile(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, types.NewUserResponse(u))
}

// Me returns the token subject.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	if id.Legacy {
		writeError(w, r, appErr.New(appErr.CodeUnauthorized, "a bearer token is required"))
		return
	}
	u, err := h.auth.CurrentUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, types.NewUserResponse(u))
}
