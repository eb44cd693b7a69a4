package handlers

import (
	"net/http"

	"github.com/dynprot/engine/internal/api/types"
	"github.com/dynprot/engine/internal/services"
)

type UsersHandler struct {
	profiles services.ProfileService
}

func NewUsersHandler(profiles services.ProfileService) *UsersHandler {
	return &UsersHandler{profiles: profiles}
}

// Goal godoc
// @Summary      Set the daily protein goal
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string                   true  "user id"
// @Param        body    body      types.GoalUpdateRequest  true  "goal in grams"
// @Success      200     {object}  types.APIResponse{data=types.GoalResponse}
// @Failure      400     {object}  types.APIResponse
// @Failure      404     {object}  types.APIResponse
// @Router       /users/goal/{userId} [put]
func (h *UsersHandler) Goal(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.GoalUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.profiles.UpdateGoal(r.Context(), uid, req.DailyProteinGoal); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, types.GoalResponse{DailyProteinGoal: req.DailyProteinGoal})
}

// Profile godoc
// @Summary      Update profile fields
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string                      true  "user id"
// @Param        body    body      types.ProfileUpdateRequest  true  "fields to change"
// @Success      200     {object}  types.APIResponse{data=types.UserResponse}
// @Failure      404     {object}  types.APIResponse
// @Router       /users/profile/{userId} [put]
func (h *UsersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.ProfileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.profiles.UpdateProfile(r.Context(), uid, &services.UpdateProfileInput{
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
