package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dynprot/engine/internal/api/middleware"
	"github.com/dynprot/engine/internal/api/types"
	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/services"
)

type MealsHandler struct {
	meals services.MealService
}

func NewMealsHandler(meals services.MealService) *MealsHandler {
	return &MealsHandler{meals: meals}
}

// List godoc
// @Summary      Meals of one day, newest first
// @Tags         meals
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true   "user id"
// @Param        date    query     string  false  "YYYY-MM-DD, defaults to today"
// @Success      200     {object}  types.APIResponse{data=types.MealsResponse}
// @Failure      400     {object}  types.APIResponse
// @Router       /meals/{userId} [get]
func (h *MealsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := h.meals.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	meals, err := h.meals.ListMeals(r.Context(), uid, day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if meals == nil {
		meals = []models.MealEntry{}
	}
	writeOK(w, http.StatusOK, types.MealsResponse{Meals: meals})
}

// Progress godoc
// @Summary      Protein total against the daily goal
// @Tags         meals
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true   "user id"
// @Param        date    query     string  false  "YYYY-MM-DD, defaults to today"
// @Success      200     {object}  types.APIResponse{data=types.ProgressResponse}
// @Failure      404     {object}  types.APIResponse
// @Router       /meals/progress/{userId} [get]
func (h *MealsHandler) Progress(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := h.meals.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.meals.DailyProgress(r.Context(), uid, day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, types.ProgressResponse{Progress: p})
}

// Weekly godoc
// @Summary      Last seven days, oldest first
// @Tags         meals
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "user id"
// @Success      200     {object}  types.APIResponse{data=types.WeeklyProgressResponse}
// @Router       /meals/progress/weekly/{userId} [get]
func (h *MealsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := h.meals.WeeklyProgress(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, types.WeeklyProgressResponse{WeeklyProgress: days})
}

// Delete godoc
// @Summary      Delete one meal
// @Tags         meals
// @Produce      json
// @Security     BearerAuth
// @Param        mealId  path      int  true  "meal id"
// @Success      200     {object}  types.APIResponse
// @Failure      403     {object}  types.APIResponse
// @Failure      404     {object}  types.APIResponse
// @Router       /meals/{mealId} [delete]
func (h *MealsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mealID, err := strconv.ParseUint(chi.URLParam(r, "mealId"), 10, 64)
	if err != nil || mealID == 0 {
		writeErrorStr(w, r, http.StatusBadRequest, "mealId must be a positive integer")
		return
	}

	// legacy callers without a user id cannot be checked for ownership
	owner := uuid.Nil
	if id, ok := middleware.IdentityFrom(r.Context()); ok {
		owner = id.UserID
	}

	if err := h.meals.DeleteMeal(r.Context(), mealID, owner); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]uint64{"deleted_id": mealID})
}

// Reset godoc
// @Summary      Delete today's meals
// @Tags         meals
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "user id"
// @Success      200     {object}  types.APIResponse{data=types.ResetResponse}
// @Router       /meals/reset/{userId} [delete]
func (h *MealsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.meals.ResetToday(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, types.ResetResponse{DeletedCount: n})
}
