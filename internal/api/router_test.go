package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dynprot/engine/internal/api/handlers"
	"github.com/dynprot/engine/internal/assistant/coach"
	"github.com/dynprot/engine/internal/assistant/intent"
	"github.com/dynprot/engine/internal/assistant/llm"
	"github.com/dynprot/engine/internal/assistant/nutrition"
	"github.com/dynprot/engine/internal/repository"
	"github.com/dynprot/engine/internal/services"
	"github.com/dynprot/engine/internal/testutil"
	"github.com/dynprot/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "json"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type cannedLLM string

func (c cannedLLM) Complete(context.Context, llm.Request) (string, error) { return string(c), nil }

func newTestServer(t *testing.T, allowLegacy bool) *httptest.Server {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	authSvc := services.NewAuthService(users, []byte("test-secret"), services.WithBcryptCost(bcrypt.MinCost))
	profileSvc := services.NewProfileService(users, profileRepo, nil)
	mealSvc := services.NewMealService(repository.NewMealRepository(db), profileRepo, time.UTC)
	chatSvc := services.NewChatService(services.ChatDeps{
		Chats:      repository.NewChatRepository(db),
		Meals:      mealSvc,
		Profiles:   profileSvc,
		Classifier: intent.NewClassifier(cannedLLM(`{"action":"MEAL","confidence":"high","data":{},"reasoning":"repas"}`)),
		Analyzer: nutrition.NewAnalyzer(cannedLLM(`{"foods":[{"name":"Poulet","estimated_grams":100,"protein_per_100g":30,"protein_in_portion":30}],"confidence":"high","reasoning":"ok"}`)),
		Coach:    coach.New(cannedLLM("Bonjour !")),
	})

	router := NewRouter(Dependencies{
		Verifier:          authSvc,
		AllowLegacyUserID: allowLegacy,
		CORSOrigins:       []string{"*"},
		RateLimitRPS:      1000,
		RateLimitBurst:    1000,
		AuthHandler:       handlers.NewAuthHandler(authSvc, profileSvc),
		ChatHandler:       handlers.NewChatHandler(chatSvc, 0),
		MealsHandler:      handlers.NewMealsHandler(mealSvc),
		UsersHandler:      handlers.NewUsersHandler(profileSvc),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

type authData struct {
	Token string `json:"token"`
	User  struct {
		UserID string `json:"user_id"`
	} `json:"user"`
}

func TestEndToEndProgress(t *testing.T) {
	srv := newTestServer(t, false)

	var reg authData
	status := call(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"email": "a@b.com", "password": "secret1", "displayName": "Alice"}, &reg)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, reg.Token)

	status = call(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"email": "A@B.com", "password": "secret1", "displayName": "Alice"}, nil)
	require.Equal(t, http.StatusBadRequest, status)

	var login authData
	status = call(t, srv, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": "a@b.com", "password": "secret1"}, &login)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, reg.User.UserID, login.User.UserID)
	token := login.Token

	status = call(t, srv, http.MethodPost, "/api/v1/auth/register-profile", token,
		map[string]any{"display_name": "Alice", "age": 30, "weight": 70, "daily_protein_goal": 120}, nil)
	require.Equal(t, http.StatusOK, status)

	var reply struct {
		Response string `json:"response"`
		Action   string `json:"action"`
	}
	status = call(t, srv, http.MethodPost, "/api/v1/chat/message", token,
		map[string]string{"message": "100g de poulet"}, &reply)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "MEAL", reply.Action)
	require.Contains(t, reply.Response, "Repas enregistré")

	var progress struct {
		Progress services.DailyProgress `json:"progress"`
	}
	status = call(t, srv, http.MethodGet, "/api/v1/meals/progress/"+login.User.UserID, token, nil, &progress)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 30.0, progress.Progress.TotalProtein)
	require.Equal(t, 120, progress.Progress.Goal)
	require.Equal(t, 25.0, progress.Progress.ProgressPercent)

	var weekly struct {
		WeeklyProgress []services.DailyProgress `json:"weekly_progress"`
	}
	status = call(t, srv, http.MethodGet, "/api/v1/meals/progress/weekly/"+login.User.UserID, token, nil, &weekly)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, weekly.WeeklyProgress, 7)

	var history struct {
		Messages []struct {
			Sender string `json:"sender"`
		} `json:"messages"`
	}
	status = call(t, srv, http.MethodGet, "/api/v1/chat/history/"+login.User.UserID, token, nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history.Messages, 2)
	require.Equal(t, "user", history.Messages[0].Sender)
	require.Equal(t, "ai", history.Messages[1].Sender)

	var reset struct {
		DeletedCount int64 `json:"deleted_count"`
	}
	status = call(t, srv, http.MethodDelete, "/api/v1/meals/reset/"+login.User.UserID, token, nil, &reset)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(1), reset.DeletedCount)
}

func TestGuards(t *testing.T) {
	srv := newTestServer(t, false)

	var reg authData
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"email": "b@b.com", "password": "secret1", "displayName": "Bob"}, &reg))

	require.Equal(t, http.StatusUnauthorized,
		call(t, srv, http.MethodGet, "/api/v1/meals/progress/"+reg.User.UserID, "", nil, nil))
	require.Equal(t, http.StatusUnauthorized,
		call(t, srv, http.MethodGet, "/api/v1/meals/progress/"+reg.User.UserID, "garbage", nil, nil))
	require.Equal(t, http.StatusForbidden,
		call(t, srv, http.MethodGet, "/api/v1/meals/progress/3f1c8d0e-5b7a-4c21-9a5e-2f4b6d8e0a11", reg.Token, nil, nil))
	// no profile yet
	require.Equal(t, http.StatusNotFound,
		call(t, srv, http.MethodGet, "/api/v1/meals/progress/"+reg.User.UserID, reg.Token, nil, nil))
	require.Equal(t, http.StatusNotFound,
		call(t, srv, http.MethodDelete, "/api/v1/meals/999", reg.Token, nil, nil))

	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/auth/me", reg.Token, nil, &me))
	require.Equal(t, "b@b.com", me.User.Email)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/healthz", "", nil, nil))
}

func TestLegacyUserIDMode(t *testing.T) {
	srv := newTestServer(t, true)

	var reg authData
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"email": "c@b.com", "password": "secret1", "displayName": "Chloé"}, &reg))

	status := call(t, srv, http.MethodPost, "/api/v1/auth/register-profile", "",
		map[string]any{"user_id": reg.User.UserID, "display_name": "Chloé", "age": 25, "weight": 60, "daily_protein_goal": 90}, nil)
	require.Equal(t, http.StatusOK, status)

	var progress struct {
		Progress services.DailyProgress `json:"progress"`
	}
	status = call(t, srv, http.MethodGet, "/api/v1/meals/progress/"+reg.User.UserID, "", nil, &progress)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 90, progress.Progress.Goal)
}
