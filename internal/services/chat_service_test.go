package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dynprot/engine/internal/assistant"
	"github.com/dynprot/engine/internal/assistant/intent"
	"github.com/dynprot/engine/internal/assistant/llm"
	"github.com/dynprot/engine/internal/assistant/nutrition"
	"github.com/dynprot/engine/internal/models"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClassifier struct{ mock.Mock }

func (m *mockClassifier) Classify(ctx context.Context, message string) intent.Classification {
	return m.Called(ctx, message).Get(0).(intent.Classification)
}

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) AnalyzeText(ctx context.Context, description string) *nutrition.Result {
	return m.Called(ctx, description).Get(0).(*nutrition.Result)
}

func (m *mockAnalyzer) AnalyzeImage(ctx context.Context, img llm.Image, message string) *nutrition.Result {
	return m.Called(ctx, img, message).Get(0).(*nutrition.Result)
}

type mockCoach struct{ mock.Mock }

func (m *mockCoach) Reply(ctx context.Context, message string) string {
	return m.Called(ctx, message).String(0)
}

type mockSpeaker struct{ mock.Mock }

func (m *mockSpeaker) Speech(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type memStore struct {
	objects map[string][]byte
}

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.objects[key] = data
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type chatHarness struct {
	*fixture
	svc        ChatService
	classifier *mockClassifier
	analyzer   *mockAnalyzer
	coach      *mockCoach
	speaker    *mockSpeaker
	store      *memStore
	user       *models.User
}

func newChatHarness(t *testing.T) *chatHarness {
	f := newFixture(t)
	h := &chatHarness{
		fixture:    f,
		classifier: &mockClassifier{},
		analyzer:   &mockAnalyzer{},
		coach:      &mockCoach{},
		speaker:    &mockSpeaker{},
		store:      &memStore{objects: map[string][]byte{}},
	}
	h.user = f.onboardedUser(t, "chat@example.com", 120)
	h.svc = NewChatService(ChatDeps{
		Chats:      f.chats,
		Meals:      f.mealService(),
		Profiles:   NewProfileService(f.users, f.profiles, nil),
		Classifier: h.classifier,
		Analyzer:   h.analyzer,
		Coach:      h.coach,
		Speaker:    h.speaker,
		Store:      h.store,
	})
	return h
}

func (h *chatHarness) classifyAs(message string, c intent.Classification) {
	h.classifier.On("Classify", mock.Anything, message).Return(c).Once()
}

func goal(n int) *int { return &n }

var chickenResult = &nutrition.Result{
	Foods: []nutrition.Food{
		{Name: "poulet", EstimatedGrams: 100, ProteinPer100g: 30, ProteinInPortion: 30},
	},
	TotalProtein: 30,
	Confidence:   assistant.ConfidenceHigh,
	Method:       nutrition.MethodText,
	Reasoning:    "100g de blanc de poulet",
}

func TestHandleMessageMealRecordsFoods(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	msg := "j'ai mangé 100g de poulet"

	h.classifyAs(msg, intent.Classification{Action: intent.ActionMeal, Confidence: assistant.ConfidenceHigh})
	h.analyzer.On("AnalyzeText", mock.Anything, msg).Return(chickenResult)

	reply, err := h.svc.HandleMessage(ctx, h.user.ID, msg)
	require.NoError(t, err)
	require.Equal(t, intent.ActionMeal, reply.Action)
	require.Same(t, chickenResult, reply.Analysis)
	require.Contains(t, reply.Response, "✅ Repas enregistré, Camille !")
	require.Contains(t, reply.Response, "Progression : 25% 📈")

	meals, err := h.mealService().ListMeals(ctx, h.user.ID, h.now)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	require.Equal(t, models.SourceAIAnalysis, meals[0].Source)
	require.Equal(t, models.MethodTextAnalysis, meals[0].Method)
	require.Equal(t, msg, meals[0].VisualDescription)

	history, err := h.svc.History(ctx, h.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.SenderUser, history[0].Sender)
	require.Equal(t, models.SenderAI, history[1].Sender)

	var stored nutrition.Result
	require.NoError(t, json.Unmarshal(history[1].Metadata, &stored))
	require.Equal(t, 30.0, stored.TotalProtein)
}

func TestHandleMessageMealWithoutFoods(t *testing.T) {
	h := newChatHarness(t)
	msg := "un truc"

	h.classifyAs(msg, intent.Classification{Action: intent.ActionMeal})
	h.analyzer.On("AnalyzeText", mock.Anything, msg).Return(nutrition.Empty(nutrition.MethodText))

	reply, err := h.svc.HandleMessage(context.Background(), h.user.ID, msg)
	require.NoError(t, err)
	require.Equal(t, NoProteinFoundReply, reply.Response)
}

func TestHandleMessageGoalUpdate(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	msg := "objectif 150g"

	h.classifyAs(msg, intent.Classification{Action: intent.ActionGoalUpdate, Data: intent.Data{NewGoal: goal(150)}})

	reply, err := h.svc.HandleMessage(ctx, h.user.ID, msg)
	require.NoError(t, err)
	require.Equal(t, GoalUpdatedReply(150), reply.Response)
	require.Nil(t, reply.Analysis)

	var p models.Profile
	require.NoError(t, h.profiles.GetByUserID(ctx, h.user.ID, &p))
	require.Equal(t, 150, p.DailyProteinGoal)
}

func TestHandleMessageGoalUpdateWithoutProfile(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	u := &models.User{Email: "new@example.com", PasswordHash: "x", DisplayName: "Noé"}
	require.NoError(t, h.users.Create(ctx, u))

	h.classifyAs("objectif 150g", intent.Classification{Action: intent.ActionGoalUpdate, Data: intent.Data{NewGoal: goal(150)}})
	reply, err := h.svc.HandleMessage(ctx, u.ID, "objectif 150g")
	require.NoError(t, err)
	require.Equal(t, ProfileMissingReply, reply.Response)

	history, err := h.svc.History(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, ProfileMissingReply, history[1].Content)
}

// brokenProfiles fails every goal update with an internal error.
type brokenProfiles struct {
	ProfileService
}

func (brokenProfiles) UpdateGoal(context.Context, uuid.UUID, int) error {
	return appErr.New(appErr.CodeInternal, "database unavailable")
}

func TestHandleMessageFailedTurnIsAnsweredInHistory(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	svc := NewChatService(ChatDeps{
		Chats:      h.chats,
		Meals:      h.mealService(),
		Profiles:   brokenProfiles{},
		Classifier: h.classifier,
		Analyzer:   h.analyzer,
		Coach:      h.coach,
	})

	h.classifyAs("objectif 150g", intent.Classification{Action: intent.ActionGoalUpdate, Data: intent.Data{NewGoal: goal(150)}})
	reply, err := svc.HandleMessage(ctx, h.user.ID, "objectif 150g")
	require.NoError(t, err)
	require.Equal(t, UnavailableReply, reply.Response)
	require.Equal(t, intent.ActionGoalUpdate, reply.Action)

	history, err := svc.History(ctx, h.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.SenderUser, history[0].Sender)
	require.Equal(t, "objectif 150g", history[0].Content)
	require.Equal(t, models.SenderAI, history[1].Sender)
	require.Equal(t, UnavailableReply, history[1].Content)
}

func TestHandleMessageStatusAndReset(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()

	_, err := h.mealService().AddMeal(ctx, &AddMealInput{UserID: h.user.ID, ProductName: "oeufs", ProteinGrams: 90})
	require.NoError(t, err)

	h.classifyAs("où j'en suis ?", intent.Classification{Action: intent.ActionStatus})
	status, err := h.svc.HandleMessage(ctx, h.user.ID, "où j'en suis ?")
	require.NoError(t, err)
	require.Contains(t, status.Response, "Progression : 75% 💪")
	require.NotContains(t, status.Response, "Repas enregistré")

	h.classifyAs("efface tout", intent.Classification{Action: intent.ActionResetMeals})
	reset, err := h.svc.HandleMessage(ctx, h.user.ID, "efface tout")
	require.NoError(t, err)
	require.Equal(t, ResetReply(1), reset.Response)
}

func TestHandleMessageGeneralUsesCoach(t *testing.T) {
	h := newChatHarness(t)
	msg := "une idée de snack ?"

	h.classifyAs(msg, intent.Classification{Action: intent.ActionGeneral})
	h.coach.On("Reply", mock.Anything, msg).Return("Un yaourt grec !")

	reply, err := h.svc.HandleMessage(context.Background(), h.user.ID, msg)
	require.NoError(t, err)
	require.Equal(t, "Un yaourt grec !", reply.Response)
	require.Equal(t, intent.ActionGeneral, reply.Action)
}

func TestHandleMessageRejectsBlank(t *testing.T) {
	h := newChatHarness(t)
	_, err := h.svc.HandleMessage(context.Background(), h.user.ID, "   ")
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestHandleImageMessage(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	img := &ImageUpload{Data: []byte{0xff, 0xd8, 0xff, 0xe0}, ContentType: "image/jpeg", Filename: "assiette.jpg"}

	imageResult := *chickenResult
	imageResult.Method = nutrition.MethodImage
	h.analyzer.On("AnalyzeImage", mock.Anything, llm.Image{Data: img.Data, MediaType: "image/jpeg"}, "la moitié").Return(&imageResult)

	reply, err := h.svc.HandleImageMessage(ctx, h.user.ID, "la moitié", img)
	require.NoError(t, err)
	require.Equal(t, intent.ActionMeal, reply.Action)
	require.Contains(t, reply.Response, "✅ Repas enregistré")
	require.Len(t, h.store.objects, 1)

	meals, err := h.mealService().ListMeals(ctx, h.user.ID, h.now)
	require.NoError(t, err)
	require.Equal(t, models.MethodImageAnalysis, meals[0].Method)
}

func TestHandleImageMessageNoFoods(t *testing.T) {
	h := newChatHarness(t)
	img := &ImageUpload{Data: []byte("png"), ContentType: "image/png", Filename: "x.png"}
	h.analyzer.On("AnalyzeImage", mock.Anything, mock.Anything, "").Return(nutrition.Empty(nutrition.MethodImage))

	reply, err := h.svc.HandleImageMessage(context.Background(), h.user.ID, "", img)
	require.NoError(t, err)
	require.Equal(t, NoFoodInImageReply, reply.Response)

	history, err := h.svc.History(context.Background(), h.user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1, "no user text to persist")
}

func TestHistoryLimitIsCapped(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, h.chats.Create(ctx, &models.ChatMessage{UserID: h.user.ID, Content: "m", Type: models.MessageTypeText, Sender: models.SenderUser}))
	}

	got, err := h.svc.History(ctx, h.user.ID, 10_000)
	require.NoError(t, err)
	require.Len(t, got, 3)

	other, err := h.svc.History(ctx, uuid.New(), 5)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestSpeak(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()

	h.speaker.On("Speech", mock.Anything, "Bravo !").Return([]byte("mp3"), nil)
	audio, err := h.svc.Speak(ctx, "Bravo !")
	require.NoError(t, err)
	require.Equal(t, []byte("mp3"), audio)

	h.speaker.On("Speech", mock.Anything, "Oups").Return(nil, errors.New("quota"))
	_, err = h.svc.Speak(ctx, "Oups")
	require.True(t, appErr.IsCode(err, appErr.CodeInternal))

	_, err = h.svc.Speak(ctx, " ")
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	noSpeaker := NewChatService(ChatDeps{Chats: h.chats})
	_, err = noSpeaker.Speak(ctx, "Bravo !")
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}
