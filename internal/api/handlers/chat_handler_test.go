package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dynprot/engine/internal/api/middleware"
	"github.com/dynprot/engine/internal/api/types"
	"github.com/dynprot/engine/internal/assistant/intent"
	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/services"
	appErr "github.com/dynprot/engine/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartImage(t *testing.T, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="image"; filename="meal.png"`)
		if contentType != "" {
			hdr.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func imageRequest(body *bytes.Buffer, contentType string, id middleware.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/chat/message/image", body)
	req.Header.Set("Content-Type", contentType)
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

func TestMessageReply(t *testing.T) {
	uid := uuid.New()
	chat := new(mockChatService)
	chat.On("HandleMessage", mock.Anything, uid, "objectif 150g").
		Return(&services.ChatReply{Response: "ok", Action: intent.ActionGoalUpdate}, nil)

	rr := httptest.NewRecorder()
	NewChatHandler(chat, 0).Message(rr, request(http.MethodPost, "/chat/message",
		map[string]string{"message": "objectif 150g"}, &middleware.Identity{UserID: uid}, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var data types.ChatResponse
	decode(t, rr, &data)
	require.Equal(t, "ok", data.Response)
	require.Equal(t, "GOAL_UPDATE", data.Action)
}

func TestMessageFailureStaysInConversation(t *testing.T) {
	uid := uuid.New()
	chat := new(mockChatService)
	chat.On("HandleMessage", mock.Anything, uid, "hello").Return(nil, errors.New("db down"))

	rr := httptest.NewRecorder()
	NewChatHandler(chat, 0).Message(rr, request(http.MethodPost, "/chat/message",
		map[string]string{"message": "hello"}, &middleware.Identity{UserID: uid}, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var data types.ChatResponse
	resp := decode(t, rr, &data)
	require.True(t, resp.Success)
	require.Equal(t, services.UnavailableReply, data.Response)
}

func TestMessageRequiresText(t *testing.T) {
	rr := httptest.NewRecorder()
	NewChatHandler(new(mockChatService), 0).Message(rr, request(http.MethodPost, "/chat/message",
		map[string]string{"message": ""}, &middleware.Identity{UserID: uuid.New()}, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMessageLegacyBodyUserID(t *testing.T) {
	uid := uuid.New()
	chat := new(mockChatService)
	chat.On("HandleMessage", mock.Anything, uid, "salut").Return(&services.ChatReply{Response: "bonjour"}, nil)

	rr := httptest.NewRecorder()
	NewChatHandler(chat, 0).Message(rr, request(http.MethodPost, "/chat/message",
		map[string]string{"userId": uid.String(), "message": "salut"}, &middleware.Identity{Legacy: true}, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	chat.AssertExpectations(t)
}

func TestImageUpload(t *testing.T) {
	uid := uuid.New()
	chat := new(mockChatService)
	chat.On("HandleImageMessage", mock.Anything, uid, "une tranche", mock.MatchedBy(func(img *services.ImageUpload) bool {
		return img.ContentType == "image/jpeg" && img.Filename == "meal.png" && bytes.Equal(img.Data, pngHeader)
	})).Return(&services.ChatReply{Response: "noted"}, nil)

	body, ct := multipartImage(t, "image/jpg", pngHeader, map[string]string{"message": "une tranche"})
	rr := httptest.NewRecorder()
	NewChatHandler(chat, 0).Image(rr, imageRequest(body, ct, middleware.Identity{UserID: uid}))

	require.Equal(t, http.StatusOK, rr.Code)
	chat.AssertExpectations(t)
}

func TestImageRejections(t *testing.T) {
	id := middleware.Identity{UserID: uuid.New()}
	h := NewChatHandler(new(mockChatService), 32)

	body, ct := multipartImage(t, "", nil, map[string]string{"message": "hi"})
	rr := httptest.NewRecorder()
	h.Image(rr, imageRequest(body, ct, id))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "no image file provided", decode(t, rr, nil).Error.Message)

	body, ct = multipartImage(t, "image/gif", []byte("GIF89a"), nil)
	rr = httptest.NewRecorder()
	h.Image(rr, imageRequest(body, ct, id))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	body, ct = multipartImage(t, "image/png", bytes.Repeat([]byte{1}, 64), nil)
	rr = httptest.NewRecorder()
	h.Image(rr, imageRequest(body, ct, id))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "image is too large", decode(t, rr, nil).Error.Message)
}

func TestImageContentTypeSniffing(t *testing.T) {
	require.Equal(t, "image/png", imageContentType("application/octet-stream", pngHeader))
	require.Equal(t, "image/jpeg", imageContentType("image/JPG", nil))
	require.Equal(t, "image/webp", imageContentType("image/webp", nil))
}

func TestSpeech(t *testing.T) {
	chat := new(mockChatService)
	chat.On("Speak", mock.Anything, "bonjour").Return([]byte("ID3audio"), nil)

	rr := httptest.NewRecorder()
	NewChatHandler(chat, 0).Speech(rr, request(http.MethodPost, "/chat/speech",
		map[string]string{"text": "bonjour"}, &middleware.Identity{UserID: uuid.New()}, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "audio/mpeg", rr.Header().Get("Content-Type"))
	require.Equal(t, "ID3audio", rr.Body.String())
}

func TestSpeechUpstreamFailureHidesDetailsInProduction(t *testing.T) {
	HideErrorDetails(true)
	t.Cleanup(func() { HideErrorDetails(false) })

	chat := new(mockChatService)
	chat.On("Speak", mock.Anything, "bonjour").
		Return(nil, appErr.Wrap(errors.New("openai: 502"), appErr.CodeInternal, "speech synthesis failed"))

	rr := httptest.NewRecorder()
	NewChatHandler(chat, 0).Speech(rr, request(http.MethodPost, "/chat/speech",
		map[string]string{"text": "bonjour"}, &middleware.Identity{UserID: uuid.New()}, nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	apiErr := decode(t, rr, nil).Error
	require.Empty(t, apiErr.Details)
	require.Equal(t, "internal error", apiErr.Message)
}

func TestHistoryLimit(t *testing.T) {
	uid := uuid.New()
	chat := new(mockChatService)
	chat.On("History", mock.Anything, uid, 20).Return([]models.ChatMessage{{ID: 1, Content: "hi"}}, nil)

	rr := httptest.NewRecorder()
	NewChatHandler(chat, 0).History(rr, request(http.MethodGet, "/chat/history/x?limit=20", nil,
		&middleware.Identity{UserID: uid}, map[string]string{"userId": uid.String()}))
	require.Equal(t, http.StatusOK, rr.Code)
	var data types.HistoryResponse
	decode(t, rr, &data)
	require.Len(t, data.Messages, 1)

	rr = httptest.NewRecorder()
	NewChatHandler(chat, 0).History(rr, request(http.MethodGet, "/chat/history/x?limit=abc", nil,
		&middleware.Identity{UserID: uid}, map[string]string{"userId": uid.String()}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
