package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dynprot/engine/internal/api/middleware"
	"github.com/dynprot/engine/internal/api/types"
	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/services"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/dynprot/engine/pkg/logger"
)

// DefaultMaxUpload bounds meal photos.
const DefaultMaxUpload = 10 << 20

var imageTypes = []string{"image/jpeg", "image/png", "image/webp"}

type ChatHandler struct {
	chat      services.ChatService
	maxUpload int64
}

func NewChatHandler(chat services.ChatService, maxUpload int64) *ChatHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &ChatHandler{chat: chat, maxUpload: maxUpload}
}

// Message godoc
// @Summary      Send a chat message
// @Description  Classifies the message and acts on it. Upstream failures are
// @Description  answered with an apology in the response text, not an error.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      types.ChatMessageRequest  true  "message"
// @Success      200   {object}  types.APIResponse{data=types.ChatResponse}
// @Failure      400   {object}  types.APIResponse
// @Router       /chat/message [post]
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req types.ChatMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	uid, err := resolveUserID(r, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := h.chat.HandleMessage(r.Context(), uid, req.Message)
	h.writeReply(w, r, reply, err)
}

// Image godoc
// @Summary      Send a meal photo
// @Tags         chat
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image    formData  file    true   "jpeg, png or webp, at most 10 MB"
// @Param        message  formData  string  false  "portion hint"
// @Param        userId   formData  string  false  "legacy user id"
// @Success      200      {object}  types.APIResponse{data=types.ChatResponse}
// @Failure      400      {object}  types.APIResponse
// @Router       /chat/message/image [post]
func (h *ChatHandler) Image(w http.ResponseWriter, r *http.Request) {
	// room for the other form fields
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorStr(w, r, http.StatusBadRequest, "image is too large")
			return
		}
		writeErrorStr(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uid, err := resolveUserID(r, r.FormValue("userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, "no image file provided")
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		writeErrorStr(w, r, http.StatusBadRequest, "image is too large")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeInternal, "read upload failed"))
		return
	}
	if int64(len(data)) > h.maxUpload {
		writeErrorStr(w, r, http.StatusBadRequest, "image is too large")
		return
	}

	contentType := imageContentType(header.Header.Get("Content-Type"), data)
	if !slices.Contains(imageTypes, contentType) {
		writeErrorStr(w, r, http.StatusBadRequest, "only jpeg, png and webp images are accepted")
		return
	}

	reply, err := h.chat.HandleImageMessage(r.Context(), uid, r.FormValue("message"), &services.ImageUpload{
		Data:        data,
		ContentType: contentType,
		Filename:    header.Filename,
	})
	h.writeReply(w, r, reply, err)
}

// writeReply keeps the conversation going: only bad input is an HTTP error.
func (h *ChatHandler) writeReply(w http.ResponseWriter, r *http.Request, reply *services.ChatReply, err error) {
	if err != nil {
		if appErr.IsCode(err, appErr.CodeInvalid) {
			writeError(w, r, err)
			return
		}
		logger.L().Error("chat turn failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeOK(w, http.StatusOK, types.ChatResponse{Response: services.UnavailableReply})
		return
	}
	writeOK(w, http.StatusOK, types.ChatResponse{
		Response: reply.Response,
		Analysis: reply.Analysis,
		Action:   string(reply.Action),
	})
}

// Speech godoc
// @Summary      Read a text aloud
// @Tags         chat
// @Accept       json
// @Produce      audio/mpeg
// @Security     BearerAuth
// @Param        body  body  types.SpeechRequest  true  "text"
// @Success      200
// @Failure      400   {object}  types.APIResponse
// @Router       /chat/speech [post]
func (h *ChatHandler) Speech(w http.ResponseWriter, r *http.Request) {
	var req types.SpeechRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	audio, err := h.chat.Speak(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// History godoc
// @Summary      Conversation history, oldest first
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true   "user id"
// @Param        limit   query     int     false  "at most 200, default 50"
// @Success      200     {object}  types.APIResponse{data=types.HistoryResponse}
// @Router       /chat/history/{userId} [get]
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeErrorStr(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	msgs, err := h.chat.History(r.Context(), uid, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	writeOK(w, http.StatusOK, types.HistoryResponse{Messages: msgs})
}

// imageContentType trusts the declared type when it names an image and
// sniffs the bytes otherwise.
func imageContentType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		mt = strings.ToLower(mt)
		if mt == "image/jpg" || mt == "image/pjpeg" {
			return "image/jpeg"
		}
		if strings.HasPrefix(mt, "image/") {
			return mt
		}
	}
	return http.DetectContentType(data)
}
