package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatsync/internal/engine"
	"github.com/chatsync/internal/store"
)

// MessageHandler exposes conversation and message actions to the UI. Every
// mutation goes through the message engine; the handler never touches the
// stores' write paths directly.
type MessageHandler struct {
	eng      *engine.MessageEngine
	messages *store.MessageStore
	convs    *store.ConversationStore
}

func NewMessageHandler(eng *engine.MessageEngine, messages *store.MessageStore, convs *store.ConversationStore) *MessageHandler {
	return &MessageHandler{eng: eng, messages: messages, convs: convs}
}

func (h *MessageHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.convs.List())
}

func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")
	writeJSON(w, http.StatusOK, h.messages.ByConversation(conversationID))
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")
	var in engine.SendInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	m, err := h.eng.Send(conversationID, in)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "text or attachment required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to send")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MessageHandler) React(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageId")
	var body struct {
		ConversationID string `json:"conversationId"`
		Emoji          string `json:"emoji"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	h.eng.React(body.ConversationID, messageID, body.Emoji)
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.eng.MarkRead(chi.URLParam(r, "conversationId"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) Typing(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsTyping bool `json:"isTyping"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	h.eng.SetTyping(chi.URLParam(r, "conversationId"), body.IsTyping)
	w.WriteHeader(http.StatusNoContent)
}

// SetActive records which conversation the UI has open. Empty id clears it.
func (h *MessageHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ConversationID string `json:"conversationId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	h.eng.SetActiveConversation(body.ConversationID)
	w.WriteHeader(http.StatusNoContent)
}
