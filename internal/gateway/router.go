package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chatsync/internal/middleware"
)

// NewRouter assembles the local UI gateway.
func NewRouter(msgH *MessageHandler, notifH *NotificationHandler, allowedOrigins string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.RequestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })

	r.Get("/api/conversations", msgH.GetConversations)
	r.Put("/api/conversations/active", msgH.SetActive)
	r.Get("/api/conversations/{conversationId}/messages", msgH.GetMessages)
	r.Post("/api/conversations/{conversationId}/messages", msgH.Send)
	r.Post("/api/conversations/{conversationId}/read", msgH.MarkRead)
	r.Post("/api/conversations/{conversationId}/typing", msgH.Typing)
	r.Post("/api/messages/{messageId}/reaction", msgH.React)

	r.Get("/api/notifications", notifH.List)
	r.Get("/api/notifications/unread-count", notifH.UnreadCount)
	r.Post("/api/notifications/read-all", notifH.MarkAllRead)
	r.Post("/api/notifications/{id}/read", notifH.MarkRead)
	r.Delete("/api/notifications/{id}", notifH.Delete)
	r.Delete("/api/notifications", notifH.ClearAll)
	r.Get("/api/settings/notifications", notifH.GetSettings)
	r.Put("/api/settings/notifications", notifH.UpdateSettings)

	return r
}
