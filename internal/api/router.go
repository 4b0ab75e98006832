package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler, allowedHosts []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(AllowedHosts(allowedHosts))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", apiHandler.RegisterHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Resource collections, scoped to the token's user when present.
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.Authenticate)

			r.Get("/profiles", apiHandler.ListProfilesHandler)
			r.Post("/profiles", apiHandler.CreateProfileHandler)
			r.Get("/profiles/{profileID}", apiHandler.GetProfileHandler)
			r.Put("/profiles/{profileID}", apiHandler.UpdateProfileHandler)
			r.Delete("/profiles/{profileID}", apiHandler.DeleteProfileHandler)

			r.Get("/persona-statuses", apiHandler.ListPersonaStatusesHandler)
			r.Post("/persona-statuses", apiHandler.CreatePersonaStatusHandler)
			r.Get("/persona-statuses/{personaID}", apiHandler.GetPersonaStatusHandler)
			r.Put("/persona-statuses/{personaID}", apiHandler.UpdatePersonaStatusHandler)
			r.Delete("/persona-statuses/{personaID}", apiHandler.DeletePersonaStatusHandler)

			r.Get("/chats", apiHandler.ListChatsHandler)
			r.Post("/chats", apiHandler.CreateChatHandler)
			r.Get("/chats/{chatID}", apiHandler.GetChatHandler)
			r.Put("/chats/{chatID}", apiHandler.UpdateChatHandler)
			r.Delete("/chats/{chatID}", apiHandler.DeleteChatHandler)

			r.Get("/messages", apiHandler.ListMessagesHandler)
			r.Post("/messages", apiHandler.PostMessageHandler)
			r.Get("/messages/{messageID}", apiHandler.GetMessageHandler)
			r.Put("/messages/{messageID}", apiHandler.UpdateMessageHandler)
			r.Delete("/messages/{messageID}", apiHandler.DeleteMessageHandler)
		})
	})

	return r
}

// AllowedHosts rejects requests whose Host header is not in the configured
// list. An empty list disables the check.
func AllowedHosts(hosts []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		allowed[strings.ToLower(h)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) > 0 {
				host := strings.ToLower(r.Host)
				if hostname, _, err := net.SplitHostPort(host); err == nil {
					host = hostname
				} else {
					// No port; a bare IPv6 literal still carries brackets.
					host = strings.Trim(host, "[]")
				}
				if _, ok := allowed[host]; !ok {
					respondError(w, http.StatusBadRequest, "Invalid Host header")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
