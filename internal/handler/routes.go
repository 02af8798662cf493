package handler

import "net/http"

// RegisterRoutes mounts the API surface on the mux.
func RegisterRoutes(mux *http.ServeMux, chat *ChatHandler, schemas *SchemaHandler) {
	mux.HandleFunc("POST /chat", chat.Chat)
	mux.HandleFunc("POST /sessions/reset", chat.Reset)
	mux.HandleFunc("GET /health", chat.Health)
	mux.HandleFunc("GET /schemas", schemas.List)
	mux.HandleFunc("GET /schemas/{filename}", schemas.Get)
}
