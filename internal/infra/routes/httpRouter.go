package routes

import (
	"net/http"

	"rag-chat/internal/infra/handlers"

	"github.com/gorilla/mux"
)

type Routes struct {
	Mux         *mux.Router
	HttpHandler *handlers.HttpHandlers
}

func NewRoutes(mux *mux.Router, HttpHandler *handlers.HttpHandlers) *Routes {
	return &Routes{mux, HttpHandler}
}

func (r *Routes) Init() {
	r.Mux.HandleFunc("/", r.HttpHandler.Root).Methods(http.MethodGet)
	r.Mux.HandleFunc("/health", r.HttpHandler.Health).Methods(http.MethodGet)
	r.Mux.HandleFunc("/chat", r.HttpHandler.Chat).Methods(http.MethodPost)
	r.Mux.HandleFunc("/chat/{userId}/history", r.HttpHandler.History).Methods(http.MethodGet)
}
