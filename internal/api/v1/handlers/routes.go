package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	v1mware "github.com/reviewly/reviewly/internal/api/v1/middleware"
)

func RegisterV1Routes(router *mux.Router, bridge *Bridge) {
	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(v1mware.RateLimit("global"))

	v1.HandleFunc("/health", bridge.HandleHealth).Methods("GET")

	chatRouter := v1.PathPrefix("/chat").Subrouter()
	chatRouter.HandleFunc("/messages", bridge.HandleGetMessages).Methods("GET")
	chatRouter.Handle("/messages", v1mware.RateLimit("chat_submit")(
		http.HandlerFunc(bridge.HandlePostMessage))).Methods("POST")
	chatRouter.HandleFunc("/ws", bridge.HandleChatWebSocket).Methods("GET")

	reviewsRouter := v1.PathPrefix("/reviews").Subrouter()
	reviewsRouter.Handle("/anchor", v1mware.RateLimit("reviews_anchor")(
		http.HandlerFunc(bridge.HandleReviewAnchor))).Methods("POST")
}
