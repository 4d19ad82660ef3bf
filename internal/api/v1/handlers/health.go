package handlers

import (
	"net/http"

	"github.com/reviewly/reviewly/pkg/httpext"
)

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	State       string `json:"state"`
}

func (b *Bridge) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpext.JsonResponse(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Connections: b.manager.GetConnectionCount(),
		State:       b.session.State().String(),
	})
}
