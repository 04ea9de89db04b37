package connect

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/isaibox/internal/api/playerv1/playerv1connect"
)

// NewHandler mounts svc with its interceptors. When controlToken is empty
// mutating procedures are open.
func NewHandler(svc *PlayerService, controlToken string) (string, http.Handler) {
	interceptors := []connect.Interceptor{NewMetricsInterceptor()}
	if controlToken != "" {
		interceptors = append(interceptors, NewControlTokenInterceptor(controlToken))
	}
	return playerv1connect.NewPlayerServiceHandler(svc, connect.WithInterceptors(interceptors...))
}
