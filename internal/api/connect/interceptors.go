package connect

import (
	"context"
	"crypto/subtle"
	"time"

	"connectrpc.com/connect"

	"github.com/osa030/isaibox/internal/api/playerv1/playerv1connect"
	"github.com/osa030/isaibox/internal/infra/metrics"
)

const (
	// ControlTokenHeader is the header name for the control token.
	ControlTokenHeader = "X-Control-Token"
)

// NewControlTokenInterceptor creates an interceptor that validates the
// control token on procedures that change playback. Read-only procedures
// pass through.
func NewControlTokenInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !playerv1connect.MutatingProcedures[req.Spec().Procedure] {
				return next(ctx, req)
			}

			got := req.Header().Get(ControlTokenHeader)
			if got == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}

			return next(ctx, req)
		}
	}
}

// NewMetricsInterceptor records request counts and latency per procedure.
func NewMetricsInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			metrics.RPCRequestsTotal.WithLabelValues(procedure, code).Inc()
			metrics.RPCRequestDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}
