package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dj0083/final-project-sub000/internal/parties"
)

type contextKey string

const ctxActor contextKey = "actor"

// ActorFromContext returns the caller resolved by Auth, or the zero actor.
func ActorFromContext(ctx context.Context) parties.Actor {
	if ctx == nil {
		return parties.Actor{}
	}
	if v, ok := ctx.Value(ctxActor).(parties.Actor); ok {
		return v
	}
	return parties.Actor{}
}

// WithActor injects the caller into the context.
func WithActor(ctx context.Context, actor parties.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

func userIDString(ctx context.Context) string {
	actor := ActorFromContext(ctx)
	if actor.ID == 0 {
		return ""
	}
	return strconv.FormatUint(actor.ID, 10)
}

// ClientIP prefers proxy headers over the socket address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
