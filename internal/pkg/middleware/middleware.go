package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
)

// publicMethods skip authentication.
var publicMethods = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

// ContextInterceptor resolves the bearer token into an auth.Session and the
// caller's language into the context.
func ContextInterceptor(secret []byte) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		for _, prefix := range publicMethods {
			if strings.HasPrefix(info.FullMethod, prefix) {
				return handler(ctx, req)
			}
		}

		md, _ := metadata.FromIncomingContext(ctx)
		if lang := first(md, "accept-language"); lang != "" {
			ctx = i18n.WithLanguage(ctx, lang)
		}

		sess, err := auth.ParseToken(secret, first(md, "authorization"))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "missing or invalid operator token")
		}
		return handler(auth.WithSession(ctx, sess), req)
	}
}

// HTTPAuth is the net/http counterpart of ContextInterceptor.
func HTTPAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if lang := r.Header.Get("Accept-Language"); lang != "" {
				ctx = i18n.WithLanguage(ctx, lang)
			}

			sess, err := auth.ParseToken(secret, r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":   "unauthenticated",
					"message": "missing or invalid operator token",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(ctx, sess)))
		})
	}
}

func first(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
