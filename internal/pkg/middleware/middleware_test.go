package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
)

var secret = []byte("mw-secret")

func TestContextInterceptorInjectsSession(t *testing.T) {
	want := auth.Session{ID: "s1", OperatorID: "op1", Role: auth.RoleCashier, CanCommit: true}
	token, err := auth.IssueToken(secret, want, time.Hour)
	require.NoError(t, err)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		"authorization", "Bearer "+token,
		"accept-language", "id",
	))

	var got auth.Session
	var lang string
	_, err = ContextInterceptor(secret)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/omnipos.sales.v1.SalesService/AddLine"},
		func(ctx context.Context, _ any) (any, error) {
			got, _ = auth.SessionFromContext(ctx)
			lang = i18n.LanguageFrom(ctx)
			return nil, nil
		})

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "id", lang)
}

func TestContextInterceptorRejectsMissingToken(t *testing.T) {
	_, err := ContextInterceptor(secret)(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/omnipos.sales.v1.SalesService/CommitOrder"},
		func(ctx context.Context, _ any) (any, error) {
			t.Fatal("handler must not run")
			return nil, nil
		})

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestContextInterceptorSkipsHealth(t *testing.T) {
	called := false
	_, err := ContextInterceptor(secret)(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, _ any) (any, error) {
			called = true
			return nil, nil
		})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestHTTPAuth(t *testing.T) {
	h := HTTPAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(sess.OperatorID))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.IssueToken(secret, auth.Session{ID: "s", OperatorID: "op9"}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "op9", rec.Body.String())
}
