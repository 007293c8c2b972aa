package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/readium/readium/internal/config"
	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUserRepository panics on everything but ByID, which is all the
// middleware touches.
type stubUserRepository struct {
	repository.UserRepository
	user *model.User
}

func (s *stubUserRepository) ByID(id string) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, repository.ErrUserNotFound
}

func testStack(t *testing.T) (*service.TokenService, http.Handler, *model.User) {
	t.Helper()

	tokenService := service.NewTokenService(&config.Config{
		AccessTokenSecret:  "access-secret-for-tests",
		RefreshTokenSecret: "refresh-secret-for-tests",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	})
	user := &model.User{ID: "user-1", Username: "johndoe", Email: "john@example.com", FirstName: "John"}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := ctxkeys.Principal(r.Context())
		require.NotNil(t, principal)
		assert.Equal(t, "user-1", principal.User.ID)
		w.WriteHeader(http.StatusOK)
	})

	stack := Chain(RequireAuth(inner),
		Authenticate(tokenService, &stubUserRepository{user: user}),
	)
	return tokenService, stack, user
}

func TestAuthenticate_CookieToken(t *testing.T) {
	tokenService, stack, user := testStack(t)

	token, err := tokenService.GenerateAccessToken(user, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()

	stack.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	tokenService, stack, user := testStack(t)

	token, err := tokenService.GenerateAccessToken(user, "google")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	stack.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	_, stack, _ := testStack(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	stack.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	_, stack, _ := testStack(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	stack.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_TokenForDeletedUser(t *testing.T) {
	tokenService, stack, _ := testStack(t)

	ghost := &model.User{ID: "ghost", Username: "ghost", Email: "ghost@example.com"}
	token, err := tokenService.GenerateAccessToken(ghost, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	stack.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
