package service

import (
	"testing"
	"time"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepository is an in-memory UserRepository with the same atomic
// semantics as the SQL implementation.
type fakeUserRepository struct {
	users map[string]*model.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: map[string]*model.User{}}
}

func (f *fakeUserRepository) Create(user *model.User) error {
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepository) ByID(id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepository) ByUsername(username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepository) ByUsernameAndEmail(username, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username && user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepository) ByGoogleIdentity(googleID, provider string) (*model.User, error) {
	for _, user := range f.users {
		if user.GoogleID != nil && *user.GoogleID == googleID &&
			user.Provider != nil && *user.Provider == provider {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepository) Update(user *model.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, other := range f.users {
		if id != user.ID && (other.Username == user.Username || other.Email == user.Email) {
			return repository.ErrDuplicateUser
		}
	}
	stored.Username = user.Username
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Email = user.Email
	return nil
}

func (f *fakeUserRepository) UpdateAvatar(id string, avatar *string) error {
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Avatar = avatar
	return nil
}

func (f *fakeUserRepository) SetRefreshToken(id, token string) error {
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.RefreshToken = token
	return nil
}

func (f *fakeUserRepository) RotateRefreshToken(id, old, next string) error {
	user, ok := f.users[id]
	if !ok || user.RefreshToken != old {
		return repository.ErrTokenMismatch
	}
	user.RefreshToken = next
	return nil
}

func (f *fakeUserRepository) SetVerificationCode(id, code string, expiry time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.VerificationCode = &code
	user.VerificationExpiry = &expiry
	return nil
}

func (f *fakeUserRepository) ConsumeVerificationCode(code string, now time.Time) (*model.User, error) {
	for _, user := range f.users {
		if user.VerificationCode != nil && *user.VerificationCode == code &&
			user.VerificationExpiry != nil && user.VerificationExpiry.After(now) {
			user.IsVerified = true
			user.VerificationCode = nil
			user.VerificationExpiry = nil
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrCodeNotFound
}

func (f *fakeUserRepository) ConsumePasswordReset(code, passwordHash string, now time.Time) (*model.User, error) {
	for _, user := range f.users {
		if user.VerificationCode != nil && *user.VerificationCode == code &&
			user.VerificationExpiry != nil && user.VerificationExpiry.After(now) {
			user.PasswordHash = &passwordHash
			user.VerificationCode = nil
			user.VerificationExpiry = nil
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrCodeNotFound
}

func (f *fakeUserRepository) Delete(id string) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepository) AddHistory(userID, blogID string, viewedAt time.Time) error {
	return nil
}

func (f *fakeUserRepository) History(userID string) ([]model.HistoryEntry, error) {
	return nil, nil
}

func newTestAuthService(repo repository.UserRepository) *AuthService {
	email := NewEmailService("", "noreply@example.com", "Readium", true)
	return NewAuthService(repo, newTestTokenService(), email, 10, time.Hour)
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username:  "JohnDoe",
		FirstName: "John",
		LastName:  "Doe",
		Email:     "John@Example.com",
		Password:  "Abc12!",
	}
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates user with hashed password and session", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)

		user, pair, err := svc.Register(validRegisterInput())
		require.NoError(t, err)
		require.NotNil(t, pair)

		assert.Equal(t, "johndoe", user.Username)
		assert.Equal(t, "john@example.com", user.Email)
		assert.False(t, user.IsVerified)

		stored, err := repo.ByID(user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.PasswordHash)
		assert.NotEqual(t, "Abc12!", *stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("Abc12!")))
		assert.Equal(t, pair.RefreshToken, stored.RefreshToken)
		require.NotNil(t, stored.VerificationCode)
		assert.Len(t, *stored.VerificationCode, 10)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)

		_, _, err := svc.Register(validRegisterInput())
		require.NoError(t, err)

		input := validRegisterInput()
		input.Email = "other@example.com"
		_, _, err = svc.Register(input)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)

		_, _, err := svc.Register(validRegisterInput())
		require.NoError(t, err)

		input := validRegisterInput()
		input.Username = "otheruser"
		_, _, err = svc.Register(input)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("rejects weak password", func(t *testing.T) {
		svc := newTestAuthService(newFakeUserRepository())

		input := validRegisterInput()
		input.Password = "weak"
		_, _, err := svc.Register(input)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	register := func(t *testing.T) (*fakeUserRepository, *AuthService, *model.User) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)
		user, _, err := svc.Register(validRegisterInput())
		require.NoError(t, err)
		return repo, svc, user
	}

	verify := func(t *testing.T, repo *fakeUserRepository, svc *AuthService, userID string) {
		stored, err := repo.ByID(userID)
		require.NoError(t, err)
		require.NotNil(t, stored.VerificationCode)
		require.NoError(t, svc.VerifyEmail(stored, *stored.VerificationCode))
	}

	t.Run("unverified user gets a fresh code and an auth error", func(t *testing.T) {
		repo, svc, user := register(t)

		before, err := repo.ByID(user.ID)
		require.NoError(t, err)
		firstCode := *before.VerificationCode

		_, _, err = svc.Login("johndoe", "john@example.com", "Abc12!")
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

		after, err := repo.ByID(user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, firstCode, *after.VerificationCode)
	})

	t.Run("requires the exact username and email pair", func(t *testing.T) {
		repo, svc, user := register(t)
		verify(t, repo, svc, user.ID)

		_, _, err := svc.Login("johndoe", "wrong@example.com", "Abc12!")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

		_, _, err = svc.Login("wronguser", "john@example.com", "Abc12!")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("wrong password fails after verification", func(t *testing.T) {
		repo, svc, user := register(t)
		verify(t, repo, svc, user.ID)

		_, _, err := svc.Login("johndoe", "john@example.com", "Wrong1!")
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	})

	t.Run("verified user logs in and rotates the session", func(t *testing.T) {
		repo, svc, user := register(t)
		verify(t, repo, svc, user.ID)

		loggedIn, pair, err := svc.Login("johndoe", "john@example.com", "Abc12!")
		require.NoError(t, err)
		assert.Equal(t, user.ID, loggedIn.ID)
		assert.True(t, loggedIn.IsVerified)

		stored, err := repo.ByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, pair.RefreshToken, stored.RefreshToken)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	t.Run("expired code is rejected and reissued", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)
		user, _, err := svc.Register(validRegisterInput())
		require.NoError(t, err)

		expired := time.Now().Add(-time.Minute)
		require.NoError(t, repo.SetVerificationCode(user.ID, "expiredcode", expired))

		stored, err := repo.ByID(user.ID)
		require.NoError(t, err)

		err = svc.VerifyEmail(stored, "expiredcode")
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

		// a fresh code replaced the expired one
		after, err := repo.ByID(user.ID)
		require.NoError(t, err)
		require.NotNil(t, after.VerificationCode)
		assert.NotEqual(t, "expiredcode", *after.VerificationCode)
		assert.False(t, after.IsVerified)
	})

	t.Run("code is single use", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)
		user, _, err := svc.Register(validRegisterInput())
		require.NoError(t, err)

		stored, err := repo.ByID(user.ID)
		require.NoError(t, err)
		code := *stored.VerificationCode

		require.NoError(t, svc.VerifyEmail(stored, code))

		err = svc.VerifyEmail(stored, code)
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("rotation invalidates the presented token", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)
		_, pair, err := svc.Register(validRegisterInput())
		require.NoError(t, err)

		_, next, err := svc.Refresh(pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		// replaying the first token must fail even though its response
		// tokens were never used
		_, _, err = svc.Refresh(pair.RefreshToken)
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

		// the rotated token still works
		_, _, err = svc.Refresh(next.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		svc := newTestAuthService(newFakeUserRepository())

		_, _, err := svc.Refresh("garbage")
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	})

	t.Run("token of a deleted user rejected", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)
		user, pair, err := svc.Register(validRegisterInput())
		require.NoError(t, err)

		require.NoError(t, repo.Delete(user.ID))

		_, _, err = svc.Refresh(pair.RefreshToken)
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	})
}

func TestAuthService_Logout(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestAuthService(repo)
	user, pair, err := svc.Register(validRegisterInput())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(user.ID))

	stored, err := repo.ByID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)

	// logged-out refresh token no longer works
	_, _, err = svc.Refresh(pair.RefreshToken)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	// idempotent
	require.NoError(t, svc.Logout(user.ID))
}

func TestAuthService_ResetPassword(t *testing.T) {
	setup := func(t *testing.T) (*fakeUserRepository, *AuthService, *model.User) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)
		user, _, err := svc.Register(validRegisterInput())
		require.NoError(t, err)

		stored, err := repo.ByID(user.ID)
		require.NoError(t, err)
		require.NoError(t, svc.ForgotPassword(stored))

		stored, err = repo.ByID(user.ID)
		require.NoError(t, err)
		return repo, svc, stored
	}

	t.Run("old password checked before the code", func(t *testing.T) {
		_, svc, user := setup(t)

		err := svc.ResetPassword(user, "Wrong1!", *user.VerificationCode, "New12!")
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	})

	t.Run("valid reset replaces the hash and clears the code", func(t *testing.T) {
		repo, svc, user := setup(t)

		require.NoError(t, svc.ResetPassword(user, "Abc12!", *user.VerificationCode, "New12!"))

		stored, err := repo.ByID(user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.VerificationCode)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("New12!")))
	})

	t.Run("wrong code reissues a fresh one", func(t *testing.T) {
		repo, svc, user := setup(t)
		oldCode := *user.VerificationCode

		err := svc.ResetPassword(user, "Abc12!", "wrongcode", "New12!")
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

		stored, err2 := repo.ByID(user.ID)
		require.NoError(t, err2)
		require.NotNil(t, stored.VerificationCode)
		assert.NotEqual(t, oldCode, *stored.VerificationCode)
	})
}

func TestAuthService_AuthenticateOAuth(t *testing.T) {
	profile := OAuthProfile{
		Provider:  "google",
		ID:        "google-123",
		Email:     "Jane@Example.com",
		FirstName: "Jane",
		LastName:  "Smith",
		Avatar:    "https://example.com/avatar.png",
	}

	t.Run("creates a verified user on first callback", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)

		user, pair, err := svc.AuthenticateOAuth(profile)
		require.NoError(t, err)
		require.NotNil(t, pair)

		assert.True(t, user.IsVerified)
		assert.Nil(t, user.PasswordHash)
		assert.Equal(t, "jane", user.Username)
		assert.Equal(t, "jane@example.com", user.Email)

		// access token carries the provider claim
		claims, err := newTestTokenService().VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "google", claims.Provider)
	})

	t.Run("second callback reuses the account", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := newTestAuthService(repo)

		first, _, err := svc.AuthenticateOAuth(profile)
		require.NoError(t, err)

		second, _, err := svc.AuthenticateOAuth(profile)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, repo.users, 1)
	})

	t.Run("incomplete profile rejected", func(t *testing.T) {
		svc := newTestAuthService(newFakeUserRepository())

		_, _, err := svc.AuthenticateOAuth(OAuthProfile{Provider: "google"})
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	})
}
