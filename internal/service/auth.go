package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the access/refresh pair returned by every login path.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// OAuthProfile is the verified identity a federation callback yields.
type OAuthProfile struct {
	Provider  string
	ID        string
	Email     string
	FirstName string
	LastName  string
	Avatar    string
}

type AuthService struct {
	userRepository repository.UserRepository
	tokenService   *TokenService
	emailService   *EmailService
	codeLength     int
	codeExpiry     time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenService *TokenService,
	emailService *EmailService,
	codeLength int,
	codeExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		tokenService:   tokenService,
		emailService:   emailService,
		codeLength:     codeLength,
		codeExpiry:     codeExpiry,
	}
}

type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a local account, emails a verification code and opens a
// session. The duplicate-identity message stays generic so callers cannot
// probe which field collided.
func (s *AuthService) Register(input RegisterInput) (*model.User, *TokenPair, error) {
	username := validation.NormalizeUsername(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, nil, apperr.Validation(err.Error())
	}
	if err := validation.ValidateName(firstName); err != nil {
		return nil, nil, apperr.Validation(err.Error())
	}
	if lastName != "" {
		if err := validation.ValidateName(lastName); err != nil {
			return nil, nil, apperr.Validation(err.Error())
		}
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, apperr.Validation(err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, nil, apperr.Validation(err.Error())
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		FirstName:    firstName,
		Email:        email,
		PasswordHash: &hash,
	}
	if lastName != "" {
		user.LastName = &lastName
	}

	if err := s.userRepository.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, nil, apperr.Conflict("username or email taken already")
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.issueVerificationCode(user); err != nil {
		return nil, nil, apperr.Dependency("could not send verification email", err)
	}

	pair, err := s.openSession(user, "")
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, pair, nil
}

// Login authenticates by the exact username and email pair. An unverified user
// gets a fresh verification code instead of a session.
func (s *AuthService) Login(username, email, password string) (*model.User, *TokenPair, error) {
	username = validation.NormalizeUsername(username)
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByUsernameAndEmail(username, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperr.NotFound("user not found")
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsVerified {
		if err := s.issueVerificationCode(user); err != nil {
			return nil, nil, apperr.Dependency("could not send verification email", err)
		}
		return nil, nil, apperr.Auth("verify email first, a new code has been sent")
	}

	if !user.HasPassword() {
		return nil, nil, apperr.Auth("this account signs in with Google")
	}
	if err := s.ComparePassword(password, *user.PasswordHash); err != nil {
		return nil, nil, apperr.Auth("invalid credentials")
	}

	pair, err := s.openSession(user, "")
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user, pair, nil
}

// VerifyEmail consumes a verification code. A miss (wrong or expired code)
// re-issues a fresh code for the caller, who must retry with the new one.
func (s *AuthService) VerifyEmail(user *model.User, code string) error {
	verified, err := s.userRepository.ConsumeVerificationCode(code, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			if issueErr := s.issueVerificationCode(user); issueErr != nil {
				return apperr.Dependency("could not send verification email", issueErr)
			}
			return apperr.Auth("invalid or expired code, a new code has been sent")
		}
		return fmt.Errorf("failed to consume verification code: %w", err)
	}

	slog.Info("email verified", "user_id", verified.ID)
	return nil
}

// ForgotPassword issues a password reset code to the caller's email.
func (s *AuthService) ForgotPassword(user *model.User) error {
	code := GenerateCodeForEmail(s.codeLength)
	expiry := time.Now().Add(s.codeExpiry)

	if err := s.userRepository.SetVerificationCode(user.ID, code, expiry); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	if err := s.emailService.SendPasswordResetEmail(user.Email, user.FirstName, code); err != nil {
		return apperr.Dependency("could not send password reset email", err)
	}
	return nil
}

// ResetPassword requires proof of the old password before the code is even
// consulted. A code miss re-issues a fresh one.
func (s *AuthService) ResetPassword(user *model.User, oldPassword, code, newPassword string) error {
	if !user.HasPassword() {
		return apperr.Auth("this account signs in with Google")
	}
	if err := s.ComparePassword(oldPassword, *user.PasswordHash); err != nil {
		return apperr.Auth("invalid credentials")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperr.Validation(err.Error())
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.userRepository.ConsumePasswordReset(code, hash, time.Now()); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			if issueErr := s.ForgotPassword(user); issueErr != nil {
				return issueErr
			}
			return apperr.Auth("invalid or expired code, a new code has been sent")
		}
		return fmt.Errorf("failed to consume reset code: %w", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// Refresh rotates the token pair. The presented token must equal the persisted
// one; a stale token means it was already rotated or revoked, which is fatal
// for this session.
func (s *AuthService) Refresh(incoming string) (*model.User, *TokenPair, error) {
	claims, err := s.tokenService.VerifyRefreshToken(incoming)
	if err != nil {
		return nil, nil, apperr.Auth("invalid or expired refresh token")
	}

	user, err := s.userRepository.ByID(claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperr.Auth("invalid or expired refresh token")
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	next, err := s.tokenService.GenerateRefreshToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.userRepository.RotateRefreshToken(user.ID, incoming, next); err != nil {
		if errors.Is(err, repository.ErrTokenMismatch) {
			return nil, nil, apperr.Auth("refresh token expired or used")
		}
		return nil, nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	access, err := s.tokenService.GenerateAccessToken(user, "")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return user, &TokenPair{AccessToken: access, RefreshToken: next}, nil
}

// Logout revokes the persisted refresh token. Idempotent: logging out twice
// is not an error.
func (s *AuthService) Logout(userID string) error {
	if err := s.userRepository.SetRefreshToken(userID, ""); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	slog.Info("user logged out", "user_id", userID)
	return nil
}

// AuthenticateOAuth resolves a verified provider profile into a local user,
// creating the account on first sight, and opens a session whose tokens carry
// the provider claim.
func (s *AuthService) AuthenticateOAuth(profile OAuthProfile) (*model.User, *TokenPair, error) {
	if profile.ID == "" || profile.Email == "" {
		return nil, nil, apperr.Auth("incomplete provider profile")
	}

	user, err := s.userRepository.ByGoogleIdentity(profile.ID, profile.Provider)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.createOAuthUser(profile)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("new OAuth user created",
			"user_id", user.ID, "provider", profile.Provider)
	}

	pair, err := s.openSession(user, profile.Provider)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user authenticated via OAuth", "user_id", user.ID, "provider", profile.Provider)
	return user, pair, nil
}

func (s *AuthService) createOAuthUser(profile OAuthProfile) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(profile.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperr.Auth("provider returned an invalid email")
	}

	firstName := strings.TrimSpace(profile.FirstName)
	if firstName == "" {
		firstName = strings.Split(email, "@")[0]
	}

	user := &model.User{
		ID:         uuid.New().String(),
		Username:   s.usernameFromEmail(email),
		FirstName:  firstName,
		Email:      email,
		IsVerified: true, // provider attested the email
		Provider:   &profile.Provider,
		GoogleID:   &profile.ID,
	}
	if lastName := strings.TrimSpace(profile.LastName); lastName != "" {
		user.LastName = &lastName
	}
	if profile.Avatar != "" {
		avatar := profile.Avatar
		user.Avatar = &avatar
	}

	if err := s.userRepository.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			// email already registered locally or username race, retry
			// with a suffixed username once
			user.Username = user.Username + "-" + uuid.New().String()[:8]
			if retryErr := s.userRepository.Create(user); retryErr != nil {
				return nil, apperr.Conflict("username or email taken already")
			}
			return user, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// usernameFromEmail derives a valid username from the email local part.
func (s *AuthService) usernameFromEmail(email string) string {
	local := strings.Split(email, "@")[0]
	local = validation.NormalizeUsername(local)

	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	username := b.String()
	if username == "" {
		username = "user-" + uuid.New().String()[:8]
	}
	return username
}

// openSession issues a token pair and persists the refresh token, replacing
// any prior session.
func (s *AuthService) openSession(user *model.User, provider string) (*TokenPair, error) {
	access, err := s.tokenService.GenerateAccessToken(user, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.tokenService.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.userRepository.SetRefreshToken(user.ID, refresh); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) issueVerificationCode(user *model.User) error {
	code := GenerateCodeForEmail(s.codeLength)
	expiry := time.Now().Add(s.codeExpiry)

	if err := s.userRepository.SetVerificationCode(user.ID, code, expiry); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return s.emailService.SendVerificationEmail(user.Email, user.FirstName, code)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
