package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/config"
	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/middleware"
	"github.com/readium/readium/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	refreshTokenCookie = "refreshToken"
	oauthStateCookie   = "oauth_state"
)

type AuthHandler struct {
	authService       *service.AuthService
	tokenService      *service.TokenService
	googleOAuthConfig *oauth2.Config
	isProduction      bool
}

func NewAuthHandler(authService *service.AuthService, tokenService *service.TokenService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenService: tokenService,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/api/v1/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		isProduction: cfg.IsProduction(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username  string `json:"username"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	user, pair, err := h.authService.Register(service.RegisterInput{
		Username:  body.Username,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Password:  body.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond(w, http.StatusCreated, user, "user registered, verification code sent")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	user, pair, err := h.authService.Login(body.Username, body.Email, body.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond(w, http.StatusOK, user, "logged in")
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.authService.VerifyEmail(principal.User, body.Code); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "email verified")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	if err := h.authService.ForgotPassword(principal.User); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "password reset code sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		OldPassword string `json:"oldPassword"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	err := h.authService.ResetPassword(principal.User, body.OldPassword, body.Code, body.NewPassword)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "password reset")
}

// Refresh rotates the token pair presented in the refresh cookie or body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	incoming := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeJSON(r, &body); err == nil {
			incoming = body.RefreshToken
		}
	}
	if incoming == "" {
		respondError(w, r, apperr.Auth("refresh token missing"))
		return
	}

	user, pair, err := h.authService.Refresh(incoming)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond(w, http.StatusOK, user, "tokens refreshed")
}

// Logout clears the persisted refresh token and both cookies. Safe to call
// repeatedly.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if principal := ctxkeys.Principal(r.Context()); principal != nil {
		if err := h.authService.Logout(principal.User.ID); err != nil {
			respondError(w, r, err)
			return
		}
	}
	h.clearSessionCookies(w)
	respond(w, http.StatusOK, nil, "logged out")
}

// GoogleAuth redirects to the Google consent screen with a CSRF state cookie.
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback validates the state, exchanges the code and opens a session
// for the verified profile.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("google oauth state validation failed", "error", err)
		respondError(w, r, apperr.Auth("oauth authentication failed"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		respondError(w, r, apperr.Auth("oauth authentication failed"))
		return
	}

	token, err := h.googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		respondError(w, r, apperr.Auth("oauth authentication failed"))
		return
	}

	profile, err := h.fetchGoogleProfile(r.Context(), token)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		respondError(w, r, apperr.Auth("oauth authentication failed"))
		return
	}

	user, pair, err := h.authService.AuthenticateOAuth(*profile)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond(w, http.StatusOK, user, "logged in with google")
}

func (h *AuthHandler) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (*service.OAuthProfile, error) {
	client := h.googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &service.OAuthProfile{
		Provider:  "google",
		ID:        userInfo.ID,
		Email:     userInfo.Email,
		FirstName: userInfo.GivenName,
		LastName:  userInfo.FamilyName,
		Avatar:    userInfo.Picture,
	}, nil
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, pair *service.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.tokenService.AccessExpiry()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.tokenService.RefreshExpiry()),
	})
}

func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   h.isProduction,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}

func generateOAuthState() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
