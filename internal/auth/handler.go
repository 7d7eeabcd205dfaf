package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/amandakfriis/photo-gallery-app/internal/middleware"
	"github.com/amandakfriis/photo-gallery-app/internal/models"
	"github.com/amandakfriis/photo-gallery-app/internal/store"
	"github.com/amandakfriis/photo-gallery-app/internal/web"
)

// dummyHash is a valid bcrypt hash compared against when the username is
// unknown, so that path costs roughly the same as a real mismatch.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, hashedPw string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Sessions is the session-authority surface the handlers need.
type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, token string) error
	TTL() time.Duration
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users      UserStore
	sessions   Sessions
	bcryptCost int
	log        *slog.Logger
}

func NewHandler(users UserStore, sessions Sessions, bcryptCost int, log *slog.Logger) *Handler {
	return &Handler{users: users, sessions: sessions, bcryptCost: bcryptCost, log: log}
}

// Signup creates a new user.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, http.StatusBadRequest, web.KindInvalidRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		web.Error(w, http.StatusBadRequest, web.KindInvalidRequest, "username and password are required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		web.Error(w, http.StatusInternalServerError, web.KindInternal, "internal error")
		return
	}

	if _, err := h.users.CreateUser(r.Context(), req.Username, string(hashed)); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			web.Error(w, http.StatusBadRequest, web.KindDuplicateUsername, "username already exists")
			return
		}
		h.log.Error("signup failed", "error", err)
		web.Error(w, http.StatusInternalServerError, web.KindInternal, "internal error")
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Login authenticates a user and creates a session. An unknown username and
// a wrong password return the identical response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, http.StatusBadRequest, web.KindInvalidRequest, "invalid request body")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("login lookup failed", "error", err)
			web.Error(w, http.StatusInternalServerError, web.KindInternal, "internal error")
			return
		}
		bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
		web.Error(w, http.StatusUnauthorized, web.KindInvalidCredentials, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		web.Error(w, http.StatusUnauthorized, web.KindInvalidCredentials, "invalid credentials")
		return
	}

	token, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.log.Error("session create failed", "error", err)
		web.Error(w, http.StatusInternalServerError, web.KindInternal, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL() / time.Second),
	})

	web.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "userId": user.ID})
}

// Logout destroys the current session. Always succeeds, with or without a
// live session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.log.Warn("session delete failed", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	web.JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, http.StatusNotFound, web.KindNotFound, "user not found")
			return
		}
		h.log.Error("me lookup failed", "error", err)
		web.Error(w, http.StatusInternalServerError, web.KindInternal, "internal error")
		return
	}

	web.JSON(w, http.StatusOK, user)
}
