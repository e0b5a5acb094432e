// internal/app/features/login/handler.go
package login

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/verihub/internal/app/features/errors"
	userstore "github.com/dalemusser/verihub/internal/app/store/users"
	"github.com/dalemusser/verihub/internal/app/system/auditlog"
	"github.com/dalemusser/verihub/internal/app/system/auth"
	"github.com/dalemusser/verihub/internal/app/system/normalize"
	"github.com/dalemusser/verihub/internal/app/system/ratelimit"
	"github.com/dalemusser/verihub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Log        *zap.Logger
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Users:      users,
		SessionMgr: sessionMgr,
		Audit:      audit,
		Limiter:    ratelimit.NewLoginLimiter(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// dummyHash keeps password verification roughly constant-time when the
// account does not exist.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// ServeLogin handles POST /login with a JSON email/password body.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.RenderBadRequest(w, "invalid JSON body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		apierrors.RenderBadRequest(w, "email and password are required")
		return
	}

	if allowed, limitType := h.Limiter.Check(r, email); !allowed {
		h.Audit.LoginFailedRateLimit(r.Context(), r, email, limitType)
		apierrors.Render(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	u, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Burn a bcrypt comparison so the response time does not
			// reveal whether the account exists.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			h.Audit.LoginFailedUserNotFound(r.Context(), r, email)
			apierrors.RenderUnauthorized(w)
			return
		}
		apierrors.RenderInternal(w, h.Log, "login: lookup user", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		h.Audit.LoginFailedWrongPassword(r.Context(), r, u.ID, email)
		apierrors.RenderUnauthorized(w)
		return
	}

	if u.Status != status.Active {
		h.Audit.LoginFailedUserDisabled(r.Context(), r, u.ID, email)
		apierrors.RenderForbidden(w, "account is disabled")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		apierrors.RenderInternal(w, h.Log, "login: save session", err)
		return
	}

	h.Limiter.ResetEmail(email)
	h.Audit.LoginSuccess(r.Context(), r, u.ID, "password", email)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{
		UserID: u.ID.Hex(),
		Name:   u.FullName,
		Role:   u.Role,
	})
}
