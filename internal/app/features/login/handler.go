// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/ufarent/ufarent/internal/app/features/errors"
	profilestore "github.com/ufarent/ufarent/internal/app/store/profiles"
	"github.com/ufarent/ufarent/internal/app/system/auditlog"
	"github.com/ufarent/ufarent/internal/app/system/auth"
	"github.com/ufarent/ufarent/internal/app/system/authutil"
	"github.com/ufarent/ufarent/internal/app/system/inputval"
	"github.com/ufarent/ufarent/internal/app/system/normalize"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/ufarent/ufarent/internal/app/system/viewdata"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Profiles      *profilestore.Store
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	GoogleEnabled bool
}

func NewHandler(
	profiles *profilestore.Store,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Profiles:      profiles,
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      audit,
		GoogleEnabled: googleEnabled,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

type registerFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	FullName      string
	PasswordRules string
}

type changePasswordFormData struct {
	viewdata.BaseVM
	Error         string
	Success       bool
	PasswordRules string
}

// ServeLogin handles GET /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Вход", "/"),
		ReturnURL:     query.Get(r, "return"),
		GoogleEnabled: h.GoogleEnabled,
	})
}

// HandleLoginPost handles POST /login.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form", err, "Некорректные данные формы.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if email == "" || password == "" {
		h.renderLoginError(w, r, "Введите эл. почту и пароль.", email, ret)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByEmail(ctx, email)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile by email", err, "Произошла ошибка сервера.", "/login")
		return
	}
	if p == nil {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		h.renderLoginError(w, r, "Аккаунт с такой почтой не найден.", email, ret)
		return
	}

	if p.PasswordHash == nil || *p.PasswordHash == "" {
		// Google-only account.
		h.renderLoginError(w, r, "Этот аккаунт использует вход через Google.", email, ret)
		return
	}

	if !authutil.CheckPassword(*p.PasswordHash, password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, p.ID, email)
		h.renderLoginError(w, r, "Неверный пароль.", email, ret)
		return
	}

	h.completeSignIn(w, r, p, ret, models.AuthMethodPassword)
}

// ServeRegister handles GET /register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Регистрация", "/login"),
		PasswordRules: authutil.PasswordRules(),
	})
}

// HandleRegisterPost handles POST /register. New accounts always start with
// the user role.
func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse register form", err, "Некорректные данные формы.", "/register")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	fullName := normalize.Name(r.FormValue("full_name"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	renderErr := func(msg string) {
		templates.Render(w, r, "register", registerFormData{
			BaseVM:        viewdata.NewBaseVM(r, "Регистрация", "/login"),
			Error:         msg,
			Email:         email,
			FullName:      fullName,
			PasswordRules: authutil.PasswordRules(),
		})
	}

	if !inputval.IsValidEmail(email) {
		renderErr("Введите корректный адрес эл. почты.")
		return
	}
	if password != confirm {
		renderErr("Пароли не совпадают.")
		return
	}
	if msg := authutil.ValidatePassword(password); msg != "" {
		renderErr(msg)
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "Произошла ошибка сервера.", "/register")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Profiles.Create(ctx, models.Profile{
		Email:        email,
		FullName:     fullName,
		AuthMethod:   models.AuthMethodPassword,
		PasswordHash: &hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, profilestore.ErrDuplicateEmail) {
			renderErr("Аккаунт с такой почтой уже существует.")
			return
		}
		h.ErrLog.LogServerError(w, r, "create profile", err, "Произошла ошибка сервера.", "/register")
		return
	}

	h.AuditLog.UserRegistered(ctx, r, created.ID, models.AuthMethodPassword, email)
	h.completeSignIn(w, r, &created, "", models.AuthMethodPassword)
}

// ServeChangePassword handles GET /login/change-password for signed-in users.
func (h *Handler) ServeChangePassword(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "change_password", changePasswordFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Смена пароля", "/dashboard"),
		PasswordRules: authutil.PasswordRules(),
	})
}

// HandleChangePassword handles POST /login/change-password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse change-password form", err, "Некорректные данные формы.", "/login/change-password")
		return
	}

	renderErr := func(msg string) {
		templates.Render(w, r, "change_password", changePasswordFormData{
			BaseVM:        viewdata.NewBaseVM(r, "Смена пароля", "/dashboard"),
			Error:         msg,
			PasswordRules: authutil.PasswordRules(),
		})
	}

	current := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if newPassword != confirm {
		renderErr("Пароли не совпадают.")
		return
	}
	if msg := authutil.ValidatePassword(newPassword); msg != "" {
		renderErr(msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	oid, err := parseObjectID(u.ID)
	if err != nil {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	p, err := h.Profiles.GetByID(ctx, oid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile for password change", err, "Произошла ошибка сервера.", "/dashboard")
		return
	}
	if p == nil {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if p.PasswordHash != nil && *p.PasswordHash != "" {
		if !authutil.CheckPassword(*p.PasswordHash, current) {
			renderErr("Неверный текущий пароль.")
			return
		}
	}

	hash, err := authutil.HashPassword(newPassword)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash new password", err, "Произошла ошибка сервера.", "/dashboard")
		return
	}

	if err := h.Profiles.UpdatePassword(ctx, p.ID, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "update password", err, "Произошла ошибка сервера.", "/dashboard")
		return
	}

	h.AuditLog.PasswordChanged(ctx, r, p.ID)

	templates.Render(w, r, "change_password", changePasswordFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Смена пароля", "/dashboard"),
		Success:       true,
		PasswordRules: authutil.PasswordRules(),
	})
}

func (h *Handler) completeSignIn(w http.ResponseWriter, r *http.Request, p *models.Profile, returnURL, authMethod string) {
	su := &auth.SessionUser{
		ID:            p.ID.Hex(),
		Name:          p.FullName,
		Email:         p.Email,
		Role:          p.Role,
		CanViewPhones: p.CanViewPhones,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("email", p.Email))
		h.renderLoginError(w, r, "Не удалось создать сессию. Попробуйте ещё раз.", p.Email, returnURL)
		return
	}

	h.AuditLog.LoginSuccess(r.Context(), r, p.ID, authMethod, p.Email)

	dest := urlutil.SafeReturn(returnURL, "", "/dashboard")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// parseObjectID parses a hex string into a MongoDB ObjectID.
func parseObjectID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, msg, email, returnURL string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Вход", "/"),
		Error:         msg,
		Email:         email,
		ReturnURL:     returnURL,
		GoogleEnabled: h.GoogleEnabled,
	})
}
