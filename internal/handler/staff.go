package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boxoffice/internal/config"
	"github.com/iliyamo/boxoffice/internal/middleware"
	"github.com/iliyamo/boxoffice/internal/repository"
	"github.com/iliyamo/boxoffice/internal/service"
	"github.com/iliyamo/boxoffice/internal/utils"
)

// StaffHandler bundles dependencies for box office staff endpoints.
type StaffHandler struct {
	Cfg    config.Config
	Staff  *repository.StaffRepo
	Events *service.Events
	Log    *slog.Logger
}

func NewStaffHandler(cfg config.Config, s *repository.StaffRepo, ev *service.Events, log *slog.Logger) *StaffHandler {
	return &StaffHandler{Cfg: cfg, Staff: s, Events: ev, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type staffPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
type loginResp struct {
	Staff  staffPart `json:"staff"`
	Access tokenPart `json:"access"`
}

type createEventReq struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description"`
	Place       string    `json:"place" validate:"max=200"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
}

// Login: verify credentials and return a staff access token.
func (h *StaffHandler) Login(c echo.Context) error {
	var req loginReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Staff.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return writeError(c, h.Log, err)
	}
	if !utils.VerifyPassword(s.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, s.ID, s.Username, utils.RoleStaff, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		Staff:  staffPart{ID: s.ID, Username: s.Username, Role: utils.RoleStaff},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me returns the identity carried by the access token.
func (h *StaffHandler) Me(c echo.Context) error {
	id, _ := middleware.StaffID(c)
	username, _ := c.Get(middleware.CtxUsername).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	return c.JSON(http.StatusOK, staffPart{ID: id, Username: username, Role: role})
}

// CreateEvent publishes an event.  Every event is sold against the venue
// layout; no seats are created here.
func (h *StaffHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.Create(ctx, service.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Place:       req.Place,
		ImageURL:    req.ImageURL,
		StartsAt:    req.StartsAt,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, ev)
}
