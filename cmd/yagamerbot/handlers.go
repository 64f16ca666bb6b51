package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deanogram/yagamerbot2.0/moderation"
)

type classifyRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

func (s *Server) HandleClassify(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	verdict, err := s.engine.ProcessMessage(c.Request().Context(), req.UserID, req.Text, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verdict)
}

// sanctionRequest covers the staff-gated sanction commands. ActorID is the
// staff member issuing the command; authorization happens here, not in the
// engine.
type sanctionRequest struct {
	ActorID     int64  `json:"actor_id"`
	UserID      int64  `json:"user_id"`
	DurationSec int64  `json:"duration_sec,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func (s *Server) bindStaffRequest(c echo.Context) (*sanctionRequest, error) {
	var req sanctionRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	staff, err := s.engine.Roles.IsStaff(c.Request().Context(), req.ActorID)
	if err != nil {
		return nil, err
	}
	if !staff {
		return nil, echo.NewHTTPError(http.StatusForbidden, "moderator role required")
	}
	return &req, nil
}

func (s *Server) HandleMute(c echo.Context) error {
	req, err := s.bindStaffRequest(c)
	if err != nil {
		return err
	}
	dur := time.Duration(req.DurationSec) * time.Second
	if err := s.engine.Mute(c.Request().Context(), req.UserID, dur, req.ActorID, req.Reason, time.Now()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Daemon: "yagamerbot", Status: "ok"})
}

func (s *Server) HandleUnmute(c echo.Context) error {
	req, err := s.bindStaffRequest(c)
	if err != nil {
		return err
	}
	if err := s.engine.Unmute(c.Request().Context(), req.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Daemon: "yagamerbot", Status: "ok"})
}

func (s *Server) HandleBan(c echo.Context) error {
	req, err := s.bindStaffRequest(c)
	if err != nil {
		return err
	}
	dur := time.Duration(req.DurationSec) * time.Second
	if err := s.engine.Ban(c.Request().Context(), req.UserID, dur, req.ActorID, req.Reason, time.Now()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Daemon: "yagamerbot", Status: "ok"})
}

func (s *Server) HandleUnban(c echo.Context) error {
	req, err := s.bindStaffRequest(c)
	if err != nil {
		return err
	}
	if err := s.engine.Unban(c.Request().Context(), req.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Daemon: "yagamerbot", Status: "ok"})
}

type warnResponse struct {
	UserID       int64 `json:"user_id"`
	WarningCount int   `json:"warning_count"`
}

func (s *Server) HandleWarn(c echo.Context) error {
	req, err := s.bindStaffRequest(c)
	if err != nil {
		return err
	}
	count, err := s.engine.Warn(c.Request().Context(), req.UserID, req.ActorID, req.Reason, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, warnResponse{UserID: req.UserID, WarningCount: count})
}

func (s *Server) HandleClearWarnings(c echo.Context) error {
	req, err := s.bindStaffRequest(c)
	if err != nil {
		return err
	}
	if err := s.engine.ClearWarnings(c.Request().Context(), req.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Daemon: "yagamerbot", Status: "ok"})
}

type roleRequest struct {
	ActorID int64  `json:"actor_id"`
	UserID  int64  `json:"user_id"`
	Role    string `json:"role"`
}

func (s *Server) handleRoleChange(c echo.Context, change func(ctx echo.Context, req *roleRequest) error) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	err := change(c, &req)
	switch {
	case errors.Is(err, moderation.ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "owner role required")
	case errors.Is(err, moderation.ErrUnknownRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Daemon: "yagamerbot", Status: "ok"})
}

func (s *Server) HandlePromote(c echo.Context) error {
	return s.handleRoleChange(c, func(c echo.Context, req *roleRequest) error {
		return s.engine.Roles.Promote(c.Request().Context(), req.ActorID, req.UserID, req.Role)
	})
}

func (s *Server) HandleDemote(c echo.Context) error {
	return s.handleRoleChange(c, func(c echo.Context, req *roleRequest) error {
		return s.engine.Roles.Demote(c.Request().Context(), req.ActorID, req.UserID, req.Role)
	})
}

type ruleEntryRequest struct {
	ActorID int64  `json:"actor_id"`
	Value   string `json:"value"`
}

func (s *Server) handleRuleAppend(c echo.Context, add func(ctx echo.Context, val string) error) error {
	var req ruleEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	admin, err := s.engine.Roles.IsAdmin(c.Request().Context(), req.ActorID)
	if err != nil {
		return err
	}
	if !admin {
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}
	if err := add(c, req.Value); err != nil {
		if errors.Is(err, moderation.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Daemon: "yagamerbot", Status: "ok"})
}

func (s *Server) HandleAddBannedWord(c echo.Context) error {
	return s.handleRuleAppend(c, func(c echo.Context, val string) error {
		return s.engine.AddBannedWord(c.Request().Context(), val)
	})
}

func (s *Server) HandleAddBannedLink(c echo.Context) error {
	return s.handleRuleAppend(c, func(c echo.Context, val string) error {
		return s.engine.AddBannedLink(c.Request().Context(), val)
	})
}

func (s *Server) HandleListMutes(c echo.Context) error {
	out, err := s.engine.ListMutes(c.Request().Context(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) HandleListBans(c echo.Context) error {
	out, err := s.engine.ListBans(c.Request().Context(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) HandleListAdmins(c echo.Context) error {
	out, err := s.engine.Roles.ListAdmins(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) HandleListModerators(c echo.Context) error {
	out, err := s.engine.Roles.ListModerators(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func userIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}
	return id, nil
}

func (s *Server) HandleGetWarnings(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	count, err := s.engine.GetWarnings(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, warnResponse{UserID: id, WarningCount: count})
}

type strikesResponse struct {
	UserID  int64 `json:"user_id"`
	Strikes int   `json:"strikes"`
}

func (s *Server) HandleGetStrikes(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	count, err := s.engine.GetStrikes(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, strikesResponse{UserID: id, Strikes: count})
}

func (s *Server) HandleModStats(c echo.Context) error {
	window := 24 * time.Hour
	if raw := c.QueryParam("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid window duration")
		}
		window = parsed
	}
	stats, err := s.engine.ModStats(c.Request().Context(), window, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
