package api

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/calls"
	"github.com/medsync-org/medsync/errors"
	"github.com/medsync-org/medsync/profiles"
	"github.com/medsync-org/medsync/risk"
	"github.com/medsync-org/medsync/signaling"
)

type Handler struct {
	profiles *profiles.Manager
	calls    *calls.Manager
	relay    signaling.Relay
	risk     *risk.Client
	logger   *zap.SugaredLogger
}

type Params struct {
	fx.In

	Profiles *profiles.Manager
	Calls    *calls.Manager
	Relay    signaling.Relay
	Risk     *risk.Client
	Logger   *zap.SugaredLogger
}

func NewHandler(p Params) *Handler {
	return &Handler{
		profiles: p.Profiles,
		calls:    p.Calls,
		relay:    p.Relay,
		risk:     p.Risk,
		logger:   p.Logger,
	}
}

func RegisterRoutes(e *echo.Echo, h *Handler) {
	v1 := e.Group("/v1")
	v1.GET("/patients/:patientId/profile", h.GetMergedProfile)
	v1.GET("/patients/:patientId/intake", h.GetIntakeStatus)
	v1.POST("/patients/:patientId/risk-summary", h.CreateRiskSummary)
	v1.POST("/calls", h.CreateCall)
	v1.GET("/calls/:callId", h.GetCall)
	v1.DELETE("/calls/:callId", h.EndCall)
	v1.GET("/calls/:callId/ws", h.SignalingSocket)
}

func (h *Handler) GetMergedProfile(c echo.Context) error {
	patientId := c.Param("patientId")
	synchronizer, err := h.profiles.GetOrCreate(c.Request().Context(), patientId)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, synchronizer.View())
}

func (h *Handler) GetIntakeStatus(c echo.Context) error {
	patientId := c.Param("patientId")
	synchronizer, err := h.profiles.GetOrCreate(c.Request().Context(), patientId)
	if err != nil {
		return err
	}

	view := synchronizer.View()
	return c.JSON(http.StatusOK, map[string]bool{
		"hasIntakeData":  view.HasIntakeData,
		"intakeComplete": view.IntakeComplete,
	})
}

func (h *Handler) CreateRiskSummary(c echo.Context) error {
	patientId := c.Param("patientId")
	synchronizer, err := h.profiles.GetOrCreate(c.Request().Context(), patientId)
	if err != nil {
		return err
	}

	view := synchronizer.View()
	report, err := h.risk.Summarize(c.Request().Context(), patientId, view.Profile)
	switch {
	case stderrors.Is(err, risk.ErrRejectedRequest):
		return errors.BadRequest
	case stderrors.Is(err, risk.ErrUpstreamUnavailable), stderrors.Is(err, risk.ErrMalformedReport):
		return errors.BadGateway
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, report)
}

type createCallRequest struct {
	PatientId   string `json:"patientId"`
	ClinicianId string `json:"clinicianId"`
}

func (h *Handler) CreateCall(c echo.Context) error {
	request := createCallRequest{}
	if err := c.Bind(&request); err != nil {
		return errors.BadRequest
	}
	if request.PatientId == "" || request.ClinicianId == "" {
		return errors.BadRequest
	}

	descriptor := h.calls.Create(request.PatientId, request.ClinicianId)
	return c.JSON(http.StatusCreated, descriptor)
}

func (h *Handler) GetCall(c echo.Context) error {
	descriptor, ok := h.calls.Get(c.Param("callId"))
	if !ok {
		return errors.NotFound
	}

	return c.JSON(http.StatusOK, descriptor)
}

func (h *Handler) EndCall(c echo.Context) error {
	h.calls.Remove(c.Param("callId"))
	return c.NoContent(http.StatusNoContent)
}
