package api

import (
	"github.com/labstack/echo/v4"

	drepo "WhaleWatch/internal/domain/repository"
	"WhaleWatch/internal/usecase"
	apphttp "WhaleWatch/pkg/http"
	applogger "WhaleWatch/pkg/logger"
)

// SyncRequest triggers one resolution pass. Market and Event are only
// consulted by the direct modes.
type SyncRequest struct {
	Mode   string `json:"mode" default:"due" validate:"oneof=recent due all events_recent market event"`
	Market string `json:"market"`
	Event  string `json:"event"`
}

// RunHandler exposes the manual run triggers and the health probe.
type RunHandler struct {
	ingestor *usecase.Ingestor
	syncer   *usecase.ResolutionSyncer
	store    drepo.Store
	logger   *applogger.Logger
}

func NewRunHandler(
	ingestor *usecase.Ingestor,
	syncer *usecase.ResolutionSyncer,
	store drepo.Store,
	logger *applogger.Logger,
) *RunHandler {
	return &RunHandler{
		ingestor: ingestor,
		syncer:   syncer,
		store:    store,
		logger:   logger,
	}
}

func (h *RunHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/ingest/run", h.runIngest)
	api.POST("/resolution/sync", h.runSync)
	api.GET("/health", h.health)
}

// runIngest executes one ingest run inline and returns its report.
// Overlap with the scheduled run is harmless; every write is an upsert.
func (h *RunHandler) runIngest(c echo.Context) error {
	report := h.ingestor.Run(c.Request().Context())
	return apphttp.SuccessResponse(c, report)
}

func (h *RunHandler) runSync(c echo.Context) error {
	var req SyncRequest
	if errs := apphttp.ReadAndValidateRequest(c, &req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	mode, err := usecase.ParseSyncMode(req.Mode)
	if err != nil {
		return apphttp.AppErrorResponse(c, apphttp.BadRequestError(err.Error()))
	}

	target := ""
	switch mode {
	case usecase.ModeMarket:
		if req.Market == "" {
			return apphttp.AppErrorResponse(c, apphttp.BadRequestError("market is required for mode market"))
		}
		target = req.Market
	case usecase.ModeEvent:
		if req.Event == "" {
			return apphttp.AppErrorResponse(c, apphttp.BadRequestError("event is required for mode event"))
		}
		target = req.Event
	}

	report, err := h.syncer.Run(c.Request().Context(), mode, target)
	if err != nil {
		h.logger.Error("resolution sync failed",
			applogger.String("mode", string(mode)),
			applogger.Error(err))
		return apphttp.AppErrorResponse(c, apphttp.InternalError("resolution sync failed").WithError(err))
	}
	return apphttp.SuccessResponse(c, report)
}

func (h *RunHandler) health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		return apphttp.AppErrorResponse(c, apphttp.InternalError("store unavailable").WithError(err))
	}
	return apphttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
