package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/alerts"
	"github.com/mamadbah2/herdbook/internal/service/herd"
	"github.com/mamadbah2/herdbook/internal/service/repro"
)

// ActorHeader names the caller recorded on audited writes.
const ActorHeader = "X-Actor"

// HerdService is the herd operations exposed over HTTP.
type HerdService interface {
	Milestones(ctx context.Context, farmID string) (herd.MilestoneSet, error)
	Calendar(ctx context.Context, farmID string, anchor time.Time) (alerts.CalendarView, error)
	ReproState(ctx context.Context, farmID, cowID string) (repro.ReproState, error)

	CreateConfirmation(ctx context.Context, farmID string, req alerts.ConfirmationRequest) (models.Confirmation, error)
	UndoConfirmation(ctx context.Context, farmID, id string) (models.Confirmation, error)

	RecordInsemination(ctx context.Context, farmID, cowID string, req herd.InseminationRequest) (models.BreedingEvent, error)
	ConfirmPregnancy(ctx context.Context, farmID, eventID, actor string) (models.BreedingEvent, error)
	UnconfirmPregnancy(ctx context.Context, farmID, eventID, actor string) (models.BreedingEvent, error)
	MarkFailed(ctx context.Context, farmID, eventID, actor string) (models.BreedingEvent, error)
	RecordCalving(ctx context.Context, farmID, cowID string, req herd.CalvingRequest) (herd.CalvingResult, error)
	GraduateDue(ctx context.Context, farmID string) (herd.GraduationReport, error)

	Settings(ctx context.Context, farmID string) (models.TimingConfig, error)
	UpdateSettings(ctx context.Context, farmID string, doc models.SettingsDocument) (models.TimingConfig, error)
}

// DigestService renders and delivers the daily digest.
type DigestService interface {
	Digest(ctx context.Context, farmID string) (string, error)
	SendDigest(ctx context.Context, farmID, to string) (string, error)
}

// ExportService writes milestones to the spreadsheet.
type ExportService interface {
	ExportMilestones(ctx context.Context, farmID string) (int, error)
}

// HerdHandler serves the herd API.
type HerdHandler struct {
	svc     HerdService
	digests DigestService
	export  ExportService
	logger  *zap.Logger
}

// NewHerdHandler constructs the HTTP handler adapter. export may be nil when
// the spreadsheet is not configured.
func NewHerdHandler(svc HerdService, digests DigestService, export ExportService, logger *zap.Logger) *HerdHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HerdHandler{svc: svc, digests: digests, export: export, logger: logger}
}

type inseminationBody struct {
	Date  string `json:"date"`
	Notes string `json:"notes"`
	Force bool   `json:"force"`
}

type calvingBody struct {
	Date string        `json:"date"`
	Calf *herd.NewCalf `json:"calf"`
}

type confirmationBody struct {
	EntityType models.EntityType    `json:"entity_type" binding:"required"`
	EntityID   string               `json:"entity_id" binding:"required"`
	Type       models.MilestoneType `json:"type" binding:"required"`
	When       string               `json:"when" binding:"required"`
	AlertOn    string               `json:"alert_on"`
	Note       string               `json:"note"`
}

type digestBody struct {
	To string `json:"to"`
}

// Milestones lists the farm's active milestones.
func (h *HerdHandler) Milestones(c *gin.Context) {
	set, err := h.svc.Milestones(c.Request.Context(), c.Param("farmID"))
	if err != nil {
		h.fail(c, "list milestones", err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// Calendar returns the week and month views around the anchor query date.
func (h *HerdHandler) Calendar(c *gin.Context) {
	var anchor time.Time
	if raw := c.Query("anchor"); raw != "" {
		d, err := dates.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "anchor must be YYYY-MM-DD"})
			return
		}
		anchor = d
	}

	view, err := h.svc.Calendar(c.Request.Context(), c.Param("farmID"), anchor)
	if err != nil {
		h.fail(c, "build calendar", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Reproduction returns a cow's reproductive state.
func (h *HerdHandler) Reproduction(c *gin.Context) {
	state, err := h.svc.ReproState(c.Request.Context(), c.Param("farmID"), c.Param("cowID"))
	if err != nil {
		h.fail(c, "compute reproductive state", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// CreateConfirmation acknowledges one milestone occurrence.
func (h *HerdHandler) CreateConfirmation(c *gin.Context) {
	var body confirmationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	when, err := dates.Parse(body.When)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "when must be YYYY-MM-DD"})
		return
	}
	req := alerts.ConfirmationRequest{
		EntityType: body.EntityType,
		EntityID:   body.EntityID,
		Type:       body.Type,
		When:       when,
		Note:       body.Note,
	}
	if body.AlertOn != "" {
		alertOn, err := dates.Parse(body.AlertOn)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "alert_on must be YYYY-MM-DD"})
			return
		}
		req.AlertOn = &alertOn
	}

	conf, err := h.svc.CreateConfirmation(c.Request.Context(), c.Param("farmID"), req)
	if err != nil {
		h.fail(c, "create confirmation", err)
		return
	}
	c.JSON(http.StatusCreated, conf)
}

// UndoConfirmation withdraws a confirmation.
func (h *HerdHandler) UndoConfirmation(c *gin.Context) {
	conf, err := h.svc.UndoConfirmation(c.Request.Context(), c.Param("farmID"), c.Param("id"))
	if err != nil {
		h.fail(c, "undo confirmation", err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

// RecordInsemination adds an insemination attempt.
func (h *HerdHandler) RecordInsemination(c *gin.Context) {
	var body inseminationBody
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	date, ok := optionalDate(c, "date", body.Date)
	if !ok {
		return
	}

	ev, err := h.svc.RecordInsemination(c.Request.Context(), c.Param("farmID"), c.Param("cowID"), herd.InseminationRequest{
		Date:  date,
		Notes: body.Notes,
		Force: body.Force,
		Actor: actor(c),
	})
	if err != nil {
		h.fail(c, "record insemination", err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// RecordCalving sets the cow's calving date and registers an optional newborn.
func (h *HerdHandler) RecordCalving(c *gin.Context) {
	var body calvingBody
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	date, ok := optionalDate(c, "date", body.Date)
	if !ok {
		return
	}

	res, err := h.svc.RecordCalving(c.Request.Context(), c.Param("farmID"), c.Param("cowID"), herd.CalvingRequest{
		Date:  date,
		Calf:  body.Calf,
		Actor: actor(c),
	})
	if err != nil {
		h.fail(c, "record calving", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ConfirmPregnancy marks the latest attempt successful.
func (h *HerdHandler) ConfirmPregnancy(c *gin.Context) {
	h.transition(c, "confirm pregnancy", h.svc.ConfirmPregnancy)
}

// UnconfirmPregnancy reverts a confirmed or failed attempt to pending.
func (h *HerdHandler) UnconfirmPregnancy(c *gin.Context) {
	h.transition(c, "unconfirm pregnancy", h.svc.UnconfirmPregnancy)
}

// MarkFailed marks the latest attempt failed.
func (h *HerdHandler) MarkFailed(c *gin.Context) {
	h.transition(c, "mark insemination failed", h.svc.MarkFailed)
}

type transitionFunc func(ctx context.Context, farmID, eventID, actor string) (models.BreedingEvent, error)

func (h *HerdHandler) transition(c *gin.Context, op string, fn transitionFunc) {
	ev, err := fn(c.Request.Context(), c.Param("farmID"), c.Param("eventID"), actor(c))
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// Graduate runs the graduation batch for one farm.
func (h *HerdHandler) Graduate(c *gin.Context) {
	report, err := h.svc.GraduateDue(c.Request.Context(), c.Param("farmID"))
	if err != nil {
		h.fail(c, "graduate calves", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Digest renders today's digest, and sends it when a recipient is given.
func (h *HerdHandler) Digest(c *gin.Context) {
	var body digestBody
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	farmID := c.Param("farmID")
	if body.To == "" {
		digest, err := h.digests.Digest(c.Request.Context(), farmID)
		if err != nil {
			h.fail(c, "render digest", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"digest": digest, "sent": false})
		return
	}

	digest, err := h.digests.SendDigest(c.Request.Context(), farmID, body.To)
	if err != nil {
		h.logger.Error("failed sending digest", zap.String("farm_id", farmID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send digest"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"digest": digest, "sent": true})
}

// Export writes the farm's milestones to the spreadsheet.
func (h *HerdHandler) Export(c *gin.Context) {
	if h.export == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "spreadsheet export is not configured"})
		return
	}

	rows, err := h.export.ExportMilestones(c.Request.Context(), c.Param("farmID"))
	if err != nil {
		h.logger.Error("failed exporting milestones", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export milestones"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// Settings returns the farm's canonical timing configuration.
func (h *HerdHandler) Settings(c *gin.Context) {
	cfg, err := h.svc.Settings(c.Request.Context(), c.Param("farmID"))
	if err != nil {
		h.fail(c, "load settings", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateSettings stores the farm's settings and returns the canonical result.
func (h *HerdHandler) UpdateSettings(c *gin.Context) {
	var doc models.SettingsDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cfg, err := h.svc.UpdateSettings(c.Request.Context(), c.Param("farmID"), doc)
	if err != nil {
		h.fail(c, "update settings", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// fail maps service errors onto status codes.
func (h *HerdHandler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, herd.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, herd.ErrInvalidTransition), errors.Is(err, herd.ErrInseminationNotAllowed):
		status = http.StatusConflict
	case errors.Is(err, herd.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
		c.JSON(status, gin.H{"error": "failed to " + op})
		return
	}
	h.logger.Warn("request rejected", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func actor(c *gin.Context) string {
	return c.GetHeader(ActorHeader)
}

// bindOptionalJSON binds the body when one is sent.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}

// optionalDate parses raw as YYYY-MM-DD; empty means zero. It writes the 400
// response itself and reports false on a malformed value.
func optionalDate(c *gin.Context, field, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	d, err := dates.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}
