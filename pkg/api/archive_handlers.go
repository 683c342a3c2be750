package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/dronecontrols/pkg/archive"
	"github.com/open-teleop/dronecontrols/pkg/export"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
)

// RecordingStore is the part of the archive the handlers need.
type RecordingStore interface {
	List(ctx context.Context, opts archive.ListOptions) ([]archive.Recording, error)
	Get(ctx context.Context, id string) (*archive.Recording, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// seriesRenderers render one exported series file from an archived recording.
var seriesRenderers = map[string]func(export.Series) []string{
	"trajectory": export.TrajectoryLines,
	"times":      export.TimeLines,
	"velocities": export.VelocityLines,
	"distances":  export.DistanceLines,
}

// ArchiveHandler serves archived recordings.
type ArchiveHandler struct {
	store  RecordingStore
	logger customlog.Logger
}

// RegisterArchiveRoutes registers the recording archive endpoints.
func RegisterArchiveRoutes(app *fiber.App, store RecordingStore, logger customlog.Logger) {
	h := &ArchiveHandler{store: store, logger: logger}

	group := app.Group("/api/v1/recordings")
	group.Get("/", h.handleList)
	group.Get("/:id", h.handleGet)
	group.Get("/:id/:series", h.handleSeries)
	group.Delete("/:id", h.handleDelete)

	logger.Infof("Registered recording archive API endpoints under /api/v1/recordings")
}

func (h *ArchiveHandler) handleList(c *fiber.Ctx) error {
	opts := archive.ListOptions{
		Reason: c.Query("reason"),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	recs, err := h.store.List(c.UserContext(), opts)
	if err != nil {
		h.logger.Errorf("Failed to list recordings: %v", err)
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	total, err := h.store.Count(c.UserContext())
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"total":      total,
		"recordings": recs,
	})
}

func (h *ArchiveHandler) handleGet(c *fiber.Ctx) error {
	rec, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(rec)
}

// handleSeries renders an archived recording in the exported file format.
func (h *ArchiveHandler) handleSeries(c *fiber.Ctx) error {
	render, ok := seriesRenderers[c.Params("series")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, errors.New("unknown series "+c.Params("series")))
	}
	rec, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storeError(c, err)
	}

	var b strings.Builder
	for _, line := range render(rec.Series()) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(b.String())
}

func (h *ArchiveHandler) handleDelete(c *fiber.Ctx) error {
	if err := h.store.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.storeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *ArchiveHandler) storeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, archive.ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, err)
	}
	h.logger.Errorf("Recording archive error: %v", err)
	return errorJSON(c, http.StatusInternalServerError, err)
}
