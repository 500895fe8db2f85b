package imports

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ccdbridge/ccdbridge/pkg/pagination"
)

// maxDocumentBytes caps uploaded document size. CCDA exports run a few
// hundred KB; anything past this is not a clinical document.
const maxDocumentBytes = 16 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/imports", h.Import)
	api.GET("/imports", h.List)
	api.GET("/imports/:id", h.Get)
	api.POST("/imports/:id/approve", h.Approve)
	api.POST("/imports/:id/discard", h.Discard)
}

// Import accepts a raw document body. mode=direct applies it without
// review; the default stages it as a pending audit.
func (h *Handler) Import(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(body) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "document body is required")
	}
	if len(body) > maxDocumentBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "document too large")
	}

	res, err := h.svc.ImportDocument(c.Request().Context(), body, ImportOptions{
		Name:     c.QueryParam("name"),
		Direct:   c.QueryParam("mode") == "direct",
		SourceIP: c.RealIP(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := 0
	switch c.QueryParam("status") {
	case "pending":
		status = StatusPending
	case "approved":
		status = StatusApproved
	case "discarded":
		status = StatusDiscarded
	}
	audits, total, err := h.svc.List(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(audits, total, pg.Limit, pg.Offset))
}

type auditDetailResponse struct {
	Audit  *ImportAudit                   `json:"audit"`
	Staged map[string][]map[string]string `json:"staged"`
}

func (h *Handler) Get(c echo.Context) error {
	audit, details, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return importError(err)
	}
	return c.JSON(http.StatusOK, &auditDetailResponse{
		Audit:  audit,
		Staged: OrderedGroups(details),
	})
}

func (h *Handler) Approve(c echo.Context) error {
	var form *ApprovalForm
	if c.Request().ContentLength != 0 {
		form = new(ApprovalForm)
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	res, err := h.svc.Approve(c.Request().Context(), c.Param("id"), form)
	if err != nil {
		return importError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Discard(c echo.Context) error {
	if err := h.svc.Discard(c.Request().Context(), c.Param("id")); err != nil {
		return importError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func importError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotPending):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
