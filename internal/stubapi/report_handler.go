package stubapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cyberguard/internal/auth"
	"cyberguard/internal/model"
)

// ReportHandler serves incident reports.
type ReportHandler struct {
	store *Store
	jwt   *auth.JWTService
}

// NewReportHandler creates a report handler. jwtService lets the public
// submission endpoint attribute a report when a valid bearer is present.
func NewReportHandler(store *Store, jwtService *auth.JWTService) *ReportHandler {
	return &ReportHandler{store: store, jwt: jwtService}
}

// ListReports handles GET /reports.
func (h *ReportHandler) ListReports(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Reports())
}

// FlaggedReports handles GET /reports/flagged.
func (h *ReportHandler) FlaggedReports(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.FlaggedReports())
}

// GetReport handles GET /reports/:id.
func (h *ReportHandler) GetReport(c echo.Context) error {
	report, err := h.store.Report(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// CreateReport handles POST /reports. No session is needed.
func (h *ReportHandler) CreateReport(c echo.Context) error {
	var req model.ReportInput
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	req.Description = strings.TrimSpace(req.Description)
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	var createdBy string
	if !req.Anonymous {
		createdBy = h.reporter(c)
	}
	return c.JSON(http.StatusCreated, h.store.CreateReport(req, createdBy))
}

func (h *ReportHandler) reporter(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		return ""
	}
	return claims.UserID
}

// FlagReport handles PATCH /reports/:id/flag.
func (h *ReportHandler) FlagReport(c echo.Context) error {
	if err := h.store.FlagReport(c.Param("id")); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Report flagged")
}

// DeleteReport handles DELETE /reports/:id.
func (h *ReportHandler) DeleteReport(c echo.Context) error {
	if err := h.store.DeleteReport(c.Param("id")); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Report deleted")
}

// React handles PATCH /reports/:id/react.
func (h *ReportHandler) React(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	var req model.ReactInput
	if err := bind(c, &req); err != nil {
		return err
	}
	reaction := model.Reaction{Emoji: req.Emoji, UserID: user.ID, Username: user.Username}
	if err := h.store.ReactReport(c.Param("id"), reaction); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Reaction saved")
}

// UpdateProgress handles PATCH /reports/:id/progress. A pending report moves
// to reviewed.
func (h *ReportHandler) UpdateProgress(c echo.Context) error {
	return h.addUpdate(c, model.StatusReviewed)
}

// AddUpdate handles POST /reports/:id/update.
func (h *ReportHandler) AddUpdate(c echo.Context) error {
	return h.addUpdate(c, "")
}

func (h *ReportHandler) addUpdate(c echo.Context, status model.ReportStatus) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	var req model.ProgressInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if status != "" {
		if current, err := h.store.Report(c.Param("id")); err == nil && current.Status != model.StatusPending {
			status = ""
		}
	}
	if err := h.store.AddReportUpdate(c.Param("id"), req.Message, user.Username, status); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Report updated")
}
