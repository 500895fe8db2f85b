package chart

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ccdbridge/ccdbridge/internal/domain/allergy"
	"github.com/ccdbridge/ccdbridge/internal/domain/careplan"
	"github.com/ccdbridge/ccdbridge/internal/domain/encounter"
	"github.com/ccdbridge/ccdbridge/internal/domain/history"
	"github.com/ccdbridge/ccdbridge/internal/domain/immunization"
	"github.com/ccdbridge/ccdbridge/internal/domain/labs"
	"github.com/ccdbridge/ccdbridge/internal/domain/medication"
	"github.com/ccdbridge/ccdbridge/internal/domain/patient"
	"github.com/ccdbridge/ccdbridge/internal/domain/problem"
	"github.com/ccdbridge/ccdbridge/internal/domain/procedure"
	"github.com/ccdbridge/ccdbridge/internal/domain/referral"
	"github.com/ccdbridge/ccdbridge/internal/domain/vitals"
	"github.com/ccdbridge/ccdbridge/pkg/pagination"
)

// PatientReader serves the demographics the chart hangs off.
type PatientReader interface {
	Get(ctx context.Context, id string) (*patient.Patient, error)
	List(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error)
}

type EncounterReader interface {
	ListByPatient(ctx context.Context, patientID string) ([]*encounter.Encounter, error)
	ListForms(ctx context.Context, encounterID string) ([]*encounter.Form, error)
}

type SectionReaders struct {
	Problems interface {
		ListByPatient(ctx context.Context, patientID string) ([]*problem.Problem, error)
	}
	Allergies interface {
		ListByPatient(ctx context.Context, patientID string) ([]*allergy.Allergy, error)
	}
	Medications interface {
		ListByPatient(ctx context.Context, patientID string) ([]*medication.Medication, error)
	}
	Immunizations interface {
		ListByPatient(ctx context.Context, patientID string) ([]*immunization.Immunization, error)
	}
	Vitals interface {
		ListByPatient(ctx context.Context, patientID string) ([]*vitals.Vitals, error)
	}
	Procedures interface {
		ListByPatient(ctx context.Context, patientID string) ([]*procedure.Procedure, error)
	}
	LabOrders interface {
		ListOrdersByPatient(ctx context.Context, patientID string) ([]*labs.Order, error)
	}
	CarePlans interface {
		ListPlansByPatient(ctx context.Context, patientID string) ([]*careplan.CarePlan, error)
		ListStatusesByPatient(ctx context.Context, patientID string) ([]*careplan.FunctionalStatus, error)
	}
	Referrals interface {
		ListByPatient(ctx context.Context, patientID string) ([]*referral.Referral, error)
	}
	History interface {
		Get(ctx context.Context, patientID string) (*history.SocialHistory, error)
	}
}

// View is the whole reconciled chart for one patient.
type View struct {
	Patient            *patient.Patient             `json:"patient"`
	Encounters         []*encounter.Encounter       `json:"encounters,omitempty"`
	Problems           []*problem.Problem           `json:"problems,omitempty"`
	Allergies          []*allergy.Allergy           `json:"allergies,omitempty"`
	Medications        []*medication.Medication     `json:"medications,omitempty"`
	Immunizations      []*immunization.Immunization `json:"immunizations,omitempty"`
	Vitals             []*vitals.Vitals             `json:"vitals,omitempty"`
	Procedures         []*procedure.Procedure       `json:"procedures,omitempty"`
	LabOrders          []*labs.Order                `json:"lab_orders,omitempty"`
	CarePlans          []*careplan.CarePlan         `json:"care_plans,omitempty"`
	FunctionalStatuses []*careplan.FunctionalStatus `json:"functional_statuses,omitempty"`
	Referrals          []*referral.Referral         `json:"referrals,omitempty"`
	SocialHistory      *history.SocialHistory       `json:"social_history,omitempty"`
}

type Handler struct {
	patients   PatientReader
	encounters EncounterReader
	sections   SectionReaders
}

func NewHandler(patients PatientReader, encounters EncounterReader, sections SectionReaders) *Handler {
	return &Handler{patients: patients, encounters: encounters, sections: sections}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.GET("/patients/:id/chart", h.GetChart)
	api.GET("/patients/:id/encounters", h.ListEncounters)
	api.GET("/encounters/:id/forms", h.ListForms)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.patients.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.patients.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

// GetChart assembles every section for one patient in a single response.
func (h *Handler) GetChart(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	p, err := h.patients.Get(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	view := &View{Patient: p}
	if view.Encounters, err = h.encounters.ListByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.Problems, err = h.sections.Problems.ListByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.Allergies, err = h.sections.Allergies.ListByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.Medications, err = h.sections.Medications.ListByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.Immunizations, err = h.sections.Immunizations.ListByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.Vitals, err = h.sections.Vitals.ListByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.Procedures, err = h.sections.Procedures.ListByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.LabOrders, err = h.sections.LabOrders.ListOrdersByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.CarePlans, err = h.sections.CarePlans.ListPlansByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.FunctionalStatuses, err = h.sections.CarePlans.ListStatusesByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.Referrals, err = h.sections.Referrals.ListByPatient(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if view.SocialHistory, err = h.sections.History.Get(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) ListEncounters(c echo.Context) error {
	encounters, err := h.encounters.ListByPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, encounters)
}

func (h *Handler) ListForms(c echo.Context) error {
	forms, err := h.encounters.ListForms(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, forms)
}
