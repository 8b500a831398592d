package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	coredtos "github.com/lodgecrew/lodgecrew/modules/core/presentation/controllers/dtos"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/swap"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/entities/availability"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/constants"
	"github.com/lodgecrew/lodgecrew/pkg/middleware"
	"github.com/lodgecrew/lodgecrew/pkg/serrors"
)

type SchedulingAPIController struct {
	app          application.Application
	periods      *services.SchedulePeriodService
	shifts       *services.ShiftService
	swaps        *services.SwapRequestService
	availability *services.AvailabilityService
	signals      *services.SignalsService
	apiPrefix    string
}

func NewSchedulingAPIController(app application.Application) application.Controller {
	return &SchedulingAPIController{
		app:          app,
		periods:      app.Service(services.SchedulePeriodService{}).(*services.SchedulePeriodService),
		shifts:       app.Service(services.ShiftService{}).(*services.ShiftService),
		swaps:        app.Service(services.SwapRequestService{}).(*services.SwapRequestService),
		availability: app.Service(services.AvailabilityService{}).(*services.AvailabilityService),
		signals:      app.Service(services.SignalsService{}).(*services.SignalsService),
		apiPrefix:    "/api/scheduling/v2",
	}
}

func (c *SchedulingAPIController) Key() string {
	return c.apiPrefix
}

func (c *SchedulingAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(
		middleware.Authorize(c.app),
		middleware.RequireAuthorization(),
	)

	api.HandleFunc("/schedule-periods", c.instrumentAPI("scheduling.periods.list", c.ListPeriods)).Methods(http.MethodGet)
	api.HandleFunc("/schedule-periods", c.instrumentAPI("scheduling.periods.create", c.CreatePeriod)).Methods(http.MethodPost)
	api.HandleFunc("/schedule-periods/{id}/publish", c.instrumentAPI("scheduling.periods.publish", c.PublishPeriod)).Methods(http.MethodPost)
	api.HandleFunc("/schedule-periods/{id}/lock", c.instrumentAPI("scheduling.periods.lock", c.LockPeriod)).Methods(http.MethodPost)
	api.HandleFunc("/schedule-periods/{id}/publish-events", c.instrumentAPI("scheduling.periods.publish_events", c.ListPublishEvents)).Methods(http.MethodGet)

	api.HandleFunc("/availability", c.instrumentAPI("scheduling.availability.list", c.ListAvailability)).Methods(http.MethodGet)
	api.HandleFunc("/availability", c.instrumentAPI("scheduling.availability.create", c.CreateAvailability)).Methods(http.MethodPost)
	api.HandleFunc("/availability/{id}", c.instrumentAPI("scheduling.availability.delete", c.DeleteAvailability)).Methods(http.MethodDelete)

	api.HandleFunc("/swap-requests", c.instrumentAPI("scheduling.swaps.create", c.CreateSwapRequest)).Methods(http.MethodPost)
	api.HandleFunc("/swap-requests", c.instrumentAPI("scheduling.swaps.list", c.ListSwapRequests)).Methods(http.MethodGet)
	api.HandleFunc("/swap-requests/{id}/cancel", c.instrumentAPI("scheduling.swaps.cancel", c.CancelSwapRequest)).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/approve", c.instrumentAPI("scheduling.swaps.approve", c.ApproveSwapRequest)).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/reject", c.instrumentAPI("scheduling.swaps.reject", c.RejectSwapRequest)).Methods(http.MethodPost)

	api.HandleFunc("/shifts", c.instrumentAPI("scheduling.shifts.list", c.GetShifts)).Methods(http.MethodGet)
	api.HandleFunc("/shifts", c.instrumentAPI("scheduling.shifts.create", c.CreateShift)).Methods(http.MethodPost)
	api.HandleFunc("/shifts/{id}/assign", c.instrumentAPI("scheduling.shifts.assign", c.AssignShift)).Methods(http.MethodPost)
	api.HandleFunc("/shifts/{id}/unassign", c.instrumentAPI("scheduling.shifts.unassign", c.UnassignShift)).Methods(http.MethodPost)
	api.HandleFunc("/open-shifts", c.instrumentAPI("scheduling.shifts.open", c.ListOpenShifts)).Methods(http.MethodGet)

	api.HandleFunc("/signals", c.instrumentAPI("scheduling.signals", c.GetSignals)).Methods(http.MethodGet)
}

type periodResponse struct {
	ID                 string  `json:"id"`
	PropertyID         string  `json:"propertyId"`
	StartDate          string  `json:"startDate"`
	EndDate            string  `json:"endDate"`
	Status             string  `json:"status"`
	Version            int     `json:"version"`
	Name               string  `json:"name,omitempty"`
	PlanningTemplateID *string `json:"planningTemplateId,omitempty"`
	CreatedBy          string  `json:"createdBy"`
	CreatedAt          string  `json:"createdAt"`
	PublishedBy        *string `json:"publishedBy,omitempty"`
	PublishedAt        *string `json:"publishedAt,omitempty"`
	PublishNotes       string  `json:"publishNotes,omitempty"`
	LockedBy           *string `json:"lockedBy,omitempty"`
	LockedAt           *string `json:"lockedAt,omitempty"`
}

func toPeriodResponse(p period.SchedulePeriod) periodResponse {
	return periodResponse{
		ID:                 p.ID().String(),
		PropertyID:         p.PropertyID().String(),
		StartDate:          p.StartDate().UTC().Format("2006-01-02"),
		EndDate:            p.EndDate().UTC().Format("2006-01-02"),
		Status:             string(p.Status()),
		Version:            p.Version(),
		Name:               p.Name(),
		PlanningTemplateID: uuidString(p.PlanningTemplateID()),
		CreatedBy:          p.CreatedBy().String(),
		CreatedAt:          p.CreatedAt().UTC().Format(time.RFC3339),
		PublishedBy:        uuidString(p.PublishedBy()),
		PublishedAt:        timeString(p.PublishedAt()),
		PublishNotes:       p.PublishNotes(),
		LockedBy:           uuidString(p.LockedBy()),
		LockedAt:           timeString(p.LockedAt()),
	}
}

func (c *SchedulingAPIController) ListPeriods(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	propertyID, err := uuid.Parse(r.URL.Query().Get("propertyId"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "propertyId is required")
		return
	}
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "start is invalid")
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "end is invalid")
		return
	}

	filter := period.ListFilter{PropertyID: propertyID}
	if !start.IsZero() {
		filter.Start = &start
	}
	if !end.IsZero() {
		filter.End = &end
	}

	periods, err := c.periods.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	items := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		items = append(items, toPeriodResponse(p))
	}
	writeJSON(w, http.StatusOK, items)
}

type createPeriodRequest struct {
	PropertyID         string  `json:"propertyId" validate:"required,uuid"`
	StartDate          string  `json:"startDate" validate:"required"`
	EndDate            string  `json:"endDate" validate:"required"`
	Name               string  `json:"name"`
	PlanningTemplateID *string `json:"planningTemplateId" validate:"omitempty,uuid"`
}

func (c *SchedulingAPIController) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createPeriodRequest
	if !decodeValid(w, r, requestID, &req) {
		return
	}

	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "propertyId is invalid")
		return
	}
	startDate, err := parseRequiredDate(req.StartDate)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "startDate is invalid")
		return
	}
	endDate, err := parseRequiredDate(req.EndDate)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "endDate is invalid")
		return
	}

	input := services.CreatePeriodInput{
		PropertyID: propertyID,
		StartDate:  startDate,
		EndDate:    endDate,
		Name:       req.Name,
	}
	if req.PlanningTemplateID != nil {
		templateID, err := uuid.Parse(*req.PlanningTemplateID)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "planningTemplateId is invalid")
			return
		}
		input.PlanningTemplateID = &templateID
	}

	created, err := c.periods.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodResponse(created))
}

type publishPeriodRequest struct {
	Notes string `json:"notes"`
}

func (c *SchedulingAPIController) PublishPeriod(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	periodID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	// The body is optional: publishing without notes is the common case.
	var req publishPeriodRequest
	if err := decodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "invalid json body")
		return
	}

	published, err := c.periods.Publish(r.Context(), periodID, req.Notes)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(published))
}

func (c *SchedulingAPIController) LockPeriod(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	periodID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	locked, err := c.periods.Lock(r.Context(), periodID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(locked))
}

func (c *SchedulingAPIController) ListPublishEvents(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	periodID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	events, err := c.periods.ListPublishEvents(r.Context(), periodID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type publishEventResponse struct {
		ID               string `json:"id"`
		SchedulePeriodID string `json:"schedulePeriodId"`
		PublishedBy      string `json:"publishedBy"`
		PublishedAt      string `json:"publishedAt"`
		Notes            string `json:"notes,omitempty"`
	}
	items := make([]publishEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, publishEventResponse{
			ID:               e.ID.String(),
			SchedulePeriodID: e.PeriodID.String(),
			PublishedBy:      e.PublishedBy.String(),
			PublishedAt:      e.PublishedAt.UTC().Format(time.RFC3339),
			Notes:            e.Notes,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type availabilityResponse struct {
	ID             string `json:"id"`
	PropertyID     string `json:"propertyId"`
	EmployeeID     string `json:"employeeId"`
	Date           string `json:"date"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	Type           string `json:"type"`
	RecurrenceRule string `json:"recurrenceRule,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

func toAvailabilityResponse(e availability.Entry) availabilityResponse {
	return availabilityResponse{
		ID:             e.ID.String(),
		PropertyID:     e.PropertyID.String(),
		EmployeeID:     e.EmployeeID.String(),
		Date:           e.Day.UTC().Format("2006-01-02"),
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		Type:           string(e.Kind),
		RecurrenceRule: e.RecurrenceRule,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (c *SchedulingAPIController) ListAvailability(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	propertyID, err := uuid.Parse(r.URL.Query().Get("propertyId"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "propertyId is required")
		return
	}

	input := services.ListAvailabilityInput{PropertyID: propertyID}
	if v := r.URL.Query().Get("employeeId"); v != "" {
		employeeID, err := uuid.Parse(v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "employeeId is invalid")
			return
		}
		input.EmployeeID = &employeeID
	}
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "start is invalid")
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "end is invalid")
		return
	}
	if !start.IsZero() {
		input.Start = &start
	}
	if !end.IsZero() {
		input.End = &end
	}

	entries, err := c.availability.List(r.Context(), input)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	items := make([]availabilityResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toAvailabilityResponse(e))
	}
	writeJSON(w, http.StatusOK, items)
}

type createAvailabilityRequest struct {
	PropertyID     string `json:"propertyId" validate:"required,uuid"`
	EmployeeID     string `json:"employeeId" validate:"omitempty,uuid"`
	Date           string `json:"date" validate:"required"`
	StartTime      string `json:"startTime" validate:"required"`
	EndTime        string `json:"endTime" validate:"required"`
	Type           string `json:"type"`
	RecurrenceRule string `json:"recurrenceRule"`
}

func (c *SchedulingAPIController) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createAvailabilityRequest
	if !decodeValid(w, r, requestID, &req) {
		return
	}

	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "propertyId is invalid")
		return
	}
	day, err := parseRequiredDate(req.Date)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "date is invalid")
		return
	}

	input := services.CreateAvailabilityInput{
		PropertyID:     propertyID,
		Day:            day,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Kind:           req.Type,
		RecurrenceRule: req.RecurrenceRule,
	}
	if strings.TrimSpace(req.EmployeeID) != "" {
		employeeID, err := uuid.Parse(req.EmployeeID)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "employeeId is invalid")
			return
		}
		input.EmployeeID = employeeID
	}

	created, err := c.availability.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAvailabilityResponse(created))
}

func (c *SchedulingAPIController) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := c.availability.Delete(r.Context(), entryID); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type swapResponse struct {
	ID                  string  `json:"id"`
	PropertyID          string  `json:"propertyId"`
	FromShiftPlanID     string  `json:"fromShiftPlanId"`
	RequestorEmployeeID string  `json:"requestorEmployeeId"`
	ToEmployeeID        string  `json:"toEmployeeId"`
	Status              string  `json:"status"`
	DecidedBy           *string `json:"decidedBy,omitempty"`
	DecidedAt           *string `json:"decidedAt,omitempty"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

func toSwapResponse(req swap.Request) swapResponse {
	return swapResponse{
		ID:                  req.ID().String(),
		PropertyID:          req.PropertyID().String(),
		FromShiftPlanID:     req.ShiftPlanID().String(),
		RequestorEmployeeID: req.RequestorEmployeeID().String(),
		ToEmployeeID:        req.TargetEmployeeID().String(),
		Status:              string(req.Status()),
		DecidedBy:           uuidString(req.DecidedBy()),
		DecidedAt:           timeString(req.DecidedAt()),
		CreatedAt:           req.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:           req.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

type createSwapRequest struct {
	PropertyID      string `json:"propertyId" validate:"omitempty,uuid"`
	FromShiftPlanID string `json:"fromShiftPlanId" validate:"required,uuid"`
	ToEmployeeID    string `json:"toEmployeeId" validate:"required,uuid"`
}

func (c *SchedulingAPIController) CreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createSwapRequest
	if !decodeValid(w, r, requestID, &req) {
		return
	}

	planID, err := uuid.Parse(req.FromShiftPlanID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "fromShiftPlanId is invalid")
		return
	}
	targetID, err := uuid.Parse(req.ToEmployeeID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "toEmployeeId is invalid")
		return
	}

	created, err := c.swaps.Create(r.Context(), services.CreateSwapInput{
		FromShiftPlanID: planID,
		ToEmployeeID:    targetID,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	// Idempotent replay of a pending request is reported as a creation too.
	writeJSON(w, http.StatusCreated, toSwapResponse(created))
}

func (c *SchedulingAPIController) ListSwapRequests(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	propertyID, err := uuid.Parse(r.URL.Query().Get("propertyId"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "propertyId is required")
		return
	}

	input := services.ListSwapsInput{PropertyID: propertyID}
	if v := r.URL.Query().Get("status"); v != "" {
		status := swap.Status(v)
		if !status.IsValid() {
			writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "status is invalid")
			return
		}
		input.Status = &status
	}

	requests, err := c.swaps.List(r.Context(), input)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	items := make([]swapResponse, 0, len(requests))
	for _, req := range requests {
		items = append(items, toSwapResponse(req))
	}
	writeJSON(w, http.StatusOK, items)
}

func (c *SchedulingAPIController) CancelSwapRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	swapID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	canceled, err := c.swaps.Cancel(r.Context(), swapID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toSwapResponse(canceled))
}

func (c *SchedulingAPIController) ApproveSwapRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	swapID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	decision, err := c.swaps.Approve(r.Context(), swapID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type approveResponse struct {
		Request swapResponse  `json:"request"`
		Shift   shiftResponse `json:"shift"`
	}
	writeJSON(w, http.StatusOK, approveResponse{
		Request: toSwapResponse(decision.Request),
		Shift:   toShiftResponse(decision.Shift),
	})
}

func (c *SchedulingAPIController) RejectSwapRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	swapID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	rejected, err := c.swaps.Reject(r.Context(), swapID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toSwapResponse(rejected))
}

type assignmentResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	AssignedBy string `json:"assignedBy"`
	AssignedAt string `json:"assignedAt"`
}

type shiftResponse struct {
	ID                  string               `json:"id"`
	PropertyID          string               `json:"propertyId"`
	SchedulePeriodID    string               `json:"schedulePeriodId"`
	DepartmentID        string               `json:"departmentId"`
	JobRoleID           string               `json:"jobRoleId"`
	StartDateTime       string               `json:"startDateTime"`
	EndDateTime         string               `json:"endDateTime"`
	BreakMinutes        int                  `json:"breakMinutes"`
	IsOpenShift         bool                 `json:"isOpenShift"`
	AssignedEmployeeIDs []string             `json:"assignedEmployeeIds"`
	Assignments         []assignmentResponse `json:"assignments"`
}

func toShiftResponse(s services.ShiftWithAssignments) shiftResponse {
	assignedIDs := make([]string, 0, len(s.Assignments))
	assignments := make([]assignmentResponse, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		assignedIDs = append(assignedIDs, a.EmployeeID.String())
		assignments = append(assignments, assignmentResponse{
			ID:         a.ID.String(),
			EmployeeID: a.EmployeeID.String(),
			AssignedBy: a.AssignedBy.String(),
			AssignedAt: a.AssignedAt.UTC().Format(time.RFC3339),
		})
	}
	return shiftResponse{
		ID:                  s.Plan.ID.String(),
		PropertyID:          s.Plan.PropertyID.String(),
		SchedulePeriodID:    s.Plan.SchedulePeriodID.String(),
		DepartmentID:        s.Plan.DepartmentID.String(),
		JobRoleID:           s.Plan.JobRoleID.String(),
		StartDateTime:       s.Plan.StartAt.UTC().Format(time.RFC3339),
		EndDateTime:         s.Plan.EndAt.UTC().Format(time.RFC3339),
		BreakMinutes:        s.Plan.BreakMinutes,
		IsOpenShift:         s.Plan.IsOpenShift,
		AssignedEmployeeIDs: assignedIDs,
		Assignments:         assignments,
	}
}

func (c *SchedulingAPIController) GetShifts(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	propertyID, err := uuid.Parse(r.URL.Query().Get("propertyId"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "propertyId is required")
		return
	}
	start, end, ok := requireWindow(w, r, requestID)
	if !ok {
		return
	}

	filter := shift.PlanFilter{PropertyID: propertyID, Start: start, End: end}
	if v := r.URL.Query().Get("schedulePeriodId"); v != "" {
		periodID, err := uuid.Parse(v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "schedulePeriodId is invalid")
			return
		}
		filter.SchedulePeriodID = &periodID
	}

	shifts, err := c.shifts.GetShifts(r.Context(), filter)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	items := make([]shiftResponse, 0, len(shifts))
	for _, s := range shifts {
		items = append(items, toShiftResponse(s))
	}
	writeJSON(w, http.StatusOK, items)
}

func (c *SchedulingAPIController) ListOpenShifts(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	propertyID, err := uuid.Parse(r.URL.Query().Get("propertyId"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "propertyId is required")
		return
	}
	start, end, ok := requireWindow(w, r, requestID)
	if !ok {
		return
	}

	includeIneligible := false
	if v := r.URL.Query().Get("includeIneligible"); v != "" {
		includeIneligible, err = strconv.ParseBool(v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "includeIneligible is invalid")
			return
		}
	}

	shifts, err := c.shifts.ListOpenShifts(r.Context(), propertyID, start, end, includeIneligible)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	items := make([]shiftResponse, 0, len(shifts))
	for _, s := range shifts {
		items = append(items, toShiftResponse(s))
	}
	writeJSON(w, http.StatusOK, items)
}

type createShiftRequest struct {
	SchedulePeriodID string `json:"schedulePeriodId" validate:"required,uuid"`
	DepartmentID     string `json:"departmentId" validate:"required,uuid"`
	JobRoleID        string `json:"jobRoleId" validate:"required,uuid"`
	StartDateTime    string `json:"startDateTime" validate:"required"`
	EndDateTime      string `json:"endDateTime" validate:"required"`
	BreakMinutes     int    `json:"breakMinutes"`
	IsOpenShift      bool   `json:"isOpenShift"`
}

func (c *SchedulingAPIController) CreateShift(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createShiftRequest
	if !decodeValid(w, r, requestID, &req) {
		return
	}

	periodID, err := uuid.Parse(req.SchedulePeriodID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "schedulePeriodId is invalid")
		return
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "departmentId is invalid")
		return
	}
	jobRoleID, err := uuid.Parse(req.JobRoleID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "jobRoleId is invalid")
		return
	}
	startAt, err := parseDateTime(req.StartDateTime)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "startDateTime is invalid")
		return
	}
	endAt, err := parseDateTime(req.EndDateTime)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "endDateTime is invalid")
		return
	}

	created, err := c.shifts.CreateShift(r.Context(), services.CreateShiftInput{
		SchedulePeriodID: periodID,
		DepartmentID:     departmentID,
		JobRoleID:        jobRoleID,
		StartAt:          startAt,
		EndAt:            endAt,
		BreakMinutes:     req.BreakMinutes,
		IsOpenShift:      req.IsOpenShift,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftResponse(services.ShiftWithAssignments{
		Plan:        created,
		Assignments: []shift.Assignment{},
	}))
}

type assignShiftRequest struct {
	EmployeeID string `json:"employeeId" validate:"required,uuid"`
}

func (c *SchedulingAPIController) AssignShift(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req assignShiftRequest
	if !decodeValid(w, r, requestID, &req) {
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "employeeId is invalid")
		return
	}

	assigned, err := c.shifts.AssignShift(r.Context(), planID, employeeID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftResponse(assigned))
}

func (c *SchedulingAPIController) UnassignShift(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req assignShiftRequest
	if !decodeValid(w, r, requestID, &req) {
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "employeeId is invalid")
		return
	}

	unassigned, err := c.shifts.UnassignShift(r.Context(), planID, employeeID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftResponse(unassigned))
}

func (c *SchedulingAPIController) GetSignals(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requireSession(w, r)
	if !ok {
		return
	}

	propertyID, err := uuid.Parse(r.URL.Query().Get("propertyId"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "propertyId is required")
		return
	}

	signals, err := c.signals.Get(r.Context(), propertyID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type signalsResponse struct {
		PendingSwapRequests int    `json:"pendingSwapRequests"`
		OpenShifts          int    `json:"openShifts"`
		UnassignedShifts    int    `json:"unassignedShifts"`
		CurrentPeriodStatus string `json:"currentPeriodStatus"`
	}
	writeJSON(w, http.StatusOK, signalsResponse{
		PendingSwapRequests: signals.PendingSwapRequests,
		OpenShifts:          signals.OpenShifts,
		UnassignedShifts:    signals.UnassignedShifts,
		CurrentPeriodStatus: signals.CurrentPeriodStatus,
	})
}

func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	requestID := ensureRequestID(r)

	if _, err := composables.UseSession(r.Context()); err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, "SCHED_NO_SESSION", "no session")
		return requestID, false
	}
	if _, err := composables.UseTenantID(r.Context()); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_NO_TENANT", "no tenant")
		return requestID, false
	}
	return requestID, true
}

func ensureRequestID(r *http.Request) string {
	conf := configuration.Use()
	v := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader))
	if v != "" {
		return v
	}
	v = uuid.NewString()
	r.Header.Set(conf.RequestIDHeader, v)
	return v
}

func pathID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_ID", "id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func requireWindow(w http.ResponseWriter, r *http.Request, requestID string) (time.Time, time.Time, bool) {
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil || start.IsZero() {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "start is required")
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil || end.IsZero() {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_QUERY", "end is required")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseRequiredDate(v string) (time.Time, error) {
	t, err := parseDate(v)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return time.Time{}, errors.New("date is required")
	}
	return t, nil
}

func parseDateTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// decodeValid decodes the JSON body and applies the struct's validate tags.
// The first failing field is reported by its wire name.
func decodeValid(w http.ResponseWriter, r *http.Request, requestID string, out any) bool {
	if err := decodeJSON(r.Body, out); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "invalid json body")
		return false
	}
	err := constants.Validate.Struct(out)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if fieldErr := serrors.ProcessValidatorErrors(verrs, nil)[verrs[0].Field()]; fieldErr != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", fieldErr.Message)
			return false
		}
	}
	writeAPIError(w, http.StatusBadRequest, requestID, "SCHED_INVALID_BODY", "invalid body")
	return false
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, requestID, "SCHED_INTERNAL", err.Error())
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	writeJSON(w, status, coredtos.APIError{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func uuidString(v *uuid.UUID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func timeString(v *time.Time) *string {
	if v == nil {
		return nil
	}
	s := v.UTC().Format(time.RFC3339)
	return &s
}
