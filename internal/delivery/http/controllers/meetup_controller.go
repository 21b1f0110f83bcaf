package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"meetapp/internal/delivery/http/helpers"
	"meetapp/internal/delivery/http/middleware"
	"meetapp/internal/domain"
)

// CreateMeetupRequest is the request body for POST /meetups.
type CreateMeetupRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	StartTime    *time.Time `json:"start_time"`
	AttachmentID string     `json:"attachment_id"`
}

// Validate implements Validator. Returns error messages for required fields.
func (c CreateMeetupRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		errs = append(errs, "location is required")
	}
	if c.StartTime == nil {
		errs = append(errs, "start_time is required")
	}
	if c.AttachmentID == "" {
		errs = append(errs, "attachment_id is required")
	}
	return errs
}

// UpdateMeetupRequest is the request body for PATCH /meetups/{meetupID}. All fields optional; omitted fields are unchanged.
type UpdateMeetupRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Location     *string    `json:"location"`
	StartTime    *time.Time `json:"start_time"`
	AttachmentID *string    `json:"attachment_id"`
}

func (u UpdateMeetupRequest) patch() domain.MeetupPatch {
	return domain.MeetupPatch{
		Title:        u.Title,
		Description:  u.Description,
		Location:     u.Location,
		StartTime:    u.StartTime,
		AttachmentID: u.AttachmentID,
	}
}

// MeetupSuccessResponse is the success response envelope carrying one meetup.
type MeetupSuccessResponse struct {
	Data  *domain.Meetup    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeleteMeetupResponse is the data returned by DELETE /meetups/{meetupID}.
type DeleteMeetupResponse struct {
	Deleted bool `json:"deleted"`
}

// ListMeetupsResponse is the data returned by GET /meetups.
type ListMeetupsResponse struct {
	Items      []*domain.MeetupListing `json:"items"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// ListMeetupsSuccessResponse is the success response envelope for GET /meetups.
type ListMeetupsSuccessResponse struct {
	Data  ListMeetupsResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// AvailabilityResponse is the data returned by GET /availability.
type AvailabilityResponse struct {
	At   time.Time `json:"at"`
	Busy bool      `json:"busy"`
}

type MeetupController struct {
	Logger  *slog.Logger
	Service domain.MeetupService
}

func NewMeetupController(logger *slog.Logger, svc domain.MeetupService) *MeetupController {
	return &MeetupController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateMeetup godoc
// @Summary Create a meetup
// @Description Schedules a meetup organized by the caller. The start must be in the future and the caller must have no other meetup in the same hour.
// @Tags meetups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meetup body CreateMeetupRequest true "Meetup data"
// @Success 201 {object} controllers.MeetupSuccessResponse "data contains the created meetup"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, past_date, attachment_not_found"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: schedule_conflict"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /meetups [post]
func (c *MeetupController) CreateMeetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateMeetupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	m, err := c.Service.Create(r.Context(), domain.CreateMeetupCommand{
		OrganizerID:  userID,
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		StartTime:    *req.StartTime,
		AttachmentID: req.AttachmentID,
	})
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, m)
}

// UpdateMeetup godoc
// @Summary Update a meetup
// @Description Changes the fields present in the body. Only the organizer may update, and only before the meetup starts.
// @Tags meetups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meetupID path string true "Meetup ID (UUID)"
// @Param meetup body UpdateMeetupRequest true "Fields to change"
// @Success 200 {object} controllers.MeetupSuccessResponse "data contains the updated meetup"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, past_date, attachment_not_found"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: schedule_conflict"
// @Failure 422 {object} helpers.APIResponse "error.code: already_occurred"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /meetups/{meetupID} [patch]
func (c *MeetupController) UpdateMeetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateMeetupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	m, err := c.Service.Update(r.Context(), domain.UpdateMeetupCommand{
		MeetupID: r.PathValue("meetupID"),
		CallerID: userID,
		Patch:    req.patch(),
	})
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// DeleteMeetup godoc
// @Summary Cancel a meetup
// @Description Deletes a meetup that has not started yet, together with its subscriptions. Only the organizer may delete.
// @Tags meetups
// @Produce json
// @Security BearerAuth
// @Param meetupID path string true "Meetup ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data.deleted is true"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 422 {object} helpers.APIResponse "error.code: already_occurred"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /meetups/{meetupID} [delete]
func (c *MeetupController) DeleteMeetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Delete(r.Context(), r.PathValue("meetupID"), userID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteMeetupResponse{Deleted: true})
}

// ListUpcomingMeetups godoc
// @Summary List upcoming meetups
// @Description Meetups starting after now in ascending start order, with their organizer. An optional date (YYYY-MM-DD, UTC) restricts results to that day.
// @Tags meetups
// @Produce json
// @Security BearerAuth
// @Param date query string false "Calendar day, YYYY-MM-DD"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Success 200 {object} controllers.ListMeetupsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /meetups [get]
func (c *MeetupController) ListUpcomingMeetups(w http.ResponseWriter, r *http.Request) {
	date, err := helpers.ParseDate(r, "date")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	params := helpers.ParsePagination(r)
	page, err := c.Service.ListUpcoming(r.Context(), date, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListMeetupsResponse{
		Items:      page.Items,
		Pagination: helpers.NewPaginationMeta(params, page.Total),
	})
}

// ListOrganizerMeetups godoc
// @Summary List my meetups
// @Description Every meetup organized by the caller, past and future, in ascending start order.
// @Tags meetups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data is a list of meetups"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /organizer/meetups [get]
func (c *MeetupController) ListOrganizerMeetups(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	meetups, err := c.Service.ListByOrganizer(r.Context(), userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, meetups)
}

// Availability godoc
// @Summary Check my availability
// @Description Reports whether the caller organizes a meetup in the hour of the given instant or is subscribed to a meetup starting exactly then.
// @Tags meetups
// @Produce json
// @Security BearerAuth
// @Param at query string true "Instant, RFC 3339"
// @Success 200 {object} helpers.APIResponse "data.busy"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /availability [get]
func (c *MeetupController) Availability(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	at, err := helpers.ParseInstant(r, "at")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	busy, err := c.Service.HasCommitmentAt(r.Context(), userID, at)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AvailabilityResponse{At: at.UTC(), Busy: busy})
}
