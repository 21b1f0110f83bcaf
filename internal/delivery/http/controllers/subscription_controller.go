package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"meetapp/internal/delivery/http/helpers"
	"meetapp/internal/delivery/http/middleware"
	"meetapp/internal/domain"
)

// SubscribeRequest is the request body for POST /subscriptions.
type SubscribeRequest struct {
	MeetupID string `json:"meetup_id"`
}

// Validate implements Validator.
func (s SubscribeRequest) Validate() []string {
	if strings.TrimSpace(s.MeetupID) == "" {
		return []string{"meetup_id is required"}
	}
	return nil
}

// SubscriptionSuccessResponse is the success response envelope for POST /subscriptions (201).
type SubscriptionSuccessResponse struct {
	Data  *domain.Subscription `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListSubscriptionsSuccessResponse is the success response envelope for GET /subscriptions.
type ListSubscriptionsSuccessResponse struct {
	Data  []*domain.SubscriptionWithMeetup `json:"data"`
	Error *helpers.APIError                `json:"error"`
}

type SubscriptionController struct {
	Logger  *slog.Logger
	Service domain.SubscriptionService
}

func NewSubscriptionController(logger *slog.Logger, svc domain.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{
		Logger:  logger,
		Service: svc,
	}
}

// Subscribe godoc
// @Summary Subscribe to a meetup
// @Description Admits the caller to a future meetup organized by someone else. The organizer is notified asynchronously.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subscription body SubscribeRequest true "Meetup to join"
// @Success 201 {object} controllers.SubscriptionSuccessResponse "data contains the subscription"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_subscribed, double_booking"
// @Failure 422 {object} helpers.APIResponse "error.code: self_subscription, already_occurred"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /subscriptions [post]
func (c *SubscriptionController) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SubscribeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sub, err := c.Service.Subscribe(r.Context(), userID, req.MeetupID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, sub)
}

// ListSubscriptions godoc
// @Summary List my subscriptions
// @Description Subscriptions of the caller to meetups that have not started, in ascending start order.
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListSubscriptionsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /subscriptions [get]
func (c *SubscriptionController) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	subs, err := c.Service.ListByUser(r.Context(), userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, subs)
}
