package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"meetapp/internal/delivery/http/controllers"
	"meetapp/internal/delivery/http/helpers"
	"meetapp/internal/delivery/http/middleware"
	"meetapp/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Every API route requires a bearer token.
func NewRouter(
	meetupController *controllers.MeetupController,
	subscriptionController *controllers.SubscriptionController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Meetups
	mux.Handle("POST /meetups", auth(http.HandlerFunc(meetupController.CreateMeetup)))
	mux.Handle("GET /meetups", auth(http.HandlerFunc(meetupController.ListUpcomingMeetups)))
	mux.Handle("PATCH /meetups/{meetupID}", auth(http.HandlerFunc(meetupController.UpdateMeetup)))
	mux.Handle("DELETE /meetups/{meetupID}", auth(http.HandlerFunc(meetupController.DeleteMeetup)))
	mux.Handle("GET /organizer/meetups", auth(http.HandlerFunc(meetupController.ListOrganizerMeetups)))
	mux.Handle("GET /availability", auth(http.HandlerFunc(meetupController.Availability)))

	// Subscriptions
	mux.Handle("POST /subscriptions", auth(http.HandlerFunc(subscriptionController.Subscribe)))
	mux.Handle("GET /subscriptions", auth(http.HandlerFunc(subscriptionController.ListSubscriptions)))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
