package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	one := 1

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/onboarding", h.GetOnboardingHandler)
		r.Post("/onboarding/complete", h.CompleteOnboardingHandler)
		r.Post("/signin", h.SignInHandler)

		// Device-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.JWTAuthMiddleware)

			r.Post("/signout", h.SignOutHandler)

			r.Post("/chats", h.CreateChatHandler)
			r.Get("/chats/{chatID}", h.GetChatDetailsHandler)
			r.Delete("/chats/{chatID}", h.DeleteChatHandler)
			r.Post("/chats/{chatID}/messages", h.PostMessageHandler)

			r.Get("/medications", h.ListMedicationsHandler)
			r.Post("/medications", h.AddMedicationHandler)
			r.Get("/medications/summary", h.MedicationSummaryHandler)
			r.Put("/medications/{medicationID}", h.UpdateMedicationHandler)
			r.Delete("/medications/{medicationID}", h.DeleteMedicationHandler)
			r.Post("/medications/{medicationID}/toggle", h.ToggleMedicationHandler)

			r.Route("/tracker", func(r chi.Router) {
				r.Use(h.TrackerRolloverMiddleware)

				r.Get("/", h.GetTrackerHandler)
				r.Post("/water", h.amountHandler(&one, h.tracker.AddWater))
				r.Post("/water/reset", h.stateHandler(h.tracker.ResetWater))
				r.Post("/water/goal", h.amountHandler(nil, h.tracker.SetWaterGoal))
				r.Post("/sleep", h.LogSleepHandler)
				r.Post("/steps", h.amountHandler(nil, h.tracker.AddSteps))
				r.Post("/steps/reset", h.stateHandler(h.tracker.ResetSteps))
				r.Post("/steps/goal", h.amountHandler(nil, h.tracker.SetStepGoal))
				r.Post("/steps/simulate", h.stateHandler(h.tracker.SimulateSensorUpdates))
			})

			r.Get("/profile", h.GetProfileHandler)
			r.Put("/profile", h.SaveProfileHandler)
			r.Delete("/profile", h.ClearProfileHandler)
		})
	})

	return r
}
