package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"healthsync.ai/companion/internal/auth"
	"healthsync.ai/companion/internal/core"
	"healthsync.ai/companion/internal/logger"
	"healthsync.ai/companion/internal/store"
)

type contextKey string

const deviceIDKey contextKey = "deviceID"

type APIHandler struct {
	chats      *core.ChatService
	meds       *core.MedicationRegistry
	tracker    *core.HealthTracker
	profile    *core.ProfileController
	onboarding *store.OnboardingPrefs
	issuer     *auth.Issuer
}

type Deps struct {
	Chats       *core.ChatService
	Medications *core.MedicationRegistry
	Tracker     *core.HealthTracker
	Profile     *core.ProfileController
	Onboarding  *store.OnboardingPrefs
	Issuer      *auth.Issuer
}

func NewAPIHandler(d Deps) *APIHandler {
	return &APIHandler{
		chats:      d.Chats,
		meds:       d.Medications,
		tracker:    d.Tracker,
		profile:    d.Profile,
		onboarding: d.Onboarding,
		issuer:     d.Issuer,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for requests whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		deviceID, err := h.issuer.Validate(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), deviceIDKey, deviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TrackerRolloverMiddleware starts a new tracking day before serving tracker
// requests once the date has changed.
func (h *APIHandler) TrackerRolloverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.tracker.Rollover() {
			logger.Info("Health tracker rolled over to a new day")
		}
		next.ServeHTTP(w, r)
	})
}

// Onboarding

type OnboardingResponse struct {
	store.OnboardingFlags
	StartScreen core.Screen `json:"start_screen"`
}

func (h *APIHandler) GetOnboardingHandler(w http.ResponseWriter, r *http.Request) {
	flags, err := h.onboarding.Flags(r.Context())
	if err != nil {
		logger.Error("Error reading onboarding flags", "error", err)
		http.Error(w, "Failed to read onboarding state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, OnboardingResponse{OnboardingFlags: flags, StartScreen: core.StartScreen(flags)})
}

func (h *APIHandler) CompleteOnboardingHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.onboarding.SetOnboardingCompleted(r.Context()); err != nil {
		logger.Error("Error completing onboarding", "error", err)
		http.Error(w, "Failed to complete onboarding", http.StatusInternalServerError)
		return
	}
	h.GetOnboardingHandler(w, r)
}

type SignInRequest struct {
	DeviceID string `json:"device_id,omitempty"`
}

type SignInResponse struct {
	DeviceID string `json:"device_id"`
	Token    string `json:"token"`
}

func (h *APIHandler) SignInHandler(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = uuid.NewString()
	}

	token, err := h.issuer.Generate(req.DeviceID)
	if err != nil {
		logger.Error("Error generating JWT", "device_id", req.DeviceID, "error", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	if err := h.onboarding.SetUserSignedIn(r.Context(), true); err != nil {
		logger.Error("Error recording sign-in", "error", err)
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, SignInResponse{DeviceID: req.DeviceID, Token: token})
}

// SignOutHandler clears the profile and every onboarding flag.
func (h *APIHandler) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	st := h.profile.Clear(r.Context())
	if st.Status == core.ProfileError {
		writeJSON(w, http.StatusInternalServerError, st)
		return
	}
	if err := h.onboarding.ClearAll(r.Context()); err != nil {
		logger.Error("Error clearing onboarding flags", "error", err)
		http.Error(w, "Failed to sign out", http.StatusInternalServerError)
		return
	}
	deviceID, _ := r.Context().Value(deviceIDKey).(string)
	logger.Info("Device signed out", "device_id", deviceID)
	w.WriteHeader(http.StatusNoContent)
}

// Chats

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, h.chats.CreateChat())
}

func (h *APIHandler) GetChatDetailsHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	details, err := h.chats.GetChatDetails(chatID)
	if err != nil {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *APIHandler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := h.chats.DeleteChat(chatID); err != nil {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

type PostMessageResponse struct {
	Reply string `json:"reply"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req PostMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.chats.PostMessage(r.Context(), chatID, req.Content)
	switch {
	case errors.Is(err, core.ErrChatNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, core.ErrBlankMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logger.Error("Error posting message", "chat_id", chatID, "error", err)
		http.Error(w, "Failed to post message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, PostMessageResponse{Reply: reply})
}

// Medications

func medicationID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "medicationID"))
	if err != nil {
		http.Error(w, "Invalid medication id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *APIHandler) ListMedicationsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.meds.List())
}

func (h *APIHandler) MedicationSummaryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.meds.Summary())
}

func (h *APIHandler) AddMedicationHandler(w http.ResponseWriter, r *http.Request) {
	var item core.MedicationItem
	if !decodeJSON(w, r, &item) {
		return
	}
	if strings.TrimSpace(item.Name) == "" {
		http.Error(w, "Medication name is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, h.meds.Add(item))
}

func (h *APIHandler) UpdateMedicationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := medicationID(w, r)
	if !ok {
		return
	}
	var item core.MedicationItem
	if !decodeJSON(w, r, &item) {
		return
	}
	item.ID = id
	if !h.meds.Update(item) {
		http.Error(w, "Medication not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *APIHandler) DeleteMedicationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := medicationID(w, r)
	if !ok {
		return
	}
	// deleting an absent id is not an error
	h.meds.Delete(core.MedicationItem{ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ToggleMedicationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := medicationID(w, r)
	if !ok {
		return
	}
	if !h.meds.ToggleTaken(core.MedicationItem{ID: id}) {
		http.Error(w, "Medication not found", http.StatusNotFound)
		return
	}
	item, _ := h.meds.Get(id)
	writeJSON(w, http.StatusOK, item)
}

// Tracker

type TrackerResponse struct {
	core.HealthState
	FormattedSleep string `json:"formatted_sleep"`
}

func trackerResponse(st core.HealthState) TrackerResponse {
	return TrackerResponse{HealthState: st, FormattedSleep: st.FormattedSleep()}
}

type AmountRequest struct {
	Amount *int `json:"amount"`
}

type SleepRequest struct {
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	Quality string `json:"quality"`
}

func (h *APIHandler) GetTrackerHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, trackerResponse(h.tracker.Snapshot()))
}

// amountHandler decodes {"amount": n} and applies fn. When the body omits the
// amount, defaultAmount is used if non-nil; otherwise the request is rejected.
func (h *APIHandler) amountHandler(defaultAmount *int, fn func(int) core.HealthState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AmountRequest
		if !decodeOptionalJSON(w, r, &req) {
			return
		}
		if req.Amount == nil {
			if defaultAmount == nil {
				http.Error(w, "amount is required", http.StatusBadRequest)
				return
			}
			req.Amount = defaultAmount
		}
		writeJSON(w, http.StatusOK, trackerResponse(fn(*req.Amount)))
	}
}

func (h *APIHandler) stateHandler(fn func() core.HealthState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, trackerResponse(fn()))
	}
}

func (h *APIHandler) LogSleepHandler(w http.ResponseWriter, r *http.Request) {
	var req SleepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Hours < 0 || req.Minutes < 0 || req.Minutes > 59 {
		http.Error(w, "hours must be >= 0 and minutes within 0-59", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, trackerResponse(h.tracker.LogSleep(req.Hours, req.Minutes, req.Quality)))
}

// Profile

func profileStatus(st core.ProfileState) int {
	if st.Status == core.ProfileError {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	st := h.profile.Load(r.Context())
	writeJSON(w, profileStatus(st), st)
}

func (h *APIHandler) SaveProfileHandler(w http.ResponseWriter, r *http.Request) {
	var form core.ProfileForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if strings.TrimSpace(form.FirstName) == "" || strings.TrimSpace(form.LastName) == "" || strings.TrimSpace(form.Email) == "" {
		http.Error(w, "first_name, last_name and email are required", http.StatusBadRequest)
		return
	}
	st := h.profile.Save(r.Context(), form)
	writeJSON(w, profileStatus(st), st)
}

func (h *APIHandler) ClearProfileHandler(w http.ResponseWriter, r *http.Request) {
	st := h.profile.Clear(r.Context())
	writeJSON(w, profileStatus(st), st)
}
