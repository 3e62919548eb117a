package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fleetbook/internal/config"
	"fleetbook/internal/database"
	"fleetbook/internal/domain"
	"fleetbook/internal/metrics"
	"fleetbook/internal/models"
	"fleetbook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking backend as a JSON API.
type HTTPServer struct {
	bookings domain.BookingService
	catalog  domain.VehicleCatalog
	auth     *Auth
	limiter  *clientLimiter
	logger   zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(cfg config.APIConfig, bookings domain.BookingService, catalog domain.VehicleCatalog, logger *zerolog.Logger) *HTTPServer {
	var l zerolog.Logger
	if logger != nil {
		l = logger.With().Str("component", "http_api").Logger()
	}

	s := &HTTPServer{
		bookings: bookings,
		catalog:  catalog,
		auth:     NewAuth(cfg.Auth),
		limiter:  newClientLimiter(cfg.RateLimit),
		logger:   l,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/bookings", s.protected(PermWriteBookings, s.handleSubmitBooking))
	mux.HandleFunc("GET /api/v1/bookings", s.protected(PermReadBookings, s.handleListBookings))
	mux.HandleFunc("GET /api/v1/bookings/export", s.protected(PermReadBookings, s.handleExportBookings))
	mux.HandleFunc("GET /api/v1/bookings/{id}", s.protected(PermReadBookings, s.handleGetBooking))
	mux.HandleFunc("POST /api/v1/bookings/{id}/review", s.protected(PermWriteReview, s.handleReviewBooking))
	mux.HandleFunc("GET /api/v1/vehicles", s.protected(PermReadVehicles, s.handleListVehicles))
	mux.HandleFunc("GET /api/v1/availability", s.protected(PermReadVehicles, s.handleAvailability))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.logging(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routing stack for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// protected wraps a handler with authentication, permission and rate checks.
func (s *HTTPServer) protected(perm string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP(r.URL.Path)

		client, ok := s.auth.Authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or missing API credentials")
			return
		}
		if !HasPermission(client, perm) {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		limitKey := "anonymous"
		if client != nil {
			limitKey = client.Name
		}
		if !s.limiter.Allow(limitKey) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next(w, r)
	}
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitBookingRequest struct {
	VehicleID       string `json:"vehicle_id"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
}

func (s *HTTPServer) handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	var req submitBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be formatted as YYYY-MM-DD")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be formatted as YYYY-MM-DD")
		return
	}

	draft := &models.Booking{
		VehicleID:       req.VehicleID,
		StartDate:       start,
		EndDate:         end,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
	}

	booking, err := s.bookings.SubmitBooking(r.Context(), draft)
	if err != nil {
		s.writeBookingError(w, err, draft)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		bookings, err := s.bookings.ListByStatus(r.Context(), status)
		if err != nil {
			s.writeBookingError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(bookings))
		return
	}

	from, to := q.Get("from"), q.Get("to")
	if from != "" || to != "" {
		start, err := parseDate(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be formatted as YYYY-MM-DD")
			return
		}
		end, err := parseDate(to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be formatted as YYYY-MM-DD")
			return
		}
		bookings, err := s.bookings.ListByDateRange(r.Context(), start, end)
		if err != nil {
			s.writeBookingError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(bookings))
		return
	}

	// default admin view: the review queue
	bookings, err := s.bookings.ListByStatus(r.Context(), models.StatusPending)
	if err != nil {
		s.writeBookingError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(bookings))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "booking id must be an integer")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeBookingError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type reviewBookingRequest struct {
	Decision  string `json:"decision"`
	AdminNote string `json:"admin_note"`
}

func (s *HTTPServer) handleReviewBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "booking id must be an integer")
		return
	}

	var req reviewBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.bookings.ReviewBooking(r.Context(), id, req.Decision, req.AdminNote); err != nil {
		s.writeBookingError(w, err, nil)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeBookingError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.catalog.ActiveVehicles(r.Context())
	if err != nil {
		s.writeBookingError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": vehicles, "count": len(vehicles)})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vehicleID := q.Get("vehicle_id")

	start, err := parseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be formatted as YYYY-MM-DD")
		return
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be formatted as YYYY-MM-DD")
		return
	}

	available, err := s.bookings.CheckAvailability(r.Context(), vehicleID, start, end)
	if err != nil {
		s.writeBookingError(w, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vehicle_id": vehicleID,
		"start":      start.Format(models.DateLayout),
		"end":        end.Format(models.DateLayout),
		"available":  available,
	})
}

// writeBookingError maps domain errors onto HTTP statuses. Unknown errors
// never leak details to the client.
func (s *HTTPServer) writeBookingError(w http.ResponseWriter, err error, draft *models.Booking) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, database.ErrMissingFields), errors.Is(err, database.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotAvailable):
		msg := "vehicle is not available for the selected dates"
		if draft != nil {
			msg = fmt.Sprintf("vehicle %s is not available from %s to %s",
				draft.VehicleID,
				draft.StartDate.Format(models.DateLayout),
				draft.EndDate.Format(models.DateLayout))
		}
		writeError(w, http.StatusConflict, msg)
	case errors.Is(err, database.ErrBookingNotFound), errors.Is(err, database.ErrVehicleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyReviewed), errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("unhandled api error")
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred, please try again")
	}
}

func listResponse(bookings []*models.Booking) map[string]any {
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return map[string]any{"bookings": bookings, "count": len(bookings)}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
