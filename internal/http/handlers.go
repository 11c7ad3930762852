package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/robertarktes/stay-reservations/internal/domain"
	"github.com/robertarktes/stay-reservations/internal/idempotency"
	"github.com/robertarktes/stay-reservations/internal/observability"
)

type BookingService interface {
	Create(ctx context.Context, req domain.CreateRequest, userID int64) (domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status string) (domain.Booking, error)
}

type BookingReader interface {
	ByUser(ctx context.Context, userID int64) ([]domain.UserBooking, error)
	BlockedDates(ctx context.Context, propertyID int64) ([]domain.DateRange, error)
	All(ctx context.Context) ([]domain.AdminBooking, error)
	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
}

type Handlers struct {
	svc     BookingService
	reports BookingReader
	idemp   *idempotency.Idempotency
	logger  observability.Logger
}

func NewHandlers(svc BookingService, reports BookingReader, idemp *idempotency.Idempotency, logger observability.Logger) *Handlers {
	return &Handlers{
		svc:     svc,
		reports: reports,
		idemp:   idemp,
		logger:  logger,
	}
}

// createBookingRequest carries everything a guest may set. There is no status
// field to decode into, so a forged "status": "confirmed" in the body is
// dropped before it reaches the service.
type createBookingRequest struct {
	PropertyID int64   `json:"property_id"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	Guests     int     `json:"guests"`
	TotalPrice float64 `json:"total_price"`
}

type bookingResponse struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	UserID     int64     `json:"user_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Guests     int       `json:"guests"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	Message    string    `json:"message,omitempty"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:         b.ID,
		PropertyID: b.PropertyID,
		UserID:     b.UserID,
		CheckIn:    b.CheckIn.Format(domain.DateLayout),
		CheckOut:   b.CheckOut.Format(domain.DateLayout),
		Guests:     b.Guests,
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
	}
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	checkIn, err := domain.ParseDate(req.CheckIn)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	checkOut, err := domain.ParseDate(req.CheckOut)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "not authorized"})
		return
	}

	b, err := h.svc.Create(r.Context(), domain.CreateRequest{
		PropertyID: req.PropertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     req.Guests,
		TotalPrice: req.TotalPrice,
	}, identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := toBookingResponse(b)
	resp.Message = "Booking created successfully. Awaiting admin confirmation."
	data, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
}

func (h *Handlers) MyBookings(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "not authorized"})
		return
	}

	bookings, err := h.reports.ByUser(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	type userBookingResponse struct {
		bookingResponse
		Property *domain.Property `json:"property,omitempty"`
	}
	out := make([]userBookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = userBookingResponse{bookingResponse: toBookingResponse(b.Booking), Property: b.Property}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) BlockedDates(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid property id"})
		return
	}

	ranges, err := h.reports.BlockedDates(r.Context(), propertyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	type rangeResponse struct {
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}
	out := make([]rangeResponse, len(ranges))
	for i, dr := range ranges {
		out[i] = rangeResponse{
			CheckIn:  dr.CheckIn.Format(domain.DateLayout),
			CheckOut: dr.CheckOut.Format(domain.DateLayout),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) AdminBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.reports.All(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	type adminBookingResponse struct {
		bookingResponse
		CustomerName   string           `json:"customer_name"`
		CustomerEmail  string           `json:"customer_email"`
		CustomerPhone  string           `json:"customer_phone"`
		CustomerAvatar string           `json:"customer_avatar"`
		Property       *domain.Property `json:"property,omitempty"`
	}
	out := make([]adminBookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = adminBookingResponse{
			bookingResponse: toBookingResponse(b.Booking),
			CustomerName:    b.CustomerName,
			CustomerEmail:   b.CustomerEmail,
			CustomerPhone:   b.CustomerPhone,
			CustomerAvatar:  b.CustomerAvatar,
			Property:        b.Property,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid booking id"})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	b, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Booking status updated successfully",
		"booking_id": b.ID,
		"new_status": b.Status,
	})
}

func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.DashboardStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

// writeError maps domain errors onto the wire. Nothing out of the core is
// fatal; unknown errors are logged and hidden behind a 500.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "not authorized"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"message": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"message": "This property is already booked for the selected dates. Please choose different dates or another property."})
	case errors.Is(err, domain.ErrSerializationFailure):
		writeJSON(w, http.StatusConflict, map[string]string{"message": "conflict, try again"})
	default:
		h.logger.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
