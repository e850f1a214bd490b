package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"studiobook/internal/export"
	"studiobook/internal/models"
	"studiobook/internal/service"
	"studiobook/internal/view"

	"golang.org/x/sync/errgroup"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createClientRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type createBookingRequest struct {
	ClientID string `json:"clientId"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}

type scheduleResponse struct {
	view.Schedule
	Free     int    `json:"free"`
	Previous string `json:"previous"`
	Next     string `json:"next"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if _, err := s.store.Get(r.Context(), models.CollectionClients); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "record store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) handleTimeSlots(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"time_slots": s.slots})
}

func (s *HTTPServer) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.ListClients(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to load clients")
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (s *HTTPServer) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var body createClientRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name, contact, err := view.NormalizeClientInput(body.Name, body.Contact)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := s.svc.AddClient(r.Context(), name, contact)
	if err != nil {
		s.internalError(w, err, "failed to create client")
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *HTTPServer) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, err, "failed to delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.ListBookings(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to load bookings")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	clientID := strings.TrimSpace(body.ClientID)
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "clientId is required")
		return
	}
	date, err := view.ParseDate(strings.TrimSpace(body.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	if _, ok := view.SlotIndex(s.slots, body.TimeSlot); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown time slot: %s", body.TimeSlot))
		return
	}

	booking, err := s.svc.AddBooking(r.Context(), clientID, date, body.TimeSlot)
	switch {
	case errors.Is(err, service.ErrSlotTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, service.ErrClientNotFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.internalError(w, err, "failed to create booking")
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteBooking(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, err, "failed to delete booking")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleGroupedBookings(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	if from != "" {
		parsed, err := view.ParseDate(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
			return
		}
		from = parsed
	}

	clients, bookings, err := s.loadAll(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to load bookings")
		return
	}

	groups := view.GroupByDate(bookings, clients)
	if from != "" {
		groups = view.OnOrAfter(groups, from)
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": groups})
}

func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = view.Today(s.now())
	}
	date, err := view.ParseDate(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	clients, bookings, err := s.loadAll(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to load schedule")
		return
	}

	schedule := view.BuildSchedule(date, s.slots, bookings, clients)
	prev, _ := view.ShiftDate(date, -1)
	next, _ := view.ShiftDate(date, 1)
	writeJSON(w, http.StatusOK, scheduleResponse{
		Schedule: schedule,
		Free:     schedule.Free(),
		Previous: prev,
		Next:     next,
	})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	clients, bookings, err := s.loadAll(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to load bookings")
		return
	}

	var buf bytes.Buffer
	data := export.Data{Clients: clients, Bookings: bookings, TimeSlots: s.slots}
	if err := export.Write(&buf, data); err != nil {
		s.internalError(w, err, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// loadAll fetches both collections concurrently.
func (s *HTTPServer) loadAll(ctx context.Context) ([]models.Client, []models.Booking, error) {
	var (
		clients  []models.Client
		bookings []models.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.svc.ListClients(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.svc.ListBookings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return clients, bookings, nil
}

func (s *HTTPServer) internalError(w http.ResponseWriter, err error, message string) {
	s.logger.Error().Err(err).Msg(message)
	writeError(w, http.StatusInternalServerError, message)
}
