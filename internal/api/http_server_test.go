package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studiobook/internal/config"
	"studiobook/internal/models"
	"studiobook/internal/recordstore"
	"studiobook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testSlots = []string{"10:00 - 12:00", "12:00 - 14:00"}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Put(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestHTTPServer(t *testing.T, cfg config.APIConfig, opts ...service.Option) (*httptest.Server, *recordstore.MemoryStore) {
	t.Helper()
	store := recordstore.NewMemoryStore()
	logger := zerolog.New(io.Discard)
	opts = append([]service.Option{service.WithIDGenerator(sequentialIDs())}, opts...)
	svc := service.NewBookingService(store, nil, &logger, opts...)

	srv := NewHTTPServer(cfg, testSlots, svc, store, &logger)
	srv.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestProbes(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	resp = doJSON(t, http.MethodGet, ts.URL+"/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyzStoreDown(t *testing.T) {
	logger := zerolog.New(io.Discard)
	svc := service.NewBookingService(brokenStore{}, nil, &logger)
	srv := NewHTTPServer(config.APIConfig{}, testSlots, svc, brokenStore{}, &logger)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to load clients"}`, rec.Body.String())
}

func TestRequestIDPropagated(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestTimeSlots(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/time-slots", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		TimeSlots []string `json:"time_slots"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, testSlots, body.TimeSlots)
}

func TestClientsLifecycle(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/clients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty map[string][]models.Client
	decodeBody(t, resp, &empty)
	assert.NotNil(t, empty["clients"])
	assert.Empty(t, empty["clients"])

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/clients", map[string]string{
		"name":    "  Los Rockeros ",
		"contact": "banda@email.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Client
	decodeBody(t, resp, &created)
	assert.Equal(t, models.Client{ID: "id-1", Name: "Los Rockeros", Contact: "banda@email.com"}, created)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", map[string]string{
		"clientId": "id-1",
		"date":     "2024-06-01",
		"timeSlot": "10:00 - 12:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/clients/id-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/bookings", nil)
	var bookings map[string][]models.Booking
	decodeBody(t, resp, &bookings)
	assert.Empty(t, bookings["bookings"])

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/clients/id-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCreateClientValidation(t *testing.T) {
	ts, store := newTestHTTPServer(t, config.APIConfig{})

	tests := []struct {
		name string
		body string
	}{
		{"EmptyName", `{"name":"   ","contact":"x"}`},
		{"EmptyContact", `{"name":"Band","contact":""}`},
		{"UnknownField", `{"name":"Band","contact":"x","extra":1}`},
		{"Malformed", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/clients", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	payload, err := store.Get(context.Background(), models.CollectionClients)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestCreateBookingValidation(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"MissingClient", map[string]string{"date": "2024-06-01", "timeSlot": "10:00 - 12:00"}},
		{"BadDate", map[string]string{"clientId": "c1", "date": "01/06/2024", "timeSlot": "10:00 - 12:00"}},
		{"UnknownSlot", map[string]string{"clientId": "c1", "date": "2024-06-01", "timeSlot": "09:00 - 10:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateBookingDefaultAllowsDoubleBooking(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	body := map[string]string{"clientId": "ghost", "date": "2024-06-01", "timeSlot": "10:00 - 12:00"}
	assert.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", body).StatusCode)
	assert.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", body).StatusCode)
}

func TestCreateBookingStrict(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{}, service.WithValidator(service.StrictValidator{}))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", map[string]string{
		"clientId": "ghost", "date": "2024-06-01", "timeSlot": "10:00 - 12:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/clients", map[string]string{"name": "Band", "contact": "x"})
	var client models.Client
	decodeBody(t, resp, &client)

	body := map[string]string{"clientId": client.ID, "date": "2024-06-01", "timeSlot": "10:00 - 12:00"}
	assert.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", body).StatusCode)
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", body).StatusCode)
}

func TestDeleteBooking(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", map[string]string{
		"clientId": "c1", "date": "2024-06-01", "timeSlot": "12:00 - 14:00",
	})
	var booking models.Booking
	decodeBody(t, resp, &booking)

	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, ts.URL+"/api/v1/bookings/"+booking.ID, nil).StatusCode)
	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, ts.URL+"/api/v1/bookings/"+booking.ID, nil).StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/bookings", nil)
	var body map[string][]models.Booking
	decodeBody(t, resp, &body)
	assert.Empty(t, body["bookings"])
}

func TestScheduleAndGrouped(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/clients", map[string]string{"name": "Los Rockeros", "contact": "x"})
	var client models.Client
	decodeBody(t, resp, &client)

	for _, b := range []map[string]string{
		{"clientId": client.ID, "date": "2024-06-01", "timeSlot": "12:00 - 14:00"},
		{"clientId": "ghost", "date": "2024-05-30", "timeSlot": "10:00 - 12:00"},
	} {
		require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", b).StatusCode)
	}

	t.Run("DefaultsToToday", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/schedule", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Date     string `json:"date"`
			Heading  string `json:"heading"`
			Free     int    `json:"free"`
			Previous string `json:"previous"`
			Next     string `json:"next"`
			Slots    []struct {
				Label      string `json:"time_slot"`
				Booked     bool   `json:"booked"`
				ClientName string `json:"client_name"`
			} `json:"slots"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "2024-06-01", body.Date)
		assert.Equal(t, "Saturday, 1 June 2024", body.Heading)
		assert.Equal(t, 1, body.Free)
		assert.Equal(t, "2024-05-31", body.Previous)
		assert.Equal(t, "2024-06-02", body.Next)
		require.Len(t, body.Slots, 2)
		assert.False(t, body.Slots[0].Booked)
		assert.True(t, body.Slots[1].Booked)
		assert.Equal(t, "Los Rockeros", body.Slots[1].ClientName)
	})

	t.Run("InvalidDate", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/schedule?date=tomorrow", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Grouped", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/bookings/grouped", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Days []struct {
				Date     string `json:"date"`
				Bookings []struct {
					ClientName string `json:"client_name"`
				} `json:"bookings"`
			} `json:"days"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Days, 2)
		assert.Equal(t, "2024-05-30", body.Days[0].Date)
		assert.Equal(t, models.UnknownClientName, body.Days[0].Bookings[0].ClientName)
		assert.Equal(t, "2024-06-01", body.Days[1].Date)
	})

	t.Run("GroupedFrom", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/bookings/grouped?from=2024-06-01", nil)
		var body struct {
			Days []struct {
				Date string `json:"date"`
			} `json:"days"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Days, 1)
		assert.Equal(t, "2024-06-01", body.Days[0].Date)
	})
}

func TestExport(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", map[string]string{
		"clientId": "c1", "date": "2024-06-01", "timeSlot": "10:00 - 12:00",
	}).StatusCode)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/bookings/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "studiobook_2024-06-01_090000.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.APIConfig{})

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/v1/clients", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
