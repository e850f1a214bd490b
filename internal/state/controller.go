// Package state holds the operator front-end's in-memory copy of clients and
// bookings. Mutations go through the booking service and are then applied to
// the local copy without a re-fetch.
package state

import (
	"context"
	"slices"
	"strings"
	"sync"

	"studiobook/internal/domain"
	"studiobook/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "loading"
}

type Controller struct {
	svc    domain.BookingService
	logger *zerolog.Logger

	// opMu serialises handlers so one mutation is in flight at a time.
	opMu sync.Mutex

	mu       sync.RWMutex
	phase    Phase
	clients  []models.Client
	bookings []models.Booking
}

func NewController(svc domain.BookingService, logger *zerolog.Logger) *Controller {
	return &Controller{
		svc:      svc,
		logger:   logger,
		phase:    PhaseLoading,
		clients:  []models.Client{},
		bookings: []models.Booking{},
	}
}

// Load fetches both collections in parallel and switches to ready. A failed
// fetch is logged and leaves that collection empty.
func (c *Controller) Load(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.phase = PhaseLoading
	c.mu.Unlock()

	var (
		clients  []models.Client
		bookings []models.Booking
		g        errgroup.Group
	)
	g.Go(func() error {
		var err error
		clients, err = c.svc.ListClients(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to load clients")
			clients = []models.Client{}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookings, err = c.svc.ListBookings(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to load bookings")
			bookings = []models.Booking{}
		}
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	c.clients = clients
	c.bookings = bookings
	c.phase = PhaseReady
	c.mu.Unlock()

	c.logger.Info().Int("clients", len(clients)).Int("bookings", len(bookings)).Msg("Studio data loaded")
}

// Reload discards the local copy and fetches again. It is the reconcile path
// when another process writes to the same store.
func (c *Controller) Reload(ctx context.Context) {
	c.Load(ctx)
}

func (c *Controller) AddClient(ctx context.Context, name, contact string) (*models.Client, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	client, err := c.svc.AddClient(ctx, name, contact)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.clients = append(c.clients, *client)
	c.mu.Unlock()
	return client, nil
}

// DeleteClient removes the client and, locally, every booking it held.
func (c *Controller) DeleteClient(ctx context.Context, clientID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.svc.DeleteClient(ctx, clientID); err != nil {
		return err
	}

	c.mu.Lock()
	c.clients = slices.DeleteFunc(c.clients, func(cl models.Client) bool { return cl.ID == clientID })
	c.bookings = slices.DeleteFunc(c.bookings, func(b models.Booking) bool { return b.ClientID == clientID })
	c.mu.Unlock()
	return nil
}

// BookSlot books a slot and keeps the local list ordered by date. Bookings
// on the same date keep their relative order.
func (c *Controller) BookSlot(ctx context.Context, clientID, date, timeSlot string) (*models.Booking, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	booking, err := c.svc.AddBooking(ctx, clientID, date, timeSlot)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.bookings = append(c.bookings, *booking)
	slices.SortStableFunc(c.bookings, func(a, b models.Booking) int {
		return strings.Compare(a.Date, b.Date)
	})
	c.mu.Unlock()
	return booking, nil
}

func (c *Controller) CancelBooking(ctx context.Context, bookingID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.svc.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}

	c.mu.Lock()
	c.bookings = slices.DeleteFunc(c.bookings, func(b models.Booking) bool { return b.ID == bookingID })
	c.mu.Unlock()
	return nil
}

func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Clients returns a copy of the local client list.
func (c *Controller) Clients() []models.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.clients)
}

// Bookings returns a copy of the local booking list.
func (c *Controller) Bookings() []models.Booking {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.bookings)
}

// Booking looks a booking up by id in the local copy.
func (c *Controller) Booking(id string) (models.Booking, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.bookings {
		if b.ID == id {
			return b, true
		}
	}
	return models.Booking{}, false
}

func (c *Controller) ClientName(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cl := range c.clients {
		if cl.ID == id {
			return cl.Name, true
		}
	}
	return "", false
}
