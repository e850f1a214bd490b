package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"studiobook/internal/config"
	"studiobook/internal/models"
	"studiobook/internal/recordstore"
	"studiobook/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// browserDump is a localStorage export of the old studio web page. Each value
// is either the stored JSON string or the array itself.
type browserDump struct {
	Clients  json.RawMessage `json:"clients"`
	Bookings json.RawMessage `json:"bookings"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		dumpPath   = flag.String("file", "localStorage.json", "path to the localStorage dump")
		force      = flag.Bool("force", false, "overwrite collections that already hold data")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(*dumpPath)
	if err != nil {
		return fmt.Errorf("read dump: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := importDump(ctx, cfg, data, *force, &logger)
	if err != nil {
		return err
	}
	fmt.Printf("done: clients=%d bookings=%d driver=%s\n", res.clients, res.bookings, cfg.Store.Driver)
	return nil
}

type importResult struct {
	clients  int
	bookings int
}

// importDump writes both collections of a localStorage dump straight to the
// configured primary store. Without force it refuses to overwrite a
// collection that already holds records.
func importDump(ctx context.Context, cfg *config.Config, data []byte, force bool, logger *zerolog.Logger) (importResult, error) {
	var dump browserDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return importResult{}, fmt.Errorf("parse dump: %w", err)
	}

	clients, err := decodeCollection[models.Client](dump.Clients)
	if err != nil {
		return importResult{}, fmt.Errorf("clients: %w", err)
	}
	bookings, err := decodeCollection[models.Booking](dump.Bookings)
	if err != nil {
		return importResult{}, fmt.Errorf("bookings: %w", err)
	}

	// An in-memory fallback would accept the writes and lose them on exit.
	storeCfg := *cfg
	storeCfg.Store.Failover = false

	var rdb *redis.Client
	if storeCfg.Store.Driver == config.StoreRedis {
		rdb = repository.NewRedisClient(storeCfg.Redis)
		defer rdb.Close()
	}
	store, err := recordstore.Open(ctx, &storeCfg, rdb, logger)
	if err != nil {
		return importResult{}, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if !force {
		for _, collection := range []string{models.CollectionClients, models.CollectionBookings} {
			n, err := storedCount(ctx, store, collection)
			if err != nil {
				return importResult{}, fmt.Errorf("check %s: %w", collection, err)
			}
			if n > 0 {
				return importResult{}, fmt.Errorf("%s already holds %d records, rerun with -force to overwrite", collection, n)
			}
		}
	}

	if err = recordstore.SaveAll(ctx, store, models.CollectionClients, clients); err != nil {
		return importResult{}, err
	}
	if err = recordstore.SaveAll(ctx, store, models.CollectionBookings, bookings); err != nil {
		return importResult{}, err
	}
	return importResult{clients: len(clients), bookings: len(bookings)}, nil
}

// storedCount reports how many records a collection holds. A payload that is
// not a JSON array counts as data so it is never overwritten silently.
func storedCount(ctx context.Context, store recordstore.Store, collection string) (int, error) {
	payload, err := store.Get(ctx, collection)
	if err != nil {
		return 0, err
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return 0, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return 1, nil
	}
	return len(items), nil
}

// decodeCollection accepts a JSON array or a string holding one. A missing
// value imports as empty.
func decodeCollection[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Join(errors.New("not a JSON array"), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
