package metering

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tonimelisma/zvmconnector-go/internal/connector"
)

const defaultWorkers = 8

// Caller is the part of connector.Client the monitor needs.
type Caller interface {
	Do(ctx context.Context, op connector.Operation, opts ...connector.CallOption) connector.Result
}

// Options configures a Monitor.
type Options struct {
	// CacheInterval is the lifetime of refreshed data. Zero disables caching.
	CacheInterval time.Duration
	// Workers bounds concurrent per-guest queries. Zero means a default.
	Workers int
	Logger  *slog.Logger
}

// Monitor answers inspection requests for lists of guests. With caching
// enabled, a miss refreshes the data of every defined guest at once;
// otherwise only the requested guests are queried.
type Monitor struct {
	caller  Caller
	cache   *Cache
	enabled bool
	workers int
	logger  *slog.Logger
	group   singleflight.Group
}

// NewMonitor builds a monitor over caller.
func NewMonitor(caller Caller, opts Options) *Monitor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Monitor{
		caller:  caller,
		cache:   NewCache(opts.CacheInterval),
		enabled: opts.CacheInterval > 0,
		workers: workers,
		logger:  logger,
	}
}

// Cache exposes the underlying cache.
func (m *Monitor) Cache() *Cache {
	return m.cache
}

// InspectStats returns CPU and memory data keyed by the requested user IDs.
func (m *Monitor) InspectStats(ctx context.Context, userIDs []string) (map[string]any, error) {
	return m.Inspect(ctx, KindCPUMem, userIDs)
}

// InspectVNICs returns virtual NIC data keyed by the requested user IDs.
func (m *Monitor) InspectVNICs(ctx context.Context, userIDs []string) (map[string]any, error) {
	return m.Inspect(ctx, KindVNICs, userIDs)
}

// Inspect returns data of kind for userIDs. Guests the connector reports
// nothing for are absent from the result. Keys keep the caller's spelling.
func (m *Monitor) Inspect(ctx context.Context, kind Kind, userIDs []string) (map[string]any, error) {
	if _, err := opFor(kind, ""); err != nil {
		return nil, err
	}

	if result, ok := m.fromCache(kind, userIDs); ok {
		m.logger.Debug("metering: served from cache",
			slog.String("kind", string(kind)),
			slog.Int("guests", len(userIDs)),
		)

		return result, nil
	}

	var (
		data map[string]any
		err  error
	)

	if m.enabled {
		data, err = m.refresh(ctx, kind)
	} else {
		data, err = m.query(ctx, kind, userIDs)
	}

	if err != nil {
		return nil, err
	}

	result := make(map[string]any, len(userIDs))
	for _, uid := range userIDs {
		if v, ok := data[guestKey(uid)]; ok {
			result[uid] = v
		}
	}

	return result, nil
}

// fromCache succeeds only when every requested guest has a live entry.
func (m *Monitor) fromCache(kind Kind, userIDs []string) (map[string]any, bool) {
	if !m.enabled {
		return nil, false
	}

	result := make(map[string]any, len(userIDs))

	for _, uid := range userIDs {
		v, ok := m.cache.Get(kind, uid)
		if !ok {
			return nil, false
		}

		result[uid] = v
	}

	return result, true
}

// refresh reloads kind for every defined guest. Concurrent refreshes of the
// same kind share one round of queries. The shared round outlives any one
// caller's cancellation; each caller stops waiting on its own ctx.
func (m *Monitor) refresh(ctx context.Context, kind Kind) (map[string]any, error) {
	shared := context.WithoutCancel(ctx)

	ch := m.group.DoChan(string(kind), func() (any, error) {
		guests, err := m.listGuests(shared)
		if err != nil {
			return nil, err
		}

		data, err := m.query(shared, kind, guests)
		if err != nil {
			return nil, err
		}

		if err := m.cache.Refresh(kind, data); err != nil {
			return nil, err
		}

		m.logger.Info("metering: cache refreshed",
			slog.String("kind", string(kind)),
			slog.Int("guests", len(guests)),
			slog.Int("entries", len(data)),
		)

		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("metering: waiting for refresh: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		if res.Shared {
			m.logger.Debug("metering: joined in-flight refresh", slog.String("kind", string(kind)))
		}

		return res.Val.(map[string]any), nil
	}
}

func (m *Monitor) listGuests(ctx context.Context) ([]string, error) {
	res := m.caller.Do(ctx, connector.GuestList{})
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("metering: listing guests: %w", err)
	}

	list, ok := res.Output.([]any)
	if !ok {
		return nil, fmt.Errorf("metering: listing guests: unexpected output %T", res.Output)
	}

	guests := make([]string, 0, len(list))

	for _, item := range list {
		if s, ok := item.(string); ok {
			guests = append(guests, s)
		}
	}

	return guests, nil
}

// query fetches kind for each guest through a bounded errgroup. Client-side
// failures abort the whole query; errors reported by the service for one
// guest (typically a guest that is not logged on) only skip that guest.
func (m *Monitor) query(ctx context.Context, kind Kind, userIDs []string) (map[string]any, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	var (
		mu   gosync.Mutex
		data = make(map[string]any, len(userIDs))
	)

	for _, uid := range userIDs {
		g.Go(func() error {
			op, err := opFor(kind, uid)
			if err != nil {
				return err
			}

			res := m.caller.Do(gctx, op)
			if !res.OK() {
				if res.Local() {
					return fmt.Errorf("metering: inspecting %s: %w", uid, res.Err())
				}

				m.logger.Warn("metering: guest skipped",
					slog.String("kind", string(kind)),
					slog.String("userid", uid),
					slog.String("error", res.ErrMsg),
				)

				return nil
			}

			entries, ok := res.Output.(map[string]any)
			if !ok {
				m.logger.Warn("metering: unexpected output",
					slog.String("userid", uid),
					slog.String("type", fmt.Sprintf("%T", res.Output)),
				)

				return nil
			}

			mu.Lock()
			for k, v := range entries {
				data[guestKey(k)] = v
			}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return data, nil
}

func opFor(kind Kind, userID string) (connector.Operation, error) {
	switch kind {
	case KindCPUMem:
		return connector.GuestInspectStats{UserID: userID}, nil
	case KindVNICs:
		return connector.GuestInspectVNICs{UserID: userID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
