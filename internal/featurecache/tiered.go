package featurecache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/logger"
	"github.com/chainscore-io/chainscore-backend/pkg/redis"
)

type remoteStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Tiered layers an optional Redis tier over the in-process cache so multiple
// scoring workers can share extraction results. Redis is strictly
// best-effort: any remote failure degrades to the local tier and is logged,
// never returned.
type Tiered struct {
	local  *Cache
	remote remoteStore
	ttl    time.Duration
	logg   *logger.Logger
}

// NewTiered builds the tiered cache. remote may be nil, which leaves only
// the in-process tier active.
func NewTiered(local *Cache, remote remoteStore, ttl time.Duration, logg *logger.Logger) *Tiered {
	if local == nil {
		local = New(ttl)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tiered{local: local, remote: remote, ttl: ttl, logg: logg}
}

// Get checks the local tier first, then Redis. A remote hit repopulates the
// local tier.
func (t *Tiered) Get(ctx context.Context, partyID uuid.UUID) (Snapshot, bool) {
	key := Key(partyID)
	if snapshot, ok := t.local.Get(key); ok {
		return snapshot, true
	}
	if t.remote == nil {
		return Snapshot{}, false
	}

	raw, err := t.remote.Get(ctx, key)
	if err != nil {
		if !redis.IsMiss(err) {
			t.logRemoteError(ctx, err)
		}
		return Snapshot{}, false
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		t.logRemoteError(ctx, err)
		return Snapshot{}, false
	}
	if time.Since(snapshot.CapturedAt) > t.ttl {
		_ = t.remote.Del(ctx, key)
		return Snapshot{}, false
	}
	t.local.Set(key, snapshot, t.ttl-time.Since(snapshot.CapturedAt))
	return snapshot, true
}

// Set writes both tiers.
func (t *Tiered) Set(ctx context.Context, partyID uuid.UUID, snapshot Snapshot, ttl time.Duration) {
	if ttl <= 0 {
		ttl = t.ttl
	}
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}
	key := Key(partyID)
	t.local.Set(key, snapshot, ttl)

	if t.remote == nil {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		t.logRemoteError(ctx, err)
		return
	}
	if err := t.remote.Set(ctx, key, string(payload), ttl); err != nil {
		t.logRemoteError(ctx, err)
	}
}

// Invalidate removes the entries for a set of parties from both tiers.
func (t *Tiered) Invalidate(ctx context.Context, partyIDs []uuid.UUID) {
	t.local.InvalidateParties(partyIDs)
	if t.remote == nil || len(partyIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(partyIDs))
	for _, id := range partyIDs {
		keys = append(keys, Key(id))
	}
	if err := t.remote.Del(ctx, keys...); err != nil {
		t.logRemoteError(ctx, err)
	}
}

// Prune drops expired local entries; Redis expires its own keys.
func (t *Tiered) Prune() int {
	return t.local.Prune()
}

// StartPruning drops expired local entries on a fixed cadence until ctx is
// canceled. Run it in its own goroutine; every instance prunes its own
// local tier.
func (t *Tiered) StartPruning(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Prune(); n > 0 && t.logg != nil {
				t.logg.Info(ctx, fmt.Sprintf("pruned %d expired feature snapshots", n))
			}
		}
	}
}

// Stats reports the local tier's counters.
func (t *Tiered) Stats() Stats {
	return t.local.Stats()
}

func (t *Tiered) logRemoteError(ctx context.Context, err error) {
	if t.logg == nil {
		return
	}
	t.logg.Warn(ctx, "feature cache redis tier degraded: "+err.Error())
}
