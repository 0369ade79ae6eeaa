package positions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cindral/core/internal/models"
)

const DefaultPrefix = "cindral-system-map-positions"

var errUnreadable = errors.New("unreadable node positions")

// Store reads and writes a tenant's saved layout. Storage failures are logged
// and swallowed so a broken medium only ever means "no saved positions".
// Writes to one key are serialized within the process.
type Store struct {
	kv     KV
	prefix string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(kv KV, prefix string, logger *slog.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, prefix: prefix, logger: logger, locks: make(map[string]*sync.Mutex)}
}

// lock takes the write lock for key. Locks are never removed; there is one per
// tenant that has written positions.
func (s *Store) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Key returns the storage key for tenantID: "{prefix}-{tenantId}".
func (s *Store) Key(tenantID string) string {
	return s.prefix + "-" + tenantID
}

// Load returns the saved positions, or nil when none exist or they cannot be read.
func (s *Store) Load(ctx context.Context, tenantID string) []models.NodePosition {
	saved, err := s.load(ctx, tenantID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load node positions", "tenant", tenantID, "error", err)
		return nil
	}
	return saved
}

func (s *Store) load(ctx context.Context, tenantID string) ([]models.NodePosition, error) {
	raw, ok, err := s.kv.Get(ctx, s.Key(tenantID))
	if err != nil || !ok {
		return nil, err
	}

	var saved []models.NodePosition
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("%w: %v", errUnreadable, err)
	}
	return saved, nil
}

// Save replaces the tenant's saved positions.
func (s *Store) Save(ctx context.Context, tenantID string, saved []models.NodePosition) {
	defer s.lock(s.Key(tenantID))()
	s.save(ctx, tenantID, saved)
}

func (s *Store) save(ctx context.Context, tenantID string, saved []models.NodePosition) {
	if saved == nil {
		saved = []models.NodePosition{}
	}
	raw, err := json.Marshal(saved)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode node positions", "tenant", tenantID, "error", err)
		return
	}
	if err := s.kv.Set(ctx, s.Key(tenantID), raw); err != nil {
		s.logger.WarnContext(ctx, "failed to save node positions", "tenant", tenantID, "error", err)
	}
}

// Record upserts one node's position, as on drag release. When the medium
// cannot be read nothing is written, so a transient failure does not wipe the
// rest of the layout. Undecodable entries are replaced.
func (s *Store) Record(ctx context.Context, tenantID string, pos models.NodePosition) {
	defer s.lock(s.Key(tenantID))()

	saved, err := s.load(ctx, tenantID)
	if errors.Is(err, errUnreadable) {
		s.logger.WarnContext(ctx, "replacing unreadable node positions", "tenant", tenantID, "error", err)
		saved, err = nil, nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "skipping node position update", "tenant", tenantID, "node", pos.NodeID, "error", err)
		return
	}

	replaced := false
	for i := range saved {
		if saved[i].NodeID == pos.NodeID {
			saved[i] = pos
			replaced = true
		}
	}
	if !replaced {
		saved = append(saved, pos)
	}

	s.save(ctx, tenantID, saved)
}

// Clear drops every saved position for the tenant (auto-layout).
func (s *Store) Clear(ctx context.Context, tenantID string) {
	defer s.lock(s.Key(tenantID))()

	if err := s.kv.Delete(ctx, s.Key(tenantID)); err != nil {
		s.logger.WarnContext(ctx, "failed to clear node positions", "tenant", tenantID, "error", err)
	}
}
