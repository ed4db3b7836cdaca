package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"collaborative-codepad/internal/domain"
	"collaborative-codepad/internal/repository"
)

// Outbound event names, mapped from inbound transport events.
const (
	EventUserJoined     = "userJoined"
	EventCodeUpdate     = "codeUpdate"
	EventUserTyping     = "userTyping"
	EventLanguageUpdate = "languageUpdate"
)

// Broadcaster delivers a named event to the live subscribers of a room.
// excludeConnID, when non-empty, skips the originating connection so that
// senders never receive an echo of their own mutation.
type Broadcaster interface {
	Broadcast(roomID, event string, payload interface{}, excludeConnID string)
}

// SnapshotFlusher hands a snapshot to the asynchronous persistence path.
// Enqueueing must be cheap; the durable write itself happens elsewhere with
// retry and backoff. Eviction flushes are marked so they can be prioritized.
type SnapshotFlusher interface {
	EnqueueFlush(ctx context.Context, snapshot *domain.RoomSnapshot, evicting bool) error
}

// liveRoom pairs a room with its critical section. All mutations to the
// room (membership, code, language, eviction) happen under mu; unrelated
// rooms never contend on the same lock.
type liveRoom struct {
	mu       sync.Mutex
	room     *domain.Room
	hydrated bool
	evicted  bool
	dirty    bool // state not yet handed to the flush queue
}

// SessionService is the session registry and presence tracker. It owns the
// live rooms map and the connection-to-room presence index, mutates room
// state, and decides what to broadcast.
type SessionService struct {
	snapshots   repository.SnapshotRepository
	cache       repository.SnapshotCache
	flusher     SnapshotFlusher
	broadcaster Broadcaster
	cacheTTL    time.Duration

	mu       sync.RWMutex
	rooms    map[string]*liveRoom
	presence map[string]string // connectionID -> roomID
}

// NewSessionService creates a SessionService. All dependencies are required.
func NewSessionService(
	snapshots repository.SnapshotRepository,
	cache repository.SnapshotCache,
	flusher SnapshotFlusher,
	broadcaster Broadcaster,
) *SessionService {
	if snapshots == nil || cache == nil || flusher == nil || broadcaster == nil {
		panic("all dependencies must be non-nil for SessionService")
	}
	return &SessionService{
		snapshots:   snapshots,
		cache:       cache,
		flusher:     flusher,
		broadcaster: broadcaster,
		cacheTTL:    time.Hour,
		rooms:       make(map[string]*liveRoom),
		presence:    make(map[string]string),
	}
}

// Join adds a connection to a room, hydrating the room from the persistence
// gateway on first join (or creating it empty with the default language).
// The membership-changed broadcast goes to every member of the room,
// including the joining participant. A connection already joined elsewhere
// leaves its old room first.
func (s *SessionService) Join(ctx context.Context, connID, roomID, displayName string) error {
	if roomID == "" {
		return fmt.Errorf("%w: roomId must not be empty", ErrValidation)
	}
	if displayName == "" {
		return fmt.Errorf("%w: userName must not be empty", ErrValidation)
	}
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": connID, "room_id": roomID})

	s.mu.RLock()
	current, joined := s.presence[connID]
	s.mu.RUnlock()
	if joined {
		if current == roomID {
			// Re-join of the same room: refresh the display name only.
			return s.renameMember(ctx, connID, roomID, displayName)
		}
		if err := s.Leave(ctx, connID); err != nil {
			return err
		}
	}

	for {
		lr := s.getOrCreateRoom(roomID)
		lr.mu.Lock()
		if lr.evicted {
			// Raced with a concurrent full leave; the entry is gone from
			// the registry, so grab a fresh one.
			lr.mu.Unlock()
			continue
		}
		if !lr.hydrated {
			s.hydrate(ctx, lr)
		}
		lr.room.Members[connID] = domain.Participant{ConnectionID: connID, DisplayName: displayName}
		s.mu.Lock()
		s.presence[connID] = roomID
		s.mu.Unlock()

		names := lr.room.MemberNames()
		s.broadcaster.Broadcast(roomID, EventUserJoined, names, "")
		lr.mu.Unlock()

		logCtx.WithField("member_count", len(names)).Info("Participant joined room")
		return nil
	}
}

// Leave removes a connection from its current room. Unknown connections are
// a silent no-op, which makes leave and disconnect idempotent. When the last
// member leaves, the room's snapshot is handed to the flush queue and the
// room is evicted from the live registry.
func (s *SessionService) Leave(ctx context.Context, connID string) error {
	roomID, lr, ok := s.lookup(connID)
	if !ok {
		return nil
	}
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": connID, "room_id": roomID})

	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.evicted {
		return nil
	}
	if _, member := lr.room.Members[connID]; !member {
		return nil
	}
	delete(lr.room.Members, connID)
	s.mu.Lock()
	delete(s.presence, connID)
	empty := len(lr.room.Members) == 0
	if empty {
		delete(s.rooms, roomID)
	}
	s.mu.Unlock()

	if empty {
		// Flush-then-evict: the final snapshot goes to the durable queue
		// before the room leaves the live registry.
		s.enqueueFlushLocked(ctx, lr, true)
		lr.evicted = true
		logCtx.Info("Last participant left, room evicted from registry")
		return nil
	}

	s.broadcaster.Broadcast(roomID, EventUserJoined, lr.room.MemberNames(), connID)
	logCtx.WithField("member_count", len(lr.room.Members)).Info("Participant left room")
	return nil
}

// Disconnect handles a dropped transport connection. The semantics are
// identical to Leave; the disconnect itself is the terminal signal for the
// participant.
func (s *SessionService) Disconnect(ctx context.Context, connID string) error {
	return s.Leave(ctx, connID)
}

// ChangeCode overwrites the room's code buffer (last-writer-wins), bumps
// UpdatedAt, enqueues a best-effort persistence write, and broadcasts the
// new code to every other member.
func (s *SessionService) ChangeCode(ctx context.Context, connID, code string) error {
	roomID, lr, ok := s.lookup(connID)
	if !ok {
		return ErrNoActiveRoom
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.evicted {
		return ErrNoActiveRoom
	}
	lr.room.Code = code
	lr.room.UpdatedAt = time.Now().UTC()
	s.enqueueFlushLocked(ctx, lr, false)
	s.broadcaster.Broadcast(roomID, EventCodeUpdate, code, connID)
	return nil
}

// ChangeLanguage switches the room's language. An unsupported language is
// rejected before any state is touched, so the prior language survives.
func (s *SessionService) ChangeLanguage(ctx context.Context, connID, language string) error {
	normalized, supported := domain.NormalizeLanguage(language)
	if !supported {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	roomID, lr, ok := s.lookup(connID)
	if !ok {
		return ErrNoActiveRoom
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.evicted {
		return ErrNoActiveRoom
	}
	lr.room.Language = normalized
	lr.room.UpdatedAt = time.Now().UTC()
	s.enqueueFlushLocked(ctx, lr, false)
	s.broadcaster.Broadcast(roomID, EventLanguageUpdate, normalized, connID)
	return nil
}

// TypingPing broadcasts a transient typing notification to the other
// members. It mutates nothing and is never persisted; a ping from an
// unknown connection is a silent no-op.
func (s *SessionService) TypingPing(ctx context.Context, connID string) error {
	roomID, lr, ok := s.lookup(connID)
	if !ok {
		return nil
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.evicted {
		return nil
	}
	member, present := lr.room.Members[connID]
	if !present {
		return nil
	}
	s.broadcaster.Broadcast(roomID, EventUserTyping, member.DisplayName, connID)
	return nil
}

// ListRooms returns lightweight metadata for every live room, sorted by ID.
func (s *SessionService) ListRooms() []domain.RoomInfo {
	s.mu.RLock()
	live := make([]*liveRoom, 0, len(s.rooms))
	for _, lr := range s.rooms {
		live = append(live, lr)
	}
	s.mu.RUnlock()

	infos := make([]domain.RoomInfo, 0, len(live))
	for _, lr := range live {
		lr.mu.Lock()
		if !lr.evicted {
			infos = append(infos, domain.RoomInfo{
				ID:          lr.room.ID,
				Language:    lr.room.Language,
				MemberCount: len(lr.room.Members),
				Members:     lr.room.MemberNames(),
				UpdatedAt:   lr.room.UpdatedAt,
			})
		}
		lr.mu.Unlock()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// GetRoom returns a single room's snapshot: the live state when the room is
// active, the last durable snapshot otherwise.
func (s *SessionService) GetRoom(ctx context.Context, roomID string) (*domain.RoomSnapshot, error) {
	s.mu.RLock()
	lr, live := s.rooms[roomID]
	s.mu.RUnlock()

	if live {
		lr.mu.Lock()
		defer lr.mu.Unlock()
		if !lr.evicted {
			snap, err := lr.room.Snapshot()
			if err != nil {
				logrus.WithField("room_id", roomID).WithError(err).Error("Failed to build live room snapshot")
				return nil, ErrInternalServer
			}
			return snap, nil
		}
	}

	snap, err := s.loadSnapshot(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to load room snapshot")
		return nil, ErrInternalServer
	}
	return snap, nil
}

// IsLive reports whether a room is currently present in the live registry.
func (s *SessionService) IsLive(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

// FlushDirty re-enqueues flushes for live rooms whose last enqueue failed.
// It is driven by the periodic sweep task and returns the number of rooms
// flushed.
func (s *SessionService) FlushDirty(ctx context.Context) int {
	s.mu.RLock()
	live := make([]*liveRoom, 0, len(s.rooms))
	for _, lr := range s.rooms {
		live = append(live, lr)
	}
	s.mu.RUnlock()

	flushed := 0
	for _, lr := range live {
		lr.mu.Lock()
		if !lr.evicted && lr.dirty {
			s.enqueueFlushLocked(ctx, lr, false)
			if !lr.dirty {
				flushed++
			}
		}
		lr.mu.Unlock()
	}
	return flushed
}

// --- internal helpers ---

// lookup resolves a connection through the presence index. It never blocks
// on a room lock.
func (s *SessionService) lookup(connID string) (string, *liveRoom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID, ok := s.presence[connID]
	if !ok {
		return "", nil, false
	}
	lr, ok := s.rooms[roomID]
	if !ok {
		return "", nil, false
	}
	return roomID, lr, true
}

func (s *SessionService) getOrCreateRoom(roomID string) *liveRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lr, ok := s.rooms[roomID]; ok {
		return lr
	}
	lr := &liveRoom{room: domain.NewRoom(roomID)}
	s.rooms[roomID] = lr
	return lr
}

func (s *SessionService) renameMember(ctx context.Context, connID, roomID, displayName string) error {
	_, lr, ok := s.lookup(connID)
	if !ok {
		return ErrNoActiveRoom
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.evicted {
		return ErrNoActiveRoom
	}
	lr.room.Members[connID] = domain.Participant{ConnectionID: connID, DisplayName: displayName}
	s.broadcaster.Broadcast(roomID, EventUserJoined, lr.room.MemberNames(), "")
	return nil
}

// hydrate fills a freshly created liveRoom from the cache or the gateway.
// A gateway failure degrades the room to live-only rather than failing the
// join; a missing snapshot leaves the empty-room defaults in place.
// Caller holds lr.mu.
func (s *SessionService) hydrate(ctx context.Context, lr *liveRoom) {
	lr.hydrated = true
	roomID := lr.room.ID
	logCtx := logrus.WithField("room_id", roomID)

	snap, err := s.loadSnapshot(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logCtx.Debug("No snapshot found, room created empty")
		} else {
			logCtx.WithError(err).Warn("Snapshot hydration failed, room starts live-only")
		}
		return
	}
	lr.room.Code = snap.Code
	if normalized, ok := domain.NormalizeLanguage(snap.Language); ok {
		lr.room.Language = normalized
	}
	if !snap.CreatedAt.IsZero() {
		lr.room.CreatedAt = snap.CreatedAt
	}
	logCtx.Info("Room hydrated from snapshot")
}

// loadSnapshot reads through the cache to the gateway, backfilling the
// cache on a database hit.
func (s *SessionService) loadSnapshot(ctx context.Context, roomID string) (*domain.RoomSnapshot, error) {
	cached, err := s.cache.GetCached(ctx, roomID)
	if err == nil && cached != nil {
		return cached, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logrus.WithField("room_id", roomID).WithError(err).Warn("Snapshot cache read failed")
	}

	snap, err := s.snapshots.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	go func(toCache *domain.RoomSnapshot) {
		cacheCtx := context.Background()
		if err := s.cache.SetCached(cacheCtx, toCache.RoomID, toCache, s.cacheTTL); err != nil {
			logrus.WithField("room_id", toCache.RoomID).WithError(err).Warn("Failed to warm snapshot cache")
		}
	}(snap)
	return snap, nil
}

// enqueueFlushLocked hands the room's current snapshot to the flush queue.
// Failures are logged and flagged for the periodic sweep; they are never
// surfaced to the collaboration path. Caller holds lr.mu.
func (s *SessionService) enqueueFlushLocked(ctx context.Context, lr *liveRoom, evicting bool) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": lr.room.ID, "evicting": evicting})
	snap, err := lr.room.Snapshot()
	if err != nil {
		logCtx.WithError(err).Error("Failed to build snapshot for flush")
		lr.dirty = true
		return
	}
	if err := s.flusher.EnqueueFlush(ctx, snap, evicting); err != nil {
		logCtx.WithError(err).Warn("Failed to enqueue snapshot flush, room stays live-only until next sweep")
		lr.dirty = true
		return
	}
	lr.dirty = false
}
