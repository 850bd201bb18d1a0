// Package broker tracks which users hold an open real-time channel and
// routes messages to one user or to everybody.
//
// Delivery is best effort: a failed send is treated as a disconnect and the
// user silently leaves the roster. Callers learn about dead peers only
// through IsOnline / OnlineUsers.
package broker

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	ch          Channel
	connectedAt time.Time
}

// Broker owns the connection registry. One instance per process.
type Broker struct {
	mu       sync.RWMutex
	conns    map[int64]*entry
	lastSeen map[int64]time.Time

	now    func() time.Time
	onDrop func(userID int64)
	logger *zap.Logger
}

// Option configures a Broker.
type Option func(*Broker)

// WithClock overrides the wall clock used for last-seen timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Broker) { b.now = now }
}

// WithLogger sets the logger used for disconnect diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *Broker) { b.logger = l }
}

// WithDropHook registers fn to be called after a user was removed because a
// send or ping to them failed. fn runs outside the registry lock.
func WithDropHook(fn func(userID int64)) Option {
	return func(b *Broker) { b.onDrop = fn }
}

// New creates an empty broker.
func New(opts ...Option) *Broker {
	b := &Broker{
		conns:    make(map[int64]*entry),
		lastSeen: make(map[int64]time.Time),
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetDropHook replaces the drop hook. Used when the hook's owner is built
// after the broker.
func (b *Broker) SetDropHook(fn func(userID int64)) {
	b.mu.Lock()
	b.onDrop = fn
	b.mu.Unlock()
}

// Register stores ch as userID's channel. An existing channel for the same
// user is replaced and closed.
func (b *Broker) Register(userID int64, ch Channel) {
	now := b.now()

	b.mu.Lock()
	old := b.conns[userID]
	b.conns[userID] = &entry{ch: ch, connectedAt: now}
	b.lastSeen[userID] = now
	b.mu.Unlock()

	if old != nil && old.ch != ch {
		b.logger.Debug("replacing channel", zap.Int64("user_id", userID))
		_ = old.ch.Close()
	}
}

// Unregister removes userID from the registry and stamps its last-seen time.
// Unregistering an absent user is a no-op.
func (b *Broker) Unregister(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.conns[userID]; !ok {
		return
	}
	delete(b.conns, userID)
	b.lastSeen[userID] = b.now()
}

// Release unregisters userID only while ch is still its registered channel.
// It reports whether the user was removed.
func (b *Broker) Release(userID int64, ch Channel) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.conns[userID]
	if !ok || e.ch != ch {
		return false
	}
	delete(b.conns, userID)
	b.lastSeen[userID] = b.now()
	return true
}

// SendToUser attempts delivery to userID. Unknown users are ignored and
// failures unregister the user without reporting an error.
func (b *Broker) SendToUser(userID int64, msg any) {
	b.mu.RLock()
	e, ok := b.conns[userID]
	b.mu.RUnlock()
	if !ok {
		return
	}

	if deliver(e.ch, msg) == PeerGone {
		b.drop(map[int64]Channel{userID: e.ch})
	}
}

// Broadcast delivers msg to every registered user.
func (b *Broker) Broadcast(msg any) {
	b.BroadcastExcept(msg)
}

// BroadcastExcept delivers msg to every registered user not listed in
// exclude. Users whose send failed are unregistered once all sends were
// attempted.
func (b *Broker) BroadcastExcept(msg any, exclude ...int64) {
	targets := b.snapshot(exclude)

	var failed map[int64]Channel
	for userID, ch := range targets {
		if deliver(ch, msg) == PeerGone {
			if failed == nil {
				failed = make(map[int64]Channel)
			}
			failed[userID] = ch
		}
	}
	b.drop(failed)
}

// PingAll probes every channel that supports it and drops the dead ones.
func (b *Broker) PingAll() {
	targets := b.snapshot(nil)

	var failed map[int64]Channel
	for userID, ch := range targets {
		if probe(ch) == PeerGone {
			if failed == nil {
				failed = make(map[int64]Channel)
			}
			failed[userID] = ch
		}
	}
	b.drop(failed)
}

// IsOnline reports whether userID currently has a channel.
func (b *Broker) IsOnline(userID int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.conns[userID]
	return ok
}

// OnlineUsers returns the registered user ids in ascending order.
func (b *Broker) OnlineUsers() []int64 {
	b.mu.RLock()
	ids := make([]int64, 0, len(b.conns))
	for id := range b.conns {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LastSeen returns the last connect or disconnect time recorded for userID.
func (b *Broker) LastSeen(userID int64) (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.lastSeen[userID]
	return t, ok
}

// Close closes every registered channel and empties the registry.
func (b *Broker) Close() {
	b.mu.Lock()
	conns := b.conns
	b.conns = make(map[int64]*entry)
	now := b.now()
	for id := range conns {
		b.lastSeen[id] = now
	}
	b.mu.Unlock()

	for _, e := range conns {
		_ = e.ch.Close()
	}
}

func (b *Broker) snapshot(exclude []int64) map[int64]Channel {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[int64]Channel, len(b.conns))
	for id, e := range b.conns {
		out[id] = e.ch
	}
	for _, id := range exclude {
		delete(out, id)
	}
	return out
}

// drop unregisters users whose channel failed, then runs the drop hook for
// each one actually removed.
func (b *Broker) drop(failed map[int64]Channel) {
	if len(failed) == 0 {
		return
	}

	removed := make([]int64, 0, len(failed))
	for userID, ch := range failed {
		if b.Release(userID, ch) {
			_ = ch.Close()
			removed = append(removed, userID)
			b.logger.Debug("peer gone", zap.Int64("user_id", userID))
		}
	}

	b.mu.RLock()
	hook := b.onDrop
	b.mu.RUnlock()
	if hook == nil {
		return
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	for _, userID := range removed {
		hook(userID)
	}
}
