// Package session keeps live treemap viewers for the HTTP server.
//
// A session owns one [view.Navigator] over a loaded tree. The navigator is
// not safe for concurrent use, so every access goes through [Session.Do],
// which holds the session's mutex. Sessions expire after a sliding TTL:
// each successful [Store.Get] pushes the deadline out again.
//
//	store := session.NewStore(30 * time.Minute)
//	sess := store.Create(tree, treeHash, layout.NewRect(0, 0, 1200, 700))
//	sess.Do(func(nav *view.Navigator) { nav.Click("defense") })
//
//	sess, err := store.Get(ctx, id)
//	if errors.Is(err, errors.ErrCodeSessionNotFound) {
//	    // unknown or expired
//	}
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/budgetmap/pkg/errors"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/observability"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// ErrNotFound is returned for unknown and expired sessions.
var ErrNotFound = errors.New(errors.ErrCodeSessionNotFound, "session not found")

// Session is one viewer's navigation state.
type Session struct {
	ID        string
	TreeHash  string
	CreatedAt time.Time

	mu        sync.Mutex
	nav       *view.Navigator
	expiresAt time.Time
}

// Do runs fn with exclusive access to the session's navigator.
func (s *Session) Do(fn func(nav *view.Navigator)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.nav)
}

// ExpiresAt returns the current expiry deadline.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expiresAt)
}

func (s *Session) touch(deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = deadline
}

// =============================================================================
// Store
// =============================================================================

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) StoreOption { return func(s *Store) { s.now = now } }

// WithNavigatorOptions sets options applied to every new navigator.
func WithNavigatorOptions(opts ...view.Option) StoreOption {
	return func(s *Store) { s.navOpts = append(s.navOpts, opts...) }
}

// Store is an in-memory session registry safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	navOpts  []view.Option
}

// NewStore creates an empty store. A ttl <= 0 uses DefaultTTL.
func NewStore(ttl time.Duration, opts ...StoreOption) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session focused on the root of t.
func (s *Store) Create(t *hierarchy.Tree, treeHash string, bounds layout.Rect) *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		TreeHash:  treeHash,
		CreatedAt: now,
		expiresAt: now.Add(s.ttl),
	}

	opts := append(append([]view.Option(nil), s.navOpts...), view.WithCallbacks(hooksFor(sess.ID)))
	sess.nav = view.NewNavigator(t, bounds, opts...)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// hooksFor forwards navigator events to the navigation hooks.
func hooksFor(id string) view.Callbacks {
	return view.Callbacks{
		OnNodeClick: func(nodeID string, _ *hierarchy.Node) {
			observability.Navigation().OnNodeClick(context.Background(), id, nodeID)
		},
		OnStateChange: func(from, to view.State) {
			observability.Navigation().OnZoom(context.Background(), id, from.FocusID, to.FocusID, to.Depth())
		},
	}
}

// Get returns a live session and extends its expiry.
// Expired sessions are removed and reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	now := s.now()
	if sess.expired(now) {
		s.remove(id)
		return nil, ErrNotFound
	}
	sess.touch(now.Add(s.ttl))
	return sess, nil
}

// Delete closes and removes a session. Deleting an unknown id is an error.
func (s *Store) Delete(_ context.Context, id string) error {
	if !s.remove(id) {
		return ErrNotFound
	}
	return nil
}

// Cleanup removes expired sessions and returns how many were removed.
func (s *Store) Cleanup(_ context.Context) int {
	now := s.now()
	var expired []string
	s.mu.RLock()
	for id, sess := range s.sessions {
		if sess.expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range expired {
		s.remove(id)
	}
	return len(expired)
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close closes every session's navigator and empties the store.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Do(func(nav *view.Navigator) { nav.Close() })
	}
}

func (s *Store) remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.Do(func(nav *view.Navigator) { nav.Close() })
	}
	return ok
}
