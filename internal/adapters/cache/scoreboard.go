// Package cache holds the disposable sorted-read projection of the
// leaderboard, one treap per scope.
//
// Ordering: points DESC, then earliest update, then user id. In-order
// traversal yields the scope's standing best to worst, and size-augmented
// nodes give O(log n) ordinal rank lookups. The projection is never
// authoritative; Rebuild reloads any scope from the primary store.
package cache

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/quizrush/quizrush/internal/domain/model"
	"github.com/quizrush/quizrush/pkg/metrics"
)

// Row is one participant fed into a scope rebuild or update.
type Row struct {
	UserID    string
	Points    int64
	UpdatedAt time.Time
}

// record remembers a user's key fields so updates can remove the old node.
type record struct {
	points    int64
	updatedAt time.Time
}

// treap node, size-augmented for ordinal lookups.
type node struct {
	id        string
	points    int64
	updatedAt time.Time
	prio      uint64
	left      *node
	right     *node
	size      int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aPoints, aAt, aID) ranks ahead of (bPoints, bAt, bID).
func less(aPoints int64, aAt time.Time, aID string, bPoints int64, bAt time.Time, bID string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints
	}
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt) // earlier arrival at a total outranks later
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, item *node) *node {
	if n == nil {
		item.left, item.right = nil, nil
		item.size = 1
		return item
	}
	if less(item.points, item.updatedAt, item.id, n.points, n.updatedAt, n.id) {
		n.left = insert(n.left, item)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, item)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, points int64, updatedAt time.Time) *node {
	if n == nil {
		return nil
	}
	if n.id == id && n.points == points && n.updatedAt.Equal(updatedAt) {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, points, updatedAt)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, points, updatedAt)
		}
	} else if less(points, updatedAt, id, n.points, n.updatedAt, n.id) {
		n.left = remove(n.left, id, points, updatedAt)
	} else {
		n.right = remove(n.right, id, points, updatedAt)
	}
	fix(n)
	return n
}

// ordinal returns the 1-based position of the key, counting nodes ranked
// ahead of it during descent.
func ordinal(n *node, id string, points int64, updatedAt time.Time) int {
	pos := 1
	for n != nil {
		if n.id == id && n.points == points && n.updatedAt.Equal(updatedAt) {
			return pos + nsize(n.left)
		}
		if less(points, updatedAt, id, n.points, n.updatedAt, n.id) {
			n = n.left
		} else {
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

func collectTopN(n *node, limit int, out *[]model.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, model.Entry{UserID: n.id, Points: n.points})
	}
	collectTopN(n.right, limit, out)
}

// board is one scope's treap plus its per-user records.
type board struct {
	root *node
	byID map[string]record
}

// Scoreboard is the thread-safe multi-scope projection.
type Scoreboard struct {
	mu     sync.RWMutex
	scopes map[string]*board
	rng    *rand.Rand
}

// NewScoreboard constructs an empty projection.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{
		scopes: make(map[string]*board),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // treap priorities, not security
	}
}

func (s *Scoreboard) boardFor(scope string) *board {
	b, ok := s.scopes[scope]
	if !ok {
		b = &board{byID: make(map[string]record)}
		s.scopes[scope] = b
	}
	return b
}

// Update sets a user's points within a scope, replacing any previous entry.
func (s *Scoreboard) Update(ctx context.Context, scope, userID string, points int64, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.boardFor(scope)
	if old, ok := b.byID[userID]; ok {
		b.root = remove(b.root, userID, old.points, old.updatedAt)
	}
	b.byID[userID] = record{points: points, updatedAt: updatedAt}
	b.root = insert(b.root, &node{
		id:        userID,
		points:    points,
		updatedAt: updatedAt,
		prio:      s.rng.Uint64(),
	})
}

// Rebuild replaces the scope's projection wholesale from primary-store rows.
// The swap is atomic under the lock; readers never observe a half-built
// scope.
func (s *Scoreboard) Rebuild(ctx context.Context, scope string, rows []Row) {
	start := time.Now()

	fresh := &board{byID: make(map[string]record, len(rows))}

	s.mu.Lock()
	for _, r := range rows {
		fresh.byID[r.UserID] = record{points: r.Points, updatedAt: r.UpdatedAt}
		fresh.root = insert(fresh.root, &node{
			id:        r.UserID,
			points:    r.Points,
			updatedAt: r.UpdatedAt,
			prio:      s.rng.Uint64(),
		})
	}
	s.scopes[scope] = fresh
	s.mu.Unlock()

	metrics.RecordCacheRebuild()
	metrics.RecordCacheRebuildLatency(float64(time.Since(start).Milliseconds()))
}

// TopN returns the scope's best n entries with ordinal ranks assigned.
func (s *Scoreboard) TopN(ctx context.Context, scope string, n int) ([]model.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.scopes[scope]
	if !ok {
		return []model.Entry{}, nil
	}
	entries := make([]model.Entry, 0, n)
	collectTopN(b.root, n, &entries)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Rank returns a user's ordinal position and points within a scope.
func (s *Scoreboard) Rank(ctx context.Context, scope, userID string) (model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.scopes[scope]
	if !ok {
		return model.Entry{}, ErrNotFound
	}
	rec, ok := b.byID[userID]
	if !ok {
		return model.Entry{}, ErrNotFound
	}
	pos := ordinal(b.root, userID, rec.points, rec.updatedAt)
	if pos == 0 {
		return model.Entry{}, ErrNotFound
	}
	return model.Entry{Rank: pos, UserID: userID, Points: rec.points}, nil
}

// Count returns the number of participants tracked for a scope.
func (s *Scoreboard) Count(ctx context.Context, scope string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.scopes[scope]
	if !ok {
		return 0
	}
	return nsize(b.root)
}

// Scopes lists scopes currently held in the projection.
func (s *Scoreboard) Scopes(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.scopes))
	for scope := range s.scopes {
		out = append(out, scope)
	}
	return out
}
