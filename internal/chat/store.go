// Package chat merges the four asynchronous message sources of a room — the
// initial history fetch, the periodic re-fetch, live websocket pushes and
// local optimistic sends — into one ordered, deduplicated list.
package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akobyansamvel/curs/internal/config"
	"github.com/akobyansamvel/curs/internal/models"
)

// Store holds the reconciled message list of a single room.
//
// Deduplication keys, in order:
//  1. the server-assigned identifier — no two entries ever share a non-nil ID;
//  2. for optimistic entries, which have no identifier yet, a secondary key:
//     an incoming confirmed message supersedes a pending entry when it has
//     the same sender ID, byte-identical content and a timestamp within
//     config.ConfirmMatchWindow of the optimistic send. Each pending entry
//     carries a unique attempt token and is retired on first match, so two
//     identical texts sent back-to-back each consume their own confirmation.
//
// Entries are only appended or superseded, never edited in place: readers of
// a Messages() snapshot can never observe a torn message.
type Store struct {
	mu     sync.Mutex
	items  []models.ChatMessage
	loaded bool

	// Window overrides config.ConfirmMatchWindow in tests.
	Window time.Duration
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{Window: config.ConfirmMatchWindow}
}

// Messages returns a snapshot copy of the reconciled list, always sorted
// ascending by creation timestamp; equal timestamps keep arrival order.
func (s *Store) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of entries, pending ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Loaded reports whether the initial history fetch has been applied.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// AddOptimistic inserts a locally-created entry for a just-submitted message
// and returns it. The entry has no server identifier; its attempt token ties
// the later confirmation back to it.
func (s *Store) AddOptimistic(sender models.UserRef, content string) models.ChatMessage {
	msg := models.ChatMessage{
		Sender:     &sender,
		Content:    content,
		CreatedAt:  time.Now(),
		LocalToken: uuid.New().String(),
		Pending:    true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, msg)
	s.sortLocked()
	return msg
}

// ApplyLive folds one message pushed over the live channel into the list.
// Duplicates (by identifier or by the secondary key against a pending entry)
// are dropped.
func (s *Store) ApplyLive(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(msg)
}

// Confirm replaces the pending entry carrying token with its authoritative
// counterpart from the send response. If a live echo already delivered the
// confirmed message, the pending entry is simply dropped. The replacement
// keeps the attempt token, so a view tracking entries by token sees one
// message across the pending-to-confirmed transition.
func (s *Store) Confirm(token string, confirmed models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.items {
		if s.items[i].Pending && s.items[i].LocalToken == token {
			idx = i
			break
		}
	}

	if confirmed.Confirmed() && s.hasIDLocked(*confirmed.ID) {
		if idx >= 0 {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
		}
		return
	}

	if idx >= 0 {
		confirmed.LocalToken = token
		s.items[idx] = confirmed
	} else {
		s.items = append(s.items, confirmed)
	}
	s.sortLocked()
}

// ApplySnapshot folds a full history fetch into the list.
//
// On the initial load the snapshot replaces the list wholesale. Afterwards a
// re-fetch replaces it only when the count of server-confirmed entries
// differs from the snapshot's; otherwise it is a no-op, so polling can never
// discard an optimistic entry the server does not know about yet. Pending
// entries survive a replace: matched ones are superseded by their snapshot
// counterpart, the rest are re-appended.
func (s *Store) ApplySnapshot(msgs []models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && s.confirmedLenLocked() == len(msgs) {
		return
	}

	pending := make([]models.ChatMessage, 0, 2)
	for _, m := range s.items {
		if m.Pending {
			pending = append(pending, m)
		}
	}

	s.items = make([]models.ChatMessage, 0, len(msgs)+len(pending))
	s.items = append(s.items, msgs...)
	s.loaded = true

	for _, p := range pending {
		if idx := s.matchPendingLocked(p); idx >= 0 {
			s.items[idx].LocalToken = p.LocalToken
		} else {
			// Нет подтверждения в снапшоте — оставляем как есть.
			s.items = append(s.items, p)
		}
	}
	s.sortLocked()
}

// mergeLocked appends msg unless an existing entry already covers it.
func (s *Store) mergeLocked(msg models.ChatMessage) {
	if msg.Confirmed() {
		if s.hasIDLocked(*msg.ID) {
			return
		}
		if idx := s.matchConfirmationLocked(msg); idx >= 0 {
			msg.LocalToken = s.items[idx].LocalToken
			s.items[idx] = msg
			s.sortLocked()
			return
		}
	}
	s.items = append(s.items, msg)
	s.sortLocked()
}

func (s *Store) hasIDLocked(id int64) bool {
	for i := range s.items {
		if s.items[i].ID != nil && *s.items[i].ID == id {
			return true
		}
	}
	return false
}

// matchConfirmationLocked finds the pending entry the confirmed message
// supersedes, or -1.
func (s *Store) matchConfirmationLocked(confirmed models.ChatMessage) int {
	for i := range s.items {
		if s.items[i].Pending && s.secondaryMatchLocked(s.items[i], confirmed) {
			return i
		}
	}
	return -1
}

// matchPendingLocked finds the confirmed entry covering the pending one,
// or -1.
func (s *Store) matchPendingLocked(p models.ChatMessage) int {
	for i := range s.items {
		if s.items[i].Confirmed() && s.secondaryMatchLocked(p, s.items[i]) {
			return i
		}
	}
	return -1
}

// secondaryMatchLocked is the documented fallback key for entries without a
// server identifier: same sender, identical content, timestamps within the
// confirmation window.
func (s *Store) secondaryMatchLocked(pending, confirmed models.ChatMessage) bool {
	if pending.Sender == nil || confirmed.Sender == nil {
		return false
	}
	if pending.Sender.ID != confirmed.Sender.ID || pending.Content != confirmed.Content {
		return false
	}
	window := s.Window
	if window <= 0 {
		window = config.ConfirmMatchWindow
	}
	d := confirmed.CreatedAt.Sub(pending.CreatedAt)
	if d < 0 {
		d = -d
	}
	return d <= window
}

func (s *Store) confirmedLenLocked() int {
	n := 0
	for i := range s.items {
		if s.items[i].Confirmed() {
			n++
		}
	}
	return n
}

// sortLocked keeps the list ascending by timestamp. The sort is stable and
// ties between confirmed entries break by identifier, so arrival order is
// preserved for simultaneous timestamps.
func (s *Store) sortLocked() {
	sort.SliceStable(s.items, func(i, j int) bool {
		a, b := &s.items[i], &s.items[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.ID != nil && b.ID != nil {
			return *a.ID < *b.ID
		}
		return false
	})
}
