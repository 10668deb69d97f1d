// Package session keeps the display state of each connected presentation client.
//
// A Session serialises scans and manual edits. Each lookup carries the next value of a
// per-session sequence, and outcomes for anything but the latest sequence are dropped,
// so the screen always reflects the most recent scan regardless of response order.
package session

import (
	"context"
	"errors"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/services/display"
	"proteinrank-go-worker/services/lookup"
	"proteinrank-go-worker/services/metrics"
	"proteinrank-go-worker/services/trackLog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("session not found")

// Snapshot is an immutable copy of a session's screens.
type Snapshot struct {
	ID     string              `json:"id"`
	Scan   display.ScanState   `json:"scan"`
	Manual display.ManualState `json:"manual"`
}

type Session struct {
	ID string

	mu          sync.Mutex
	seq         uint64
	scan        display.ScanState
	manual      display.ManualState
	fetcher     lookup.Fetcher
	subscribers map[chan Snapshot]struct{}
	inflight    sync.WaitGroup
	lastActive  time.Time
}

func New(id string, fetcher lookup.Fetcher) *Session {
	return &Session{
		ID:          id,
		scan:        display.InitialScanState(),
		manual:      display.InitialManualState(),
		fetcher:     fetcher,
		subscribers: make(map[chan Snapshot]struct{}),
		lastActive:  time.Now(),
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{ID: s.ID, Scan: s.scan, Manual: s.manual}
}

// Scan starts a lookup for barcode unless the barcode is already loading or shown.
// It returns the state right after the scan and whether a lookup was issued. The lookup
// runs after Scan returns, so ctx should outlive the calling request.
func (s *Session) Scan(ctx context.Context, barcode string) (display.ScanState, bool) {
	s.mu.Lock()
	s.lastActive = time.Now()
	if !display.ShouldLookup(s.scan, barcode) {
		state := s.scan
		s.mu.Unlock()
		return state, false
	}
	s.seq++
	seq := s.seq
	s.scan = display.Reduce(s.scan, display.ScanStarted{Barcode: barcode, Seq: seq})
	state := s.scan
	s.publishLocked()
	s.inflight.Add(1)
	s.mu.Unlock()

	go s.resolve(ctx, barcode, seq)
	return state, true
}

func (s *Session) resolve(ctx context.Context, barcode string, seq uint64) {
	defer s.inflight.Done()

	product, err := s.fetcher.Lookup(ctx, barcode)

	var event display.Event
	switch {
	case err == nil:
		event = display.LookupResolved{Seq: seq, Product: product}
	case errors.Is(err, lookup.ErrUnknownBarcode):
		event = display.LookupResolved{Seq: seq}
	default:
		event = display.LookupFailed{Seq: seq, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if display.IsStale(s.scan, seq) {
		metrics.StaleResponses.Inc()
		trackLog.WithFields(logrus.Fields{"task": "session", "session_id": s.ID, "barcode": barcode, "seq": seq}).Info("discard stale lookup")
		return
	}
	s.scan = display.Reduce(s.scan, event)
	if s.scan.Product != nil {
		metrics.ScoreTotal.WithLabelValues(string(s.scan.Product.Tier), enums.SourceBarcode).Inc()
	}
	s.publishLocked()
}

// Edit applies one manual-entry field change.
func (s *Session) Edit(field string, value interface{}) (display.ManualState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	next, err := display.ApplyManualEdit(s.manual, field, value)
	if err != nil {
		return s.manual, err
	}
	s.manual = next
	metrics.ScoreTotal.WithLabelValues(string(next.Score.Tier), enums.SourceManual).Inc()
	s.publishLocked()
	return next, nil
}

// Subscribe returns a channel that always holds the latest snapshot, starting with the
// current one. A slow reader skips intermediate snapshots. Call cancel to stop.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Session) publishLocked() {
	snapshot := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// 只保留最新的畫面
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Wait blocks until every issued lookup has been reduced or discarded.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// idleSince 有訂閱者時視為一直在使用
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subscribers) > 0 {
		return time.Now()
	}
	return s.lastActive
}

// Registry owns every live session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	fetcher  lookup.Fetcher
}

func NewRegistry(fetcher lookup.Fetcher) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		fetcher:  fetcher,
	}
}

func (r *Registry) Create() *Session {
	s := New(uuid.NewString(), r.fetcher)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire drops sessions idle for longer than ttl and returns how many were removed.
func (r *Registry) Expire(ttl time.Duration) int {
	deadline := time.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(deadline) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
