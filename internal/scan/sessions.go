package scan

import (
	"sync"

	"github.com/BerylCAtieno/document-scanner-api/internal/notify"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
)

// Sessions hands out one Trigger per caller, so a caller that submits again
// while its scan is uploading gets ErrScanInProgress. A caller's trigger is
// dropped once no request holds it.
type Sessions struct {
	mu       sync.Mutex
	scanner  Scanner
	notifier notify.Sink
	logger   *utils.Logger
	active   map[string]*session
}

type session struct {
	trigger *Trigger
	refs    int
}

func NewSessions(scanner Scanner, notifier notify.Sink, logger *utils.Logger) *Sessions {
	return &Sessions{
		scanner:  scanner,
		notifier: notifier,
		logger:   logger,
		active:   make(map[string]*session),
	}
}

// Acquire returns the trigger for key and a release func the caller must
// call when its request is done.
func (s *Sessions) Acquire(key string) (*Trigger, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active[key]
	if !ok {
		sess = &session{trigger: New(s.scanner, s.notifier, s.logger)}
		s.active[key] = sess
	}
	sess.refs++

	var once sync.Once
	return sess.trigger, func() {
		once.Do(func() { s.release(key, sess) })
	}
}

func (s *Sessions) release(key string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.refs--
	if sess.refs == 0 && s.active[key] == sess {
		delete(s.active, key)
	}
}

// Len reports how many callers currently hold a trigger.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
