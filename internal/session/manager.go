package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/model"
	"github.com/hams/portal-server-go/internal/repository"
)

// How long an expired session sticks around waiting for the browser to pick
// up its one-time expiry notice before the sweeper discards it.
const expiredNoticeTTL = 24 * time.Hour

// storeTimeout bounds credential store calls made from timer callbacks and
// the periodic sweep, which have no request context of their own.
const storeTimeout = 5 * time.Second

type tracked struct {
	session       model.Session
	state         model.SessionState
	timer         *time.Timer
	gen           uint64
	noticePending bool
	expiredAt     time.Time
}

// Manager owns the session lifecycle for every browser session key:
// logged out, authenticated, or expired-with-notice-pending. Expiry is
// detected three ways that all converge on the same transition: a one-shot
// timer armed at login/restore, a periodic sweep, and an on-demand check
// during Restore. The transition is idempotent, so the mechanisms may race
// freely.
type Manager struct {
	store repository.CredentialRepository
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*tracked
	gen      uint64

	checkDone chan struct{}
	checking  bool
}

func NewManager(store repository.CredentialRepository) *Manager {
	return &Manager{
		store:    store,
		now:      time.Now,
		sessions: make(map[string]*tracked),
	}
}

// Login decodes a freshly issued token, persists the credential under key
// and arms the expiry timer. Any previous session under the same key is
// cancelled before the new timer is armed, so at most one timer exists per
// key. A token that is already expired at login is discarded entirely.
func (m *Manager) Login(ctx context.Context, key, rawToken string) (*model.Session, error) {
	sess, err := DecodeToken(rawToken)
	if err != nil {
		return nil, err
	}
	if !sess.ValidAt(m.now()) {
		return nil, apperrors.SessionExpired()
	}

	if err := m.store.Save(ctx, model.StoredCredential{
		Key:       key,
		Token:     rawToken,
		Role:      sess.Role,
		SubjectID: sess.SubjectID,
		ExpiresAt: sess.ExpiresAt,
	}); err != nil {
		return nil, apperrors.Storage(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(key)
	t := &tracked{session: *sess, state: model.SessionAuthenticated}
	m.sessions[key] = t
	m.armLocked(key, t)

	log.Debug().Str("subject", sess.SubjectID).Str("role", string(sess.Role)).
		Time("expires_at", sess.ExpiresAt).Msg("session established")
	return sess, nil
}

// Restore resolves the session state for key. Absent credentials mean
// logged out. A credential that no longer decodes is discarded and reported
// as corrupt. A credential that decodes but has passed its expiry moves the
// key into the expired state, which is held until the one-time notice is
// consumed. Only a decodable, unexpired credential yields a live session.
func (m *Manager) Restore(ctx context.Context, key string) (*model.Session, model.SessionState, error) {
	m.mu.Lock()
	if t, ok := m.sessions[key]; ok {
		switch t.state {
		case model.SessionAuthenticated:
			if t.session.ValidAt(m.now()) {
				sess := t.session
				m.mu.Unlock()
				return &sess, model.SessionAuthenticated, nil
			}
			m.expireLocked(key, t)
			m.mu.Unlock()
			return nil, model.SessionExpired, nil
		case model.SessionExpired:
			m.mu.Unlock()
			return nil, model.SessionExpired, nil
		}
	}
	m.mu.Unlock()

	cred, err := m.store.Find(ctx, key)
	if err != nil {
		return nil, model.SessionLoggedOut, apperrors.Storage(err)
	}
	if cred == nil {
		return nil, model.SessionLoggedOut, nil
	}

	sess, err := DecodeToken(cred.Token)
	if err != nil {
		// Stored blob is unreadable; discard it rather than retry.
		m.deleteStored(key)
		return nil, model.SessionLoggedOut, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(key)
	t := &tracked{session: *sess}
	m.sessions[key] = t
	if !sess.ValidAt(m.now()) {
		m.expireLocked(key, t)
		return nil, model.SessionExpired, nil
	}
	t.state = model.SessionAuthenticated
	m.armLocked(key, t)
	out := *sess
	return &out, model.SessionAuthenticated, nil
}

// Logout tears the session down: persisted credential, timer and tracked
// state all go, including any pending expiry notice.
func (m *Manager) Logout(ctx context.Context, key string) error {
	m.mu.Lock()
	m.dropLocked(key)
	m.mu.Unlock()

	if err := m.store.Delete(ctx, key); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// ConsumeExpiredNotice reports whether key holds a pending expiry notice
// and, if so, consumes it: the session collapses to logged out and
// subsequent calls return false.
func (m *Manager) ConsumeExpiredNotice(key string) bool {
	m.mu.Lock()
	t, ok := m.sessions[key]
	if !ok || t.state != model.SessionExpired || !t.noticePending {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, key)
	m.mu.Unlock()

	// The expiry transition deletes the stored credential asynchronously;
	// delete again here so a restore after consumption cannot resurrect
	// the expired state.
	m.deleteStored(key)
	return true
}

// State reports the current lifecycle state for key without touching the
// credential store.
func (m *Manager) State(key string) model.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.sessions[key]; ok {
		if t.state == model.SessionAuthenticated && !t.session.ValidAt(m.now()) {
			m.expireLocked(key, t)
		}
		return t.state
	}
	return model.SessionLoggedOut
}

// StartPeriodicCheck launches the background sweep that catches sessions
// whose timers were lost (process restart) and prunes stale rows from the
// credential store. Idempotent: a second call while running is a no-op.
func (m *Manager) StartPeriodicCheck(interval time.Duration) {
	m.mu.Lock()
	if m.checking {
		m.mu.Unlock()
		return
	}
	m.checking = true
	done := make(chan struct{})
	m.checkDone = done
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Info().Dur("interval", interval).Msg("session expiry check started")
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-done:
				log.Info().Msg("session expiry check stopped")
				return
			}
		}
	}()
}

// Stop halts the periodic check. Safe to call multiple times.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.checking {
		return
	}
	close(m.checkDone)
	m.checking = false
}

// Close stops the periodic check and cancels every outstanding timer.
func (m *Manager) Close() {
	m.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.sessions {
		m.dropLocked(key)
	}
}

func (m *Manager) sweep() {
	now := m.now()

	m.mu.Lock()
	expired := 0
	for key, t := range m.sessions {
		switch t.state {
		case model.SessionAuthenticated:
			if !t.session.ValidAt(now) {
				m.expireLocked(key, t)
				expired++
			}
		case model.SessionExpired:
			if now.Sub(t.expiredAt) > expiredNoticeTTL {
				delete(m.sessions, key)
			}
		}
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	pruned, err := m.store.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune expired credentials")
		return
	}
	if expired > 0 || pruned > 0 {
		log.Info().Int("expired", expired).Int64("pruned", pruned).
			Msg("session expiry check completed")
	}
}

// armLocked arms the one-shot expiry timer for t. The caller must have
// already cancelled any previous timer for the key (dropLocked), so cancel
// happens-before arm. An expiry instant in the past fires synchronously.
// Callers hold m.mu.
func (m *Manager) armLocked(key string, t *tracked) {
	m.gen++
	t.gen = m.gen
	d := t.session.ExpiresAt.Sub(m.now())
	if d <= 0 {
		m.expireLocked(key, t)
		return
	}
	gen := t.gen
	t.timer = time.AfterFunc(d, func() {
		m.onTimer(key, gen)
	})
}

func (m *Manager) onTimer(key string, gen uint64) {
	m.mu.Lock()
	t, ok := m.sessions[key]
	if !ok || t.gen != gen || t.state != model.SessionAuthenticated {
		// Stale timer; the key was logged out or re-armed since.
		m.mu.Unlock()
		return
	}
	m.expireLocked(key, t)
	m.mu.Unlock()
}

// expireLocked performs the single expiry transition: authenticated moves
// to expired with a notice pending, and the persisted credential is
// discarded. Calling it on an already-expired entry changes nothing.
// Callers hold m.mu.
func (m *Manager) expireLocked(key string, t *tracked) {
	if t.state == model.SessionExpired {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.state = model.SessionExpired
	t.noticePending = true
	t.expiredAt = m.now()
	subject := t.session.SubjectID
	t.session = model.Session{}

	go m.deleteStored(key)
	log.Info().Str("subject", subject).Msg("session expired")
}

// dropLocked removes key from tracking and cancels its timer, without
// touching the persisted credential. Callers hold m.mu.
func (m *Manager) dropLocked(key string) {
	t, ok := m.sessions[key]
	if !ok {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	delete(m.sessions, key)
}

func (m *Manager) deleteStored(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Delete(ctx, key); err != nil {
		log.Error().Err(err).Msg("failed to delete stored credential")
	}
}
