package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xhad/relay/internal/models"
)

// Session holds one conversation's history and bookkeeping. All fields
// are guarded; callers serialize whole turns via LockTurn so concurrent
// requests for the same session cannot interleave half-written turns.
type Session struct {
	id        string
	createdAt time.Time

	turnMu sync.Mutex

	mu         sync.Mutex
	lastActive time.Time
	history    []models.Message
	turnCount  int
	agentsUsed map[models.Agent]struct{}
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		id:         id,
		createdAt:  now,
		lastActive: now,
		agentsUsed: make(map[models.Agent]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// LockTurn serializes turn handling for this session. One in-flight turn
// per session at a time.
func (s *Session) LockTurn()   { s.turnMu.Lock() }
func (s *Session) UnlockTurn() { s.turnMu.Unlock() }

// History returns a copy of the message history, oldest first.
func (s *Session) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.history...)
}

// AppendExchange records a completed turn: the user query, then the
// produced answer, in that order.
func (s *Session) AppendExchange(query, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		models.Message{Role: models.RoleUser, Content: query},
		models.Message{Role: models.RoleAssistant, Content: answer},
	)
	s.lastActive = time.Now()
}

func (s *Session) RecordAgent(agent models.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentsUsed[agent] = struct{}{}
	s.lastActive = time.Now()
}

func (s *Session) CompleteTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnCount++
	s.lastActive = time.Now()
}

func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnCount
}

func (s *Session) AgentsUsed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents := make([]string, 0, len(s.agentsUsed))
	for a := range s.agentsUsed {
		agents = append(agents, string(a))
	}
	sort.Strings(agents)
	return agents
}

func (s *Session) Info() models.SessionInfo {
	s.mu.Lock()
	messageCount := len(s.history)
	createdAt := s.createdAt
	s.mu.Unlock()

	return models.SessionInfo{
		SessionID:    s.id,
		CreatedAt:    createdAt,
		MessageCount: messageCount,
		AgentsUsed:   s.AgentsUsed(),
	}
}

func (s *Session) last() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

type ManagerConfig struct {
	MaxSessions int
	TTL         time.Duration
}

// Manager owns the live session map. Growth is bounded: sessions idle
// past the TTL are dropped, and when the size cap is hit the least
// recently active session is evicted.
type Manager struct {
	config ManagerConfig

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(config ManagerConfig) *Manager {
	if config.MaxSessions == 0 {
		config.MaxSessions = 1000
	}
	if config.TTL == 0 {
		config.TTL = time.Hour
	}

	return &Manager{
		config:   config,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate resolves a session by id, creating one with a fresh uuid
// when id is empty or unknown.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked()

	if id != "" {
		if sess, ok := m.sessions[id]; ok {
			return sess
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	sess := newSession(id)
	m.sessions[id] = sess
	return sess
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Clear drops a session. Reports whether it existed.
func (m *Manager) Clear(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *Manager) List() []models.SessionInfo {
	m.mu.Lock()
	m.evictLocked()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.Unlock()

	infos := make([]models.SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) evictLocked() {
	cutoff := time.Now().Add(-m.config.TTL)
	for id, sess := range m.sessions {
		if sess.last().Before(cutoff) {
			delete(m.sessions, id)
		}
	}

	for len(m.sessions) >= m.config.MaxSessions {
		var oldestID string
		var oldest time.Time
		for id, sess := range m.sessions {
			if last := sess.last(); oldestID == "" || last.Before(oldest) {
				oldestID = id
				oldest = last
			}
		}
		delete(m.sessions, oldestID)
	}
}
