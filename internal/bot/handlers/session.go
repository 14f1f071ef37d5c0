package handlers

import (
	"sync"
	"time"
)

type state int

const (
	stateIdle state = iota
	stateRegisterUsername
	stateRegisterName
	stateRegisterCity
	stateEditName
	stateEditCity
	stateReminderTitle
	stateReminderDescription
	stateReminderTime
	stateReminderRecurrence
	stateGroupName
	stateGroupDescription
	stateGroupReminderTitle
	stateGroupReminderDescription
	stateGroupReminderTime
	stateGroupMessageText
)

// session holds the in-progress conversation state for one user.
type session struct {
	state       state
	username    string
	name        string
	title       string
	description string
	remindAt    time.Time // UTC
	timezone    string
	groupID     int64
}

type sessions struct {
	mu sync.RWMutex
	m  map[int64]*session
}

func newSessions() *sessions {
	return &sessions{m: make(map[int64]*session)}
}

// get returns the user's session, creating an idle one if needed.
func (s *sessions) get(userID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[userID]
	if !ok {
		sess = &session{}
		s.m[userID] = sess
	}
	return sess
}

func (s *sessions) clear(userID int64) {
	s.mu.Lock()
	delete(s.m, userID)
	s.mu.Unlock()
}
