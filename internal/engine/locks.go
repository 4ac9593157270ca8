package engine

import "sync"

// chatLocks serializes message handling per chat. Messages from different
// chats proceed in parallel; within one chat the state machine only ever sees
// one message at a time.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*sync.Mutex)}
}

func (c *chatLocks) lock(chatID int64) func() {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[chatID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
