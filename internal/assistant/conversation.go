package assistant

import "sync"

// Conversation is the ordered chat history of one dashboard session.
type Conversation struct {
	mu    sync.Mutex
	turns []Message
}

// Add appends a turn.
func (c *Conversation) Add(role Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Message{Role: role, Content: content})
}

// Messages returns a copy of all turns.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.turns))
	copy(out, c.turns)
	return out
}

// DropLast removes the final turn when it was spoken by role.
func (c *Conversation) DropLast(role Role) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.turns)
	if n == 0 || c.turns[n-1].Role != role {
		return Message{}, false
	}
	last := c.turns[n-1]
	c.turns = c.turns[:n-1]
	return last, true
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Clear drops the history.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}
