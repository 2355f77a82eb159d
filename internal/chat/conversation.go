package chat

// Conversation is the append-only transcript for one session.
//
// The transcript only grows: messages are never reordered, mutated, or
// truncated. Revision increments on every append so the presentation layer
// can observe "transcript changed" (e.g. to scroll to the latest message)
// without diffing the slice.
type Conversation struct {
	messages []Message
	revision uint64
}

// NewConversation returns a conversation seeded with the standard greeting.
func NewConversation() *Conversation {
	c := &Conversation{}
	c.Append(Message{Role: RoleAssistant, Content: Greeting})
	return c
}

// Append adds msg to the end of the transcript. Content validation (non-empty
// user input) is the caller's job.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, msg)
	c.revision++
}

// Snapshot returns the full transcript in chronological order, including any
// message appended optimistically for the current turn. The returned slice is
// a copy; callers may hand it to the transport layer as-is.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len reports the number of messages in the transcript.
func (c *Conversation) Len() int { return len(c.messages) }

// Revision reports a counter that increments on every append.
func (c *Conversation) Revision() uint64 { return c.revision }

// Last returns the most recent message, or a zero Message for an empty
// transcript.
func (c *Conversation) Last() Message {
	if len(c.messages) == 0 {
		return Message{}
	}
	return c.messages[len(c.messages)-1]
}
