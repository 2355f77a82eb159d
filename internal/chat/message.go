package chat

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry. Messages are immutable once created
// and live only for the session.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Greeting is the assistant message every new conversation starts with.
const Greeting = "Hello! I am PlanIQ. I manage the Demo Calendar. You can open the panel on the right ➡ to see your schedule live."

// ErrBackendUnreachable is the fixed, non-technical reply substituted when the
// assistant backend cannot be reached. It is appended as an assistant message
// so the conversation stays usable; it is not an error value.
const ErrBackendUnreachable = "Error: Could not connect to PlanIQ Brain. Check port 8080."
