package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// Request contains the parameters for a generation request. JSONMode is used
// by the reasoning tier, which expects structured output at low temperature;
// dialogue synthesis runs without it at a higher temperature.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// Response contains the result of a generation request.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
