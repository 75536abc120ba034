package chat

import "infrachat/app/service/retrieval"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation, read-only for this service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the final grounded response. Citations mirror the aggregated
// evidence list exactly: marker [docN] in Content refers to Citations[N-1].
type Answer struct {
	Content   string
	Citations []retrieval.Evidence
}
