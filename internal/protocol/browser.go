package protocol

// EvtAgentHandoff is the one custom event type the gateway injects into the
// browser<->gateway channel, out of band from the upstream protocol it
// otherwise forwards verbatim. See spec.md §6 and §4.6.
const EvtAgentHandoff = "agent.handoff"

// AgentHandoff notifies the browser that it should reconnect under a
// different agent role.
type AgentHandoff struct {
	Type         string `json:"type"`
	TargetAgent  string `json:"target_agent"`
	Message      string `json:"message"`
}

// NewAgentHandoff builds the wire event for a handoff to targetRole.
func NewAgentHandoff(targetRole, message string) AgentHandoff {
	return AgentHandoff{
		Type:        EvtAgentHandoff,
		TargetAgent: targetRole,
		Message:     message,
	}
}
