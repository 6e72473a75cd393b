// Package events defines event types and the pub/sub bus for the
// Worldforge build pipeline.
package events

// EventType represents the type of event emitted through the EventBus.
type EventType string

const (
	// Session events
	EventSessionConnected EventType = "session_connected"
	EventSessionLost      EventType = "session_lost"

	// Build events
	EventStructureStarted   EventType = "structure_started"
	EventStructureCompleted EventType = "structure_completed"
	EventWorldCompleted     EventType = "world_completed"

	// System events
	EventConfigChanged EventType = "config_changed"
	EventShutdown      EventType = "shutdown"
)

// Event represents a single event in the system.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// SessionPayload describes a session connect/disconnect.
type SessionPayload struct {
	Addr   string `json:"addr"`
	Reason string `json:"reason,omitempty"`
}

// StructureStartedPayload is emitted when a structure build begins.
type StructureStartedPayload struct {
	StructureID string `json:"structure_id"`
	Name        string `json:"name"`
	Commands    int    `json:"commands"`
}

// StructureCompletedPayload carries the outcome of one structure build.
type StructureCompletedPayload struct {
	StructureID      string   `json:"structure_id"`
	Name             string   `json:"name"`
	Success          bool     `json:"success"`
	CommandsExecuted int      `json:"commands_executed"`
	CommandsFailed   int      `json:"commands_failed"`
	ExecutionTimeMs  int64    `json:"execution_time_ms"`
	Errors           []string `json:"errors,omitempty"`
}

// WorldCompletedPayload carries the aggregate outcome of a world build.
type WorldCompletedPayload struct {
	StructuresBuilt int   `json:"structures_built"`
	StructuresTotal int   `json:"structures_total"`
	Success         bool  `json:"success"`
	TotalTimeMs     int64 `json:"total_time_ms"`
}

// ConfigChangedPayload is emitted when configuration changes occur.
type ConfigChangedPayload struct {
	Section string      `json:"section"`
	Key     string      `json:"key"`
	Value   interface{} `json:"value"`
}
