// Package bus implements the realtime bus (§4.J): a WebSocket-style
// bidirectional connection that authenticates once, then lets a client
// subscribe to observable topics and execute tools, receiving replayed
// last-values and broadcasts as they happen.
package bus

import "github.com/DEVCOACH/internal/observable"

// Message is the wire envelope every frame uses in both directions.
type Message struct {
	Type      string                 `json:"type"`
	ID        string                 `json:"id,omitempty"`
	Topic     string                 `json:"topic,omitempty"`
	Data      interface{}            `json:"data,omitempty"`
	Error     interface{}            `json:"error,omitempty"`
	Auth      string                 `json:"auth,omitempty"`
	Tool      string                 `json:"tool,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
	Result    interface{}            `json:"result,omitempty"`
}

// Message types, both inbound and outbound.
const (
	TypeAuthenticate = "authenticate"
	TypeAuth         = "auth"
	TypeSubscribe    = "subscribe"
	TypeUnsubscribe  = "unsubscribe"
	TypeEvent        = "event"
	TypeExecute      = "execute"
	TypeResult       = "result"
	TypeError        = "error"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeUIState      = "ui_state_update"
)

// connState is a connection's position in the §4.J lifecycle.
type connState int

const (
	stateConnected connState = iota
	stateAuthenticating
	stateAuthenticated
)

// validTopics is the set of subscribable topics: §4.B's observable
// topics plus tool:execution and ui:state.
var validTopics = map[string]bool{
	observable.TopicSessionStatus:       true,
	observable.TopicContextStatus:       true,
	observable.TopicRealityChecks:       true,
	observable.TopicProjectStatus:       true,
	observable.TopicProjectVelocity:     true,
	observable.TopicDocumentationStatus: true,
	observable.TopicAgentSuggestions:    true,
	observable.TopicToolExecution:       true,
	observable.TopicUIState:             true,
}

// sendQueueSize bounds how far a connection's outbound writer may fall
// behind before it is treated as slow and dropped (§5 back-pressure).
const sendQueueSize = 64

// authWindowSeconds is how long, in seconds, a freshly accepted
// connection has to send its authenticate frame before the bus gives up
// and closes it.
const authWindowSeconds = 10

