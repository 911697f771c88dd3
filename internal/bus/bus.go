package bus

import (
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/tools"
	"github.com/gorilla/websocket"
)

// Bus owns every live connection and the shared collaborators a
// connection needs to serve subscribe/execute traffic.
type Bus struct {
	mu          sync.RWMutex
	connections map[*Connection]bool

	obs        *observable.Registry
	dispatcher *tools.Registry
	authToken  string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// New builds a Bus. authToken is the shared secret every client must
// present in its authenticate frame.
func New(obs *observable.Registry, dispatcher *tools.Registry, authToken string) *Bus {
	return &Bus{
		connections: make(map[*Connection]bool),
		obs:         obs,
		dispatcher:  dispatcher,
		authToken:   authToken,
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and starts
// servicing it. Register it behind whatever path the deployment binds
// the bus to (conventionally /ws).
func (b *Bus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newConnection(b, conn)
	b.register(c)
	go c.writePump()
	c.readPump()
}

func (b *Bus) register(c *Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connections[c] = true
}

func (b *Bus) unregister(c *Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.connections[c]; ok {
		delete(b.connections, c)
		c.closeConnection()
	}
}

// ConnectionCount reports how many connections are currently live. Used
// by the health endpoint's bus check.
func (b *Bus) ConnectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections)
}

// checkToken compares the supplied token against the configured secret
// in constant time, per §4.J.
func (b *Bus) checkToken(supplied string) bool {
	if len(supplied) != len(b.authToken) {
		// still run a constant-time compare against a same-length buffer so
		// the timing channel doesn't leak the real token's length either.
		subtle.ConstantTimeCompare([]byte(supplied), []byte(supplied))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(b.authToken)) == 1
}
