package adapter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

const maxLineSize = 1024 * 1024

// executor is the seam to the bus connection, narrowed to the one
// method this package needs. Satisfied by *BusClient; tests supply a
// fake so the stdio loop can be exercised without a real socket.
type executor interface {
	Execute(tool string, params map[string]interface{}) (interface{}, interface{}, error)
}

// Adapter services one stdio JSON-RPC client against one bus
// connection (§4.K).
type Adapter struct {
	bus    executor
	events <-chan busMessage
	done   <-chan struct{}
	in     *bufio.Scanner
	out    io.Writer
	outMu  sync.Mutex
	server string
}

// New builds an Adapter reading requests from in and writing
// responses/notifications to out. serverName is reported in the
// initialize response's serverInfo.name.
func New(bus *BusClient, in io.Reader, out io.Writer, serverName string) *Adapter {
	return newAdapter(bus, bus.Events(), bus.Done(), in, out, serverName)
}

func newAdapter(bus executor, events <-chan busMessage, done <-chan struct{}, in io.Reader, out io.Writer, serverName string) *Adapter {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Adapter{bus: bus, events: events, done: done, in: scanner, out: out, server: serverName}
}

// Run services stdin until it hits EOF or the bus connection closes,
// whichever comes first ("exits on bus close", §4.K).
func (a *Adapter) Run() error {
	go a.forwardEvents()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for a.in.Scan() {
			lines <- a.in.Text()
		}
		scanErr <- a.in.Err()
	}()

	for {
		select {
		case <-a.done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if line == "" {
				continue
			}
			a.handleLine(line)
		}
	}
}

func (a *Adapter) forwardEvents() {
	for msg := range a.events {
		a.writeFrame(Notification{
			JSONRPC: "2.0",
			Method:  "tool/event",
			Params:  map[string]interface{}{"topic": msg.Topic, "data": msg.Data},
		})
	}
}

func (a *Adapter) handleLine(line string) {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		a.writeFrame(Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "parse error"}})
		return
	}

	switch req.Method {
	case "initialize":
		a.handleInitialize(req)
	case "tools/list":
		a.handleToolsList(req)
	case "tools/call":
		a.handleToolsCall(req)
	default:
		a.writeFrame(Response{
			JSONRPC: "2.0", ID: req.ID,
			Error: &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)},
		})
	}
}

func (a *Adapter) handleInitialize(req Request) {
	a.writeFrame(Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools":     map[string]bool{},
				"resources": map[string]bool{},
				"prompts":   map[string]bool{},
				"logging":   map[string]bool{},
			},
			"serverInfo": map[string]string{
				"name":    a.server,
				"version": "1.0.0",
			},
		},
	})
}

func (a *Adapter) handleToolsList(req Request) {
	result, errPayload, err := a.bus.Execute("_list_tools", nil)
	if err != nil {
		a.writeFrame(Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeInternalError, Message: err.Error()}})
		return
	}
	if errPayload != nil {
		a.writeFrame(Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErrorFromBus(errPayload)})
		return
	}
	a.writeFrame(Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{"tools": result}})
}

func (a *Adapter) handleToolsCall(req Request) {
	var params toolsCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			a.writeFrame(Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeInvalidParams, Message: "invalid params"}})
			return
		}
	}
	if params.Name == "" {
		a.writeFrame(Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeInvalidParams, Message: "tool name required"}})
		return
	}

	result, errPayload, err := a.bus.Execute(params.Name, params.Arguments)
	if err != nil {
		a.writeFrame(Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeInternalError, Message: err.Error()}})
		return
	}
	if errPayload != nil {
		a.writeFrame(Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErrorFromBus(errPayload)})
		return
	}
	a.writeFrame(Response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func rpcErrorFromBus(payload interface{}) *RPCError {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return &RPCError{Code: codeInternalError, Message: fmt.Sprintf("%v", payload)}
	}
	message, _ := m["message"].(string)
	return &RPCError{Code: codeInternalError, Message: message}
}

func (a *Adapter) writeFrame(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	a.outMu.Lock()
	defer a.outMu.Unlock()
	a.out.Write(data)
	a.out.Write([]byte("\n"))
}
