// Package comms shares the live state of the control loop with operator
// clients over websockets.
package comms

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/CodedInternet/beebot/onboard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Commander accepts commands from clients. Without one the feed is read only.
type Commander interface {
	ProcessCommand(cmd Cmd) error
}

type client struct {
	send chan StatePayload
}

// Conductor keeps the latest state of the loop and fans it out to every
// connected client. It never blocks the loop: a client that is behind only
// ever receives the most recent state.
type Conductor struct {
	lock    sync.Mutex
	latest  StatePayload
	clients map[*client]struct{}

	Commander Commander
}

func NewConductor() *Conductor {
	return &Conductor{clients: make(map[*client]struct{})}
}

// Observe implements onboard.Observer.
func (c *Conductor) Observe(t onboard.Tick) {
	state := NewStatePayload(t)

	c.lock.Lock()
	defer c.lock.Unlock()

	c.latest = state
	for cl := range c.clients {
		select {
		case cl.send <- state:
		default:
			// drop the stale state in favour of this one
			select {
			case <-cl.send:
			default:
			}
			cl.send <- state
		}
	}
}

func (c *Conductor) Latest() StatePayload {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.latest
}

func (c *Conductor) subscribe() *client {
	cl := &client{send: make(chan StatePayload, 1)}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.clients[cl] = struct{}{}
	return cl
}

func (c *Conductor) unsubscribe(cl *client) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.clients, cl)
}

// Clients is the number of connected clients.
func (c *Conductor) Clients() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.clients)
}

func (c *Conductor) ProcessCommand(cmd Cmd) error {
	if c.Commander == nil {
		return fmt.Errorf("commands are disabled")
	}
	return c.Commander.ProcessCommand(cmd)
}

// ServeWS streams state to the client and hands anything it sends to the
// Commander.
func (c *Conductor) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	cl := c.subscribe()
	defer c.unsubscribe(cl)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var cmd Cmd
			if err = json.Unmarshal(msg, &cmd); err != nil {
				log.Printf("ws: invalid command: %v", err)
				continue
			}
			if err = c.ProcessCommand(cmd); err != nil {
				log.Printf("ws: %s: %v", cmd.Cmd, err)
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case state := <-cl.send:
			if err := conn.WriteJSON(state); err != nil {
				log.Println("write:", err)
				return
			}
		}
	}
}
