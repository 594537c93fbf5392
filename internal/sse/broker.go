// Package sse streams note changes and conversation turns over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/voxnote/internal/models"
)

// Event is one message on the stream. An event with a Session is only
// delivered to clients watching that session.
type Event struct {
	Type    string
	Session string
	Data    any
}

// NoteData is the payload of note.* events.
type NoteData struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ParentID *string `json:"parent_id"`
	Children int     `json:"children"`
}

// TurnData is the payload of session.turn events.
type TurnData struct {
	Session      string `json:"session_id"`
	Phase        string `json:"phase"`
	Operation    string `json:"operation"`
	Focus        string `json:"focus,omitempty"`
	NotesUpdated bool   `json:"notes_updated"`
}

// noteKinds maps store change kinds to event names. Structural changes
// also schedule tree.updated.
var noteKinds = map[string]struct {
	event      string
	structural bool
}{
	"created":  {"note.created", true},
	"updated":  {"note.updated", false},
	"deleted":  {"note.deleted", true},
	"reloaded": {"notes.reloaded", true},
}

type client struct {
	ch      chan []byte
	session string
}

func (c client) wants(e Event) bool {
	return e.Session == "" || e.Session == c.session
}

type noteReq struct {
	kind string
	note *models.Note
}

// Broker fans events out to connected clients.
//
// A single event loop goroutine owns the client set, the event sequence and
// the tree throttle; public methods talk to it over channels.
type Broker struct {
	treeMin time.Duration

	subscribeCh   chan client
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteCh        chan noteReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. tree.updated is sent at most once per
// treeThrottle however many notes are added or removed.
func NewBroker(treeThrottle time.Duration) *Broker {
	if treeThrottle <= 0 {
		treeThrottle = 2 * time.Second
	}

	b := &Broker{
		treeMin:       treeThrottle,
		subscribeCh:   make(chan client),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		noteCh:        make(chan noteReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]client)
	var (
		seq      uint64
		lastTree time.Time
	)

	broadcast := func(e Event) {
		payload, err := json.Marshal(e.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, e.Type, payload))

		for _, c := range clients {
			if !c.wants(e) {
				continue
			}
			select {
			case c.ch <- raw:
			default:
				// slow client, drop
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case c := <-b.subscribeCh:
			clients[c.ch] = c

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case e := <-b.publishCh:
			broadcast(e)

		case req := <-b.noteCh:
			k, ok := noteKinds[req.kind]
			if !ok {
				continue
			}
			var data any = struct{}{}
			if req.note != nil {
				data = NoteData{
					ID:       req.note.ID,
					Title:    req.note.Title,
					ParentID: req.note.ParentID,
					Children: len(req.note.Children),
				}
			}
			broadcast(Event{Type: k.event, Data: data})

			if !k.structural {
				continue
			}
			if now := time.Now(); now.Sub(lastTree) >= b.treeMin {
				lastTree = now
				broadcast(Event{Type: "tree.updated", Data: struct{}{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the event loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client and returns its channel. A non-empty session
// also receives that session's turn events.
func (b *Broker) Subscribe(session string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- client{ch: ch, session: session}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish queues an event for delivery.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- e:
	case <-b.stopped:
	}
}

// PublishNote publishes a store change. note is nil for "reloaded".
func (b *Broker) PublishNote(kind string, note *models.Note) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteCh <- noteReq{kind: kind, note: note}:
	case <-b.stopped:
	}
}

// PublishTurn publishes the outcome of a conversation turn to the clients
// watching its session.
func (b *Broker) PublishTurn(t TurnData) {
	b.Publish(Event{Type: "session.turn", Session: t.Session, Data: t})
}

// ServeHTTP streams events to one client until it disconnects. The
// "session" query parameter selects the conversation whose turns are
// included.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.URL.Query().Get("session"))
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
