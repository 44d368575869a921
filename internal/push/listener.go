package push

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Listener states.
const (
	StateClosed     = "CLOSED"
	StateConnecting = "CONNECTING"
	StateOpen       = "OPEN"
)

// DefaultRetryDelay is the fixed pause between reconnect attempts for
// listeners that reconnect.
const DefaultRetryDelay = 5 * time.Second

// Listener owns one websocket connection to the backend push endpoint and
// feeds every frame into a dispatcher. With Reconnect set it redials after a
// fixed delay; otherwise a connection error ends the listener. Close tears the
// connection down on every exit path.
type Listener struct {
	URL        string
	Dispatcher *Dispatcher
	Reconnect  bool
	RetryDelay time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	state  string
	closed chan struct{}
	once   sync.Once
}

func NewListener(url string, dispatcher *Dispatcher, reconnect bool) *Listener {
	return &Listener{
		URL:        url,
		Dispatcher: dispatcher,
		Reconnect:  reconnect,
		RetryDelay: DefaultRetryDelay,
		state:      StateClosed,
		closed:     make(chan struct{}),
	}
}

// Run dials and reads until Close is called or, for non-reconnecting
// listeners, until the connection drops. Intended to run on its own goroutine.
func (l *Listener) Run() {
	defer l.setState(StateClosed)
	for {
		if l.isClosed() {
			return
		}
		l.setState(StateConnecting)

		conn, _, err := websocket.DefaultDialer.Dial(l.URL, nil)
		if err != nil {
			log.Printf("Push connection to %s failed: %v", l.URL, err)
			if !l.retryOrStop() {
				return
			}
			continue
		}

		l.mu.Lock()
		if l.isClosed() {
			l.mu.Unlock()
			conn.Close()
			return
		}
		l.conn = conn
		l.mu.Unlock()
		l.setState(StateOpen)

		l.readLoop(conn)
		conn.Close()

		if !l.retryOrStop() {
			return
		}
	}
}

func (l *Listener) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !l.isClosed() {
				log.Printf("Push connection closed: %v", err)
			}
			return
		}
		l.Dispatcher.Dispatch(message)
	}
}

// retryOrStop waits out the retry delay for reconnecting listeners. Returns
// false when the listener should stop.
func (l *Listener) retryOrStop() bool {
	if !l.Reconnect || l.isClosed() {
		return false
	}
	select {
	case <-l.closed:
		return false
	case <-time.After(l.RetryDelay):
		return true
	}
}

// Close shuts the listener down unconditionally. Safe to call multiple times
// and from any goroutine.
func (l *Listener) Close() {
	l.once.Do(func() {
		close(l.closed)
		l.mu.Lock()
		if l.conn != nil {
			l.conn.Close()
		}
		l.mu.Unlock()
	})
}

func (l *Listener) isClosed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

func (l *Listener) setState(state string) {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
}

func (l *Listener) State() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
