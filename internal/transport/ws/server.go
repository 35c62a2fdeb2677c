package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/objects-time/neural-mmo/internal/protocol"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// Realm is the part of the realm that connection goroutines may touch.
type Realm interface {
	Inbox() chan<- realm.Decisions
	Metrics() realm.Metrics
}

type client struct {
	session string
	name    string
	role    string
	out     chan []byte
}

// Server serves controllers and observers. It is registered as a realm tick
// observer; broadcast payloads are built once per tick on the realm
// goroutine and fanned out with drop-oldest semantics.
type Server struct {
	log     *log.Logger
	welcome protocol.WelcomeMsg

	upgrader websocket.Upgrader

	realm   Realm
	nextSes atomic.Uint64

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewServer(welcome protocol.WelcomeMsg, logger *log.Logger) *Server {
	welcome.Type = protocol.TypeWelcome
	welcome.ProtocolVersion = protocol.Version
	return &Server{
		log:     logger,
		welcome: welcome,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[*client]struct{}{},
	}
}

// Bind attaches the realm decisions are forwarded to. Call before serving.
func (s *Server) Bind(r Realm) { s.realm = r }

func (s *Server) Clients() (controllers, observers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if c.role == protocol.RoleController {
			controllers++
		} else {
			observers++
		}
	}
	return controllers, observers
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := s.handshake(conn)
		if c == nil {
			return
		}
		defer s.leave(c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			s.handleMessage(c, msg)
		}
	}
}

func (s *Server) handleMessage(c *client, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.reject(c, protocol.ErrProtoBadRequest, "malformed json")
		return
	}
	if base.Type != protocol.TypeAct {
		return
	}
	if c.role != protocol.RoleController {
		s.reject(c, protocol.ErrNoPermission, "observers cannot act")
		return
	}
	if base.ProtocolVersion != protocol.Version {
		s.reject(c, protocol.ErrProtoVersion, "bad protocol_version")
		return
	}
	act, err := protocol.DecodeAct(msg)
	if err != nil {
		s.reject(c, protocol.ErrBadRequest, err.Error())
		return
	}
	decisions, err := act.ToDecisions()
	if err != nil {
		s.reject(c, protocol.ErrUnknownAction, err.Error())
		return
	}
	if s.realm == nil {
		s.reject(c, protocol.ErrInternal, "realm not bound")
		return
	}
	if s.realm.Metrics().Halted {
		s.reject(c, protocol.ErrRealmHalted, "realm halted")
		return
	}
	select {
	case s.realm.Inbox() <- decisions:
	default:
		s.reject(c, protocol.ErrRealmBusy, "inbox full")
	}
}

func (s *Server) reject(c *client, code, msg string) {
	var tick uint64
	if s.realm != nil {
		tick = s.realm.Metrics().Tick
	}
	b, err := json.Marshal(protocol.NewError(code, msg, tick))
	if err != nil {
		return
	}
	sendLatest(c.out, b)
}

func (s *Server) handshake(conn *websocket.Conn) *client {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil
	}
	if base.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil
	}
	hello, err := protocol.DecodeHello(msg)
	if err != nil {
		closeWith(conn, "bad HELLO")
		return nil
	}
	if hello.AgentName == "" {
		hello.AgentName = hello.Role
	}

	c := &client{
		session: fmt.Sprintf("S%d", s.nextSes.Add(1)),
		name:    hello.AgentName,
		role:    hello.Role,
		out:     make(chan []byte, 8),
	}
	welcome := s.welcome
	welcome.SessionID = c.session
	welcome.Role = c.role

	// Register before WELCOME so the first tick after it is not missed.
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	if err := writeJSON(conn, welcome); err != nil {
		s.leave(c)
		return nil
	}
	s.logf("join session=%s name=%s role=%s", c.session, c.name, c.role)
	return c
}

func (s *Server) leave(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	s.logf("leave session=%s", c.session)
}

// ObserveTick runs on the realm goroutine. Payloads are only encoded for
// roles that have at least one connection.
func (s *Server) ObserveTick(r *realm.Realm, tick uint64, res realm.StepResult) {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	var wantObs, wantClient bool
	for c := range s.clients {
		targets = append(targets, c)
		if c.role == protocol.RoleController {
			wantObs = true
		} else {
			wantClient = true
		}
	}
	s.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	id := r.Config().ID
	var obs, cli []byte
	if wantObs {
		b, err := json.Marshal(protocol.NewObs(id, tick, res))
		if err != nil {
			s.logf("encode obs tick=%d: %v", tick, err)
		}
		obs = b
	}
	if wantClient {
		b, err := json.Marshal(protocol.NewClient(id, tick, r.ClientData()))
		if err != nil {
			s.logf("encode client tick=%d: %v", tick, err)
		}
		cli = b
	}
	for _, c := range targets {
		b := cli
		if c.role == protocol.RoleController {
			b = obs
		}
		if b != nil {
			sendLatest(c.out, b)
		}
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

// sendLatest never blocks: when the queue is full the oldest message is
// dropped so slow clients always see the newest tick.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
