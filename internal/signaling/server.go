package signaling

import (
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type serverConn struct {
	conn       *websocket.Conn
	writeMu    sync.Mutex
	id         string
	clientType string
}

func (c *serverConn) write(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Server relays offers, answers and ICE candidates between registered
// clients. It keeps no session state beyond who is connected.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*serverConn
}

// NewServer creates a signaling relay.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*serverConn),
	}
}

// ServeHTTP upgrades the request and serves one client until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	c := &serverConn{conn: conn}
	defer func() {
		s.unregister(c)
		conn.Close()
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if c.id != "" {
				log.Printf("client %s disconnected: %v", c.id, err)
			}
			return
		}
		s.handle(c, msg)
	}
}

func (s *Server) handle(c *serverConn, msg Message) {
	if msg.Type != TypeRegister && msg.Type != TypePing && c.id == "" {
		_ = c.write(Message{Type: TypeError, Msg: "not registered"})
		return
	}

	switch msg.Type {
	case TypeRegister:
		if msg.ID == "" {
			_ = c.write(Message{Type: TypeError, Msg: "missing id"})
			return
		}
		s.register(c, msg.ID, msg.ClientType)
	case TypeListHosts:
		_ = c.write(Message{Type: TypeHosts, List: s.hosts()})
	case TypeOffer, TypeAnswer, TypeICECandidate:
		s.mu.RLock()
		dst, ok := s.clients[msg.Target]
		s.mu.RUnlock()
		if !ok {
			_ = c.write(Message{Type: TypeError, Msg: "unknown target " + msg.Target})
			return
		}
		msg.From = c.id
		msg.Target = ""
		if err := dst.write(msg); err != nil {
			log.Printf("relay %s to %s: %v", msg.Type, dst.id, err)
		}
	case TypePing:
		_ = c.write(Message{Type: TypePong, Timestamp: time.Now().UnixMilli()})
	default:
		_ = c.write(Message{Type: TypeError, Msg: "unknown message type " + msg.Type})
	}
}

func (s *Server) register(c *serverConn, id, clientType string) {
	s.mu.Lock()
	if old, ok := s.clients[id]; ok && old != c {
		old.conn.Close()
	}
	c.id = id
	c.clientType = clientType
	s.clients[id] = c
	s.mu.Unlock()

	log.Printf("registered %s %s", clientType, id)
	_ = c.write(Message{Type: TypeRegistered, ID: id})
	if clientType == ClientTypeHost {
		s.broadcastViewers(Message{Type: TypeHostsUpdated, List: s.hosts()})
	}
}

func (s *Server) unregister(c *serverConn) {
	if c.id == "" {
		return
	}
	s.mu.Lock()
	if s.clients[c.id] != c {
		s.mu.Unlock()
		return
	}
	delete(s.clients, c.id)
	s.mu.Unlock()

	if c.clientType == ClientTypeHost {
		s.broadcastViewers(Message{Type: TypeHostDisconnected, HostID: c.id})
		s.broadcastViewers(Message{Type: TypeHostsUpdated, List: s.hosts()})
	}
}

func (s *Server) hosts() []HostInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []HostInfo
	for id, c := range s.clients {
		if c.clientType == ClientTypeHost {
			list = append(list, HostInfo{ID: id, Online: true})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *Server) broadcastViewers(msg Message) {
	s.mu.RLock()
	var viewers []*serverConn
	for _, c := range s.clients {
		if c.clientType == ClientTypeViewer {
			viewers = append(viewers, c)
		}
	}
	s.mu.RUnlock()
	for _, v := range viewers {
		if err := v.write(msg); err != nil {
			log.Printf("notify %s: %v", v.id, err)
		}
	}
}
