// Package simtest hosts an in-process stand-in for the simulation service.
// It speaks the full REST and live-channel contract but runs no game rules:
// tests script every snapshot it serves.
package simtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fire-rescue/viewer/internal/proto"
)

const writeWait = 5 * time.Second

type subscriber struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	joined string
}

func (s *subscriber) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(proto.Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Server is the scripted simulation service.
type Server struct {
	httpSrv  *httptest.Server
	upgrader websocket.Upgrader

	mu          sync.Mutex
	sims        map[string]*proto.SimulationSnapshot
	autoRunning map[string]bool
	subs        map[*subscriber]struct{}
	nextID      int
	log         []string

	// FailCreate makes create_simulation return a server error.
	FailCreate bool
	// RejectCommands makes step/auto endpoints refuse with a conflict.
	RejectCommands bool
}

// NewServer starts the fake service on an httptest listener.
func NewServer() *Server {
	s := &Server{
		sims:        make(map[string]*proto.SimulationSnapshot),
		autoRunning: make(map[string]bool),
		subs:        make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/create_simulation", s.handleCreate)
	mux.HandleFunc("GET /api/simulation/{id}/state", s.handleState)
	mux.HandleFunc("POST /api/simulation/{id}/step", s.handleStep)
	mux.HandleFunc("POST /api/simulation/{id}/auto_start", s.handleAuto(true))
	mux.HandleFunc("POST /api/simulation/{id}/auto_stop", s.handleAuto(false))
	mux.HandleFunc("DELETE /api/simulation/{id}/delete", s.handleDelete)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpSrv = httptest.NewServer(mux)
	return s
}

// URL is the REST base URL.
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// WSURL is the live-channel endpoint.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.httpSrv.URL, "http") + "/ws"
}

// Close shuts the service down.
func (s *Server) Close() {
	s.mu.Lock()
	for sub := range s.subs {
		sub.conn.Close()
	}
	s.mu.Unlock()
	s.httpSrv.Close()
}

// Register preloads an instance with a scripted snapshot.
func (s *Server) Register(id string, snap *proto.SimulationSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sims[id] = snap
}

// Log returns the ordered join/leave record seen on the live channel.
func (s *Server) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

// Broadcast stores snap as the instance's current state and pushes a
// simulation_update to every subscriber joined to it.
func (s *Server) Broadcast(id string, snap *proto.SimulationSnapshot) {
	s.mu.Lock()
	s.sims[id] = snap
	subs := s.joinedLocked(id)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.send(proto.EventSimulationUpdate, snap)
	}
}

// BroadcastAutoStatus pushes an auto_status event to the instance's room.
func (s *Server) BroadcastAutoStatus(id string, running bool) {
	s.mu.Lock()
	s.autoRunning[id] = running
	subs := s.joinedLocked(id)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.send(proto.EventAutoStatus, proto.AutoStatusPayload{AutoRunning: running})
	}
}

// BroadcastError pushes an error event to the instance's room.
func (s *Server) BroadcastError(id, message string) {
	s.mu.Lock()
	subs := s.joinedLocked(id)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.send(proto.EventError, proto.ErrorPayload{Message: message})
	}
}

// DropConnections force-closes every live channel without cleanup, as a
// network fault would.
func (s *Server) DropConnections() {
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.conn.Close()
	}
}

func (s *Server) joinedLocked(id string) []*subscriber {
	subs := make([]*subscriber, 0, len(s.subs))
	for sub := range s.subs {
		if sub.joined == id {
			subs = append(subs, sub)
		}
	}
	return subs
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.FailCreate {
		s.mu.Unlock()
		http.Error(w, "create disabled", http.StatusInternalServerError)
		return
	}
	s.nextID++
	id := fmt.Sprintf("sim-%d", s.nextID)
	snap := NewSnapshot()
	s.sims[id] = snap
	s.mu.Unlock()

	writeJSON(w, proto.CreateResponse{SimulationID: id, State: snap})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap, ok := s.sims[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	id := r.PathValue("id")
	snap, ok := s.sims[id]
	if !ok {
		s.mu.Unlock()
		notFound(w)
		return
	}
	if s.RejectCommands {
		s.mu.Unlock()
		http.Error(w, "rejected", http.StatusConflict)
		return
	}
	if snap.GameOver {
		s.mu.Unlock()
		writeJSON(w, proto.StepResponse{Success: false, State: snap})
		return
	}
	stepped := *snap
	stepped.StepCount++
	stepped.RoundCount++
	s.sims[id] = &stepped
	s.mu.Unlock()

	writeJSON(w, proto.StepResponse{Success: true, State: &stepped})
}

func (s *Server) handleAuto(start bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.mu.Lock()
		_, ok := s.sims[id]
		reject := s.RejectCommands
		s.mu.Unlock()
		if !ok {
			notFound(w)
			return
		}
		if reject {
			http.Error(w, "rejected", http.StatusConflict)
			return
		}
		s.BroadcastAutoStatus(id, start)
		writeJSON(w, map[string]any{"success": true})
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.sims[id]
	delete(s.sims, id)
	delete(s.autoRunning, id)
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := &subscriber{conn: conn}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env proto.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			continue
		}
		var payload proto.RoomPayload
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				continue
			}
		}

		switch env.Event {
		case proto.EventJoinSimulation:
			s.mu.Lock()
			s.log = append(s.log, "join "+payload.SimulationID)
			snap, ok := s.sims[payload.SimulationID]
			running := s.autoRunning[payload.SimulationID]
			if ok {
				sub.joined = payload.SimulationID
			}
			s.mu.Unlock()
			if !ok {
				sub.send(proto.EventError, proto.ErrorPayload{Message: "Simulation not found"})
				continue
			}
			// Mirror the real service: ack the join, then push the
			// current state and run-loop status.
			sub.send(proto.EventJoined, proto.RoomPayload{SimulationID: payload.SimulationID})
			sub.send(proto.EventSimulationUpdate, snap)
			sub.send(proto.EventAutoStatus, proto.AutoStatusPayload{AutoRunning: running})
		case proto.EventLeaveSimulation:
			s.mu.Lock()
			s.log = append(s.log, "leave "+payload.SimulationID)
			if sub.joined == payload.SimulationID {
				sub.joined = ""
			}
			s.mu.Unlock()
		}
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"error": "Simulation not found"})
}
