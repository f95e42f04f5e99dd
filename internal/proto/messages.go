package proto

import (
	"encoding/json"
	"fmt"
)

// Server event names delivered over the live channel.
const (
	EventSimulationUpdate = "simulation_update"
	EventAutoStatus       = "auto_status"
	EventJoined           = "joined_simulation"
	EventError            = "error"
)

// Client event names sent over the live channel.
const (
	EventJoinSimulation  = "join_simulation"
	EventLeaveSimulation = "leave_simulation"
)

// Envelope frames every live-channel message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomPayload scopes a join/leave event to one simulation instance.
type RoomPayload struct {
	SimulationID string `json:"simulation_id"`
}

// AutoStatusPayload reports the server-side run loop state.
type AutoStatusPayload struct {
	AutoRunning bool `json:"auto_running"`
}

// ErrorPayload carries a channel-level error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ServerEvent is one decoded inbound live-channel event.
type ServerEvent struct {
	Event        string
	Snapshot     *SimulationSnapshot
	AutoRunning  bool
	SimulationID string
	Message      string
}

// DecodeServerEvent parses one inbound envelope into a typed event.
// Snapshot payloads are validated before they reach the caller.
func DecodeServerEvent(frame []byte) (ServerEvent, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return ServerEvent{}, fmt.Errorf("decode envelope: %w", err)
	}

	ev := ServerEvent{Event: env.Event}
	switch env.Event {
	case EventSimulationUpdate:
		snap, err := DecodeSnapshot(env.Data)
		if err != nil {
			return ServerEvent{}, err
		}
		ev.Snapshot = snap
	case EventAutoStatus:
		var payload AutoStatusPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return ServerEvent{}, fmt.Errorf("decode auto_status: %w", err)
		}
		ev.AutoRunning = payload.AutoRunning
	case EventJoined:
		var payload RoomPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return ServerEvent{}, fmt.Errorf("decode joined_simulation: %w", err)
		}
		ev.SimulationID = payload.SimulationID
	case EventError:
		var payload ErrorPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return ServerEvent{}, fmt.Errorf("decode error event: %w", err)
		}
		ev.Message = payload.Message
	default:
		return ServerEvent{}, fmt.Errorf("unknown event %q", env.Event)
	}
	return ev, nil
}

// EncodeClientEvent frames an outbound room event.
func EncodeClientEvent(event, simulationID string) ([]byte, error) {
	data, err := json.Marshal(RoomPayload{SimulationID: simulationID})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// CreateResponse is the REST payload returned when a simulation is created.
type CreateResponse struct {
	SimulationID string              `json:"simulation_id"`
	State        *SimulationSnapshot `json:"state"`
}

// StepResponse is the REST payload returned by a manual step request.
type StepResponse struct {
	Success bool                `json:"success"`
	State   *SimulationSnapshot `json:"state"`
}
