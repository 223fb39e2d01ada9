package events

// Event is a structured record of a state change produced by the engine.
type Event interface {
	EventType() string
}

// Emitter forwards events to downstream consumers such as the RPC layer or
// an indexer.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event. Components default to it so that event
// wiring stays optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
