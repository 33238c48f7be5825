package types

// Event represents a typed event emitted by the venue engines during a
// state-mutating call. Attributes are stringly typed so downstream indexers
// can consume them without schema coupling.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
