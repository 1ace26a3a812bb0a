// Package broadcast provides a same-profile pub/sub channel used to fan cart
// changes out to sibling client instances. The Bus port hides the transport:
// an in-memory bus serves instances inside one process, a spool-directory bus
// serves instances in separate processes. Delivery is best effort — no acks,
// no retries; a missed message is repaired by the coordinator's resync paths.
package broadcast

import "encoding/json"

// SyncType marks a full-cart replacement message.
const SyncType = "sync"

// Message is the envelope published on a topic. Receivers compare Sender
// against their own instance identifier to suppress self-echo.
type Message struct {
	Type    string          `json:"type"`
	Sender  string          `json:"sender"`
	Payload json.RawMessage `json:"payload"`
}

// Handler consumes one received message.
type Handler func(Message)

// Bus is the pub/sub port. Subscribe returns an unsubscribe function that
// must be called exactly once when the subscriber is disposed.
type Bus interface {
	Publish(topic string, msg Message) error
	Subscribe(topic string, h Handler) (unsubscribe func())
}
