// Package packet defines the message unit that flows between processors:
// a stable id plus a payload that is either held in memory or stored as a
// reference into the content repository.
package packet

import (
	"github.com/google/uuid"
)

// Payload is carried by a Packet. Exactly one of InMemory or Reference is
// meaningful, selected by Kind.
type Payload struct {
	Kind PayloadKind

	// InMemory holds the payload bytes when Kind == PayloadInMemory.
	InMemory []byte

	// Reference fields are meaningful when Kind == PayloadReference.
	Filename string
	Offset   uint64
	Length   uint64
}

// PayloadKind distinguishes the two payload variants a Packet can carry.
type PayloadKind int

const (
	// PayloadInMemory carries the payload inline as bytes.
	PayloadInMemory PayloadKind = iota
	// PayloadReference points into the content repository's append-only file.
	PayloadReference
)

// InMemory builds a Payload carrying the given bytes inline.
func InMemory(b []byte) Payload {
	return Payload{Kind: PayloadInMemory, InMemory: b}
}

// Reference builds a Payload pointing at a stored record.
func Reference(filename string, offset, length uint64) Payload {
	return Payload{Kind: PayloadReference, Filename: filename, Offset: offset, Length: length}
}

// Packet is the message unit exchanged between processors. Its Id
// propagates through transformations unless a transform explicitly assigns
// a new one.
type Packet struct {
	ID      uuid.UUID
	Payload Payload
}

// New returns a packet with a freshly generated id.
func New(p Payload) Packet {
	return Packet{ID: uuid.New(), Payload: p}
}

// WithPayload returns a copy of the packet with its id preserved and the
// payload replaced — the common case for a transform that doesn't mint a
// new identity for its output.
func (p Packet) WithPayload(payload Payload) Packet {
	return Packet{ID: p.ID, Payload: payload}
}

// Clone returns a deep copy of the packet, safe to hand to a second peer
// after the first peer has taken ownership of its own copy.
func (p Packet) Clone() Packet {
	out := Packet{ID: p.ID, Payload: Payload{
		Kind:     p.Payload.Kind,
		Filename: p.Payload.Filename,
		Offset:   p.Payload.Offset,
		Length:   p.Payload.Length,
	}}
	if p.Payload.InMemory != nil {
		out.Payload.InMemory = append([]byte(nil), p.Payload.InMemory...)
	}
	return out
}
