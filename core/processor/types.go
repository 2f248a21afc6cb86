package processor

import (
	"github.com/google/uuid"

	"github.com/rusk-dataflow/rusk/core/packet"
)

// Kind fixes what a processor does. It is derived once, at creation time,
// from a name→kind mapping and never changes afterward.
type Kind int

const (
	// Source processors fabricate packets on a timer and have no data inbox.
	Source Kind = iota
	// Transform processors consume packets from an inbox and forward derived packets.
	Transform
)

func (k Kind) String() string {
	switch k {
	case Source:
		return "source"
	case Transform:
		return "transform"
	default:
		return "unknown"
	}
}

// Status is a processor's lifecycle state.
type Status int

const (
	Stopped Status = iota
	Running
	Errored
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Running:
		return "Running"
	case Errored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// CommandKind selects which state transition a Command requests.
type CommandKind int

const (
	CmdStart CommandKind = iota
	CmdStop
	CmdGetStatus
	CmdGetInfo
	CmdConnect
	CmdDisconnect
)

// Command is sent by the control plane to a single processor's command
// inbox. Every command carries a single-shot reply channel; the processor
// sends exactly one Reply on it, even for no-op transitions.
type Command struct {
	Kind CommandKind

	// DestID and DestSender are meaningful for CmdConnect/CmdDisconnect.
	DestID     uuid.UUID
	DestSender chan<- packet.Packet

	Reply chan<- Reply
}

// Reply is the acknowledgment sent back for every Command, after whatever
// state mutation it describes has taken effect.
type Reply struct {
	Status Status
	Info   Info
}

// Info is the payload of a GetInfo acknowledgment.
type Info struct {
	ID               uuid.UUID
	Name             string
	Kind             Kind
	Status           Status
	PacketsProcessed int64
}

// NewReplyChan returns a single-shot reply channel: buffered so the
// processor's send never blocks, even if the caller stops listening.
func NewReplyChan() chan Reply {
	return make(chan Reply, 1)
}
