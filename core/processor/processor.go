// Package processor implements the per-actor concurrent event loop described
// in spec.md §4.1: a single goroutine multiplexing a command inbox, a data
// inbox, a periodic tick, and a shared cancellation signal into one state
// machine.
//
// The shape is adapted from the teacher library's core/event.Processor
// (select over ctx.Done()/events channel, panic-recovering handler
// dispatch, atomic stats, Start/Run/Stop lifecycle) generalized from a
// single event channel to the four-way select spec.md requires, and from
// handler dispatch to the Start/Stop/GetStatus/GetInfo/Connect/Disconnect
// command protocol.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rusk-dataflow/rusk/core/packet"
)

// GenerateFunc fabricates a packet for a source processor on each tick.
// The second return value reports whether a packet was produced; when
// false, the tick is dropped without incrementing the processed counter.
type GenerateFunc func() (packet.Packet, bool)

// TransformFunc derives an outgoing packet from an incoming one for a
// transform processor. The second return value reports whether to forward
// a result; when false, the input is consumed without fan-out.
type TransformFunc func(in packet.Packet) (packet.Packet, bool)

// Metrics receives observability callbacks from a running Processor.
// Implementations must be safe for concurrent use; a nil Metrics is valid
// and simply means no observations are recorded.
type Metrics interface {
	SetStatus(id uuid.UUID, name string, kind Kind, status Status)
	IncPacketsProcessed(id uuid.UUID, name string, kind Kind)
}

// Processor is a single long-lived concurrent task. Its peer set and
// status are owned exclusively by the goroutine running Run; nothing else
// touches them.
type Processor struct {
	id   uuid.UUID
	name string
	kind Kind

	commands chan Command
	dataIn   chan packet.Packet // nil for Source

	tickInterval time.Duration // 0 disables the ticker (Transform)

	generate  GenerateFunc
	transform TransformFunc

	logger  *slog.Logger
	metrics Metrics

	status  Status
	peers   map[uuid.UUID]chan<- packet.Packet
	counter int64
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithLogger sets the logger used for this processor's event loop.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithMetrics attaches a Metrics sink.
func WithMetrics(m Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithTickInterval overrides the default ~100ms source tick interval.
func WithTickInterval(d time.Duration) Option {
	return func(p *Processor) { p.tickInterval = d }
}

// WithID overrides the processor's generated identity. Used by the control
// plane when a Create request supplies an explicit processor_id.
func WithID(id uuid.UUID) Option {
	return func(p *Processor) { p.id = id }
}

// DefaultTickInterval is the tick period sources use unless overridden.
const DefaultTickInterval = 100 * time.Millisecond

// DefaultCommandQueueLength bounds the command inbox. Commands are
// infrequent relative to data traffic, so a small buffer suffices.
const DefaultCommandQueueLength = 16

// NewSource constructs a Source processor. Unlike NewTransform it takes no
// queue length — sources have no data inbox.
func NewSource(name string, generate GenerateFunc, opts ...Option) *Processor {
	p := &Processor{
		id:           uuid.New(),
		name:         name,
		kind:         Source,
		commands:     make(chan Command, DefaultCommandQueueLength),
		generate:     generate,
		tickInterval: DefaultTickInterval,
		logger:       slog.New(slog.DiscardHandler),
		status:       Stopped,
		peers:        make(map[uuid.UUID]chan<- packet.Packet),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewTransform constructs a Transform processor with a bounded data inbox
// of the given capacity (spec.md's processor_queue_length).
func NewTransform(name string, dataQueueLength int, transform TransformFunc, opts ...Option) *Processor {
	p := &Processor{
		id:        uuid.New(),
		name:      name,
		kind:      Transform,
		commands:  make(chan Command, DefaultCommandQueueLength),
		dataIn:    make(chan packet.Packet, dataQueueLength),
		transform: transform,
		logger:    slog.New(slog.DiscardHandler),
		status:    Stopped,
		peers:     make(map[uuid.UUID]chan<- packet.Packet),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the processor's stable identity.
func (p *Processor) ID() uuid.UUID { return p.id }

// Name returns the processor's human-readable name.
func (p *Processor) Name() string { return p.name }

// Kind returns the processor's fixed kind.
func (p *Processor) Kind() Kind { return p.kind }

// Commands returns the send-only handle to this processor's command inbox,
// the handle the control plane stores in its control map.
func (p *Processor) Commands() chan<- Command { return p.commands }

// DataInbox returns the send-only handle to this processor's data inbox,
// the handle the control plane stores in its peers map. Returns nil for a
// Source, which has no data inbox.
func (p *Processor) DataInbox() chan<- packet.Packet {
	if p.dataIn == nil {
		return nil
	}
	return p.dataIn
}

// Run executes the event loop until ctx is cancelled. It does not drain
// either inbox on exit and does not close any channel it sent into or
// owns — spec.md §4.1 "Termination" and §9 both require this.
func (p *Processor) Run(ctx context.Context) {
	var tickC <-chan time.Time
	if p.kind == Source && p.tickInterval > 0 {
		ticker := time.NewTicker(p.tickInterval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	p.logger.InfoContext(ctx, "processor started", slog.String("name", p.name), slog.String("kind", p.kind.String()))

	for {
		// Cancellation takes priority over any other ready case.
		select {
		case <-ctx.Done():
			p.logger.InfoContext(context.Background(), "processor terminating on cancellation", slog.String("name", p.name))
			return
		default:
		}

		select {
		case <-ctx.Done():
			p.logger.InfoContext(context.Background(), "processor terminating on cancellation", slog.String("name", p.name))
			return
		case cmd := <-p.commands:
			p.handleCommand(ctx, cmd)
		case pk, ok := <-p.dataIn:
			if ok {
				p.handleData(ctx, pk)
			}
		case <-tickC:
			p.handleTick(ctx)
		}
	}
}

func (p *Processor) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CmdStart:
		if p.status != Errored {
			p.status = Running
		}
		p.reply(cmd, ctx, false)
	case CmdStop:
		if p.status != Errored {
			p.status = Stopped
		}
		p.reply(cmd, ctx, false)
	case CmdGetStatus:
		p.reply(cmd, ctx, false)
	case CmdGetInfo:
		p.reply(cmd, ctx, true)
	case CmdConnect:
		p.peers[cmd.DestID] = cmd.DestSender
		p.reply(cmd, ctx, false)
	case CmdDisconnect:
		delete(p.peers, cmd.DestID)
		p.reply(cmd, ctx, false)
	default:
		p.reply(cmd, ctx, false)
	}
	p.observeStatus()
}

// reply sends exactly one Reply for cmd. withInfo controls whether the
// current packet counter is attached (GetInfo) or omitted.
func (p *Processor) reply(cmd Command, _ context.Context, withInfo bool) {
	r := Reply{Status: p.status}
	if withInfo {
		r.Info = Info{ID: p.id, Name: p.name, Kind: p.kind, Status: p.status, PacketsProcessed: p.counter}
	}
	cmd.Reply <- r
}

func (p *Processor) handleData(ctx context.Context, in packet.Packet) {
	if p.status != Running {
		return
	}
	out, ok := p.safeTransform(in)
	if !ok {
		return
	}
	if p.fanOut(ctx, out) {
		p.counter++
		p.observePacket()
	}
}

func (p *Processor) handleTick(ctx context.Context) {
	if p.status != Running {
		return
	}
	out, ok := p.safeGenerate()
	if !ok {
		return
	}
	if p.fanOut(ctx, out) {
		p.counter++
		p.observePacket()
	}
}

// safeTransform invokes the user transform function, converting a panic
// into an Errored transition per spec.md's failure policy.
func (p *Processor) safeTransform(in packet.Packet) (out packet.Packet, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("transform panicked, processor entering Errored", slog.String("name", p.name), slog.Any("panic", r))
			p.status = Errored
			ok = false
		}
	}()
	return p.transform(in)
}

func (p *Processor) safeGenerate() (out packet.Packet, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("generate panicked, processor entering Errored", slog.String("name", p.name), slog.Any("panic", r))
			p.status = Errored
			ok = false
		}
	}()
	return p.generate()
}

// fanOut sends a clone of pk to every peer, in unspecified order. A send
// that fails because the peer's channel was closed prunes that peer from
// the set and iteration continues. Reports whether at least one peer
// existed to receive the packet — an empty peer set drops the packet
// without counting it, per spec.md's fan-out rule.
func (p *Processor) fanOut(_ context.Context, pk packet.Packet) bool {
	if len(p.peers) == 0 {
		return false
	}
	sent := false
	for destID, ch := range p.peers {
		if trySend(ch, pk.Clone()) {
			sent = true
		} else {
			delete(p.peers, destID)
		}
	}
	return sent
}

// trySend delivers pk to ch, which may block up to the channel's bound —
// spec.md's sole intended backpressure point. It reports false instead of
// panicking if ch has been closed by its owner.
func trySend(ch chan<- packet.Packet, pk packet.Packet) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	ch <- pk
	return true
}

func (p *Processor) observeStatus() {
	if p.metrics != nil {
		p.metrics.SetStatus(p.id, p.name, p.kind, p.status)
	}
}

func (p *Processor) observePacket() {
	if p.metrics != nil {
		p.metrics.IncPacketsProcessed(p.id, p.name, p.kind)
	}
}
