// Package registry implements the control plane of spec.md §4.2: the
// registry of processors indexed by identity, with two parallel channel
// maps (control vs. data), and the HTTP surface that drives processor
// lifecycle and topology.
//
// Map mutation follows the teacher's "never hold a map lock across a send"
// rule (spec.md §4.2, §9): every method here acquires mu only
// long enough to read or write a map, releasing it before any channel
// operation that could block.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rusk-dataflow/rusk/core/packet"
	"github.com/rusk-dataflow/rusk/core/processor"
	"github.com/rusk-dataflow/rusk/core/rerr"
	"github.com/rusk-dataflow/rusk/internal/builtin"
)

// Registry owns the three maps spec.md's data model names: control
// (id→command sender), peers (id→data sender, transforms only), and the
// read-only name→kind table. It is safe for concurrent use from multiple
// HTTP handlers.
type Registry struct {
	mu      sync.RWMutex
	control map[uuid.UUID]chan<- processor.Command
	peers   map[uuid.UUID]chan<- packet.Packet
	kinds   map[uuid.UUID]processor.Kind
	names   map[uuid.UUID]string

	nameKind map[string]processor.Kind
	factory  map[string]builtin.Factory

	queueLength int
	clusterName string

	ctx    context.Context
	logger *slog.Logger
	wg     sync.WaitGroup

	metrics processor.Metrics
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLogger sets the logger processors and the registry itself log through.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics attaches a processor.Metrics sink to every spawned processor.
func WithMetrics(m processor.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithClusterName sets the name reported by ClusterInfo.
func WithClusterName(name string) Option {
	return func(r *Registry) { r.clusterName = name }
}

// New constructs a Registry bound to ctx: ctx's cancellation is the global
// cancellation signal spec.md §5 describes, shared by every processor this
// registry spawns. queueLength is spec.md's processor_queue_length,
// applied to every transform's data inbox.
func New(ctx context.Context, queueLength int, opts ...Option) *Registry {
	r := &Registry{
		control:     make(map[uuid.UUID]chan<- processor.Command),
		peers:       make(map[uuid.UUID]chan<- packet.Packet),
		kinds:       make(map[uuid.UUID]processor.Kind),
		names:       make(map[uuid.UUID]string),
		nameKind:    builtin.Kinds(),
		factory:     builtin.Table,
		queueLength: queueLength,
		clusterName: "rusk",
		ctx:         ctx,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wait blocks until every processor task this registry spawned has
// returned from Run. Call after ctx has been cancelled.
func (r *Registry) Wait() { r.wg.Wait() }

// Create resolves processor_name to a kind, spawns the processor task in
// Stopped status, and registers it in the control map (and, for
// transforms, the peers map). If id is non-nil it is used as the
// processor's identity instead of a freshly generated one.
func (r *Registry) Create(name string, id *uuid.UUID) (uuid.UUID, processor.Status, error) {
	f, ok := r.factory[name]
	if !ok {
		return uuid.Nil, 0, rerr.ErrUnknownProcessorName
	}

	opts := []processor.Option{processor.WithLogger(r.logger)}
	if r.metrics != nil {
		opts = append(opts, processor.WithMetrics(r.metrics))
	}
	if id != nil {
		opts = append(opts, processor.WithID(*id))
	}

	var p *processor.Processor
	switch f.Kind {
	case processor.Source:
		p = f.NewSource(opts...)
	case processor.Transform:
		p = f.NewTransform(r.queueLength, opts...)
	}

	pid := p.ID()

	r.mu.Lock()
	r.control[pid] = p.Commands()
	r.kinds[pid] = p.Kind()
	r.names[pid] = p.Name()
	if p.Kind() == processor.Transform {
		r.peers[pid] = p.DataInbox()
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		p.Run(r.ctx)
	}()

	return pid, processor.Stopped, nil
}

// Start issues CmdStart to the given processor and returns its new status.
// Per spec.md §7, an ack that is neither Running nor Errored is a protocol
// violation and surfaces as ErrAckMismatch (mapped to HTTP 500).
func (r *Registry) Start(ctx context.Context, id uuid.UUID) (processor.Status, error) {
	reply, err := r.send(ctx, id, func(rc chan processor.Reply) processor.Command {
		return processor.Command{Kind: processor.CmdStart, Reply: rc}
	})
	if err != nil {
		return 0, err
	}
	if reply.Status != processor.Running && reply.Status != processor.Errored {
		return reply.Status, rerr.ErrAckMismatch
	}
	return reply.Status, nil
}

// Stop issues CmdStop to the given processor and returns its new status.
func (r *Registry) Stop(ctx context.Context, id uuid.UUID) (processor.Status, error) {
	reply, err := r.send(ctx, id, func(rc chan processor.Reply) processor.Command {
		return processor.Command{Kind: processor.CmdStop, Reply: rc}
	})
	if err != nil {
		return 0, err
	}
	if reply.Status != processor.Stopped && reply.Status != processor.Errored {
		return reply.Status, rerr.ErrAckMismatch
	}
	return reply.Status, nil
}

// GetStatus issues CmdGetStatus to the given processor.
func (r *Registry) GetStatus(ctx context.Context, id uuid.UUID) (processor.Status, error) {
	reply, err := r.send(ctx, id, func(rc chan processor.Reply) processor.Command {
		return processor.Command{Kind: processor.CmdGetStatus, Reply: rc}
	})
	if err != nil {
		return 0, err
	}
	return reply.Status, nil
}

// GetInfo issues CmdGetInfo to the given processor.
func (r *Registry) GetInfo(ctx context.Context, id uuid.UUID) (processor.Info, error) {
	reply, err := r.send(ctx, id, func(rc chan processor.Reply) processor.Command {
		return processor.Command{Kind: processor.CmdGetInfo, Reply: rc}
	})
	if err != nil {
		return processor.Info{}, err
	}
	return reply.Info, nil
}

// Connect looks up destID's data sender in the peers map — absent there
// either because the id is unknown or because it names a source, which
// never has an entry (SPEC_FULL.md §13(a)) — and, if found, sends
// CmdConnect to srcID. Returns srcID's current status.
func (r *Registry) Connect(ctx context.Context, srcID, destID uuid.UUID) (processor.Status, error) {
	r.mu.RLock()
	destSender, ok := r.peers[destID]
	r.mu.RUnlock()
	if !ok {
		return 0, rerr.ErrUnknownProcessorID
	}

	reply, err := r.send(ctx, srcID, func(rc chan processor.Reply) processor.Command {
		return processor.Command{Kind: processor.CmdConnect, DestID: destID, DestSender: destSender, Reply: rc}
	})
	if err != nil {
		return 0, err
	}
	return reply.Status, nil
}

// Disconnect sends CmdDisconnect to srcID for destID.
func (r *Registry) Disconnect(ctx context.Context, srcID, destID uuid.UUID) (processor.Status, error) {
	reply, err := r.send(ctx, srcID, func(rc chan processor.Reply) processor.Command {
		return processor.Command{Kind: processor.CmdDisconnect, DestID: destID, Reply: rc}
	})
	if err != nil {
		return 0, err
	}
	return reply.Status, nil
}

// ClusterInfo issues GetInfo to every registered processor and collects the
// replies. Order is unspecified, matching spec.md's GET /cluster/get_info.
func (r *Registry) ClusterInfo(ctx context.Context) (string, []processor.Info) {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.control))
	for id := range r.control {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	infos := make([]processor.Info, 0, len(ids))
	for _, id := range ids {
		info, err := r.GetInfo(ctx, id)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return r.clusterName, infos
}

// send looks up id's control sender, releases the map lock, then sends
// build's command and awaits its reply — never holding the registry's
// mutex across either channel operation.
func (r *Registry) send(ctx context.Context, id uuid.UUID, build func(chan processor.Reply) processor.Command) (processor.Reply, error) {
	r.mu.RLock()
	ch, ok := r.control[id]
	r.mu.RUnlock()
	if !ok {
		return processor.Reply{}, rerr.ErrUnknownProcessorID
	}

	replyCh := processor.NewReplyChan()
	cmd := build(replyCh)

	select {
	case ch <- cmd:
	case <-r.ctx.Done():
		return processor.Reply{}, rerr.ErrProcessorUnreachable
	case <-ctx.Done():
		return processor.Reply{}, rerr.ErrProcessorUnreachable
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-r.ctx.Done():
		return processor.Reply{}, rerr.ErrProcessorUnreachable
	case <-ctx.Done():
		return processor.Reply{}, rerr.ErrProcessorUnreachable
	}
}
