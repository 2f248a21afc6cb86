// Package builtin holds the name→kind mapping spec.md §3 requires ("derived
// from a name→kind mapping supplied at startup") together with the
// processor behaviors it names. It plays the role of
// original_source/main/src/processors/*.rs: the concrete, swappable payload
// transformations the core spec treats as external collaborators.
package builtin

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
	"unicode/utf8"

	"github.com/rusk-dataflow/rusk/core/packet"
	"github.com/rusk-dataflow/rusk/core/processor"
)

// Factory builds a fresh Processor instance for one registered name. Exactly
// one of NewSource/NewTransform is set, matching Kind.
type Factory struct {
	Kind         processor.Kind
	NewSource    func(opts ...processor.Option) *processor.Processor
	NewTransform func(dataQueueLength int, opts ...processor.Option) *processor.Processor
}

// Table is the name→kind mapping. Every Registry built by registry.New uses
// this table; registry offers no option to supply a different one. It is
// seeded from both spec.md's named processors (adder, doubler) and the
// ones original_source/ ships that the distilled spec dropped (uppercase,
// random_number_generator — see SPEC_FULL.md §12).
var Table = map[string]Factory{
	"adder": {
		Kind: processor.Source,
		NewSource: func(opts ...processor.Option) *processor.Processor {
			return processor.NewSource("adder", adderGenerate(), opts...)
		},
	},
	"doubler": {
		Kind: processor.Transform,
		NewTransform: func(dataQueueLength int, opts ...processor.Option) *processor.Processor {
			return processor.NewTransform("doubler", dataQueueLength, doublerTransform, opts...)
		},
	},
	"uppercase": {
		Kind: processor.Transform,
		NewTransform: func(dataQueueLength int, opts ...processor.Option) *processor.Processor {
			return processor.NewTransform("uppercase", dataQueueLength, uppercaseTransform, opts...)
		},
	},
	"random_number_generator": {
		Kind: processor.Source,
		NewSource: func(opts ...processor.Option) *processor.Processor {
			return processor.NewSource("random_number_generator", randomNumberGenerate(), opts...)
		},
	},
}

// Kinds returns the read-only name→kind view the registry validates Create
// requests against.
func Kinds() map[string]processor.Kind {
	out := make(map[string]processor.Kind, len(Table))
	for name, f := range Table {
		out[name] = f.Kind
	}
	return out
}

func encodeInt64(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func decodeInt64(b []byte) (int64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(b)), true
}

// adderGenerate emits a packet carrying a monotonically incrementing int64
// payload on every tick. Grounded in
// original_source/main/src/processors/add_one_processor.rs.
func adderGenerate() processor.GenerateFunc {
	var next int64
	return func() (packet.Packet, bool) {
		p := packet.New(packet.InMemory(encodeInt64(next)))
		next++
		return p, true
	}
}

// doublerTransform doubles the numeric payload of an incoming packet,
// reusing the upstream packet id. Non-numeric payloads are dropped (no
// fan-out, no panic) rather than treated as a processor failure.
func doublerTransform(in packet.Packet) (packet.Packet, bool) {
	v, ok := decodeInt64(in.Payload.InMemory)
	if !ok {
		return packet.Packet{}, false
	}
	return in.WithPayload(packet.InMemory(encodeInt64(v * 2))), true
}

// uppercaseTransform uppercases a UTF-8 byte payload, passing through
// non-decodable payloads unchanged. Grounded in
// original_source/main/src/processors/uppercase_processor.rs, present in
// the original but dropped from spec.md's distillation.
func uppercaseTransform(in packet.Packet) (packet.Packet, bool) {
	src := in.Payload.InMemory
	if !utf8.Valid(src) {
		return in.WithPayload(packet.InMemory(append([]byte(nil), src...))), true
	}
	return in.WithPayload(packet.InMemory(bytes.ToUpper(src))), true
}

// randomNumberGenerate emits a random int64 in [0, 100) on every tick.
// Grounded in
// original_source/main/src/processors/random_number_generator.rs.
func randomNumberGenerate() processor.GenerateFunc {
	return func() (packet.Packet, bool) {
		v := rand.Int64N(100)
		return packet.New(packet.InMemory(encodeInt64(v))), true
	}
}
