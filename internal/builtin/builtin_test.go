package builtin_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusk-dataflow/rusk/core/packet"
	"github.com/rusk-dataflow/rusk/core/processor"
	"github.com/rusk-dataflow/rusk/internal/builtin"
)

func encode(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func decode(t *testing.T, b []byte) int64 {
	t.Helper()
	require.Len(t, b, 8)
	return int64(binary.BigEndian.Uint64(b))
}

// runningWithPeer starts p, connects a buffered peer channel to it, issues
// Start, and returns the peer channel plus a cleanup func.
func runningWithPeer(t *testing.T, p *processor.Processor) (<-chan packet.Packet, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	peer := make(chan packet.Packet, 8)
	reply := processor.NewReplyChan()
	p.Commands() <- processor.Command{Kind: processor.CmdConnect, DestID: uuid.New(), DestSender: peer, Reply: reply}
	<-reply

	reply = processor.NewReplyChan()
	p.Commands() <- processor.Command{Kind: processor.CmdStart, Reply: reply}
	<-reply

	return peer, cancel
}

func TestKindsMatchesTable(t *testing.T) {
	t.Parallel()

	kinds := builtin.Kinds()
	assert.Equal(t, processor.Source, kinds["adder"])
	assert.Equal(t, processor.Transform, kinds["doubler"])
	assert.Equal(t, processor.Transform, kinds["uppercase"])
	assert.Equal(t, processor.Source, kinds["random_number_generator"])
	assert.Len(t, kinds, 4)
}

func TestAdderEmitsIncrementingSequence(t *testing.T) {
	t.Parallel()

	p := builtin.Table["adder"].NewSource(processor.WithTickInterval(5 * time.Millisecond))
	peer, cancel := runningWithPeer(t, p)
	defer cancel()

	first := decode(t, recv(t, peer).Payload.InMemory)
	second := decode(t, recv(t, peer).Payload.InMemory)
	assert.Equal(t, first+1, second)
}

func TestDoublerDoublesNumericPayloadAndPreservesID(t *testing.T) {
	t.Parallel()

	p := builtin.Table["doubler"].NewTransform(4)
	peer, cancel := runningWithPeer(t, p)
	defer cancel()

	in := packet.New(packet.InMemory(encode(21)))
	p.DataInbox() <- in

	out := recv(t, peer)
	assert.Equal(t, in.ID, out.ID)
	assert.EqualValues(t, 42, decode(t, out.Payload.InMemory))
}

func TestDoublerDropsNonNumericPayload(t *testing.T) {
	t.Parallel()

	p := builtin.Table["doubler"].NewTransform(4)
	peer, cancel := runningWithPeer(t, p)
	defer cancel()

	p.DataInbox() <- packet.New(packet.InMemory([]byte{1, 2, 3}))

	select {
	case pk := <-peer:
		t.Fatalf("expected no fan-out for a non-numeric payload, got %+v", pk)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUppercaseTransformsValidUTF8(t *testing.T) {
	t.Parallel()

	p := builtin.Table["uppercase"].NewTransform(4)
	peer, cancel := runningWithPeer(t, p)
	defer cancel()

	in := packet.New(packet.InMemory([]byte("hello")))
	p.DataInbox() <- in

	out := recv(t, peer)
	assert.Equal(t, "HELLO", string(out.Payload.InMemory))
}

func TestUppercasePassesThroughInvalidUTF8Unchanged(t *testing.T) {
	t.Parallel()

	p := builtin.Table["uppercase"].NewTransform(4)
	peer, cancel := runningWithPeer(t, p)
	defer cancel()

	invalid := []byte{0xff, 0xfe, 0xfd}
	p.DataInbox() <- packet.New(packet.InMemory(invalid))

	out := recv(t, peer)
	assert.Equal(t, invalid, out.Payload.InMemory)
}

func TestRandomNumberGeneratorFactoryBuilds(t *testing.T) {
	t.Parallel()

	p := builtin.Table["random_number_generator"].NewSource(processor.WithTickInterval(5 * time.Millisecond))
	peer, cancel := runningWithPeer(t, p)
	defer cancel()

	v := decode(t, recv(t, peer).Payload.InMemory)
	assert.GreaterOrEqual(t, v, int64(0))
	assert.Less(t, v, int64(100))
}

func recv(t *testing.T, ch <-chan packet.Packet) packet.Packet {
	t.Helper()
	select {
	case pk := <-ch:
		return pk
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fan-out packet")
		return packet.Packet{}
	}
}
