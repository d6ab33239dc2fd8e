// Package codec provides a small deterministic byte encoding for the core
// crdt types: fixed-width integers and replica ids sorted ascending before
// encoding, so that two replicas holding identical logical state always
// produce byte-identical output. That determinism matters for anything that
// hashes or diffs encoded state (e.g. deciding whether an anti-entropy round
// actually changed anything) - a map-iteration-order-dependent encoder would
// make equal states compare unequal.
//
// The original crate leans on serde/serde_cbor for this role (see
// original_source/src/hlc.rs and event.rs); this is a from-scratch, much
// smaller stand-in scoped to exactly the types this library ships.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/Polqt/crdt/crdt"
)

// DecodeError reports a failure to decode a value, with the byte offset at
// which decoding gave up and the underlying cause.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode failed at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(offset int, err error) error {
	return &DecodeError{Offset: offset, Err: err}
}

// EncodeHLC writes h as a fixed-width big-endian uint64.
func EncodeHLC(buf *bytes.Buffer, h crdt.HLC) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(h))
	buf.Write(tmp[:])
}

// DecodeHLC reads a fixed-width HLC from r and syncs the process-wide clock
// to it, so that later calls to crdt.Now return a greater value.
func DecodeHLC(r *bytes.Reader) (crdt.HLC, error) {
	var tmp [8]byte
	if _, err := readFull(r, tmp[:]); err != nil {
		return 0, decodeErr(offsetOf(r), err)
	}
	h := crdt.HLC(binary.BigEndian.Uint64(tmp[:]))
	crdt.Sync(h)
	return h, nil
}

// EncodeDot writes dot as two fixed-width fields: a uint32 replica id
// followed by a uint64 sequence number.
func EncodeDot(buf *bytes.Buffer, dot crdt.Dot) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(dot.Replica))
	buf.Write(tmp[:])
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], dot.Seq)
	buf.Write(seq[:])
}

// DecodeDot reads a Dot written by EncodeDot.
func DecodeDot(r *bytes.Reader) (crdt.Dot, error) {
	var tmp [4]byte
	if _, err := readFull(r, tmp[:]); err != nil {
		return crdt.Dot{}, decodeErr(offsetOf(r), err)
	}
	var seq [8]byte
	if _, err := readFull(r, seq[:]); err != nil {
		return crdt.Dot{}, decodeErr(offsetOf(r), err)
	}
	return crdt.Dot{
		Replica: crdt.ReplicaID(binary.BigEndian.Uint32(tmp[:])),
		Seq:     binary.BigEndian.Uint64(seq[:]),
	}, nil
}

// EncodeVClock writes a length-prefixed, replica-id-ascending-sorted list of
// (replica, seq) pairs.
func EncodeVClock(buf *bytes.Buffer, v crdt.VClock) {
	type pair struct {
		id  crdt.ReplicaID
		seq uint64
	}
	var pairs []pair
	v.Each(func(id crdt.ReplicaID, seq uint64) {
		pairs = append(pairs, pair{id, seq})
	})
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(pairs)))
	buf.Write(count[:])
	for _, p := range pairs {
		EncodeDot(buf, crdt.Dot{Replica: p.id, Seq: p.seq})
	}
}

// DecodeVClock reads a VClock written by EncodeVClock.
func DecodeVClock(r *bytes.Reader) (crdt.VClock, error) {
	var count [4]byte
	if _, err := readFull(r, count[:]); err != nil {
		return crdt.VClock{}, decodeErr(offsetOf(r), err)
	}
	n := binary.BigEndian.Uint32(count[:])
	v := crdt.NewVClock()
	for i := uint32(0); i < n; i++ {
		dot, err := DecodeDot(r)
		if err != nil {
			return crdt.VClock{}, err
		}
		v.Set(dot)
	}
	return v, nil
}

// EncodeGCounterDelta writes a GCounter delta as its underlying VClock.
func EncodeGCounterDelta(buf *bytes.Buffer, d crdt.GCounterDelta) {
	EncodeVClock(buf, d.Counts())
}

// DecodeGCounterDelta reads a GCounter delta written by
// EncodeGCounterDelta.
func DecodeGCounterDelta(r *bytes.Reader) (crdt.GCounterDelta, error) {
	v, err := DecodeVClock(r)
	if err != nil {
		return crdt.GCounterDelta{}, err
	}
	return crdt.NewGCounterDelta(v), nil
}

// EventEnvelope is the wire form of a commutative.Event[T], with the
// payload left as opaque bytes - this package has no way to know how to
// encode an arbitrary T, so callers marshal the value themselves (with
// encoding/gob, encoding/json, or anything else) and hand the result in as
// Payload, mirroring how the original crate's Event carries a
// serde_cbor-encoded payload alongside its causal metadata.
type EventEnvelope struct {
	Origin    crdt.ReplicaID
	OriginSeq uint64
	LocalSeq  uint64
	SysTime   crdt.HLC
	VecTime   crdt.VClock
	Payload   []byte
}

// EncodeEvent writes an EventEnvelope: fixed-width metadata followed by a
// length-prefixed payload.
func EncodeEvent(buf *bytes.Buffer, e EventEnvelope) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(e.Origin))
	buf.Write(tmp[:])

	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], e.OriginSeq)
	buf.Write(seq[:])
	binary.BigEndian.PutUint64(seq[:], e.LocalSeq)
	buf.Write(seq[:])

	EncodeHLC(buf, e.SysTime)
	EncodeVClock(buf, e.VecTime)

	var plen [4]byte
	binary.BigEndian.PutUint32(plen[:], uint32(len(e.Payload)))
	buf.Write(plen[:])
	buf.Write(e.Payload)
}

// DecodeEvent reads an EventEnvelope written by EncodeEvent.
func DecodeEvent(r *bytes.Reader) (EventEnvelope, error) {
	var e EventEnvelope

	var tmp [4]byte
	if _, err := readFull(r, tmp[:]); err != nil {
		return e, decodeErr(offsetOf(r), err)
	}
	e.Origin = crdt.ReplicaID(binary.BigEndian.Uint32(tmp[:]))

	var seq [8]byte
	if _, err := readFull(r, seq[:]); err != nil {
		return e, decodeErr(offsetOf(r), err)
	}
	e.OriginSeq = binary.BigEndian.Uint64(seq[:])
	if _, err := readFull(r, seq[:]); err != nil {
		return e, decodeErr(offsetOf(r), err)
	}
	e.LocalSeq = binary.BigEndian.Uint64(seq[:])

	sysTime, err := DecodeHLC(r)
	if err != nil {
		return e, err
	}
	e.SysTime = sysTime

	vecTime, err := DecodeVClock(r)
	if err != nil {
		return e, err
	}
	e.VecTime = vecTime

	var plen [4]byte
	if _, err := readFull(r, plen[:]); err != nil {
		return e, decodeErr(offsetOf(r), err)
	}
	n := binary.BigEndian.Uint32(plen[:])
	if int64(n) > int64(r.Len()) {
		return e, decodeErr(offsetOf(r), fmt.Errorf("payload length %d exceeds %d remaining bytes", n, r.Len()))
	}
	payload := make([]byte, n)
	if _, err := readFull(r, payload); err != nil {
		return e, decodeErr(offsetOf(r), err)
	}
	e.Payload = payload
	return e, nil
}

func readFull(r *bytes.Reader, p []byte) (int, error) {
	return io.ReadFull(r, p)
}

func offsetOf(r *bytes.Reader) int {
	size := r.Size()
	return int(size) - r.Len()
}
