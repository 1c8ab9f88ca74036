package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// StateChunkMUS is the binary codec for StateChunk values held by the vector store.
// Field order is part of the stored format.
var StateChunkMUS = stateChunkMUS{}

var _ mus.Serializer[StateChunk] = StateChunkMUS

var vectorMUS = ord.NewSliceSer[float32](raw.Float32)

type stateChunkMUS struct{}

func (s stateChunkMUS) Marshal(v StateChunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.StateCode, bs[n:])
	n += ord.String.Marshal(v.DocumentTitle, bs[n:])
	n += ord.String.Marshal(v.SectionTitle, bs[n:])
	n += ord.String.Marshal(v.SectionReference, bs[n:])
	n += ord.String.Marshal(v.EffectiveDate, bs[n:])
	n += varint.Int.Marshal(v.PageNumber, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += varint.Int64.Marshal(timeToNanos(v.InsertedAt), bs[n:])
	return n + varint.Int64.Marshal(timeToNanos(v.UpdatedAt), bs[n:])
}

func (s stateChunkMUS) Unmarshal(bs []byte) (v StateChunk, n int, err error) {
	var n1 int
	fields := []*string{&v.ID, &v.StateCode, &v.DocumentTitle, &v.SectionTitle, &v.SectionReference, &v.EffectiveDate}
	for _, field := range fields {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.PageNumber, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var nanos int64
	nanos, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = nanosToTime(nanos)
	nanos, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = nanosToTime(nanos)
	return
}

func (s stateChunkMUS) Size(v StateChunk) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.StateCode)
	size += ord.String.Size(v.DocumentTitle)
	size += ord.String.Size(v.SectionTitle)
	size += ord.String.Size(v.SectionReference)
	size += ord.String.Size(v.EffectiveDate)
	size += varint.Int.Size(v.PageNumber)
	size += ord.String.Size(v.Content)
	size += vectorMUS.Size(v.Vector)
	size += varint.Int64.Size(timeToNanos(v.InsertedAt))
	return size + varint.Int64.Size(timeToNanos(v.UpdatedAt))
}

func (s stateChunkMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for range 6 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for range 2 {
		n1, err = varint.Int64.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// Zero times are stored as 0 since UnixNano is undefined for them.
func timeToNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func nanosToTime(nanos int64) time.Time {
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}
