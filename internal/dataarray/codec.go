package dataarray

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datatype"
)

// Encode packs the buffer of an allocated array into bytes. Fixed-width
// elements are written little endian. Strings are written as a uvarint length
// followed by their bytes.
func Encode(a Array) ([]byte, error) {
	if !a.IsAllocated() {
		return nil, nil
	}
	var buf bytes.Buffer
	if a.Type().Size() > 0 {
		if err := binary.Write(&buf, binary.LittleEndian, valuesOf(a)); err != nil {
			return nil, fmt.Errorf("encode %s: %w", a.Name(), err)
		}
		return buf.Bytes(), nil
	}

	strs, err := As[string](a)
	if err != nil {
		return nil, err
	}
	var lenBuf [binary.MaxVarintLen64]byte
	for _, s := range strs.data {
		n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
		buf.Write(lenBuf[:n])
		buf.WriteString(s)
	}
	return buf.Bytes(), nil
}

// Decode allocates a and fills it from bytes produced by Encode.
func Decode(a Array, raw []byte) error {
	k, err := lookup(a.Type(), a.Name())
	if err != nil {
		return err
	}
	return k.decode(a, raw)
}

func valuesOf(a Array) any {
	switch t := a.(type) {
	case *DataArray[int8]:
		return t.data
	case *DataArray[uint8]:
		return t.data
	case *DataArray[int16]:
		return t.data
	case *DataArray[uint16]:
		return t.data
	case *DataArray[int32]:
		return t.data
	case *DataArray[uint32]:
		return t.data
	case *DataArray[int64]:
		return t.data
	case *DataArray[uint64]:
		return t.data
	case *DataArray[float32]:
		return t.data
	case *DataArray[float64]:
		return t.data
	case *DataArray[bool]:
		return t.data
	}
	return nil
}

func decodeInto[T datatype.Element](a *DataArray[T], raw []byte) error {
	a.Release()
	a.Allocate()
	if p, ok := any(&a.data).(*[]string); ok {
		r := bytes.NewReader(raw)
		for i := range *p {
			n, err := binary.ReadUvarint(r)
			if err != nil {
				return dataerr.New(dataerr.Compute, a.name, "string %d: %v", i, err)
			}
			if n > uint64(r.Len()) {
				return dataerr.New(dataerr.Compute, a.name, "string %d: length %d exceeds remaining %d bytes", i, n, r.Len())
			}
			b := make([]byte, n)
			_, _ = r.Read(b)
			(*p)[i] = string(b)
		}
		if r.Len() != 0 {
			return dataerr.New(dataerr.Compute, a.name, "%d trailing bytes", r.Len())
		}
		return nil
	}

	want := a.Size() * a.Type().Size()
	if len(raw) != want {
		return dataerr.New(dataerr.ShapeMismatch, a.name, "payload has %d bytes, %d expected", len(raw), want)
	}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, a.data); err != nil {
		return dataerr.New(dataerr.Compute, a.name, "decode: %v", err)
	}
	return nil
}
