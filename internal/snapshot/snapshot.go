package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/vk/voxelflow/internal/parallel"
	"github.com/zeebo/blake3"
)

// Version is the document format version written by Encode.
const Version = 1

type document struct {
	Version    int            `cbor:"version"`
	Containers []containerDoc `cbor:"containers"`
}

type containerDoc struct {
	Name     string       `cbor:"name"`
	Geometry *geometryDoc `cbor:"geometry,omitempty"`
	Sets     []setDoc     `cbor:"sets"`
}

type geometryDoc struct {
	Type    string     `cbor:"type"`
	Dims    [3]int     `cbor:"dims"`
	Origin  [3]float64 `cbor:"origin"`
	Spacing [3]float64 `cbor:"spacing"`
}

type setDoc struct {
	Name      string     `cbor:"name"`
	Kind      string     `cbor:"kind"`
	TupleDims []int      `cbor:"tuple_dims"`
	Arrays    []arrayDoc `cbor:"arrays"`
}

type arrayDoc struct {
	Name          string `cbor:"name"`
	Type          string `cbor:"type"`
	ComponentDims []int  `cbor:"component_dims"`
	Allocated     bool   `cbor:"allocated"`
	Compression   string `cbor:"compression,omitempty"`
	RawSize       int    `cbor:"raw_size,omitempty"`
	Digest        []byte `cbor:"digest,omitempty"`
	Data          []byte `cbor:"data,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("snapshot: CBOR decoder initialization failed: " + err.Error())
	}
}

// Options tunes Encode.
type Options struct {
	Compression Compression
	// Workers bounds how many arrays are packed concurrently.
	Workers int
}

// packJob is one array waiting to be packed into its slot of the document.
type packJob struct {
	path  datapath.Path
	array dataarray.Array
	out   *arrayDoc
}

// Encode writes coll to w.
func Encode(ctx context.Context, w io.Writer, coll *datacontainer.Collection, opts Options) error {
	doc := document{Version: Version}
	var jobs []packJob

	containers := coll.Containers()
	doc.Containers = make([]containerDoc, len(containers))
	for ci, dc := range containers {
		cd := &doc.Containers[ci]
		cd.Name = dc.Name()
		if g, ok := dc.Geometry().(*datacontainer.ImageGeometry); ok {
			cd.Geometry = &geometryDoc{Type: g.GeometryType(), Dims: g.Dims, Origin: g.Origin, Spacing: g.Spacing}
		}
		sets := dc.AttributeSets()
		cd.Sets = make([]setDoc, len(sets))
		for si, set := range sets {
			sd := &cd.Sets[si]
			sd.Name = set.Name()
			sd.Kind = set.Kind().String()
			sd.TupleDims = set.TupleDims()
			arrays := set.Arrays()
			sd.Arrays = make([]arrayDoc, len(arrays))
			for ai, a := range arrays {
				jobs = append(jobs, packJob{
					path:  datapath.New(dc.Name(), set.Name(), a.Name()),
					array: a,
					out:   &sd.Arrays[ai],
				})
			}
		}
	}

	err := parallel.Each(ctx, len(jobs), opts.Workers, func(i int) error {
		return pack(jobs[i], opts.Compression)
	})
	if err != nil {
		return err
	}

	if err := encMode.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Snapshot encoded.", "containers", len(doc.Containers), "arrays", len(jobs), "compression", opts.Compression.String())
	return nil
}

func pack(job packJob, c Compression) error {
	a := job.array
	*job.out = arrayDoc{
		Name:          a.Name(),
		Type:          a.Type().String(),
		ComponentDims: a.ComponentDims(),
		Allocated:     a.IsAllocated(),
	}
	if !a.IsAllocated() {
		return nil
	}

	raw, err := dataarray.Encode(a)
	if err != nil {
		return dataerr.Wrap(dataerr.Compute, job.path.String(), err)
	}
	digest := blake3.Sum256(raw)
	data, used, err := compress(raw, c)
	if err != nil {
		return dataerr.Wrap(dataerr.Compute, job.path.String(), err)
	}
	job.out.Compression = used.String()
	job.out.RawSize = len(raw)
	job.out.Digest = digest[:]
	job.out.Data = data
	return nil
}

// Decode reads a collection written by Encode.
func Decode(ctx context.Context, r io.Reader) (*datacontainer.Collection, error) {
	var doc document
	if err := decMode.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", doc.Version)
	}

	coll := datacontainer.New()
	arrays := 0
	for _, cd := range doc.Containers {
		dc, err := datacontainer.NewContainer(cd.Name)
		if err != nil {
			return nil, err
		}
		if g := cd.Geometry; g != nil {
			dc.SetGeometry(&datacontainer.ImageGeometry{Dims: g.Dims, Origin: g.Origin, Spacing: g.Spacing})
		}
		for _, sd := range cd.Sets {
			kind, err := datacontainer.ParseSetKind(sd.Kind)
			if err != nil {
				return nil, fmt.Errorf("snapshot: %s/%s: %w", cd.Name, sd.Name, err)
			}
			set, err := datacontainer.NewAttributeSet(sd.Name, sd.TupleDims, kind)
			if err != nil {
				return nil, err
			}
			for _, ad := range sd.Arrays {
				a, err := unpack(datapath.New(cd.Name, sd.Name, ad.Name), ad, set.NumTuples())
				if err != nil {
					return nil, err
				}
				if err := set.InsertOrAssign(a); err != nil {
					return nil, err
				}
				arrays++
			}
			if err := dc.AddAttributeSet(set); err != nil {
				return nil, err
			}
		}
		if err := coll.AddContainer(dc); err != nil {
			return nil, err
		}
	}

	ctxlog.FromContext(ctx).Debug("Snapshot decoded.", "containers", coll.Len(), "arrays", arrays)
	return coll, nil
}

func unpack(path datapath.Path, ad arrayDoc, numTuples int) (dataarray.Array, error) {
	t, err := datatype.Parse(ad.Type)
	if err != nil {
		return nil, dataerr.New(dataerr.UnsupportedType, path.String(), "%v", err).WithSupported(datatype.Names())
	}
	a, err := dataarray.New(t, ad.Name, numTuples, ad.ComponentDims, false)
	if err != nil {
		return nil, err
	}
	if !ad.Allocated {
		return a, nil
	}

	c, err := ParseCompression(ad.Compression)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Compute, path.String(), err)
	}
	if err := checkRawSize(a, ad.RawSize); err != nil {
		return nil, dataerr.Wrap(dataerr.Compute, path.String(), err)
	}
	raw, err := decompress(ad.Data, c, ad.RawSize)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Compute, path.String(), err)
	}
	if digest := blake3.Sum256(raw); !bytes.Equal(digest[:], ad.Digest) {
		return nil, dataerr.New(dataerr.Compute, path.String(), "snapshot digest mismatch")
	}
	if err := dataarray.Decode(a, raw); err != nil {
		return nil, err
	}
	return a, nil
}

// checkRawSize rejects a recorded buffer size that Encode could not have
// produced for a. Fixed-width buffers hold exactly one element width per
// value; every string takes at least its one byte length prefix.
func checkRawSize(a dataarray.Array, size int) error {
	if size < 0 {
		return fmt.Errorf("raw size %d is negative", size)
	}
	values := a.Size()
	width := a.Type().Size()
	if width == 0 {
		if size < values {
			return fmt.Errorf("raw size %d is too small for %d strings", size, values)
		}
		return nil
	}
	if values > math.MaxInt/width || size != values*width {
		return fmt.Errorf("raw size %d does not match %d values of %d bytes", size, values, width)
	}
	return nil
}

// WriteFile encodes coll into the file at path.
func WriteFile(ctx context.Context, path string, coll *datacontainer.Collection, opts Options) error {
	var buf bytes.Buffer
	if err := Encode(ctx, &buf, coll, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes the snapshot file at path.
func ReadFile(ctx context.Context, path string) (*datacontainer.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()
	return Decode(ctx, f)
}
