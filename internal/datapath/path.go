package datapath

import (
	"regexp"
	"strings"

	"github.com/vk/voxelflow/internal/dataerr"
)

// Separator joins path segments.
const Separator = "/"

// nameRegex accepts any run of printable characters that is not a slash.
var nameRegex = regexp.MustCompile(`^[^/\x00-\x1f]+$`)

// Depth says which level of the hierarchy a path addresses.
type Depth int

const (
	DepthContainer    Depth = 1
	DepthAttributeSet Depth = 2
	DepthArray        Depth = 3
)

// Path addresses a container, an attribute set or an array.
type Path struct {
	Container    string
	AttributeSet string
	Array        string
}

// New builds a path from its segments. Trailing empty segments shorten the
// path; no validation is done.
func New(container, attributeSet, array string) Path {
	return Path{Container: container, AttributeSet: attributeSet, Array: array}
}

// ValidateName checks a single segment name.
func ValidateName(name string) error {
	if name == "" {
		return dataerr.New(dataerr.InvalidPath, "", "name cannot be empty").WithCode(-10001)
	}
	if strings.Contains(name, Separator) {
		return dataerr.New(dataerr.InvalidPath, name, "name cannot contain %q", Separator).WithCode(-80005)
	}
	if !nameRegex.MatchString(name) || strings.TrimSpace(name) == "" {
		return dataerr.New(dataerr.InvalidPath, name, "invalid name %q", name)
	}
	return nil
}

// Parse creates a Path from its canonical string form.
func Parse(raw string) (Path, error) {
	if strings.TrimSpace(raw) == "" {
		return Path{}, dataerr.New(dataerr.InvalidPath, raw, "path cannot be empty").WithCode(-80000)
	}

	segments := strings.Split(strings.TrimSuffix(raw, Separator), Separator)
	if len(segments) > int(DepthArray) {
		return Path{}, dataerr.New(dataerr.InvalidPath, raw, "path has %d segments, at most %d are allowed", len(segments), DepthArray)
	}
	for _, s := range segments {
		if err := ValidateName(s); err != nil {
			return Path{}, dataerr.New(dataerr.InvalidPath, raw, "invalid segment %q", s)
		}
	}

	var p Path
	p.Container = segments[0]
	if len(segments) > 1 {
		p.AttributeSet = segments[1]
	}
	if len(segments) > 2 {
		p.Array = segments[2]
	}
	return p, nil
}

// MustParse is Parse that panics on error. Intended for tests and constants.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseAt parses raw and requires it to address exactly the given depth.
func ParseAt(raw string, depth Depth) (Path, error) {
	p, err := Parse(raw)
	if err != nil {
		return Path{}, err
	}
	if p.Depth() != depth {
		return Path{}, dataerr.New(dataerr.InvalidPath, raw, "expected a %s path", depth)
	}
	return p, nil
}

// Depth returns how many leading segments are set.
func (p Path) Depth() Depth {
	switch {
	case p.Container == "":
		return 0
	case p.AttributeSet == "":
		return DepthContainer
	case p.Array == "":
		return DepthAttributeSet
	default:
		return DepthArray
	}
}

// IsZero reports whether no segment is set.
func (p Path) IsZero() bool {
	return p.Depth() == 0
}

// String serializes the path into its canonical form.
func (p Path) String() string {
	switch p.Depth() {
	case DepthContainer:
		return p.Container
	case DepthAttributeSet:
		return p.Container + Separator + p.AttributeSet
	case DepthArray:
		return p.Container + Separator + p.AttributeSet + Separator + p.Array
	}
	return ""
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool {
	return p == other
}

// Parent drops the last set segment.
func (p Path) Parent() Path {
	switch p.Depth() {
	case DepthArray:
		return Path{Container: p.Container, AttributeSet: p.AttributeSet}
	case DepthAttributeSet:
		return Path{Container: p.Container}
	}
	return Path{}
}

// SetPath returns the attribute-set portion of the path.
func (p Path) SetPath() Path {
	return Path{Container: p.Container, AttributeSet: p.AttributeSet}
}

// ContainerPath returns the container portion of the path.
func (p Path) ContainerPath() Path {
	return Path{Container: p.Container}
}

// WithArray returns the array path under the same attribute set.
func (p Path) WithArray(name string) Path {
	return Path{Container: p.Container, AttributeSet: p.AttributeSet, Array: name}
}

// WithAttributeSet returns the attribute-set path under the same container.
func (p Path) WithAttributeSet(name string) Path {
	return Path{Container: p.Container, AttributeSet: name}
}

// Name returns the last set segment.
func (p Path) Name() string {
	switch p.Depth() {
	case DepthArray:
		return p.Array
	case DepthAttributeSet:
		return p.AttributeSet
	}
	return p.Container
}

func (d Depth) String() string {
	switch d {
	case DepthContainer:
		return "container"
	case DepthAttributeSet:
		return "attribute set"
	case DepthArray:
		return "array"
	}
	return "empty"
}
