package multiscale

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// current version of the storage spec written by this package
const zarrFormat = 2

// AccessMode controls how Access treats existing and missing nodes.
type AccessMode string

const (
	// ModeRead is read only; the node must exist.
	ModeRead AccessMode = "r"
	// ModeReadWrite is read/write; the node must exist.
	ModeReadWrite AccessMode = "r+"
	// ModeAppend is read/write, creating the node if it doesn't exist.
	ModeAppend AccessMode = "a"
	// ModeWrite creates the node, overwriting an existing one.
	ModeWrite AccessMode = "w"
	// ModeWriteFail creates the node, failing if it exists.
	ModeWriteFail AccessMode = "w-"
)

// MetaType enumerates the reserved metadata keys of a node.
type MetaType string

const (
	// MTAttributes stores userland metadata for a node
	MTAttributes MetaType = ".zattrs"
	// MTArray is the key an array definition is stored under
	MTArray MetaType = ".zarray"
	// MTGroup is the key a group definition is stored under
	MTGroup MetaType = ".zgroup"
	// MTMetadata is the key for composite metadata
	MTMetadata MetaType = ".zmetadata"
)

type MetaTyper interface {
	MetaType() MetaType
}

var metaTypes = map[MetaType]struct{}{
	MTAttributes: {},
	MTArray:      {},
	MTGroup:      {},
}

// relies on the fact that all keynames are 7 characters long
func KeyMetaType(s string) (mt MetaType, ok bool) {
	if len(s) < 7 {
		return mt, false
	}
	mt = MetaType(s[len(s)-7:])
	_, ok = metaTypes[mt]
	return mt, ok
}

// Attributes is free-form userland metadata attached to a node.
type Attributes map[string]interface{}

func (Attributes) MetaType() MetaType { return MTAttributes }

// ArrayMeta is the essential configuration of a stored array, encoded as
// JSON under the ".zarray" key of the array's path.
type ArrayMeta struct {
	// An integer defining the version of the storage specification to which
	// the array store adheres.
	ZarrFormat int `json:"zarr_format"`
	// A list of integers defining the length of each dimension of the array.
	Shape []int `json:"shape"`
	// A list of integers defining the length of each dimension of a chunk of
	// the array. All chunks within an array have the same shape.
	Chunks []int `json:"chunks"`
	// A string defining a valid data type for the array, following the NumPy
	// typestr format.
	Dtype Dtype `json:"dtype"`
	// The primary compression codec and its configuration parameters, or
	// null if no compressor is to be used.
	Compressor *CompressionMeta `json:"compressor"`
	// A scalar value providing the default value to use for uninitialized
	// portions of the array, or null if no fill_value is to be used.
	FillValue interface{} `json:"fill_value"`
	// Either "C" or "F", defining the layout of bytes within each chunk of
	// the array.
	Order string `json:"order"`
	// A list of codec configurations, or null if no filters are applied.
	Filters []Filter `json:"filters"`
	// If present, either "." or "/", the separator placed between the
	// dimensions of a chunk key. Defaults to ".".
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

func (a ArrayMeta) MetaType() MetaType { return MTArray }

// Filter is a single codec configuration applied to chunk data.
type Filter struct {
	ID     string `json:"id"`
	Dtype  string `json:"dtype,omitempty"`
	AsType string `json:"astype,omitempty"`
}

// GroupMeta marks a path as a group. A group exists at a logical path if the
// ".zgroup" key exists under it.
type GroupMeta struct {
	ZarrFormat int `json:"zarr_format"`
}

func (GroupMeta) MetaType() MetaType { return MTGroup }

// ConsolidatedMetadata aggregates the metadata documents of a whole
// hierarchy under a single ".zmetadata" key, so readers can avoid probing
// every path.
type ConsolidatedMetadata struct {
	ConsolidatedFormat int                  `json:"zarr_consolidated_format"`
	Metadata           map[string]MetaTyper `json:"metadata"`
}

type consolidatedMetaDecoder struct {
	ConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata           map[string]json.RawMessage `json:"metadata"`
}

func (m *ConsolidatedMetadata) UnmarshalJSON(d []byte) error {
	cd := consolidatedMetaDecoder{}
	if err := json.Unmarshal(d, &cd); err != nil {
		return err
	}
	cm := ConsolidatedMetadata{
		ConsolidatedFormat: cd.ConsolidatedFormat,
		Metadata:           map[string]MetaTyper{},
	}

	for key, data := range cd.Metadata {
		kt, ok := KeyMetaType(key)
		if !ok {
			return fmt.Errorf("invalid consolidated metadata key: %q", key)
		}

		switch kt {
		case MTArray:
			arr := &ArrayMeta{}
			if err := json.Unmarshal(data, arr); err != nil {
				return fmt.Errorf("reading %q metadata: %w", key, err)
			}
			cm.Metadata[key] = arr
		case MTAttributes:
			attr := Attributes{}
			if err := json.Unmarshal(data, &attr); err != nil {
				return fmt.Errorf("reading %q attributes: %w", key, err)
			}
			cm.Metadata[key] = attr
		case MTGroup:
			grp := GroupMeta{}
			if err := json.Unmarshal(data, &grp); err != nil {
				return fmt.Errorf("reading %q group: %w", key, err)
			}
			cm.Metadata[key] = grp
		}
	}

	*m = cm
	return nil
}

// Node is a handle on a stored array or group.
type Node struct {
	store Store
	path  Path
	mode  AccessMode
	array *ArrayMeta
	group *GroupMeta
	attrs Attributes
}

// AccessOption configures node creation for the writable access modes.
type AccessOption func(*accessOptions)

type accessOptions struct {
	shape  []int
	dtype  Dtype
	chunks []int
	attrs  Attributes
}

// WithShape requests an array node of the given shape. Without it, created
// nodes are groups.
func WithShape(shape ...int) AccessOption {
	return func(o *accessOptions) { o.shape = shape }
}

// WithDtype sets the element type of a created array node.
func WithDtype(dt Dtype) AccessOption {
	return func(o *accessOptions) { o.dtype = dt }
}

// WithChunks sets the chunk shape of a created array node. Defaults to one
// chunk spanning the full shape.
func WithChunks(chunks ...int) AccessOption {
	return func(o *accessOptions) { o.chunks = chunks }
}

// WithAttrs sets the attributes written to a created node.
func WithAttrs(attrs Attributes) AccessOption {
	return func(o *accessOptions) { o.attrs = attrs }
}

// Access opens or creates an array or group node at path. Whether an
// existing node is reused, overwritten or required depends on mode; the
// options describe the node to create, where the mode allows creating one.
func Access(store Store, path string, mode AccessMode, opts ...AccessOption) (*Node, error) {
	o := &accessOptions{}
	for _, opt := range opts {
		opt(o)
	}
	p := NewPath(path)

	exists, err := nodeExists(store, p)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeRead, ModeReadWrite:
		if !exists {
			return nil, fmt.Errorf("%w: no node at %q", ErrNotFound, p.String())
		}
		return openNode(store, p, mode)
	case ModeAppend:
		if exists {
			return openNode(store, p, mode)
		}
		return createNode(store, p, mode, o)
	case ModeWrite:
		if exists {
			if err := store.Delete(p.String()); err != nil {
				return nil, err
			}
		}
		return createNode(store, p, mode, o)
	case ModeWriteFail:
		if exists {
			return nil, fmt.Errorf("%w: node at %q", ErrExists, p.String())
		}
		return createNode(store, p, mode, o)
	}
	return nil, fmt.Errorf("unknown access mode %q", mode)
}

// Open resolves a composite url into a store and an internal path, then
// accesses the node within. The container is the path segment ending in a
// recognized suffix; the store is a LocalStore rooted there.
func Open(url string, mode AccessMode, opts ...AccessOption) (*Node, error) {
	container, inner, _, err := SplitBySuffix(url, DefaultSuffixes)
	if err != nil {
		return nil, err
	}
	store, err := NewLocalStore(container)
	if err != nil {
		return nil, err
	}
	return Access(store, inner, mode, opts...)
}

func nodeExists(store Store, p Path) (bool, error) {
	for _, key := range []MetaType{MTArray, MTGroup} {
		f, err := store.Get(p.Join(string(key)).String())
		if err == nil {
			f.Close()
			return true, nil
		}
	}
	return false, nil
}

func openNode(store Store, p Path, mode AccessMode) (*Node, error) {
	n := &Node{store: store, path: p, mode: mode}

	if err := getJSON(store, p.Join(string(MTArray)), &n.array); err != nil {
		n.array = nil
		if err := getJSON(store, p.Join(string(MTGroup)), &n.group); err != nil {
			return nil, fmt.Errorf("%w: no node at %q", ErrNotFound, p.String())
		}
	}

	attrs := Attributes{}
	if err := getJSON(store, p.Join(string(MTAttributes)), &attrs); err == nil {
		n.attrs = attrs
	}
	return n, nil
}

func createNode(store Store, p Path, mode AccessMode, o *accessOptions) (*Node, error) {
	n := &Node{store: store, path: p, mode: mode, attrs: o.attrs}

	if o.shape == nil {
		n.group = &GroupMeta{ZarrFormat: zarrFormat}
		if err := putJSON(store, p.Join(string(MTGroup)), n.group); err != nil {
			return nil, err
		}
	} else {
		if o.dtype == (Dtype{}) {
			return nil, fmt.Errorf("creating array %q: dtype is required", p.String())
		}
		chunks := o.chunks
		if chunks == nil {
			chunks = o.shape
		}
		n.array = &ArrayMeta{
			ZarrFormat: zarrFormat,
			Shape:      o.shape,
			Chunks:     chunks,
			Dtype:      o.dtype,
			Order:      "C",
		}
		if err := putJSON(store, p.Join(string(MTArray)), n.array); err != nil {
			return nil, err
		}
	}

	if o.attrs != nil {
		if err := putJSON(store, p.Join(string(MTAttributes)), o.attrs); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *Node) Path() string          { return n.path.String() }
func (n *Node) Mode() AccessMode      { return n.mode }
func (n *Node) IsArray() bool         { return n.array != nil }
func (n *Node) IsGroup() bool         { return n.group != nil }
func (n *Node) Attrs() Attributes     { return n.attrs }
func (n *Node) ArrayMeta() *ArrayMeta { return n.array }

// SetAttrs replaces the node's attribute document. This is how v2 multiscale
// transforms are attached to their arrays. Fails on read-only handles.
func (n *Node) SetAttrs(attrs Attributes) error {
	if n.mode == ModeRead {
		return fmt.Errorf("node %q is read-only", n.path.String())
	}
	if err := putJSON(n.store, n.path.Join(string(MTAttributes)), attrs); err != nil {
		return err
	}
	n.attrs = attrs
	return nil
}

// Members lists the names of child nodes of a group node, sorted.
func (n *Node) Members() ([]string, error) {
	if !n.IsGroup() {
		return nil, fmt.Errorf("node %q is not a group", n.path.String())
	}
	keys, err := n.store.Keys(n.path.String())
	if err != nil {
		return nil, err
	}

	prefix := ""
	if len(n.path) > 0 {
		prefix = n.path.String() + "/"
	}
	seen := map[string]struct{}{}
	var names []string
	for _, k := range keys {
		rest := strings.TrimPrefix(k, prefix)
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) < 2 {
			continue
		}
		if _, ok := seen[parts[0]]; !ok {
			seen[parts[0]] = struct{}{}
			names = append(names, parts[0])
		}
	}
	return names, nil
}

// ReadChunk reads and decodes one whole chunk of an array node, returning a
// flat slice with element type matching the array's dtype. idx addresses the
// chunk along each dimension.
func (n *Node) ReadChunk(idx []int) (interface{}, error) {
	if !n.IsArray() {
		return nil, fmt.Errorf("node %q is not an array", n.path.String())
	}
	if len(idx) != len(n.array.Chunks) {
		return nil, fmt.Errorf("%w: chunk index has %d dimensions, array has %d",
			ErrShapeMismatch, len(idx), len(n.array.Chunks))
	}

	f, err := n.store.Get(n.chunkKey(idx))
	if err != nil {
		return nil, err
	}
	if n.array.Compressor != nil {
		if f, err = n.array.Compressor.Decompressor(f); err != nil {
			return nil, err
		}
	}
	defer f.Close()

	size := 1
	for _, c := range n.array.Chunks {
		size *= c
	}
	v, err := n.array.Dtype.newSlice(size)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(f, n.array.Dtype.binaryOrder(), v); err != nil {
		return nil, err
	}
	return v, nil
}

func (n *Node) chunkKey(idx []int) string {
	sep := n.array.DimensionSeparator
	if sep == "" {
		sep = "."
	}
	parts := make([]string, len(idx))
	for i, ix := range idx {
		parts[i] = strconv.Itoa(ix)
	}
	return n.path.Join(strings.Join(parts, sep)).String()
}

// Materialize persists a GroupSpec under path: the group marker and
// attribute documents, one array definition and attribute document per
// member, and a consolidated metadata document at the group level. Member
// arrays are created empty; writing chunk data is a separate step.
func Materialize(store Store, path string, spec GroupSpec) (*Node, error) {
	p := NewPath(path)

	consolidated := ConsolidatedMetadata{
		ConsolidatedFormat: 1,
		Metadata:           map[string]MetaTyper{},
	}

	group := GroupMeta{ZarrFormat: zarrFormat}
	if err := putJSON(store, p.Join(string(MTGroup)), group); err != nil {
		return nil, err
	}
	groupAttrs, err := toAttributes(spec.Attributes)
	if err != nil {
		return nil, err
	}
	if err := putJSON(store, p.Join(string(MTAttributes)), groupAttrs); err != nil {
		return nil, err
	}
	consolidated.Metadata[string(MTGroup)] = group
	consolidated.Metadata[string(MTAttributes)] = groupAttrs

	for name, member := range spec.Members {
		meta := ArrayMeta{
			ZarrFormat: zarrFormat,
			Shape:      member.Shape,
			Chunks:     member.Chunks,
			Dtype:      member.Dtype,
			Compressor: member.Compressor,
			FillValue:  member.FillValue,
			Order:      "C",
		}
		if err := putJSON(store, p.Join(name, string(MTArray)), &meta); err != nil {
			return nil, err
		}
		attrs, err := toAttributes(member.Attributes)
		if err != nil {
			return nil, err
		}
		if err := putJSON(store, p.Join(name, string(MTAttributes)), attrs); err != nil {
			return nil, err
		}
		consolidated.Metadata[name+"/"+string(MTArray)] = &meta
		consolidated.Metadata[name+"/"+string(MTAttributes)] = attrs
	}

	if err := putJSON(store, p.Join(string(MTMetadata)), consolidated); err != nil {
		return nil, err
	}

	return Access(store, path, ModeAppend)
}

// Delete removes the node at path and all of its descendant keys.
func Delete(store Store, path string) error {
	return store.Delete(NewPath(path).String())
}

// toAttributes round-trips a typed attribute document through JSON into the
// generic Attributes form stored and consolidated on disk.
func toAttributes(v interface{}) (Attributes, error) {
	d, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	attrs := Attributes{}
	if err := json.Unmarshal(d, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func getJSON(store Store, key Path, v interface{}) error {
	f, err := store.Get(key.String())
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}

func putJSON(store Store, key Path, v interface{}) error {
	d, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Put(key.String(), strings.NewReader(string(d)))
}
