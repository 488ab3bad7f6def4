package schema

// Kind identifies a Spanner column type
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt64
	KindFloat64
	KindString
	KindBytes
	KindDate
	KindTimestamp
	KindArray
)

// Size is the length bound of a STRING or BYTES type
type Size int64

const (
	// NoSize marks a type that carries no length bound
	NoSize Size = 0
	// MaxSize is the unbounded length, rendered as MAX
	MaxSize Size = -1
)

// Type is a column type. Arrays wrap an element type; the size bound
// always lives on the innermost scalar.
type Type struct {
	Kind Kind
	Elem *Type
	Size Size
}

func Bool() Type      { return Type{Kind: KindBool} }
func Int64() Type     { return Type{Kind: KindInt64} }
func Float64() Type   { return Type{Kind: KindFloat64} }
func Date() Type      { return Type{Kind: KindDate} }
func Timestamp() Type { return Type{Kind: KindTimestamp} }

// String returns a STRING type bounded by size
func String(size Size) Type { return Type{Kind: KindString, Size: size} }

// Bytes returns a BYTES type bounded by size
func Bytes(size Size) Type { return Type{Kind: KindBytes, Size: size} }

// Array returns an ARRAY type holding elem
func Array(elem Type) Type { return Type{Kind: KindArray, Elem: &elem} }

// Scalar unwraps any array nesting and returns the innermost type
func (t Type) Scalar() Type {
	for t.Kind == KindArray && t.Elem != nil {
		t = *t.Elem
	}
	return t
}

// Sized reports whether the innermost scalar requires a size bound
func (t Type) Sized() bool {
	k := t.Scalar().Kind
	return k == KindString || k == KindBytes
}

// Equal reports whether two types are structurally identical
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Size != o.Size {
		return false
	}
	if t.Elem == nil || o.Elem == nil {
		return t.Elem == nil && o.Elem == nil
	}
	return t.Elem.Equal(*o.Elem)
}

// withSize returns a copy of t whose innermost scalar carries size
func (t Type) withSize(size Size) Type {
	if t.Kind == KindArray && t.Elem != nil {
		return Array(t.Elem.withSize(size))
	}
	t.Size = size
	return t
}

func (t Type) String() string {
	s, err := FormatType(t)
	if err != nil {
		return "<invalid type>"
	}
	return s
}
