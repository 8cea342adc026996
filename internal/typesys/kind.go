package typesys

// Kind is the closed tag distinguishing type shapes. It fully determines
// which handle operations and queries are legal for a value of the type.
type Kind uint8

const (
	// KindPrimitive is a fixed-width scalar (byte, int, double, ...).
	KindPrimitive Kind = iota
	// KindDynamic holds a value of any other type plus a runtime type tag.
	KindDynamic
	// KindTuple is an ordered sequence of anonymous element types.
	KindTuple
	// KindStruct is an ordered sequence of named fields.
	KindStruct
	// KindVariant is a tagged union: a current form plus a form-specific payload.
	KindVariant
	// KindList is an ordered, variable-length collection; duplicates allowed.
	KindList
	// KindSet is an unordered, variable-length collection; duplicates forbidden.
	KindSet
	// KindReference is an indirection to another value in the same store.
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindDynamic:
		return "dynamic"
	case KindTuple:
		return "tuple"
	case KindStruct:
		return "struct"
	case KindVariant:
		return "variant"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}
