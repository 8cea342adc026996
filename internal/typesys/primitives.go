package typesys

// Built-in primitive descriptors. These are the only primitives in the
// model; clients compose everything else from them.
var (
	Void    = primitive("void", 0, false)
	Byte    = primitive("byte", 1, false)
	Char    = primitive("char", 2, false)
	Short   = primitive("short", 2, true)
	UShort  = primitive("ushort", 2, false)
	Int     = primitive("int", 4, true)
	UInt    = primitive("uint", 4, false)
	Long    = primitive("long", 8, true)
	ULong   = primitive("ulong", 8, false)
	Float   = primitive("float", 4, true)
	Double  = primitive("double", 8, true)
	Decimal = primitive("decimal", 16, true)

	// Dynamic holds a value of any other type plus its type tag at runtime.
	Dynamic = &Type{kind: KindDynamic, name: "dynamic", resolved: true}
)

// Derived composite constants built from the primitives.
var (
	// String is a list of UTF-16 code units.
	String = Char.List()

	// Bool is a two-option variant; option 0 is false, option 1 is true.
	Bool = MustVariant("bool", F("false", Void), F("true", Void))

	// Data is a raw byte list.
	Data = Byte.List()
)

func primitive(name string, size int, signed bool) *Type {
	return &Type{kind: KindPrimitive, name: name, resolved: true, size: size, signed: signed}
}
