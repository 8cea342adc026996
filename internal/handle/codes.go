package handle

// OpCode selects the mutating effect a Perform call requests. The set is
// closed: backends match it exhaustively and this package never grows it
// behind a backend's back.
type OpCode uint8

const (
	// OpSetTargetReference rebinds a reference's target to the argument's
	// location.
	OpSetTargetReference OpCode = iota
	// OpSetTargetDynamic binds a dynamic value to the argument's location
	// and type.
	OpSetTargetDynamic
	// OpSetOption switches a variant's current form to index. With a nil
	// argument the payload resets to the option type's default value.
	OpSetOption
	// OpSetField copies the argument into the struct field at index.
	OpSetField
	// OpSetElementTuple copies the argument into the tuple element at index.
	OpSetElementTuple
	// OpSetElementList copies the argument into the list element at index.
	OpSetElementList
	// OpReplace copies the argument over the whole value.
	OpReplace
	// OpClearList removes every list element.
	OpClearList
	// OpClearSet removes every set element.
	OpClearSet
	// OpInsertList inserts the argument at index, shifting later elements.
	OpInsertList
	// OpInsertSet adds the argument; inserting an element already present
	// is a no-op.
	OpInsertSet
	// OpRemoveList removes the element at index.
	OpRemoveList
	// OpRemoveSet removes the element equal to the argument.
	OpRemoveSet
	// OpAppend inserts the argument after the last list element.
	OpAppend
	// OpPrepend inserts the argument before the first list element.
	OpPrepend
)

var opNames = [...]string{
	OpSetTargetReference: "SetTargetReference",
	OpSetTargetDynamic:   "SetTargetDynamic",
	OpSetOption:          "SetOption",
	OpSetField:           "SetField",
	OpSetElementTuple:    "SetElementTuple",
	OpSetElementList:     "SetElementList",
	OpReplace:            "Replace",
	OpClearList:          "ClearList",
	OpClearSet:           "ClearSet",
	OpInsertList:         "InsertList",
	OpInsertSet:          "InsertSet",
	OpRemoveList:         "RemoveList",
	OpRemoveSet:          "RemoveSet",
	OpAppend:             "Append",
	OpPrepend:            "Prepend",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "OpCode(?)"
}

// QueryCode selects the read-only datum a Query call requests.
type QueryCode uint8

const (
	// QueryGetTargetReference yields the handle a reference points at
	// (nil handle when unbound).
	QueryGetTargetReference QueryCode = iota
	// QueryGetTargetDynamic yields the typed handle a dynamic value holds.
	QueryGetTargetDynamic
	// QueryGetListSize yields a list's element count.
	QueryGetListSize
	// QueryGetSetSize yields a set's element count.
	QueryGetSetSize
	// QueryGetOptionIndex yields a variant's current form index.
	QueryGetOptionIndex
	// QueryGetOption yields the payload handle for the option at index, or
	// a nil handle when that option is not the current form.
	QueryGetOption
	// QueryGetField yields the handle for the struct field at index.
	QueryGetField
	// QueryGetElementTuple yields the handle for the tuple element at index.
	QueryGetElementTuple
	// QueryGetElementList yields the handle for the list element at index.
	QueryGetElementList

	// Raw primitive reads, one per native width. Unsigned widths share the
	// signed code; the bits carry the value and the descriptor carries the
	// signedness.
	QueryGetPrimitiveByte
	QueryGetPrimitiveChar
	QueryGetPrimitiveShort
	QueryGetPrimitiveInt
	QueryGetPrimitiveLong
	QueryGetPrimitiveFloat
	QueryGetPrimitiveDouble
	QueryGetPrimitiveDecimal
)

var queryNames = [...]string{
	QueryGetTargetReference:  "GetTargetReference",
	QueryGetTargetDynamic:    "GetTargetDynamic",
	QueryGetListSize:         "GetListSize",
	QueryGetSetSize:          "GetSetSize",
	QueryGetOptionIndex:      "GetOptionIndex",
	QueryGetOption:           "GetOption",
	QueryGetField:            "GetField",
	QueryGetElementTuple:     "GetElementTuple",
	QueryGetElementList:      "GetElementList",
	QueryGetPrimitiveByte:    "GetPrimitiveByte",
	QueryGetPrimitiveChar:    "GetPrimitiveChar",
	QueryGetPrimitiveShort:   "GetPrimitiveShort",
	QueryGetPrimitiveInt:     "GetPrimitiveInt",
	QueryGetPrimitiveLong:    "GetPrimitiveLong",
	QueryGetPrimitiveFloat:   "GetPrimitiveFloat",
	QueryGetPrimitiveDouble:  "GetPrimitiveDouble",
	QueryGetPrimitiveDecimal: "GetPrimitiveDecimal",
}

func (q QueryCode) String() string {
	if int(q) < len(queryNames) {
		return queryNames[q]
	}
	return "QueryCode(?)"
}
