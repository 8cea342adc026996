// Package harness runs YAML-described scenarios against a value store.
// A scenario declares a schema, a root type to instantiate, and a list of
// steps driving the typed access API. Each step's outcome is recorded in a
// trace that tests compare against golden files.
package harness

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/burrowdb/burrow/internal/handle"
	"github.com/burrowdb/burrow/internal/schemafile"
	"github.com/burrowdb/burrow/internal/typesys"
)

// Step is one scripted operation. Path addresses a location from the root
// by dot-separated member names and element indexes; an empty path is the
// root itself.
type Step struct {
	Op    string `yaml:"op"`              // set | get | switch | option | size | append | prepend | insert | add | remove | remove-value | clear
	Path  string `yaml:"path,omitempty"`  // "Name", "Tags.0", ""
	Value any    `yaml:"value,omitempty"` // scalar operand, interpreted by the target's type
	Index int    `yaml:"index,omitempty"` // insert/remove position
}

// TraceEvent records one step's outcome. Errors are reduced to their kind
// so traces stay stable across message changes.
type TraceEvent struct {
	Seq    int    `json:"seq"`
	Op     string `json:"op"`
	Path   string `json:"path,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result holds the trace of a completed run.
type Result struct {
	Trace []TraceEvent
}

// Run compiles the scenario's schema, instantiates the root type in st and
// executes every step. Step errors are recorded in the trace, not
// returned: scenarios assert failures as well as successes.
func Run(scenario *Scenario, st handle.Store) (*Result, error) {
	sch, err := schemafile.Compile(&scenario.Schema)
	if err != nil {
		return nil, err
	}
	rootType, ok := sch.Types[scenario.Root]
	if !ok {
		return nil, fmt.Errorf("harness: scenario %q: no type %q in schema", scenario.Name, scenario.Root)
	}
	root, err := st.New(rootType)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i, step := range scenario.Steps {
		ev := TraceEvent{Seq: i + 1, Op: step.Op, Path: step.Path}
		out, err := apply(root, step)
		if err != nil {
			ev.Error = errorKind(err)
		} else {
			ev.Result = out
		}
		res.Trace = append(res.Trace, ev)
	}
	return res, nil
}

func apply(root *handle.Handle, step Step) (any, error) {
	h, err := navigate(root, step.Path)
	if err != nil {
		return nil, err
	}

	switch step.Op {
	case "set":
		return nil, writeScalar(h, step.Value)
	case "get":
		return readScalar(h)
	case "switch":
		name, ok := step.Value.(string)
		if !ok {
			return nil, fmt.Errorf("harness: switch needs an option name")
		}
		return nil, h.SetString(name)
	case "option":
		return h.Option()
	case "size":
		return h.Size()
	case "append", "prepend", "insert", "add", "remove-value":
		arg, err := element(h, step.Value)
		if err != nil {
			return nil, err
		}
		switch step.Op {
		case "append":
			return nil, h.Append(arg)
		case "prepend":
			return nil, h.Prepend(arg)
		case "insert":
			return nil, h.Insert(step.Index, arg)
		case "add":
			return nil, h.Add(arg)
		default:
			return nil, h.RemoveValue(arg)
		}
	case "remove":
		return nil, h.Remove(step.Index)
	case "clear":
		return nil, h.Clear()
	}
	return nil, fmt.Errorf("harness: unknown op %q", step.Op)
}

// navigate walks a dot-separated path from the root. Struct and variant
// segments are member names; list and tuple segments are indexes.
func navigate(root *handle.Handle, path string) (*handle.Handle, error) {
	h := root
	if path == "" {
		return h, nil
	}
	for _, seg := range strings.Split(path, ".") {
		var (
			next *handle.Handle
			err  error
		)
		if i, nerr := strconv.Atoi(seg); nerr == nil {
			next, err = h.At(i)
		} else {
			next, err = h.Member(seg)
		}
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("harness: %q addresses an inactive option", seg)
		}
		h = next
	}
	return h, nil
}

// element seeds a literal argument for a collection operand.
func element(h *handle.Handle, v any) (*handle.Handle, error) {
	elem := h.Type().Elem()
	if elem == nil {
		return nil, fmt.Errorf("harness: %s has no element type", h.Type())
	}
	nv, err := nativeFor(elem, v)
	if err != nil {
		return nil, err
	}
	return handle.Literal(elem, nv)
}

// writeScalar dispatches a YAML scalar to the setter matching the target's
// descriptor.
func writeScalar(h *handle.Handle, v any) error {
	t := h.Type()
	switch t {
	case typesys.String:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("harness: %s wants a string, got %T", t, v)
		}
		return h.SetString(s)
	case typesys.Bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("harness: %s wants a bool, got %T", t, v)
		}
		return h.SetBool(b)
	case typesys.Decimal:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("harness: decimal wants a string, got %T", v)
		}
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return err
		}
		return h.SetDecimal(d)
	}

	i, f, err := yamlNumber(v)
	if err != nil {
		return err
	}
	switch t {
	case typesys.Byte:
		return h.SetByte(byte(i))
	case typesys.Char:
		return h.SetChar(uint16(i))
	case typesys.Short:
		return h.SetShort(int16(i))
	case typesys.UShort:
		return h.SetUShort(uint16(i))
	case typesys.Int:
		return h.SetInt(int32(i))
	case typesys.UInt:
		return h.SetUInt(uint32(i))
	case typesys.Long:
		return h.SetLong(i)
	case typesys.ULong:
		return h.SetULong(uint64(i))
	case typesys.Float:
		return h.SetFloat(float32(f))
	case typesys.Double:
		return h.SetDouble(f)
	}
	return fmt.Errorf("harness: cannot write scalar into %s", t)
}

// readScalar reads the target through the conversion matching its
// descriptor. The result marshals to stable JSON.
func readScalar(h *handle.Handle) (any, error) {
	switch t := h.Type(); t {
	case typesys.String:
		return h.AsString()
	case typesys.Bool:
		return h.AsBool()
	case typesys.Byte:
		return h.AsByte()
	case typesys.Char:
		return h.AsChar()
	case typesys.Short:
		return h.AsShort()
	case typesys.UShort:
		return h.AsUShort()
	case typesys.Int:
		return h.AsInt()
	case typesys.UInt:
		return h.AsUInt()
	case typesys.Long:
		return h.AsLong()
	case typesys.ULong:
		return h.AsULong()
	case typesys.Float:
		return h.AsFloat()
	case typesys.Double:
		return h.AsDouble()
	case typesys.Decimal:
		d, err := h.AsDecimal()
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	default:
		return nil, fmt.Errorf("harness: cannot read scalar from %s", t)
	}
}

// nativeFor converts a YAML scalar to the native Go value a descriptor's
// NewValue expects.
func nativeFor(t *typesys.Type, v any) (any, error) {
	switch t {
	case typesys.String:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("harness: %s wants a string, got %T", t, v)
		}
		return s, nil
	case typesys.Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("harness: %s wants a bool, got %T", t, v)
		}
		return b, nil
	case typesys.Decimal:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("harness: decimal wants a string, got %T", v)
		}
		d, _, err := apd.NewFromString(s)
		return d, err
	}

	i, f, err := yamlNumber(v)
	if err != nil {
		return nil, err
	}
	switch t {
	case typesys.Byte:
		return byte(i), nil
	case typesys.Char:
		return uint16(i), nil
	case typesys.Short:
		return int16(i), nil
	case typesys.UShort:
		return uint16(i), nil
	case typesys.Int:
		return int32(i), nil
	case typesys.UInt:
		return uint32(i), nil
	case typesys.Long:
		return i, nil
	case typesys.ULong:
		return uint64(i), nil
	case typesys.Float:
		return float32(f), nil
	case typesys.Double:
		return f, nil
	}
	return nil, fmt.Errorf("harness: no native form for %s", t)
}

// yamlNumber widens the numeric types yaml.v3 produces.
func yamlNumber(v any) (int64, float64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), float64(x), nil
	case int64:
		return x, float64(x), nil
	case uint64:
		return int64(x), float64(x), nil
	case float64:
		return int64(x), x, nil
	}
	return 0, 0, fmt.Errorf("harness: want a number, got %T", v)
}

// errorKind reduces an error to a stable trace token.
func errorKind(err error) string {
	switch {
	case handle.IsTypeIncompatible(err):
		return "type_incompatible"
	case errors.Is(err, handle.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, handle.ErrCrossStore):
		return "cross_store"
	case errors.Is(err, handle.ErrNotSupported):
		return "not_supported"
	}
	return err.Error()
}
