package schemafile

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/burrowdb/burrow/internal/typesys"
)

// resolver parses type expressions against the built-in names, the names
// declared earlier in the document, and the declaration's own name.
type resolver struct {
	named    map[string]*typesys.Type
	selfName string
	self     *typesys.Type // the Fix placeholder; already a reference
}

var builtins = map[string]*typesys.Type{
	"void":    typesys.Void,
	"byte":    typesys.Byte,
	"char":    typesys.Char,
	"short":   typesys.Short,
	"ushort":  typesys.UShort,
	"int":     typesys.Int,
	"uint":    typesys.UInt,
	"long":    typesys.Long,
	"ulong":   typesys.ULong,
	"float":   typesys.Float,
	"double":  typesys.Double,
	"decimal": typesys.Decimal,
	"string":  typesys.String,
	"bool":    typesys.Bool,
	"data":    typesys.Data,
	"dynamic": typesys.Dynamic,
}

func (r *resolver) parse(expr string) (*typesys.Type, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, &LoadError{Code: ErrCodeExpr, Message: "empty type expression"}
	}

	if strings.HasSuffix(s, "*") {
		base := strings.TrimSpace(strings.TrimSuffix(s, "*"))
		// The declaration's own name is legal only here: a type can
		// contain itself by reference, never by value.
		if norm.NFC.String(base) == r.selfName {
			return r.self, nil
		}
		t, err := r.parse(base)
		if err != nil {
			return nil, err
		}
		return t.Reference(), nil
	}

	if wrapped, ok := unwrap(s, '[', ']'); ok {
		t, err := r.parse(wrapped)
		if err != nil {
			return nil, err
		}
		return t.List(), nil
	}
	if wrapped, ok := unwrap(s, '{', '}'); ok {
		t, err := r.parse(wrapped)
		if err != nil {
			return nil, err
		}
		return t.Set(), nil
	}
	if wrapped, ok := unwrap(s, '(', ')'); ok {
		parts, err := splitTop(wrapped)
		if err != nil {
			return nil, err
		}
		elems := make([]*typesys.Type, len(parts))
		for i, p := range parts {
			t, err := r.parse(p)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return typesys.Tuple(elems...), nil
	}

	name := norm.NFC.String(s)
	if t, ok := builtins[name]; ok {
		return t, nil
	}
	if t, ok := r.named[name]; ok {
		return t, nil
	}
	if name == r.selfName {
		return nil, &LoadError{Code: ErrCodeExpr, Message: fmt.Sprintf("type %q may only refer to itself through a reference (%s*)", s, s)}
	}
	return nil, &LoadError{Code: ErrCodeExpr, Message: fmt.Sprintf("unknown type %q", s)}
}

// unwrap strips one matching bracket pair that encloses the whole
// expression.
func unwrap(s string, open, close byte) (string, bool) {
	if len(s) < 2 || s[0] != open || s[len(s)-1] != close {
		return "", false
	}
	// The closing bracket must match the opening one, not an inner pair:
	// "(a), (b)" is not enclosed.
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return "", false
			}
		}
	}
	return s[1 : len(s)-1], true
}

// splitTop splits on commas outside any bracket pair.
func splitTop(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
			if depth < 0 {
				return nil, &LoadError{Code: ErrCodeExpr, Message: fmt.Sprintf("unbalanced brackets in %q", s)}
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, &LoadError{Code: ErrCodeExpr, Message: fmt.Sprintf("unbalanced brackets in %q", s)}
	}
	parts = append(parts, s[start:])
	return parts, nil
}
