// Package schemafile compiles YAML schema declarations into typesys
// descriptors. A document declares named structs and variants whose field
// types use the same grammar the type system prints: primitive names,
// [T] lists, {T} sets, T* references, (A, B) tuples, and dynamic. A
// declaration may refer to previously declared names, and to its own name
// through a reference, which compiles through typesys.Fix.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/burrowdb/burrow/internal/typesys"
)

// Document is the YAML shape of a schema file.
type Document struct {
	Types []Decl `yaml:"types"`
}

// Decl declares one named type: exactly one of Struct or Variant is set.
type Decl struct {
	Name    string      `yaml:"name"`
	Struct  []FieldDecl `yaml:"struct,omitempty"`
	Variant []FieldDecl `yaml:"variant,omitempty"`
}

// FieldDecl is one field or option declaration.
type FieldDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Schema is a compiled document: descriptors by normalized name, plus the
// declaration order for deterministic rendering.
type Schema struct {
	Order []string
	Types map[string]*typesys.Type
}

// Error code constants, unified across load, validation and compilation.
const (
	ErrCodeNotFound  = "E001" // schema file not found or unreadable
	ErrCodeParse     = "E002" // YAML syntax or unknown field
	ErrCodeValidate  = "E003" // document shape rejected by CUE
	ErrCodeDecl      = "E004" // bad declaration (not exactly one body, bad field)
	ErrCodeExpr      = "E005" // bad type expression
	ErrCodeDuplicate = "E006" // duplicate type name
)

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads, validates and compiles a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("read schema file: %v", err)}
	}
	return Parse(path, data)
}

// Parse validates and compiles schema document bytes. The filename is used
// in diagnostics only.
func Parse(filename string, data []byte) (*Schema, error) {
	if err := validateDocument(filename, data); err != nil {
		return nil, err
	}

	// Strict decoding catches typos the shape validation cannot see.
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parse YAML: %v", err)}
	}

	return Compile(&doc)
}

// Compile builds descriptors for every declaration, in order.
func Compile(doc *Document) (*Schema, error) {
	sch := &Schema{Types: make(map[string]*typesys.Type, len(doc.Types))}

	for _, decl := range doc.Types {
		if decl.Name == "" {
			return nil, &LoadError{Code: ErrCodeDecl, Message: "declaration with no name"}
		}
		key := norm.NFC.String(decl.Name)
		if _, dup := sch.Types[key]; dup {
			return nil, &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("type %q declared twice", decl.Name)}
		}
		if (decl.Struct == nil) == (decl.Variant == nil) {
			return nil, &LoadError{Code: ErrCodeDecl, Message: fmt.Sprintf("type %q: declare exactly one of struct or variant", decl.Name)}
		}

		t, err := compileDecl(sch.Types, decl)
		if err != nil {
			return nil, err
		}
		sch.Types[key] = t
		sch.Order = append(sch.Order, key)
	}
	return sch, nil
}

// compileDecl builds one declaration under Fix so its field expressions
// may reference the declared type itself.
func compileDecl(named map[string]*typesys.Type, decl Decl) (*typesys.Type, error) {
	body := decl.Struct
	isStruct := true
	if body == nil {
		body = decl.Variant
		isStruct = false
	}

	t, err := typesys.Fix(func(self *typesys.Type) (*typesys.Type, error) {
		r := &resolver{
			named:    named,
			selfName: norm.NFC.String(decl.Name),
			self:     self,
		}
		fields := make([]typesys.Field, len(body))
		for i, f := range body {
			if f.Name == "" || f.Type == "" {
				return nil, &LoadError{Code: ErrCodeDecl, Message: fmt.Sprintf("type %q: field %d needs name and type", decl.Name, i)}
			}
			ft, err := r.parse(f.Type)
			if err != nil {
				return nil, fmt.Errorf("type %q, field %q: %w", decl.Name, f.Name, err)
			}
			fields[i] = typesys.F(f.Name, ft)
		}
		if isStruct {
			return typesys.Struct(decl.Name, fields...)
		}
		return typesys.Variant(decl.Name, fields...)
	})
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			return nil, &LoadError{Code: ErrCodeDecl, Message: err.Error()}
		}
		return nil, err
	}
	return t, nil
}
