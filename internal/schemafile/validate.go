package schemafile

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// schemaCUE constrains the document shape before compilation, so the
// compiler only ever deals with well-formed declarations.
const schemaCUE = `
#Field: {
	name: string & !=""
	type: string & !=""
}

#Schema: {
	types: [...{
		name:     string & !=""
		struct?:  [...#Field]
		variant?: [...#Field]
	}]
}
`

// validateDocument unifies the YAML document with the embedded #Schema
// definition and reports the first constraint violation.
func validateDocument(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return &LoadError{Code: ErrCodeValidate, Message: fmt.Sprintf("compile schema definition: %v", err)}
	}
	def := schema.LookupPath(cue.ParsePath("#Schema"))
	if !def.Exists() {
		return &LoadError{Code: ErrCodeValidate, Message: "schema definition #Schema missing"}
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("build document: %v", err)}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &LoadError{Code: ErrCodeValidate, Message: fmt.Sprintf("invalid schema document: %v", err)}
	}
	return nil
}
