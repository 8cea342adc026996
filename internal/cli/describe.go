package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/burrowdb/burrow/internal/schemafile"
	"github.com/burrowdb/burrow/internal/typesys"
)

// TypeDescription is the JSON shape of one described type.
type TypeDescription struct {
	Name   string             `json:"name"`
	Kind   string             `json:"kind"`
	Fields []FieldDescription `json:"fields"`
}

// FieldDescription is one field or option of a described type.
type FieldDescription struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DescribeResult holds the full output of the describe command.
type DescribeResult struct {
	Types []TypeDescription `json:"types"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <schema-file>",
		Short: "Compile a schema file and print its type descriptors",
		Long: `Compile a YAML schema file and print the resulting type descriptors.

Each declared struct or variant is printed with its fields and their
composed type names. Compilation errors are reported with the same codes
the loader uses (E001-E006).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDescribe(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sch, err := schemafile.Load(path)
	if err != nil {
		var le *schemafile.LoadError
		if errors.As(err, &le) {
			_ = formatter.Error(le.Code, le.Message, nil)
			if le.Code == schemafile.ErrCodeNotFound {
				return NewExitError(ExitCommandError, le.Error())
			}
			return NewExitError(ExitFailure, le.Error())
		}
		_ = formatter.Error("E000", err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	formatter.VerboseLog("Compiled %d type(s) from %s", len(sch.Order), path)

	result := DescribeResult{Types: make([]TypeDescription, 0, len(sch.Order))}
	for _, name := range sch.Order {
		result.Types = append(result.Types, describeType(name, sch.Types[name]))
	}

	return formatter.SuccessText(renderTypes(result.Types), result)
}

// describeType flattens one descriptor into its JSON shape.
func describeType(name string, t *typesys.Type) TypeDescription {
	d := TypeDescription{Name: name, Kind: t.Kind().String()}
	for i := 0; i < t.Len(); i++ {
		f := t.FieldAt(i)
		d.Fields = append(d.Fields, FieldDescription{
			Name: f.Name,
			Type: f.Type.String(),
		})
	}
	return d
}

// renderTypes produces the text form: one block per type, fields indented.
func renderTypes(types []TypeDescription) string {
	var b strings.Builder
	for i, d := range types {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s\n", d.Kind, d.Name)
		for _, f := range d.Fields {
			fmt.Fprintf(&b, "  %s: %s\n", f.Name, f.Type)
		}
	}
	return b.String()
}
