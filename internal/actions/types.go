// Package actions holds the catalog of invocable actions.
//
// An action is a named unit of application capability with a description,
// a risk level and an ordered parameter signature. The language model picks
// actions by name from the registry's rendered name list; the pipeline then
// resolves the name back to a Descriptor and runs it.
//
// Architecture:
//
//	Provider/Loader → Registry.Register() → RenderedNames() → model → Registry.Resolve()
package actions

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// NoOpName is the sentinel action the model is told to use when nothing
// matches. It always resolves, registered or not.
const NoOpName = "blankAction"

// ParamType is the semantic type of one action parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeReal    ParamType = "real"
	TypeBoolean ParamType = "boolean"
	// TypeArray is an array of one of the primitive types above.
	TypeArray ParamType = "array"
	// TypeComplex is anything outside the primitive set. Params of this
	// type carry a Shape the model fills in as JSON.
	TypeComplex ParamType = "complex"
)

// IsPrimitive reports whether t is in the primitive set (arrays included).
func (t ParamType) IsPrimitive() bool {
	switch t {
	case TypeString, TypeInteger, TypeReal, TypeBoolean, TypeArray:
		return true
	}
	return false
}

// ParseParamType maps loose manifest spellings onto the type universe.
// Unknown names map to TypeComplex.
func ParseParamType(s string) ParamType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str", "text":
		return TypeString
	case "integer", "int", "int32", "int64", "long":
		return TypeInteger
	case "real", "number", "float", "double", "float64":
		return TypeReal
	case "boolean", "bool":
		return TypeBoolean
	case "array", "list":
		return TypeArray
	default:
		return TypeComplex
	}
}

// Risk is the ordinal risk level of an action.
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "low"
	}
}

// ParseRisk parses low/medium/high. Empty input yields RiskLow.
func ParseRisk(s string) (Risk, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	}
	return RiskLow, fmt.Errorf("%w: %q", ErrInvalidRisk, s)
}

// Kind selects how the pipeline executes an action.
type Kind string

const (
	// KindMethod actions run an in-process Handler.
	KindMethod Kind = "method"
	// KindShell actions run a script described by ShellSpec.
	KindShell Kind = "shell"
	// KindHTTP actions call an endpoint described by HTTPSpec.
	KindHTTP Kind = "http"
)

// Param is one (name, semantic type) entry of a parameter signature.
type Param struct {
	Name        string
	Type        ParamType
	Description string

	// Shape is a zero value of the Go type a TypeComplex param decodes into.
	// It doubles as the JSON template shown to the model.
	Shape any
}

// Handler is the bound invoker of a KindMethod action. Args arrive in
// parameter order; params the model did not fill are zero values.
type Handler func(ctx context.Context, args []any) (any, error)

// ShellSpec describes a script-backed action.
type ShellSpec struct {
	Script      string
	Interpreter string
	WorkingDir  string
	TimeoutSecs int
}

// HTTPSpec describes an endpoint-backed action.
type HTTPSpec struct {
	Method  string
	URL     string
	Headers map[string]string
}

// Descriptor describes one invocable action. It is read-only once registered.
type Descriptor struct {
	// Name is the unique identifier the model echoes back.
	Name string

	// Description is shown to the model; defaults to Name.
	Description string

	Group            string
	GroupDescription string

	Risk   Risk
	Kind   Kind
	Params []Param

	Handler Handler
	Shell   *ShellSpec
	HTTP    *HTTPSpec
}

// IsComplex reports whether any parameter lies outside the primitive set.
func (d *Descriptor) IsComplex() bool {
	for _, p := range d.Params {
		if !p.Type.IsPrimitive() {
			return true
		}
	}
	return false
}

// IsNoOp reports whether d is the sentinel no-op action.
func (d *Descriptor) IsNoOp() bool {
	return d != nil && d.Name == NoOpName
}

// Validate checks if the descriptor is registrable.
func (d *Descriptor) Validate() error {
	if d == nil || d.Name == "" {
		return ErrActionNameEmpty
	}
	switch d.Kind {
	case KindMethod, "":
		if d.Handler == nil {
			return fmt.Errorf("%w: %s", ErrHandlerNil, d.Name)
		}
	case KindShell:
		if d.Shell == nil || d.Shell.Script == "" {
			return fmt.Errorf("%w: %s has no script", ErrInvalidSpec, d.Name)
		}
	case KindHTTP:
		if d.HTTP == nil || d.HTTP.URL == "" {
			return fmt.Errorf("%w: %s has no url", ErrInvalidSpec, d.Name)
		}
	default:
		return fmt.Errorf("%w: %s has kind %q", ErrInvalidSpec, d.Name, d.Kind)
	}
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: %s has an unnamed parameter", ErrInvalidSpec, d.Name)
		}
	}
	return nil
}

// ZeroArg returns the value passed for a param the model left empty.
func (p Param) ZeroArg() any {
	switch p.Type {
	case TypeString:
		return ""
	case TypeInteger:
		return 0
	case TypeReal:
		return 0.0
	case TypeBoolean:
		return false
	case TypeComplex:
		if p.Shape != nil {
			return reflect.Zero(reflect.TypeOf(p.Shape)).Interface()
		}
	}
	return nil
}

// NewMethod builds a KindMethod descriptor with LOW risk.
func NewMethod(name, description string, handler Handler, params ...Param) *Descriptor {
	return &Descriptor{
		Name:        name,
		Description: description,
		Kind:        KindMethod,
		Risk:        RiskLow,
		Params:      params,
		Handler:     handler,
	}
}

// WithRisk returns a copy of the descriptor with the given risk.
func (d *Descriptor) WithRisk(risk Risk) *Descriptor {
	c := *d
	c.Risk = risk
	return &c
}

// WithGroup returns a copy of the descriptor with the given group metadata.
func (d *Descriptor) WithGroup(group, description string) *Descriptor {
	c := *d
	c.Group = group
	c.GroupDescription = description
	return &c
}

func String(name string) Param  { return Param{Name: name, Type: TypeString} }
func Integer(name string) Param { return Param{Name: name, Type: TypeInteger} }
func Real(name string) Param    { return Param{Name: name, Type: TypeReal} }
func Boolean(name string) Param { return Param{Name: name, Type: TypeBoolean} }
func Array(name string) Param   { return Param{Name: name, Type: TypeArray} }

// Complex declares a parameter decoded from model-written JSON into the
// type of shape.
func Complex(name string, shape any) Param {
	return Param{Name: name, Type: TypeComplex, Shape: shape}
}

var noOp = &Descriptor{
	Name:        NoOpName,
	Description: "no action matches the request",
	Kind:        KindMethod,
	Handler: func(context.Context, []any) (any, error) {
		return "", nil
	},
}

// NoOp returns the sentinel no-op descriptor.
func NoOp() *Descriptor {
	return noOp
}
