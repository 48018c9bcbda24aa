// Package schema turns an action's parameter signature into a function
// declaration the model can call, and reads typed arguments back out of
// the model's function call.
package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"tools4ai/internal/actions"
)

// ArgumentSchema is the model-facing view of one action's parameters.
type ArgumentSchema struct {
	Action      string
	Description string
	// Order lists parameter names in signature order.
	Order []string
	Types map[string]genai.Type
}

// MapType maps a semantic parameter type onto the model's type set.
// Arrays and user types become OBJECT.
func MapType(t actions.ParamType) genai.Type {
	switch t {
	case actions.TypeString:
		return genai.TypeString
	case actions.TypeInteger:
		return genai.TypeInteger
	case actions.TypeReal:
		return genai.TypeNumber
	case actions.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeObject
	}
}

// Build derives the argument schema of d.
func Build(d *actions.Descriptor) *ArgumentSchema {
	s := &ArgumentSchema{
		Action:      d.Name,
		Description: d.Description,
		Order:       make([]string, 0, len(d.Params)),
		Types:       make(map[string]genai.Type, len(d.Params)),
	}
	for _, p := range d.Params {
		if _, dup := s.Types[p.Name]; !dup {
			s.Order = append(s.Order, p.Name)
		}
		s.Types[p.Name] = MapType(p.Type)
	}
	return s
}

// Parameters renders the OBJECT schema. Every parameter is required.
func (s *ArgumentSchema) Parameters() *genai.Schema {
	root := &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       make(map[string]*genai.Schema, len(s.Order)),
		Required:         make([]string, 0, len(s.Order)),
		PropertyOrdering: append([]string(nil), s.Order...),
	}
	for _, name := range s.Order {
		root.Properties[name] = &genai.Schema{
			Type:        s.Types[name],
			Description: name,
		}
		root.Required = append(root.Required, name)
	}
	return root
}

// Declaration renders the function declaration exposed as a tool.
func (s *ArgumentSchema) Declaration() *genai.FunctionDeclaration {
	desc := s.Description
	if desc == "" {
		desc = s.Action
	}
	return &genai.FunctionDeclaration{
		Name:        s.Action,
		Description: desc,
		Parameters:  s.Parameters(),
	}
}

// Extract reads each declared parameter out of call. Booleans and strings
// pass through; numbers become float64, or the nearest int for INTEGER
// params. Absent, non-finite or out-of-range fields are left out.
func Extract(s *ArgumentSchema, call *genai.FunctionCall) map[string]any {
	values := make(map[string]any, len(s.Order))
	if call == nil {
		return values
	}
	for _, name := range s.Order {
		raw, ok := call.Args[name]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case bool:
			values[name] = v
		case string:
			values[name] = v
		case []any:
			values[name] = v
		default:
			f, ok := number(v)
			if !ok {
				continue
			}
			if s.Types[name] != genai.TypeInteger {
				values[name] = f
				continue
			}
			if n, ok := toInt(f); ok {
				values[name] = n
			}
		}
	}
	return values
}

func number(v any) (float64, bool) {
	f, ok := rawNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toInt rounds f half away from zero. Values outside the int range fail.
func toInt(f float64) (int, bool) {
	r := math.Round(f)
	if math.IsNaN(r) || r < float64(math.MinInt) || r >= -float64(math.MinInt) {
		return 0, false
	}
	return int(r), true
}

// Arguments lays values out in signature order for invocation. Missing
// params get their zero value; strings holding numbers or booleans are
// coerced when the param asks for one. Numbers that cannot be an int
// become 0 for INTEGER params.
func Arguments(d *actions.Descriptor, values map[string]any) []any {
	args := make([]any, len(d.Params))
	for i, p := range d.Params {
		v, ok := values[p.Name]
		if !ok {
			args[i] = p.ZeroArg()
			continue
		}
		args[i] = coerce(p.Type, v)
	}
	return args
}

func coerce(t actions.ParamType, v any) any {
	s, isString := v.(string)
	switch t {
	case actions.TypeInteger:
		if isString {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return n
			}
			return v
		}
		if f, ok := number(v); ok {
			if n, ok := toInt(f); ok {
				return n
			}
		}
		if _, ok := rawNumber(v); ok {
			return 0
		}
	case actions.TypeReal:
		if isString {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f
			}
		}
		if n, ok := v.(int); ok {
			return float64(n)
		}
	case actions.TypeBoolean:
		if isString {
			if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				return b
			}
		}
	}
	return v
}
