package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"tools4ai/internal/actions"
	"tools4ai/internal/perception"
	"tools4ai/internal/schema"
)

// marshalArgs asks the model for d's arguments and returns them in
// signature order.
func (p *Processor) marshalArgs(ctx context.Context, prompt string, d *actions.Descriptor) ([]any, error) {
	if len(d.Params) == 0 {
		return nil, nil
	}
	if d.IsComplex() {
		return p.marshalJSON(ctx, prompt, d)
	}
	return p.marshalCall(ctx, prompt, d)
}

// marshalCall forces a function call constrained to d's schema.
func (p *Processor) marshalCall(ctx context.Context, prompt string, d *actions.Descriptor) ([]any, error) {
	s := schema.Build(d)
	chat, err := p.client.StartChat(ctx,
		perception.WithTools(s.Declaration()),
		perception.WithForcedCall(),
	)
	if err != nil {
		return nil, err
	}
	reply, err := chat.Send(ctx, prompt)
	if err != nil {
		return nil, err
	}
	call, err := reply.Call(d.Name)
	if err != nil {
		return nil, err
	}
	return schema.Arguments(d, schema.Extract(s, call)), nil
}

// marshalJSON shows the model a JSON template of the parameters and decodes
// what it fills in.
func (p *Processor) marshalJSON(ctx context.Context, prompt string, d *actions.Descriptor) ([]any, error) {
	tmpl, err := json.Marshal(jsonTemplate(d))
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	chat, err := p.client.StartChat(ctx, perception.WithJSONOutput())
	if err != nil {
		return nil, err
	}
	msg := "here is your prompt - " + prompt + " - here is the json - " + string(tmpl) +
		" - populate the json with values extracted from the prompt and reply with the json only"
	reply, err := chat.Send(ctx, msg)
	if err != nil {
		return nil, err
	}
	values, err := decodeArgs(d, reply.Text)
	if err != nil {
		return nil, err
	}
	return schema.Arguments(d, values), nil
}

func jsonTemplate(d *actions.Descriptor) map[string]any {
	tmpl := make(map[string]any, len(d.Params))
	for _, param := range d.Params {
		switch {
		case param.Type == actions.TypeComplex && param.Shape != nil:
			tmpl[param.Name] = param.Shape
		case param.Type == actions.TypeArray:
			tmpl[param.Name] = []any{}
		case param.Type == actions.TypeComplex:
			tmpl[param.Name] = map[string]any{}
		default:
			tmpl[param.Name] = param.ZeroArg()
		}
	}
	return tmpl
}

// decodeArgs decodes the model's JSON into per-param values. Complex params
// with a Shape decode into a value of the Shape's type.
func decodeArgs(d *actions.Descriptor, text string) (map[string]any, error) {
	doc := stripFence(text)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &fields); err != nil {
		return nil, fmt.Errorf("decode model json: %w", err)
	}

	// A lone complex param is sometimes returned unwrapped.
	if len(d.Params) == 1 && d.Params[0].Type == actions.TypeComplex {
		if _, ok := fields[d.Params[0].Name]; !ok {
			fields = map[string]json.RawMessage{d.Params[0].Name: json.RawMessage(doc)}
		}
	}

	values := make(map[string]any, len(d.Params))
	for _, param := range d.Params {
		raw, ok := fields[param.Name]
		if !ok {
			continue
		}
		if param.Type == actions.TypeComplex && param.Shape != nil {
			ptr := reflect.New(reflect.TypeOf(param.Shape))
			if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
				return nil, fmt.Errorf("decode %s: %w", param.Name, err)
			}
			values[param.Name] = ptr.Elem().Interface()
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", param.Name, err)
		}
		if v != nil {
			values[param.Name] = v
		}
	}
	return values, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
