package loader

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tools4ai/internal/actions"
)

var verbs = []string{"get", "put", "post", "delete", "patch", "head", "options"}

type swaggerDoc struct {
	Host     string   `yaml:"host"`
	BasePath string   `yaml:"basePath"`
	Schemes  []string `yaml:"schemes"`
	Servers  []struct {
		URL string `yaml:"url"`
	} `yaml:"servers"`
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

type swaggerSchema struct {
	Type       string                   `yaml:"type"`
	Properties map[string]swaggerSchema `yaml:"properties"`
}

type swaggerParam struct {
	Name        string         `yaml:"name"`
	In          string         `yaml:"in"`
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Schema      *swaggerSchema `yaml:"schema"`
}

type swaggerOperation struct {
	OperationID string         `yaml:"operationId"`
	Summary     string         `yaml:"summary"`
	Description string         `yaml:"description"`
	Tags        []string       `yaml:"tags"`
	Risk        string         `yaml:"x-risk"`
	Parameters  []swaggerParam `yaml:"parameters"`
	RequestBody *struct {
		Content map[string]struct {
			Schema swaggerSchema `yaml:"schema"`
		} `yaml:"content"`
	} `yaml:"requestBody"`
}

// SwaggerLoader turns every operation with an operationId in a Swagger 2 or
// OpenAPI 3 document (JSON or YAML) into an http action.
type SwaggerLoader struct {
	Path string
	// BaseURL overrides the servers/host of the document.
	BaseURL string
	// Headers are sent with every request, e.g. an API key.
	Headers map[string]string
}

// Name implements actions.Loader.
func (l *SwaggerLoader) Name() string { return "swagger" }

// Load implements actions.Loader. Actions come out in path then verb order.
func (l *SwaggerLoader) Load() ([]*actions.Descriptor, error) {
	var doc swaggerDoc
	if err := readYAML(l.Path, &doc); err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(l.baseURL(&doc), "/")
	if base == "" {
		return nil, fmt.Errorf("%s: no base url (set servers, host or BaseURL)", l.Path)
	}

	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []*actions.Descriptor
	for _, path := range paths {
		item := doc.Paths[path]
		for _, verb := range verbs {
			node, ok := item[verb]
			if !ok {
				continue
			}
			var op swaggerOperation
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(verb), path, err)
			}
			if op.OperationID == "" {
				continue
			}
			d, err := l.descriptor(base, path, verb, &op)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func (l *SwaggerLoader) baseURL(doc *swaggerDoc) string {
	if l.BaseURL != "" {
		return l.BaseURL
	}
	if len(doc.Servers) > 0 && doc.Servers[0].URL != "" {
		return doc.Servers[0].URL
	}
	if doc.Host == "" {
		return ""
	}
	scheme := "https"
	if len(doc.Schemes) > 0 {
		scheme = doc.Schemes[0]
	}
	return scheme + "://" + doc.Host + doc.BasePath
}

func (l *SwaggerLoader) descriptor(base, path, verb string, op *swaggerOperation) (*actions.Descriptor, error) {
	risk, err := actions.ParseRisk(op.Risk)
	if err != nil {
		return nil, fmt.Errorf("operation %q: %w", op.OperationID, err)
	}
	desc := op.Summary
	if desc == "" {
		desc = op.Description
	}
	group := ""
	if len(op.Tags) > 0 {
		group = op.Tags[0]
	}

	var specs []ParamSpec
	for _, p := range op.Parameters {
		if p.In == "body" && p.Schema != nil {
			specs = append(specs, properties(p.Schema)...)
			continue
		}
		t := p.Type
		if t == "" && p.Schema != nil {
			t = p.Schema.Type
		}
		specs = append(specs, ParamSpec{Name: p.Name, Type: t, Description: p.Description})
	}
	if op.RequestBody != nil {
		if c, ok := op.RequestBody.Content["application/json"]; ok {
			specs = append(specs, properties(&c.Schema)...)
		}
	}

	return &actions.Descriptor{
		Name:        op.OperationID,
		Description: desc,
		Group:       group,
		Risk:        risk,
		Kind:        actions.KindHTTP,
		Params:      params(specs),
		HTTP: &actions.HTTPSpec{
			Method:  strings.ToUpper(verb),
			URL:     base + path,
			Headers: l.Headers,
		},
	}, nil
}

// properties flattens an object schema into params, sorted by name.
func properties(s *swaggerSchema) []ParamSpec {
	names := make([]string, 0, len(s.Properties))
	for n := range s.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	specs := make([]ParamSpec, 0, len(names))
	for _, n := range names {
		specs = append(specs, ParamSpec{Name: n, Type: s.Properties[n].Type})
	}
	return specs
}
