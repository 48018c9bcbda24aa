// Package loader builds shell and HTTP actions from declarative manifests
// and Swagger/OpenAPI documents.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tools4ai/internal/actions"
)

// ParamSpec declares one parameter in a manifest. Type defaults to string.
type ParamSpec struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// common holds the keys shared by every manifest entry.
type common struct {
	Name             string      `yaml:"name"`
	Description      string      `yaml:"description"`
	Group            string      `yaml:"group"`
	GroupDescription string      `yaml:"group_description"`
	Risk             string      `yaml:"risk"`
	Parameters       []ParamSpec `yaml:"parameters"`
}

func (c common) descriptor(kind actions.Kind) (*actions.Descriptor, error) {
	risk, err := actions.ParseRisk(c.Risk)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", c.Name, err)
	}
	return &actions.Descriptor{
		Name:             c.Name,
		Description:      c.Description,
		Group:            c.Group,
		GroupDescription: c.GroupDescription,
		Risk:             risk,
		Kind:             kind,
		Params:           params(c.Parameters),
	}, nil
}

func params(specs []ParamSpec) []actions.Param {
	out := make([]actions.Param, 0, len(specs))
	for _, s := range specs {
		t := actions.TypeString
		if s.Type != "" {
			t = actions.ParseParamType(s.Type)
		}
		out = append(out, actions.Param{Name: s.Name, Type: t, Description: s.Description})
	}
	return out
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

type shellEntry struct {
	common      `yaml:",inline"`
	Script      string `yaml:"script"`
	Interpreter string `yaml:"interpreter"`
	WorkingDir  string `yaml:"working_dir"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ShellLoader reads a YAML manifest of script-backed actions:
//
//	actions:
//	  - name: backupDb
//	    description: back up the database
//	    risk: medium
//	    script: ./scripts/backup.sh
//	    parameters:
//	      - name: target
type ShellLoader struct {
	Path string
}

// Name implements actions.Loader.
func (l *ShellLoader) Name() string { return "shell" }

// Load implements actions.Loader.
func (l *ShellLoader) Load() ([]*actions.Descriptor, error) {
	var doc struct {
		Actions []shellEntry `yaml:"actions"`
	}
	if err := readYAML(l.Path, &doc); err != nil {
		return nil, err
	}
	out := make([]*actions.Descriptor, 0, len(doc.Actions))
	for _, e := range doc.Actions {
		d, err := e.descriptor(actions.KindShell)
		if err != nil {
			return nil, err
		}
		d.Shell = &actions.ShellSpec{
			Script:      e.Script,
			Interpreter: e.Interpreter,
			WorkingDir:  e.WorkingDir,
			TimeoutSecs: e.TimeoutSecs,
		}
		out = append(out, d)
	}
	return out, nil
}

type httpEntry struct {
	common  `yaml:",inline"`
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
}

// HTTPLoader reads a YAML manifest of endpoint-backed actions:
//
//	actions:
//	  - name: getWeather
//	    url: https://api.example.com/weather
//	    method: GET
//	    headers: {X-Api-Key: secret}
//	    parameters:
//	      - name: city
type HTTPLoader struct {
	Path string
}

// Name implements actions.Loader.
func (l *HTTPLoader) Name() string { return "http" }

// Load implements actions.Loader.
func (l *HTTPLoader) Load() ([]*actions.Descriptor, error) {
	var doc struct {
		Actions []httpEntry `yaml:"actions"`
	}
	if err := readYAML(l.Path, &doc); err != nil {
		return nil, err
	}
	out := make([]*actions.Descriptor, 0, len(doc.Actions))
	for _, e := range doc.Actions {
		d, err := e.descriptor(actions.KindHTTP)
		if err != nil {
			return nil, err
		}
		method := e.Method
		if method == "" {
			method = "GET"
		}
		d.HTTP = &actions.HTTPSpec{Method: method, URL: e.URL, Headers: e.Headers}
		out = append(out, d)
	}
	return out, nil
}
