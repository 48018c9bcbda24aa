package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tools4ai/internal/actions"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestShellLoader(t *testing.T) {
	path := write(t, "shell.yaml", `
actions:
  - name: backupDb
    description: back up the database
    group: ops
    risk: high
    script: ./backup.sh
    timeout_secs: 30
    parameters:
      - name: target
      - name: retries
        type: int
`)
	ds, err := (&ShellLoader{Path: path}).Load()
	require.NoError(t, err)
	require.Len(t, ds, 1)

	d := ds[0]
	assert.Equal(t, "backupDb", d.Name)
	assert.Equal(t, actions.KindShell, d.Kind)
	assert.Equal(t, actions.RiskHigh, d.Risk)
	assert.Equal(t, "ops", d.Group)
	assert.Equal(t, &actions.ShellSpec{Script: "./backup.sh", TimeoutSecs: 30}, d.Shell)
	assert.Equal(t, []actions.Param{
		{Name: "target", Type: actions.TypeString},
		{Name: "retries", Type: actions.TypeInteger},
	}, d.Params)
	assert.NoError(t, d.Validate())
}

func TestShellLoaderBadRisk(t *testing.T) {
	path := write(t, "shell.yaml", "actions:\n  - name: x\n    script: x.sh\n    risk: extreme\n")
	_, err := (&ShellLoader{Path: path}).Load()
	assert.ErrorIs(t, err, actions.ErrInvalidRisk)
}

func TestHTTPLoader(t *testing.T) {
	path := write(t, "http.yaml", `
actions:
  - name: getWeather
    description: current weather for a city
    url: https://api.example.com/weather
    headers:
      X-Api-Key: secret
    parameters:
      - name: city
  - name: createTicket
    url: https://api.example.com/tickets
    method: post
    risk: medium
`)
	ds, err := (&HTTPLoader{Path: path}).Load()
	require.NoError(t, err)
	require.Len(t, ds, 2)

	assert.Equal(t, &actions.HTTPSpec{
		Method:  "GET",
		URL:     "https://api.example.com/weather",
		Headers: map[string]string{"X-Api-Key": "secret"},
	}, ds[0].HTTP)
	assert.Equal(t, "post", ds[1].HTTP.Method)
	assert.Equal(t, actions.RiskMedium, ds[1].Risk)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := (&HTTPLoader{Path: filepath.Join(t.TempDir(), "none.yaml")}).Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

const petstore = `{
  "swagger": "2.0",
  "host": "petstore.swagger.io",
  "basePath": "/v2",
  "schemes": ["https"],
  "paths": {
    "/pet/{petId}": {
      "parameters": [{"name": "shared", "in": "query", "type": "string"}],
      "get": {
        "operationId": "getPetById",
        "summary": "Find pet by ID",
        "tags": ["pet"],
        "parameters": [{"name": "petId", "in": "path", "type": "integer"}]
      },
      "delete": {
        "operationId": "deletePet",
        "description": "Deletes a pet",
        "x-risk": "high",
        "parameters": [{"name": "petId", "in": "path", "type": "integer"}]
      }
    },
    "/pet": {
      "post": {
        "operationId": "addPet",
        "parameters": [{
          "name": "body", "in": "body",
          "schema": {"type": "object", "properties": {"name": {"type": "string"}, "age": {"type": "number"}}}
        }]
      },
      "put": {"summary": "no operation id"}
    }
  }
}`

func TestSwaggerLoader(t *testing.T) {
	path := write(t, "petstore.json", petstore)
	ds, err := (&SwaggerLoader{Path: path, Headers: map[string]string{"api_key": "k"}}).Load()
	require.NoError(t, err)

	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"addPet", "getPetById", "deletePet"}, names)

	add := ds[0]
	assert.Equal(t, "POST", add.HTTP.Method)
	assert.Equal(t, "https://petstore.swagger.io/v2/pet", add.HTTP.URL)
	assert.Equal(t, []actions.Param{
		{Name: "age", Type: actions.TypeReal},
		{Name: "name", Type: actions.TypeString},
	}, add.Params)

	get := ds[1]
	assert.Equal(t, "https://petstore.swagger.io/v2/pet/{petId}", get.HTTP.URL)
	assert.Equal(t, "Find pet by ID", get.Description)
	assert.Equal(t, "pet", get.Group)
	assert.Equal(t, []actions.Param{{Name: "petId", Type: actions.TypeInteger}}, get.Params)
	assert.Equal(t, "k", get.HTTP.Headers["api_key"])

	del := ds[2]
	assert.Equal(t, "Deletes a pet", del.Description)
	assert.Equal(t, actions.RiskHigh, del.Risk)
}

func TestSwaggerLoaderOpenAPI3(t *testing.T) {
	path := write(t, "api.yaml", `
openapi: 3.0.0
servers:
  - url: https://api.example.com/
paths:
  /orders:
    post:
      operationId: createOrder
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                dish: {type: string}
                qty: {type: integer}
`)
	ds, err := (&SwaggerLoader{Path: path}).Load()
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "https://api.example.com/orders", ds[0].HTTP.URL)
	assert.Equal(t, []actions.Param{
		{Name: "dish", Type: actions.TypeString},
		{Name: "qty", Type: actions.TypeInteger},
	}, ds[0].Params)
}

func TestSwaggerLoaderNeedsBaseURL(t *testing.T) {
	path := write(t, "api.yaml", "paths: {}\n")
	_, err := (&SwaggerLoader{Path: path}).Load()
	assert.Error(t, err)

	ds, err := (&SwaggerLoader{Path: path, BaseURL: "http://localhost"}).Load()
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestPopulateWithLoaders(t *testing.T) {
	shell := write(t, "shell.yaml", "actions:\n  - name: dup\n    script: a.sh\n")
	http := write(t, "http.yaml", "actions:\n  - name: dup\n    url: http://x\n")

	r := actions.NewRegistry()
	err := actions.Populate(r, nil, []actions.Loader{
		&ShellLoader{Path: shell},
		&HTTPLoader{Path: http},
		&SwaggerLoader{Path: filepath.Join(t.TempDir(), "missing.json")},
	})
	require.NoError(t, err, "loader failures never abort population")

	d, err := r.Resolve("dup")
	require.NoError(t, err)
	assert.Equal(t, actions.KindHTTP, d.Kind, "last write wins")
}
