package main

import (
	"context"
	"net/http"

	"tools4ai/internal/actions"
	"tools4ai/internal/actions/loader"
	"tools4ai/internal/config"
	"tools4ai/internal/perception"
	"tools4ai/internal/pipeline"
	"tools4ai/internal/predict"
	"tools4ai/internal/tactile"
)

// dialModel opens the model client. Tests replace it with a fake.
var dialModel = func(ctx context.Context, c *config.Config) (perception.Client, error) {
	client, err := perception.NewGenAIClient(ctx, c.Vertex.ProjectID, c.Vertex.Location, c.Vertex.ModelName)
	if err != nil {
		return nil, err
	}
	client.Timeout = c.GetModelTimeout()
	return client, nil
}

// loadRegistry returns the process-wide registry, populating it on first use.
var loadRegistry = func(c *config.Config) (*actions.Registry, error) {
	return actions.Default(populate(c))
}

// runtime is everything a model-backed command needs.
type runtime struct {
	registry  *actions.Registry
	client    perception.Client
	engine    *predict.Engine
	processor *pipeline.Processor
}

func populate(c *config.Config) func(*actions.Registry) error {
	return func(r *actions.Registry) error {
		return actions.Populate(r, builtinProviders(), manifestLoaders(c))
	}
}

// manifestLoaders returns the configured loaders in shell, http, swagger
// order. Empty paths are skipped.
func manifestLoaders(c *config.Config) []actions.Loader {
	var loaders []actions.Loader
	if c.Loaders.ShellActions != "" {
		loaders = append(loaders, &loader.ShellLoader{Path: c.Loaders.ShellActions})
	}
	if c.Loaders.HTTPActions != "" {
		loaders = append(loaders, &loader.HTTPLoader{Path: c.Loaders.HTTPActions})
	}
	if c.Loaders.SwaggerActions != "" {
		loaders = append(loaders, &loader.SwaggerLoader{Path: c.Loaders.SwaggerActions})
	}
	return loaders
}

// newRuntime validates the config, opens the model and wires the pipeline.
func newRuntime(ctx context.Context, c *config.Config, opts ...pipeline.Option) (*runtime, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	registry, err := loadRegistry(c)
	if err != nil {
		return nil, err
	}
	client, err := dialModel(ctx, c)
	if err != nil {
		return nil, err
	}

	engine, err := predict.New(ctx, perception.NewTracingClient(client, "select"), registry)
	if err != nil {
		return nil, err
	}

	shell := &tactile.ShellExecutor{Timeout: c.GetExecutionTimeout(), MaxOutput: c.Execution.MaxOutput}
	httpExec := &tactile.HTTPExecutor{
		Client:  &http.Client{Timeout: c.GetExecutionTimeout()},
		MaxBody: int64(c.Execution.MaxOutput),
	}
	opts = append([]pipeline.Option{
		pipeline.WithHumanDecision(pipeline.LoggingHumanDecision{}),
		pipeline.WithShellExecutor(shell),
		pipeline.WithHTTPExecutor(httpExec),
	}, opts...)

	pcfg := pipeline.Config{ApprovalRisk: c.GetApprovalRisk(), Explain: c.Pipeline.Explain}
	processor := pipeline.New(engine, perception.NewTracingClient(client, "marshal"), pcfg, opts...)

	return &runtime{registry: registry, client: client, engine: engine, processor: processor}, nil
}
