// Package pipeline runs one instruction through
// RESOLVE → approval → explanation → MARSHAL → INVOKE.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tools4ai/internal/actions"
	"tools4ai/internal/logging"
	"tools4ai/internal/perception"
	"tools4ai/internal/predict"
	"tools4ai/internal/tactile"
)

// Config holds the gate settings.
type Config struct {
	// ApprovalRisk is the lowest risk that goes through the human decision.
	ApprovalRisk actions.Risk
	// Explain asks for and reports an explanation before every invocation.
	Explain bool
}

// DefaultConfig gates medium and high risk actions and skips explanations.
func DefaultConfig() Config {
	return Config{ApprovalRisk: actions.RiskMedium}
}

// Outcome is the result of one instruction.
type Outcome struct {
	RequestID string
	Prompt    string
	Action    string
	// Result is the handler's string return, or its JSON.
	Result string
	NoOp   bool
	Err    error
}

// Processor executes instructions against a registry.
type Processor struct {
	engine   *predict.Engine
	client   perception.Client
	registry *actions.Registry
	cfg      Config

	human   HumanDecision
	explain ExplainDecision
	shell   *tactile.ShellExecutor
	http    *tactile.HTTPExecutor
}

// Option configures a Processor.
type Option func(*Processor)

// WithHumanDecision installs the approval gate.
func WithHumanDecision(h HumanDecision) Option {
	return func(p *Processor) { p.human = h }
}

// WithExplainDecision installs the explanation observer.
func WithExplainDecision(e ExplainDecision) Option {
	return func(p *Processor) { p.explain = e }
}

// WithShellExecutor overrides the executor for shell actions.
func WithShellExecutor(e *tactile.ShellExecutor) Option {
	return func(p *Processor) { p.shell = e }
}

// WithHTTPExecutor overrides the executor for http actions.
func WithHTTPExecutor(e *tactile.HTTPExecutor) Option {
	return func(p *Processor) { p.http = e }
}

// New builds a Processor. client opens the short-lived marshalling chats;
// engine owns the selection and explain sessions.
func New(engine *predict.Engine, client perception.Client, cfg Config, opts ...Option) *Processor {
	p := &Processor{
		engine:   engine,
		client:   client,
		registry: engine.Registry(),
		cfg:      cfg,
		explain:  LoggingExplainDecision{},
		shell:    tactile.NewShellExecutor(),
		http:     tactile.NewHTTPExecutor(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Engine returns the prediction engine the processor selects with.
func (p *Processor) Engine() *predict.Engine {
	return p.engine
}

// Process predicts a single action for prompt and runs it.
func (p *Processor) Process(ctx context.Context, prompt string) (*Outcome, error) {
	name, err := p.engine.PredictSingle(ctx, prompt)
	if err != nil {
		return &Outcome{Prompt: prompt, Err: err}, err
	}
	return p.ProcessAction(ctx, prompt, name)
}

// ProcessMultiple predicts up to n actions and runs each with prompt. A
// failing action is recorded on its outcome and does not stop the others.
func (p *Processor) ProcessMultiple(ctx context.Context, prompt string, n int) ([]*Outcome, error) {
	names, err := p.engine.PredictMultiple(ctx, prompt, n)
	if err != nil {
		return nil, err
	}
	outcomes := make([]*Outcome, 0, len(names))
	for _, name := range names {
		o, _ := p.ProcessAction(ctx, prompt, name)
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// ProcessSteps decomposes prompt into sub-prompts and runs each against its
// predicted action, in order.
func (p *Processor) ProcessSteps(ctx context.Context, prompt string) ([]*Outcome, error) {
	raw, err := p.engine.PredictDecomposition(ctx, prompt)
	if err != nil {
		return nil, err
	}
	steps := predict.ParseSteps(raw)
	outcomes := make([]*Outcome, 0, len(steps))
	for _, step := range steps {
		o, _ := p.ProcessAction(ctx, step.Prompt, step.Action)
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// ProcessAction runs the named action for prompt, skipping prediction. The
// returned outcome is never nil and its Err equals the returned error.
func (p *Processor) ProcessAction(ctx context.Context, prompt, name string) (*Outcome, error) {
	o := &Outcome{RequestID: uuid.NewString(), Prompt: prompt, Action: name}
	log := logging.Get(logging.CategoryPipeline).With("request", o.RequestID, "action", name)
	audit := logging.AuditWithRequest(o.RequestID)

	d, err := p.registry.Resolve(name)
	if err != nil {
		log.Warn("resolve failed: %v", err)
		o.Err = fail(name, StageResolve, err)
		return o, o.Err
	}
	audit.ActionRoute(d.Name, prompt)
	if d.IsNoOp() {
		log.Debug("no action matches %q", prompt)
		o.NoOp = true
		return o, nil
	}

	if p.human != nil && d.Risk >= p.cfg.ApprovalRisk {
		approved := p.human.Approve(ctx, prompt, d.Name)
		audit.ActionApproval(d.Name, prompt, d.Risk.String(), approved)
		if !approved {
			log.Info("vetoed (risk=%s)", d.Risk)
			o.Err = fmt.Errorf("%w: %s", ErrNotApproved, d.Name)
			return o, o.Err
		}
	}

	if p.cfg.Explain && p.explain != nil {
		text, err := p.engine.Explain(ctx, prompt, d.Name)
		if err != nil {
			log.Warn("explanation unavailable: %v", err)
		} else {
			p.explain.OnExplain(prompt, d.Name, text)
		}
	}

	args, err := p.marshalArgs(ctx, prompt, d)
	if err != nil {
		log.Error("marshal failed: %v", err)
		o.Err = fail(d.Name, StageMarshal, err)
		return o, o.Err
	}
	log.Debug("args=%v", args)

	start := time.Now()
	result, err := p.invoke(ctx, d, args)
	audit.ActionComplete(d.Name, prompt, time.Since(start).Milliseconds(), err)
	if err != nil {
		log.Error("invoke failed: %v", err)
		o.Result = result
		o.Err = fail(d.Name, StageInvoke, err)
		return o, o.Err
	}
	o.Result = result
	log.Info("completed (%d bytes)", len(result))
	return o, nil
}

func (p *Processor) invoke(ctx context.Context, d *actions.Descriptor, args []any) (string, error) {
	switch d.Kind {
	case actions.KindShell:
		return p.shell.Run(ctx, d.Shell, args)
	case actions.KindHTTP:
		return p.http.Call(ctx, d.HTTP, d.Params, args)
	case actions.KindMethod, "":
		if d.Handler == nil {
			return "", actions.ErrHandlerNil
		}
		v, err := d.Handler(ctx, args)
		if err != nil {
			return "", err
		}
		return render(v)
	}
	return "", fmt.Errorf("%w: kind %q", actions.ErrInvalidSpec, d.Kind)
}

func render(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

// IsNotFound reports whether err came from resolving an unknown action.
func IsNotFound(err error) bool {
	return errors.Is(err, actions.ErrActionNotFound)
}
