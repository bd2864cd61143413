// Package runtime implements the Program Driver: it walks a parsed program
// in source order, threads RuntimeState across statements, and accumulates
// Outputs, grounded on the teacher's pipeline executor's logging/metrics
// density adapted to a single-threaded, fail-fast evaluator.
package runtime

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/stage"
	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

// Driver runs one program against one set of fixtures and produces Outputs
// plus an explain trace. A Driver is single-use: construct one per run().
type Driver struct {
	state   *stage.State
	env     map[string]binding
	explain []string
	logger  *zap.Logger
	metrics *MetricsCollector
	runID   string
}

// NewDriver constructs a Driver over the given fixtures. logger/metrics may
// be nil: a nil logger is replaced by zap.NewNop(), and a nil metrics
// collector turns metrics recording off.
func NewDriver(fixtures map[string]value.Value, logger *zap.Logger, metrics *MetricsCollector) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		state:   stage.NewState(fixtures),
		env:     make(map[string]binding),
		logger:  logger,
		metrics: metrics,
		runID:   uuid.NewString(),
	}
}

// Run executes every statement of prog in source order and returns the
// accumulated Outputs (tables, logs) plus the explain trace. On any error
// the accumulators built so far are discarded, per spec.md §7's
// discard-on-error resolution.
func (d *Driver) Run(prog *syntax.Program) (*stage.Outputs, []string, error) {
	start := time.Now()
	logger := d.logger.With(zap.String("run_id", d.runID))
	logger.Info("run started", zap.Int("statements", len(prog.Statements)))

	for i, stmt := range prog.Statements {
		if err := d.runStmt(logger, i, stmt); err != nil {
			d.observeRun(logger, start, err)
			return nil, nil, err
		}
	}

	d.observeRun(logger, start, nil)
	return d.state.Outputs, d.explain, nil
}

func (d *Driver) observeRun(logger *zap.Logger, start time.Time, err error) {
	duration := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	logger.Info("run finished", zap.String("status", status), zap.Duration("duration", duration))
	if d.metrics == nil {
		return
	}
	d.metrics.RunsTotal.WithLabelValues(status).Inc()
	d.metrics.RunDuration.Observe(duration.Seconds())
	if fe, ok := err.(*flowerr.Error); ok {
		d.metrics.ErrorsTotal.WithLabelValues(string(fe.Kind)).Inc()
	}
}

func (d *Driver) runStmt(logger *zap.Logger, index int, stmt syntax.Stmt) error {
	switch s := stmt.(type) {
	case *syntax.BindingStmt:
		d.explain = append(d.explain, fmt.Sprintf("binding %s", s.Name))
		d.countStatement("binding")
		logger.Debug("binding", zap.Int("index", index), zap.String("name", s.Name))
		b, err := d.evalBinding(logger, s.Expr)
		if err != nil {
			return err
		}
		d.env[s.Name] = b
		return nil
	case *syntax.PipelineStmt:
		d.explain = append(d.explain, "pipeline")
		d.countStatement("pipeline")
		logger.Debug("pipeline", zap.Int("index", index))
		b, err := d.evalBinding(logger, s.Expr)
		if err != nil {
			return err
		}
		if b.kind != bindStream {
			return flowerr.New(flowerr.TypeError, "top-level pipeline statement must evaluate to a Stream")
		}
		return nil
	default:
		return flowerr.New(flowerr.TypeError, "unrecognized statement form %T", stmt)
	}
}

func (d *Driver) countStatement(kind string) {
	if d.metrics != nil {
		d.metrics.StatementsTotal.WithLabelValues(kind).Inc()
	}
}

// evalBinding evaluates any top-level expression (the RHS of a binding or
// pipeline statement) to a Stream-or-Stage binding.
func (d *Driver) evalBinding(logger *zap.Logger, expr syntax.Expr) (binding, error) {
	switch e := expr.(type) {
	case *syntax.IdentExpr:
		return d.evalIdent(e)
	case *syntax.CallExpr:
		return d.evalCall(e)
	case *syntax.PipelineExpr:
		return d.evalPipeline(logger, e)
	case *syntax.ComposeExpr:
		left, err := d.evalBinding(logger, e.Left)
		if err != nil {
			return binding{}, err
		}
		leftStage, err := requireStage(left)
		if err != nil {
			return binding{}, err
		}
		right, err := d.evalBinding(logger, e.Right)
		if err != nil {
			return binding{}, err
		}
		rightStage, err := requireStage(right)
		if err != nil {
			return binding{}, err
		}
		return stageBinding(stage.NewCompose(leftStage, rightStage)), nil
	case *syntax.InverseExpr:
		inner, err := d.evalBinding(logger, e.Expr)
		if err != nil {
			return binding{}, err
		}
		innerStage, err := requireStage(inner)
		if err != nil {
			return binding{}, err
		}
		inverted, err := stage.Invert(innerStage)
		if err != nil {
			return binding{}, err
		}
		return stageBinding(inverted), nil
	default:
		return binding{}, flowerr.New(flowerr.TypeError, "expression form %T is not valid as a binding", expr)
	}
}

// evalIdent resolves a reserved codec name directly to its Auto-mode stage,
// falling back to an environment lookup for user-bound names.
func (d *Driver) evalIdent(e *syntax.IdentExpr) (binding, error) {
	switch e.Name {
	case "json":
		return stageBinding(&stage.JsonStage{}), nil
	case "utf8":
		return stageBinding(&stage.Utf8Stage{}), nil
	case "base64":
		return stageBinding(&stage.Base64Stage{}), nil
	}
	b, ok := d.env[e.Name]
	if !ok {
		return binding{}, flowerr.New(flowerr.UnknownName, "undefined name %q", e.Name)
	}
	return b, nil
}

func (d *Driver) evalPipeline(logger *zap.Logger, e *syntax.PipelineExpr) (binding, error) {
	inputBinding, err := d.evalBinding(logger, e.Input)
	if err != nil {
		return binding{}, err
	}
	cur, err := requireStream(inputBinding)
	if err != nil {
		return binding{}, err
	}

	for _, stageExpr := range e.Stages {
		sb, err := d.evalBinding(logger, stageExpr)
		if err != nil {
			return binding{}, err
		}
		st, err := requireStage(sb)
		if err != nil {
			return binding{}, err
		}
		next, err := d.applyStage(logger, st, cur)
		if err != nil {
			return binding{}, err
		}
		cur = next
	}
	return streamBinding(cur), nil
}

// applyStage applies a single stage, pushing one explain line per leaf
// stage executed (a Compose recurses over its children without emitting a
// line of its own, matching the reference evaluator's fold).
func (d *Driver) applyStage(logger *zap.Logger, st stage.Stage, cur stage.Stream) (stage.Stream, error) {
	if c, ok := st.(*stage.ComposeStage); ok {
		for _, child := range c.Children {
			next, err := d.applyStage(logger, child, cur)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return cur, nil
	}

	category := st.Category()
	d.explain = append(d.explain, fmt.Sprintf("  [%s] %s", category, describeStage(st)))
	if d.metrics != nil {
		d.metrics.StagesTotal.WithLabelValues(string(category)).Inc()
	}
	next, err := st.Apply(d.state, cur)
	if err != nil {
		logger.Warn("stage failed", zap.String("category", string(category)), zap.Error(err))
		return nil, err
	}
	return next, nil
}

func requireStream(b binding) (stage.Stream, error) {
	if b.kind != bindStream {
		return nil, flowerr.New(flowerr.TypeError, "expected a Stream in this position, got a Stage")
	}
	return b.stream, nil
}

func requireStage(b binding) (stage.Stage, error) {
	if b.kind != bindStage {
		return nil, flowerr.New(flowerr.TypeError, "expected a Stage in this position, got a Stream")
	}
	return b.stage, nil
}
