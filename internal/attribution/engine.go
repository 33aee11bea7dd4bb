package attribution

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/model"
)

// Engine runs the selected models over every brand of a portfolio. Brands
// are independent and run in parallel; the baseline source is read-only.
type Engine struct {
	models      []Model
	concurrency int
}

// NewEngine validates cfg and builds its models in cfg.Models order. An
// empty model list selects every model.
func NewEngine(cfg config.EngineConfig, src baseline.Source) (*Engine, error) {
	if problems := cfg.Problems(); len(problems) > 0 {
		return nil, eris.Wrapf(ErrInvalidParams, "attribution: %s", strings.Join(problems, "; "))
	}

	names := cfg.Models
	if len(names) == 0 {
		names = AllModels()
	}
	e := &Engine{concurrency: cfg.Concurrency}
	if e.concurrency <= 0 {
		e.concurrency = runtime.GOMAXPROCS(0)
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			continue
		}
		seen[name] = true
		m, err := New(name, cfg, src)
		if err != nil {
			return nil, err
		}
		e.models = append(e.models, m)
	}
	return e, nil
}

// Models returns the model names in run order.
func (e *Engine) Models() []string {
	out := make([]string, len(e.models))
	for i, m := range e.models {
		out[i] = m.Name()
	}
	return out
}

// Run estimates every model for every brand. Results are ordered by brand
// (portfolio order) then model, one record per brand-model pair.
func (e *Engine) Run(ctx context.Context, p *model.Portfolio) ([]model.AttributionResult, error) {
	if err := p.Validate(); err != nil {
		return nil, eris.Wrap(err, "attribution: invalid portfolio")
	}

	start := time.Now()
	perBrand := make([][]model.AttributionResult, len(p.Series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range p.Series {
		s := &p.Series[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := make([]model.AttributionResult, 0, len(e.models))
			for _, m := range e.models {
				res, err := m.Estimate(s)
				if err != nil {
					return eris.Wrapf(err, "attribution: %s model for %s", m.Name(), s.Brand)
				}
				out = append(out, res)
			}
			perBrand[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]model.AttributionResult, 0, len(p.Series)*len(e.models))
	var capped int
	for _, rs := range perBrand {
		for _, r := range rs {
			if r.Capped {
				capped++
			}
		}
		results = append(results, rs...)
	}

	zap.L().Info("attribution: run complete",
		zap.Int("brands", len(p.Series)),
		zap.Strings("models", e.Models()),
		zap.Int("results", len(results)),
		zap.Int("capped", capped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
