package hydro

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// Search constants of the master recession curve fit.
const (
	initialB     = 0.1
	initialC     = 0.0
	initialStepB = -0.01
	initialStepC = 0.1

	toleranceB = 1e-5
	toleranceC = 1e-4

	// minB keeps the decay rate strictly positive.
	minB = 1e-12
)

// RecessionModel is the outcome of one fit. It is rebuilt on every call.
type RecessionModel struct {
	Mode Mode    `json:"mode"`
	Norm Norm    `json:"norm"`
	B    float64 `json:"b"`
	C    float64 `json:"c"`

	// Predicted holds the reconstructed levels; samples outside every segment
	// are NaN.
	Predicted []float64 `json:"-"`
	Segments  []Segment `json:"segments"`

	// Objective is the value of Norm at (B, C); RMSE is reported regardless of Norm.
	Objective float64 `json:"objective"`
	RMSE      float64 `json:"rmse"`

	OuterIterations int `json:"outer_iterations"`
	InnerIterations int `json:"inner_iterations"`
}

// lineSearch is the loop-carried state of one shrinking-step search.
type lineSearch struct {
	value float64
	step  float64
	prev  float64
}

// advance moves one step, reversing and halving the step when the objective got
// worse than at the previous evaluation.
func (s *lineSearch) advance(obj float64) {
	if obj > s.prev {
		s.step *= -0.5
	}
	s.prev = obj
	s.value += s.step
}

func (s *lineSearch) done(tolerance float64) bool {
	return math.Abs(s.step) < tolerance
}

// Fitter estimates the master recession curve parameters of a hydrograph.
// A Fitter holds no per-call state and may be reused.
type Fitter struct {
	opts   FitOptions
	logger *zap.SugaredLogger
}

// NewFitter creates a Fitter. Zero iteration caps fall back to DefaultFitOptions;
// a nil logger discards output.
func NewFitter(opts FitOptions, logger *zap.SugaredLogger) *Fitter {
	def := DefaultFitOptions()
	if opts.MaxOuterIterations <= 0 {
		opts.MaxOuterIterations = def.MaxOuterIterations
	}
	if opts.MaxInnerIterations <= 0 {
		opts.MaxInnerIterations = def.MaxInnerIterations
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Fitter{opts: opts, logger: logger}
}

// Options returns the effective options.
func (f *Fitter) Options() FitOptions {
	return f.opts
}

// problem is one validated fit input together with scratch buffers.
type problem struct {
	t, h     []float64
	segs     []Segment
	mode     Mode
	norm     Norm
	hp       []float64
	residual []float64
}

// Fit estimates b and c over the segments described by peaks (see Segments)
// with a nested, derivative-free line search: an outer search over b, and for
// every b an inner search over c. Each search steps until the objective gets
// worse, then reverses with half the step, and stops once the step is below
// 1e-5 for b and 1e-4 for c.
//
// Fit validates everything before computing and never modifies t, h or peaks.
func (f *Fitter) Fit(ctx context.Context, t, h []float64, peaks []int) (*RecessionModel, error) {
	const op = "fit recession"

	if err := (Series{Time: t, Level: h}).Validate(); err != nil {
		return nil, err
	}
	segs, err := Segments(h, peaks)
	if err != nil {
		return nil, err
	}

	n := 0
	for _, s := range segs {
		n += s.Len()
	}
	p := &problem{
		t:        t,
		h:        h,
		segs:     segs,
		mode:     f.opts.Mode,
		norm:     f.opts.Norm,
		hp:       make([]float64, len(h)),
		residual: make([]float64, 0, n),
	}
	for i := range p.hp {
		p.hp[i] = math.NaN()
	}

	f.logger.Debugw("fitting recession", "mode", p.mode, "norm", p.norm,
		"segments", len(segs), "samples", n)

	sb := lineSearch{value: initialB, step: initialStepB, prev: math.Inf(1)}
	c := initialC
	outer, inner := 0, 0

	for ; !sb.done(toleranceB); outer++ {
		if outer >= f.opts.MaxOuterIterations {
			return nil, &ConvergenceError{Op: op, Loop: "decay rate", Iterations: outer}
		}
		if err := ctx.Err(); err != nil {
			return nil, &CancelledError{Op: op, Err: err}
		}

		var obj float64
		if p.mode == ModeLinear {
			obj = p.objective(sb.value, 0)
		} else {
			var steps int
			c, obj, steps, err = f.searchLevel(p, sb.value, c)
			inner += steps
			if err != nil {
				return nil, err
			}
		}

		if obj > sb.prev {
			sb.step *= -0.5
		}
		for sb.value+sb.step < minB {
			sb.step *= 0.5
		}
		sb.prev = obj
		sb.value += sb.step
	}

	if p.mode == ModeLinear {
		c = 0
	}

	m := &RecessionModel{
		Mode:            p.mode,
		Norm:            p.norm,
		B:               sb.value,
		C:               c,
		Segments:        segs,
		OuterIterations: outer,
		InnerIterations: inner,
	}
	m.Objective = p.objective(m.B, m.C)
	m.Predicted = p.hp
	m.RMSE = p.rmse()

	f.logger.Debugw("recession fit converged", "b", m.B, "c", m.C,
		"objective", m.Objective, "rmse", m.RMSE, "outer", outer, "inner", inner)

	return m, nil
}

// searchLevel runs the inner search over c at a fixed b, starting from c0.
// It returns the final c and the objective of the last evaluation.
func (f *Fitter) searchLevel(p *problem, b, c0 float64) (float64, float64, int, error) {
	sc := lineSearch{value: c0, step: initialStepC, prev: math.Inf(1)}
	steps := 0
	for ; !sc.done(toleranceC); steps++ {
		if steps >= f.opts.MaxInnerIterations {
			return 0, 0, steps, &ConvergenceError{Op: "fit recession", Loop: "reference level", Iterations: steps}
		}
		sc.advance(p.objective(b, sc.value))
	}
	return sc.value, sc.prev, steps, nil
}

// objective reconstructs p.hp at (b, c) and reduces the residual with p.norm.
func (p *problem) objective(b, c float64) float64 {
	p.predict(b, c)
	r := p.residual[:0]
	for _, s := range p.segs {
		for i := s.Start; i <= s.End; i++ {
			r = append(r, p.h[i]-p.hp[i])
		}
	}
	return residualNorm(p.norm, r)
}

// predict integrates each segment forward from its starting level with the
// trapezoidal rule on the observed levels.
func (p *problem) predict(b, c float64) {
	for _, s := range p.segs {
		p.hp[s.Start] = p.h[s.Start]
		for i := s.Start; i < s.End; i++ {
			dt := p.t[i+1] - p.t[i]
			var dh float64
			if p.mode == ModeLinear {
				dh = b * dt
			} else {
				dh = -b * (p.h[i] + p.h[i+1] - 2*c) * dt / 2
			}
			p.hp[i+1] = p.hp[i] + dh
		}
	}
}

func (p *problem) rmse() float64 {
	r := p.residual[:0]
	for _, s := range p.segs {
		for i := s.Start; i <= s.End; i++ {
			r = append(r, p.h[i]-p.hp[i])
		}
	}
	return residualNorm(NormRMSE, r)
}
