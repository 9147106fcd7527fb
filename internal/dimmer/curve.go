package dimmer

import (
	"fmt"
	"math"

	"github.com/knetic/govaluate"
)

// Curve maps a target brightness to an overlay alpha.
type Curve interface {
	Alpha(target int) int
	Floor() int
}

// LinearCurve ramps the overlay from 0 at the floor to 255 at brightness 0.
type LinearCurve struct {
	floor int
}

func NewLinearCurve(floor int) LinearCurve {
	return LinearCurve{floor: ClampBrightness(floor)}
}

func (c LinearCurve) Floor() int { return c.floor }

func (c LinearCurve) Alpha(target int) int {
	target = ClampBrightness(target)
	if c.floor == 0 || target >= c.floor {
		return 0
	}
	f := float64(c.floor)
	return clampAlpha(int(math.Round(MaxAlpha * (f - float64(target)) / f)))
}

// ExprCurve evaluates a user expression over `target` and `floor` below the
// floor. Above it the overlay is always off.
type ExprCurve struct {
	source string
	floor  int
	expr   *govaluate.EvaluableExpression
}

var curveFunctions = map[string]govaluate.ExpressionFunction{
	"pow": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow takes 2 arguments")
		}
		return math.Pow(toFloat64(args[0]), toFloat64(args[1])), nil
	},
	"sqrt": func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("sqrt takes 1 argument")
		}
		return math.Sqrt(toFloat64(args[0])), nil
	},
	"min": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("min takes 2 arguments")
		}
		return math.Min(toFloat64(args[0]), toFloat64(args[1])), nil
	},
	"max": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("max takes 2 arguments")
		}
		return math.Max(toFloat64(args[0]), toFloat64(args[1])), nil
	},
}

// NewExprCurve parses expr and checks that it yields a positive alpha that
// never drops as the target goes down.
func NewExprCurve(expr string, floor int) (*ExprCurve, error) {
	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(expr, curveFunctions)
	if err != nil {
		return nil, fmt.Errorf("parse curve %q: %w", expr, err)
	}

	c := &ExprCurve{source: expr, floor: ClampBrightness(floor), expr: parsed}

	prev := 0
	for t := c.floor - 1; t >= 0; t-- {
		a, err := c.eval(t)
		if err != nil {
			return nil, err
		}
		if a <= 0 {
			return nil, fmt.Errorf("curve %q gives alpha %d at brightness %d, must be positive below the floor", expr, a, t)
		}
		if a < prev {
			return nil, fmt.Errorf("curve %q decreases from %d to %d at brightness %d", expr, prev, a, t)
		}
		prev = a
	}

	return c, nil
}

func (c *ExprCurve) Floor() int { return c.floor }

func (c *ExprCurve) String() string { return c.source }

func (c *ExprCurve) Alpha(target int) int {
	target = ClampBrightness(target)
	if target >= c.floor {
		return 0
	}
	a, err := c.eval(target)
	if err != nil {
		// validated at construction, only reachable on NaN-style inputs
		return MaxAlpha
	}
	return a
}

func (c *ExprCurve) eval(target int) (int, error) {
	result, err := c.expr.Evaluate(map[string]any{
		"target": float64(target),
		"floor":  float64(c.floor),
	})
	if err != nil {
		return 0, fmt.Errorf("evaluate curve %q at %d: %w", c.source, target, err)
	}

	v, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("curve %q returned %T, want a number", c.source, result)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("curve %q is not finite at %d", c.source, target)
	}
	return clampAlpha(int(math.Round(v))), nil
}

// ParseCurve picks an ExprCurve when expr is set, else the linear default.
func ParseCurve(expr string, floor int) (Curve, error) {
	if expr == "" {
		return NewLinearCurve(floor), nil
	}
	return NewExprCurve(expr, floor)
}

func toFloat64(arg any) float64 {
	switch v := arg.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
