package calculator

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/Spok95/workshop-erp/internal/formula"
)

var nameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// литералы HCL, на которые нельзя сослаться как на имя
var reserved = map[string]bool{"true": true, "false": true, "null": true}

// Compiled — шаблон, прошедший проверку; формулы в порядке вычисления.
type Compiled struct {
	Template Template
	ordered  []formula.Named
}

// Compile проверяет имена, формулы, ссылки и циклы шаблона.
func Compile(t Template) (*Compiled, error) {
	names := map[string]string{}
	claim := func(name, what string) error {
		if !nameRe.MatchString(name) || len(name) > 64 || reserved[name] {
			return fmt.Errorf("%w: %s name %q must match [a-z_][a-z0-9_]*", ErrInvalidTemplate, what, name)
		}
		if prev, ok := names[name]; ok {
			return fmt.Errorf("%w: %s %q clashes with %s of the same name", ErrInvalidTemplate, what, name, prev)
		}
		names[name] = what
		return nil
	}

	for _, p := range t.Parameters {
		if err := claim(p.Name, "parameter"); err != nil {
			return nil, err
		}
		if err := checkParameter(p); err != nil {
			return nil, err
		}
	}

	items := make([]formula.Named, 0, len(t.Formulas))
	for _, f := range t.Formulas {
		if err := claim(f.Name, "formula"); err != nil {
			return nil, err
		}
		e, err := formula.Compile(f.Expression)
		if err != nil {
			return nil, fmt.Errorf("%w: formula %s: %w", ErrInvalidTemplate, f.Name, err)
		}
		items = append(items, formula.Named{Name: f.Name, Expr: e})
	}
	for _, it := range items {
		for _, v := range it.Expr.Variables() {
			if _, ok := names[v]; !ok {
				return nil, fmt.Errorf("%w: formula %s references undefined name %q", ErrInvalidTemplate, it.Name, v)
			}
		}
	}

	ordered, err := formula.Order(items)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	return &Compiled{Template: t, ordered: ordered}, nil
}

func checkParameter(p Parameter) error {
	switch p.Kind {
	case KindNumber:
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return fmt.Errorf("%w: parameter %s: min > max", ErrInvalidTemplate, p.Name)
		}
		if err := inRange(p, p.Default); err != nil {
			return fmt.Errorf("%w: default of %w", ErrInvalidTemplate, err)
		}
	case KindBoolean:
		if p.Default != 0 && p.Default != 1 {
			return fmt.Errorf("%w: boolean parameter %s default must be 0 or 1", ErrInvalidTemplate, p.Name)
		}
	default:
		return fmt.Errorf("%w: parameter %s has unknown kind %q", ErrInvalidTemplate, p.Name, p.Kind)
	}
	return nil
}

func inRange(p Parameter, v float64) error {
	if p.Min != nil && v < *p.Min {
		return fmt.Errorf("parameter %s: %g is below minimum %g", p.Name, v, *p.Min)
	}
	if p.Max != nil && v > *p.Max {
		return fmt.Errorf("parameter %s: %g is above maximum %g", p.Name, v, *p.Max)
	}
	return nil
}

type FormulaResult struct {
	Name       string  `json:"name"`
	Label      string  `json:"label"`
	Expression string  `json:"expression"`
	Unit       string  `json:"unit"`
	Value      float64 `json:"value"`
}

type Result struct {
	Parameters map[string]any  `json:"parameters"`
	Results    []FormulaResult `json:"results"`

	env formula.Env
}

// Env — параметры и результаты формул для вычисления строк BOM.
func (r *Result) Env() formula.Env { return r.env }

// Params сливает значения по умолчанию с вводом и проверяет типы и диапазоны.
func (c *Compiled) Params(in Input) (formula.Env, error) {
	known := make(map[string]Parameter, len(c.Template.Parameters))
	for _, p := range c.Template.Parameters {
		known[p.Name] = p
	}
	for k := range in {
		if _, ok := known[k]; !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrInvalidInput, k)
		}
	}

	env := make(formula.Env, len(known))
	for _, p := range c.Template.Parameters {
		raw, given := in[p.Name]
		switch p.Kind {
		case KindBoolean:
			b := p.Default == 1
			if given {
				switch x := raw.(type) {
				case bool:
					b = x
				case float64:
					if x != 0 && x != 1 {
						return nil, fmt.Errorf("%w: parameter %s must be a boolean", ErrInvalidInput, p.Name)
					}
					b = x == 1
				default:
					return nil, fmt.Errorf("%w: parameter %s must be a boolean", ErrInvalidInput, p.Name)
				}
			}
			env[p.Name] = b
		default:
			v := p.Default
			if given {
				x, ok := raw.(float64)
				if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
					return nil, fmt.Errorf("%w: parameter %s must be a number", ErrInvalidInput, p.Name)
				}
				v = x
			}
			if err := inRange(p, v); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			env[p.Name] = v
		}
	}
	return env, nil
}

// Evaluate вычисляет формулы шаблона в порядке зависимостей; результаты
// возвращаются в порядке объявления.
func (c *Compiled) Evaluate(in Input) (*Result, error) {
	env, err := c.Params(in)
	if err != nil {
		return nil, err
	}
	params := make(map[string]any, len(env))
	for k, v := range env {
		params[k] = v
	}

	for _, f := range c.ordered {
		v, err := f.Expr.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("formula %s: %w", f.Name, err)
		}
		env[f.Name] = formula.Round(v, 6)
	}

	res := &Result{Parameters: params, Results: make([]FormulaResult, 0, len(c.Template.Formulas)), env: env}
	for _, f := range byPosition(c.Template.Formulas) {
		res.Results = append(res.Results, FormulaResult{
			Name:       f.Name,
			Label:      f.Label,
			Expression: f.Expression,
			Unit:       f.Unit,
			Value:      env[f.Name].(float64),
		})
	}
	return res, nil
}

// Evaluate — Compile + Evaluate за один вызов.
func Evaluate(t Template, in Input) (*Result, error) {
	c, err := Compile(t)
	if err != nil {
		return nil, err
	}
	return c.Evaluate(in)
}

func byPosition(fs []Formula) []Formula {
	out := append([]Formula(nil), fs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
