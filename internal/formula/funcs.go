package formula

import (
	"errors"
	"math"
	"sort"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// maxPlaces — больше знаков float64 всё равно не хранит.
const maxPlaces = 15

var functions = map[string]function.Function{
	"min":   finite(stdlib.MinFunc, false),
	"max":   finite(stdlib.MaxFunc, false),
	"ceil":  finite(stdlib.CeilFunc, false),
	"floor": finite(stdlib.FloorFunc, false),
	"abs":   finite(stdlib.AbsoluteFunc, false),
	"pow":   finite(powFunc, false),
	"round": finite(roundFunc, false),
}

// Деление и остаток вычисляются через эти функции: guard подменяет ими
// операторы `/` и `%`. Имена недоступны в тексте формулы, их нет в functions.
const (
	fnDivide = "__divide"
	fnModulo = "__modulo"
)

var operators = map[*hclsyntax.Operation]string{
	hclsyntax.OpDivide: fnDivide,
	hclsyntax.OpModulo: fnModulo,
}

var evalFunctions = func() map[string]function.Function {
	out := make(map[string]function.Function, len(functions)+2)
	for name, f := range functions {
		out[name] = f
	}
	out[fnDivide] = finite(stdlib.DivideFunc, true)
	out[fnModulo] = finite(stdlib.ModuloFunc, true)
	return out
}()

// finite запрещает бесконечные аргументы и результат; divides — ещё и нулевой делитель.
func finite(f function.Function, divides bool) function.Function {
	return function.New(&function.Spec{
		Params:   f.Params(),
		VarParam: f.VarParam(),
		Type:     function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			for _, a := range args {
				if isInf(a) {
					return cty.NilVal, ErrNotFinite
				}
			}
			if divides && args[1].AsBigFloat().Sign() == 0 {
				return cty.NilVal, ErrDivisionByZero
			}
			v, err := f.Call(args)
			if err != nil {
				return cty.NilVal, err
			}
			if isInf(v) {
				return cty.NilVal, ErrNotFinite
			}
			return v, nil
		},
	})
}

func isInf(v cty.Value) bool {
	if v.IsNull() || !v.IsKnown() || v.Type() != cty.Number {
		return false
	}
	bf := v.AsBigFloat()
	if bf.IsInf() {
		return true
	}
	f, _ := bf.Float64()
	return math.IsInf(f, 0)
}

// guard заменяет `/` и `%` вызовами fnDivide и fnModulo.
func guard(expr hclsyntax.Expression) hclsyntax.Expression {
	switch e := expr.(type) {
	case *hclsyntax.BinaryOpExpr:
		e.LHS = guard(e.LHS)
		e.RHS = guard(e.RHS)
		name, ok := operators[e.Op]
		if !ok {
			return e
		}
		return &hclsyntax.FunctionCallExpr{
			Name:            name,
			Args:            []hclsyntax.Expression{e.LHS, e.RHS},
			NameRange:       e.SrcRange,
			OpenParenRange:  e.SrcRange,
			CloseParenRange: e.SrcRange,
		}
	case *hclsyntax.UnaryOpExpr:
		e.Val = guard(e.Val)
	case *hclsyntax.ParenthesesExpr:
		e.Expression = guard(e.Expression)
	case *hclsyntax.ConditionalExpr:
		e.Condition = guard(e.Condition)
		e.TrueResult = guard(e.TrueResult)
		e.FalseResult = guard(e.FalseResult)
	case *hclsyntax.FunctionCallExpr:
		for i, arg := range e.Args {
			e.Args[i] = guard(arg)
		}
	}
	return expr
}

var powFunc = function.New(&function.Spec{
	Description: "Raises a number to the given power.",
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
		{Name: "power", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		num, _ := args[0].AsBigFloat().Float64()
		power, _ := args[1].AsBigFloat().Float64()
		v := math.Pow(num, power)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return cty.NilVal, ErrNotFinite
		}
		return cty.NumberFloatVal(v), nil
	},
})

// roundFunc: round(x) или round(x, places), половина — от нуля.
var roundFunc = function.New(&function.Spec{
	Description: "Rounds a number half away from zero to the given number of decimal places.",
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
	},
	VarParam: &function.Parameter{Name: "places", Type: cty.Number},
	Type:     function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		if len(args) > 2 {
			return cty.NilVal, errors.New("round takes at most two arguments")
		}
		f, _ := args[0].AsBigFloat().Float64()
		places := int64(0)
		if len(args) == 2 {
			places, _ = args[1].AsBigFloat().Int64()
		}
		return cty.NumberFloatVal(Round(f, int(places))), nil
	},
})

// Round округляет до places знаков после запятой; places приводится к [-15, 15].
func Round(f float64, places int) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return f
	}
	places = min(max(places, -maxPlaces), maxPlaces)
	p := math.Pow(10, float64(places))
	r := math.Round(f*p) / p
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return f
	}
	return r
}

// Functions — имена доступных в формулах функций.
func Functions() []string {
	out := make([]string, 0, len(functions))
	for name := range functions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
