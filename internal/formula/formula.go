package formula

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

var (
	ErrSyntax          = errors.New("formula: syntax error")
	ErrUnknownVariable = errors.New("formula: unknown variable")
	ErrNotNumber       = errors.New("formula: result is not a number")
	ErrNotFinite       = errors.New("formula: value is not finite")
	ErrDivisionByZero  = fmt.Errorf("%w: division by zero", ErrNotFinite)
	ErrEval            = errors.New("formula: evaluation failed")
)

// Env — значения параметров: float64, int, int64 или bool.
type Env map[string]any

// Expr — скомпилированная формула.
type Expr struct {
	src  string
	expr hclsyntax.Expression
	vars []string
}

func Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	parsed, diags := hclsyntax.ParseExpression([]byte(normalize(src)), "formula", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, summarize(diags))
	}
	if err := check(parsed); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var vars []string
	for _, tr := range parsed.Variables() {
		name := tr.RootName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		vars = append(vars, name)
	}
	sort.Strings(vars)

	return &Expr{src: src, expr: guard(parsed), vars: vars}, nil
}

// Evaluate компилирует и сразу вычисляет формулу.
func Evaluate(src string, env Env) (float64, error) {
	e, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(env)
}

func (e *Expr) String() string { return e.src }

// Variables возвращает имена, на которые ссылается формула (отсортированы, без повторов).
func (e *Expr) Variables() []string {
	out := make([]string, len(e.vars))
	copy(out, e.vars)
	return out
}

func (e *Expr) Eval(env Env) (float64, error) {
	vars := make(map[string]cty.Value, len(e.vars))
	for _, name := range e.vars {
		raw, ok := env[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
		}
		v, err := toCty(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrEval, name, err)
		}
		vars[name] = v
	}

	val, diags := e.expr.Value(&hcl.EvalContext{Variables: vars, Functions: evalFunctions})
	if diags.HasErrors() {
		if err := callError(diags); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %s", ErrEval, summarize(diags))
	}
	return toFloat(val)
}

// callError достаёт ErrNotFinite из ошибок вызова функций.
func callError(diags hcl.Diagnostics) error {
	for _, d := range diags {
		extra, ok := hcl.DiagnosticExtra[hclsyntax.FunctionCallDiagExtra](d)
		if !ok {
			continue
		}
		if err := extra.FunctionCallError(); errors.Is(err, ErrNotFinite) {
			return err
		}
	}
	return nil
}

func toCty(v any) (cty.Value, error) {
	switch x := v.(type) {
	case float64:
		return cty.NumberFloatVal(x), nil
	case float32:
		return cty.NumberFloatVal(float64(x)), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
	}
}

func toFloat(v cty.Value) (float64, error) {
	if v.IsNull() || !v.IsKnown() {
		return 0, ErrNotNumber
	}
	if v.Type() != cty.Number {
		return 0, fmt.Errorf("%w: got %s", ErrNotNumber, v.Type().FriendlyName())
	}
	f, _ := v.AsBigFloat().Float64()
	if math.IsInf(f, 0) {
		return 0, ErrNotFinite
	}
	return f, nil
}

// check пропускает только арифметику, сравнения, логику, тернарный
// оператор, имена без атрибутов/индексов и разрешённые функции.
func check(expr hclsyntax.Expression) error {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		if t := e.Val.Type(); t != cty.Number && t != cty.Bool {
			return fmt.Errorf("%w: unsupported literal %s", ErrSyntax, t.FriendlyName())
		}
		return nil
	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			return fmt.Errorf("%w: unsupported reference %q", ErrSyntax, e.Traversal.RootName())
		}
		return nil
	case *hclsyntax.BinaryOpExpr:
		if err := check(e.LHS); err != nil {
			return err
		}
		return check(e.RHS)
	case *hclsyntax.UnaryOpExpr:
		return check(e.Val)
	case *hclsyntax.ParenthesesExpr:
		return check(e.Expression)
	case *hclsyntax.ConditionalExpr:
		for _, sub := range []hclsyntax.Expression{e.Condition, e.TrueResult, e.FalseResult} {
			if err := check(sub); err != nil {
				return err
			}
		}
		return nil
	case *hclsyntax.FunctionCallExpr:
		if _, ok := functions[e.Name]; !ok {
			return fmt.Errorf("%w: unknown function %q", ErrSyntax, e.Name)
		}
		if e.ExpandFinal {
			return fmt.Errorf("%w: argument expansion is not supported", ErrSyntax)
		}
		for _, arg := range e.Args {
			if err := check(arg); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported construct %T", ErrSyntax, expr)
	}
}

// normalize разделяет пробелами минус после идентификатора: в HCL
// `width-2` — это имя, а не разность.
func normalize(src string) string {
	var b strings.Builder
	b.Grow(len(src) + 8)
	inIdent := false
	for _, r := range src {
		switch {
		case r == '-' && inIdent:
			b.WriteString(" - ")
			inIdent = false
			continue
		case unicode.IsLetter(r) || r == '_':
			if !inIdent && !prevIsWordChar(b.String()) {
				inIdent = true
			}
		case unicode.IsDigit(r):
			// цифры продолжают идентификатор, но не начинают его
		default:
			inIdent = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// prevIsWordChar — последний записанный символ цифра или буква (например, `1e` в `1e-3`).
func prevIsWordChar(s string) bool {
	if s == "" {
		return false
	}
	r := rune(s[len(s)-1])
	return unicode.IsDigit(r) || unicode.IsLetter(r) || r == '.'
}

func summarize(diags hcl.Diagnostics) string {
	var parts []string
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}
