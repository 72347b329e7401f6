// Package script evaluates code card sources in an embedded tengo
// interpreter. Evaluations are bounded by a deadline so a runaway
// script cannot stall the board.
package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 100 * time.Millisecond

// safeModules is the stdlib subset exposed to card scripts. Cards run
// arbitrary pasted text, so the os and filesystem modules stay out.
var safeModules = []string{"math", "text", "times", "rand", "fmt", "json", "base64", "hex", "enum"}

// Evaluator compiles and runs card scripts. Each Eval is independent;
// scripts share no state between runs.
type Evaluator struct {
	timeout time.Duration
	modules *tengo.ModuleMap
}

func NewEvaluator(timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Evaluator{
		timeout: timeout,
		modules: stdlib.GetModuleMap(safeModules...),
	}
}

// Eval runs src and returns everything it printed, followed by the
// value of its `out` global when one is defined.
func (e *Evaluator) Eval(ctx context.Context, src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	var printed strings.Builder
	script := tengo.NewScript([]byte(src))
	script.SetImports(e.modules)
	_ = script.Add("print", &tengo.UserFunction{Name: "print", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			parts = append(parts, objectAsString(arg))
		}
		printed.WriteString(strings.Join(parts, " "))
		printed.WriteByte('\n')
		return tengo.UndefinedValue, nil
	}})

	compiled, err := script.Compile()
	if err != nil {
		return "", fmt.Errorf("script: compile: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := compiled.RunContext(runCtx); err != nil {
		return "", fmt.Errorf("script: run: %w", err)
	}

	out := printed.String()
	if compiled.IsDefined("out") {
		if v := compiled.Get("out"); v != nil && !v.IsUndefined() {
			out += objectAsString(v.Object()) + "\n"
		}
	}
	return strings.TrimRight(out, "\n"), nil
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
