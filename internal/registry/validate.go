package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/stategrid/internal/ctxlog"
)

// Validate checks that every registered type is internally consistent: its
// default variable and composite determining variables exist, and every
// definition either derives a value or is essential.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Types() {
		t := r.types[name]
		if t.DefaultVariable != "" {
			if _, ok := t.Variables[t.DefaultVariable]; !ok {
				errs = append(errs, fmt.Sprintf("type '%s': default variable '%s' is not defined", name, t.DefaultVariable))
			}
		}
		if t.Composite != nil {
			if t.Composite.Plan == nil {
				errs = append(errs, fmt.Sprintf("type '%s': composite has no plan function", name))
			}
			for _, d := range t.Composite.Determining {
				if _, ok := t.Variables[d]; !ok {
					errs = append(errs, fmt.Sprintf("type '%s': determining variable '%s' is not defined", name, d))
				}
			}
		}

		variables := make([]string, 0, len(t.Variables))
		for v := range t.Variables {
			variables = append(variables, v)
		}
		sort.Strings(variables)
		for _, v := range variables {
			def := t.Variables[v]
			if IsEngineVariable(v) {
				errs = append(errs, fmt.Sprintf("type '%s': variable '%s' uses a reserved name", name, v))
			}
			if def.Definition == nil && !def.Essential {
				errs = append(errs, fmt.Sprintf("type '%s', variable '%s': neither a definition nor essential", name, v))
			}
			if def.ReturnDependencies != nil && def.Dependencies != nil {
				logger.Warn("Definition declares both static and dynamic dependencies; static ones are ignored.", "type", name, "variable", v)
			}
			for _, deps := range []map[string]Dependency{def.DeterminedBy, def.Dependencies} {
				for depName, dep := range deps {
					if dep.Kind != StateVariable || dep.Component != 0 {
						continue
					}
					if _, ok := t.Variables[dep.Variable]; !ok && !IsEngineVariable(dep.Variable) {
						errs = append(errs, fmt.Sprintf("type '%s', variable '%s': dependency '%s' reads undefined variable '%s'", name, v, depName, dep.Variable))
					}
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
