package update

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// maxDepth bounds inverse recursion. Inverse chains follow the dependency
// graph, so only a cycle through inverses reaches it.
const maxDepth = 64

// resolve makes key take the desired value.
func (r *run) resolve(key nodeid.Key, desired cty.Value, depth int) error {
	if depth > maxDepth {
		return &RejectedError{Target: key, Reason: Downstream, Err: fmt.Errorf("inverse recursion deeper than %d", maxDepth)}
	}
	def := r.c.eval.DefinitionOf(r.ctx, key)
	if def == nil {
		return &RejectedError{Target: key, Reason: NotFound, Err: errors.New("no such state variable")}
	}
	current := r.c.eval.Value(r.ctx, key)
	vals, _ := r.c.eval.Dependencies(key)
	isEssential := r.c.eval.IsEssential(key)

	if def.InverseDefinition == nil {
		if isEssential {
			return r.write(key, desired)
		}
		return &RejectedError{Target: key, Reason: NoInverse, Err: errors.New("variable has no inverse definition")}
	}

	instructions, err := def.InverseDefinition(registry.InverseRequest{
		Desired:   desired,
		Current:   current,
		Values:    vals,
		Essential: isEssential,
	})
	if err != nil {
		return &RejectedError{Target: key, Reason: Declined, Err: err}
	}
	ctxlog.FromContext(r.ctx).Debug("Inverse resolved.", "key", key.String(), "instructions", len(instructions), "depth", depth)
	for _, in := range instructions {
		if err := r.apply(key, vals, in, depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) apply(key nodeid.Key, vals registry.Values, in registry.Instruction, depth int) error {
	switch {
	case in.SetEssential:
		return r.write(key, in.Value)
	case in.Resample:
		undo, stale, err := r.c.eval.Resample(r.ctx, key.Component)
		if err != nil {
			return &RejectedError{Target: key, Reason: Declined, Err: err}
		}
		r.collect(stale)
		r.journal.OnRollback(func() { r.collect(undo()) })
		return nil
	}

	entry, ok := vals.Entry(in.Dependency)
	if !ok {
		return &RejectedError{Target: key, Reason: Downstream, Err: fmt.Errorf("instruction names unknown dependency %q", in.Dependency)}
	}
	desired := value.Clean(in.Value)

	if in.Element {
		if in.Index < 0 || in.Index >= len(entry.Sources) {
			return &RejectedError{Target: key, Reason: Downstream, Err: fmt.Errorf("dependency %q has no element %d", in.Dependency, in.Index)}
		}
		return r.forwardElement(key, in.Dependency, entry.Sources[in.Index], entry, in.Index, desired, depth)
	}
	if entry.HasElement {
		source := entry.Sources[0]
		list, ok := value.Replace(r.c.eval.Value(r.ctx, source), entry.Element, desired)
		if !ok {
			return &RejectedError{Target: key, Reason: Downstream, Err: fmt.Errorf("element %d of %s does not exist", entry.Element, source)}
		}
		return r.resolve(source, list, depth+1)
	}
	if len(entry.Sources) == 1 && entry.Components == nil {
		if entry.Sources[0] == (nodeid.Key{}) {
			return &RejectedError{Target: key, Reason: Downstream, Err: fmt.Errorf("dependency %q is a literal", in.Dependency)}
		}
		return r.resolve(entry.Sources[0], desired, depth+1)
	}
	if !value.IsList(entry.Value) {
		return &RejectedError{Target: key, Reason: Downstream, Err: fmt.Errorf("dependency %q cannot be written", in.Dependency)}
	}

	// A list dependency is written element by element.
	elems := value.Elements(desired)
	if !value.IsList(desired) || len(elems) != len(entry.Sources) {
		return &RejectedError{Target: key, Reason: Downstream, Err: fmt.Errorf("dependency %q needs a list of %d elements", in.Dependency, len(entry.Sources))}
	}
	for i, elem := range elems {
		if err := r.forwardElement(key, in.Dependency, entry.Sources[i], entry, i, elem, depth); err != nil {
			return err
		}
	}
	return nil
}

// forwardElement writes element i of a list dependency. Literal elements
// accept only the value they already hold.
func (r *run) forwardElement(key nodeid.Key, dep string, source nodeid.Key, entry registry.Entry, i int, desired cty.Value, depth int) error {
	if source == (nodeid.Key{}) {
		if value.Equal(value.Index(entry.Value, i), desired) {
			return nil
		}
		return &RejectedError{Target: key, Reason: Downstream, Err: fmt.Errorf("element %d of dependency %q is a literal", i, dep)}
	}
	return r.resolve(source, desired, depth+1)
}

func (r *run) write(key nodeid.Key, v cty.Value) error {
	if err := r.journal.Set(r.ctx, key, v); err != nil {
		return &RejectedError{Target: key, Reason: Downstream, Err: err}
	}
	ctxlog.FromContext(r.ctx).Debug("Essential value written.", "key", key.String(), "value", value.Format(v))
	r.invalidate(key)
	return nil
}
