package nodeid

import "strconv"

// ComponentID is the arena-assigned identity of a component. Zero is never
// assigned; keys with a zero component address document-level nodes.
type ComponentID int64

func (id ComponentID) String() string {
	return "#" + strconv.FormatInt(int64(id), 10)
}

// Key identifies a single state variable node in the dependency graph.
type Key struct {
	Component ComponentID
	Variable  string
}

func NewKey(id ComponentID, variable string) Key {
	return Key{Component: id, Variable: variable}
}

// String renders the key as `#<id>.<variable>`.
func (k Key) String() string {
	return k.Component.String() + "." + k.Variable
}

// Less orders keys by component, then variable name.
func (k Key) Less(other Key) bool {
	if k.Component != other.Component {
		return k.Component < other.Component
	}
	return k.Variable < other.Variable
}
