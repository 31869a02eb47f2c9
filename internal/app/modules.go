package app

import (
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/modules/basic"
	"github.com/specialistvlad/stategrid/modules/conditional"
	"github.com/specialistvlad/stategrid/modules/geometry"
	"github.com/specialistvlad/stategrid/modules/inputs"
	"github.com/specialistvlad/stategrid/modules/mathexpr"
	"github.com/specialistvlad/stategrid/modules/selection"
	"github.com/specialistvlad/stategrid/modules/sequence"
)

// coreModules is the definitive list of all component modules that are
// compiled into the stategrid binary.
var coreModules = []registry.Module{
	&basic.Module{},
	&inputs.Module{},
	&mathexpr.Module{},
	&geometry.Module{},
	&conditional.Module{},
	&sequence.Module{},
	&selection.Module{},
}
