// Package hcl_adapter loads documents written in HCL.
//
// Every block is a component: the block type is the component type and the
// optional label is its name. Attributes become component attributes,
// literals when they reference nothing and expressions otherwise. The
// `content` attribute lists literal and reference children; nested blocks
// are component children. Children keep their source order.
//
//	number "n" {
//	  default = 3
//	}
//	text "greeting" {
//	  content = ["n is ", n]
//	}
package hcl_adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/fsutil"
)

// RootType is the type of the implicit root component of a document.
const RootType = "document"

// Loader reads documents from HCL files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL document loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load parses every .hcl file under the given paths, in lexical path
// order, into the children of one document root.
func (l *Loader) Load(ctx context.Context, paths ...string) (*component.Spec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	root := component.New(RootType)
	for _, file := range files {
		f, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.translateInto(ctx, root, f); err != nil {
			return nil, fmt.Errorf("failed to load HCL file %s: %w", file, err)
		}
	}
	logger.Debug("HCL loading complete.", "files", len(files), "children", len(root.Children))
	return root, nil
}

// LoadSource parses one document held in memory. The filename is used in
// diagnostics.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*component.Spec, error) {
	f, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	root := component.New(RootType)
	if err := l.translateInto(ctx, root, f); err != nil {
		return nil, fmt.Errorf("failed to load HCL source %s: %w", filename, err)
	}
	return root, nil
}

// Diagnostics extracts the hcl diagnostics wrapped in a load error.
func Diagnostics(err error) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if errors.As(err, &diags) {
		return diags
	}
	return nil
}
