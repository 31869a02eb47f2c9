package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/document"
	"github.com/specialistvlad/stategrid/internal/events"
	"github.com/specialistvlad/stategrid/internal/expr"
	"github.com/specialistvlad/stategrid/internal/update"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// ErrRejected is returned by Run when at least one requested update was
// rejected. The document state is still reported.
var ErrRejected = errors.New("update rejected")

// Run loads the document, applies every assignment in order and writes the
// resulting state to the app's output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	settings := a.config.Settings

	spec, err := a.loader.Load(ctx, a.config.DocPaths...)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	collector, err := a.collector(ctx)
	if err != nil {
		return err
	}
	doc, err := document.New(ctx, a.registry, spec,
		document.WithSeed(settings.Seed),
		document.WithAtomic(settings.Atomic),
		document.WithSubscriptionBuffer(settings.SubscriptionBuffer),
		document.WithCollector(collector),
	)
	if err != nil {
		return fmt.Errorf("failed to instantiate document: %w", err)
	}
	defer func() {
		if err := doc.Close(ctx); err != nil {
			a.logger.Warn("Closing the document failed.", "error", err)
		}
	}()
	a.logger.Info("Document loaded.", "document", doc.ID().String())

	var rejected []error
	for _, set := range a.config.Sets {
		if err := a.apply(ctx, doc, set); err != nil {
			var rej *update.RejectedError
			if !errors.As(err, &rej) {
				return err
			}
			a.logger.Warn("Update rejected.", "assignment", set.String(), "reason", rej.Reason.String(), "error", err)
			rejected = append(rejected, fmt.Errorf("%s: %w", set, err))
		}
	}

	states, err := snapshot(ctx, doc)
	if err != nil {
		return err
	}
	if settings.Output == "json" {
		err = writeJSON(a.outW, states)
	} else {
		err = writeText(a.outW, states)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if diags := doc.Diagnostics(); len(diags) > 0 {
		w := hcl.NewDiagnosticTextWriter(a.outW, nil, 78, false)
		if err := w.WriteDiagnostics(diags); err != nil {
			return fmt.Errorf("failed to write diagnostics: %w", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	if len(rejected) > 0 {
		return fmt.Errorf("%w: %w", ErrRejected, errors.Join(rejected...))
	}
	return nil
}

func (a *App) apply(ctx context.Context, doc *document.Document, set Assignment) error {
	id, err := doc.Lookup(set.Name)
	if err != nil {
		return fmt.Errorf("%s: %w", set, err)
	}
	desired, err := desiredValue(set.Source)
	if err != nil {
		return fmt.Errorf("%s: %w", set, err)
	}
	res, err := doc.RequestUpdate(ctx, id, set.Variable, desired, update.Options{Source: "cli"})
	if err != nil {
		return err
	}
	a.logger.Debug("Update applied.", "assignment", set.String(), "changed", len(res.Changed))
	return nil
}

// desiredValue evaluates constant sources and keeps the rest as symbolic
// expressions, so `x + 1` can be written into a math input.
func desiredValue(src string) (cty.Value, error) {
	syntax, diags := hclsyntax.ParseExpression([]byte(src), "assignment", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if len(expr.References(syntax)) > 0 {
		e, err := expr.Parse(src)
		if err != nil {
			return cty.NilVal, err
		}
		return value.Expr(e), nil
	}
	v, diags := expr.Evaluate(syntax, nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}

// collector logs every interaction and, when configured, forwards it to
// the socket.io endpoint.
func (a *App) collector(ctx context.Context) (events.Collector, error) {
	logged := logCollector{}
	cfg := a.config.Settings.Events
	if cfg.URL == "" {
		return logged, nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	remote, err := events.DialSocketIO(dialCtx, events.SocketIOOptions{
		URL:                cfg.URL,
		Namespace:          cfg.Namespace,
		Event:              cfg.Event,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect event collector: %w", err)
	}
	return closingFanout{Fanout: events.Fanout{logged, remote}, closer: remote}, nil
}

// logCollector writes each interaction to the context logger.
type logCollector struct{}

func (logCollector) Collect(ctx context.Context, e events.Event) error {
	ctxlog.FromContext(ctx).Info("Interaction recorded.",
		"target", e.Target.String(),
		"component", e.Component,
		"previous", value.Format(e.Previous),
		"new", value.Format(e.New),
		"source", e.SourceKind,
	)
	return nil
}

// closingFanout lets the document close the remote collector.
type closingFanout struct {
	events.Fanout
	closer interface{ Close() error }
}

func (c closingFanout) Close() error {
	return c.closer.Close()
}
