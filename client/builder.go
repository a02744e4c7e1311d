package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/metrics"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/tree"
)

// Builder materializes a client widget tree from a tree description and
// holds on to its root.
type Builder struct {
	app *Application

	mu   sync.Mutex
	root Widget
}

type buildItem struct {
	desc   *tree.Description
	parent Widget
}

// Build creates, initializes and binds one widget per description node,
// parents before children and siblings in document order. The pipes are
// crossed: each widget sends on the node's RecvPipe and receives on its
// SendPipe.
//
// If any node fails, every widget built so far is destroyed and the error
// is returned. Build fails if the Builder already holds a tree.
func (b *Builder) Build(ctx context.Context, desc *tree.Description) (Widget, error) {
	start := time.Now()
	defer func() {
		metrics.BuildDuration.Observe(time.Since(start).Seconds())
	}()

	if b.app.isClosed() {
		return nil, errAppClosed()
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	ctx, span := b.app.tracer.Start(ctx, "client.Build", trace.WithAttributes(
		attribute.String("enaml.toolkit", b.app.toolkit.Name()),
		attribute.String("enaml.root", desc.Widget),
	))
	defer span.End()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.root != nil {
		err := enamlerrors.New(enamlerrors.ErrCodeInvalidState, "builder already holds a tree")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var root Widget
	count := 0
	stack := []buildItem{{desc, nil}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		w, err := b.buildOne(ctx, item)
		if err != nil {
			if w != nil {
				w.Destroy()
			}
			if root != nil {
				root.Destroy()
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			b.app.log.Warn("build failed", slog.String("widget", item.desc.Widget), slog.Any("error", err))
			return nil, err
		}
		if root == nil {
			root = w
		}
		count++

		for i := len(item.desc.Children) - 1; i >= 0; i-- {
			stack = append(stack, buildItem{item.desc.Children[i], w})
		}
	}

	b.root = root
	span.SetAttributes(attribute.Int("enaml.widgets", count))
	b.app.log.Debug("tree built", slog.String("root", desc.Widget), slog.Int("widgets", count))
	return root, nil
}

// buildOne takes one node from uncreated to live. On failure it returns
// the partially built widget, if any, so the caller can destroy it.
func (b *Builder) buildOne(ctx context.Context, item buildItem) (Widget, error) {
	if err := ctx.Err(); err != nil {
		return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeInvalidState, "build cancelled")
	}

	d := item.desc
	w, err := b.app.toolkit.New(d.Widget)
	if err != nil {
		return nil, err
	}
	base := w.Component()
	base.attach(b.app, d.Widget, d.RecvPipe, d.SendPipe, item.parent)

	var parentHandle native.Object
	if item.parent != nil {
		parentHandle = item.parent.Component().Handle()
	}

	if err := w.Create(parentHandle); err != nil {
		return w, enamlerrors.Wrap(err, enamlerrors.ErrCodeNativeCreate, "create failed").
			WithContext("widget", d.Widget)
	}
	if s := base.State(); s != Created {
		return w, errState(base.id, s, Created)
	}

	if err := w.Initialize(d.Attrs.Clone()); err != nil {
		return w, enamlerrors.Wrap(err, enamlerrors.GetCode(err), "initialize failed").
			WithContext("widget", d.Widget)
	}
	if err := base.advance(Created, Initialized); err != nil {
		return w, err
	}

	if err := w.Bind(); err != nil {
		return w, enamlerrors.Wrap(err, enamlerrors.GetCode(err), "bind failed").
			WithContext("widget", d.Widget)
	}
	if err := base.advance(Initialized, Bound); err != nil {
		return w, err
	}

	if err := base.advance(Bound, Live); err != nil {
		return w, err
	}
	base.recv.SetCallback(base.deliver)
	b.app.index(w)
	metrics.WidgetsLive.WithLabelValues(b.app.toolkit.Name()).Inc()

	if item.parent != nil {
		item.parent.Component().addChild(w)
	}
	return w, nil
}

// Root returns the root of the built tree, or nil.
func (b *Builder) Root() Widget {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.root
}

// Teardown destroys the held tree. The Builder can then build again.
func (b *Builder) Teardown() error {
	b.mu.Lock()
	root := b.root
	b.root = nil
	b.mu.Unlock()

	if root == nil {
		return nil
	}
	return root.Destroy()
}
