// Package clog carries per-request log attributes through a context and
// renders them from slog handlers.
package clog

import (
	"context"
	"maps"
	"sync"
)

// Keys under which AddError and AddStack record a failure.
const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"
)

// attrBag is the mutable attribute set shared by everything handling one
// request. Nested maps merge key by key instead of replacing each other.
type attrBag struct {
	mu    sync.Mutex
	attrs map[string]any
}

type bagKey struct{}

// ContextWithSlog installs an empty attribute bag. Attributes added to a
// context without one are dropped.
func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, bagKey{}, &attrBag{attrs: map[string]any{}})
}

func bagFrom(ctx context.Context) *attrBag {
	b, _ := ctx.Value(bagKey{}).(*attrBag)
	return b
}

func (b *attrBag) merge(src map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	deepMerge(b.attrs, src)
}

func (b *attrBag) snapshot() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.attrs)
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if cur, ok := dst[k].(map[string]any); ok {
			deepMerge(cur, sub)
			continue
		}
		dst[k] = sub
	}
}

func AddAttribute(ctx context.Context, key string, value any) {
	AddAttributes(ctx, map[string]any{key: value})
}

func AddAttributes(ctx context.Context, attrs map[string]any) {
	if b := bagFrom(ctx); b != nil {
		b.merge(attrs)
	}
}

// AddError records err for the access log line of the current request.
func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

// GetAttributes returns a shallow copy of the bag, or nil when ctx has none.
func GetAttributes(ctx context.Context) map[string]any {
	b := bagFrom(ctx)
	if b == nil {
		return nil
	}
	return b.snapshot()
}
