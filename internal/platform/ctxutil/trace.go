package ctxutil

import "context"

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

type authorKey struct{}

// Author identifies the caller of an authoring route, taken from the bearer token subject.
type Author struct {
	Subject string
	Role    string
}

func WithAuthor(ctx context.Context, a *Author) context.Context {
	return context.WithValue(ctx, authorKey{}, a)
}

func GetAuthor(ctx context.Context) *Author {
	if ctx == nil {
		return nil
	}
	if a, ok := ctx.Value(authorKey{}).(*Author); ok {
		return a
	}
	return nil
}
