package logger

import "context"

// LoggerInterface is the structured subset the contact packages log through.
type LoggerInterface interface {
	Debugw(string, ...any)
	Infow(string, ...any)
	Warnw(string, ...any)
	Errorw(string, ...any)

	DebugwCtx(context.Context, string, ...any)
	InfowCtx(context.Context, string, ...any)
	WarnwCtx(context.Context, string, ...any)
	ErrorwCtx(context.Context, string, ...any)

	With(...any) LoggerInterface
	SafeSync()
}
