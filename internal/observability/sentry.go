package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Freeeeeet/studentia/internal/ctxutil"
)

func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureErrCtx отправляет ошибку с хабом запроса, если он есть в контексте
func CaptureErrCtx(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(captureTags(ctx, tags))
		hub.CaptureException(err)
	})
}

// captureTags добавляет имя операции из контекста, если тег op не задан явно
func captureTags(ctx context.Context, tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		out[k] = v
	}
	if _, set := out["op"]; !set {
		if op, ok := ctxutil.Op(ctx); ok {
			out["op"] = op
		}
	}
	return out
}
