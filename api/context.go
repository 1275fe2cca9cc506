package api

import "context"

func withActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxActor, actor)
}

func actorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(ctxActor).(string)
	return actor
}
