package actorutil

import (
	"log/slog"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var slogLevels = map[zapcore.Level]slog.Level{
	zapcore.DebugLevel:  slog.LevelDebug,
	zapcore.InfoLevel:   slog.LevelInfo,
	zapcore.WarnLevel:   slog.LevelWarn,
	zapcore.ErrorLevel:  slog.LevelError,
	zapcore.DPanicLevel: slog.LevelError,
	zapcore.PanicLevel:  slog.LevelError,
	zapcore.FatalLevel:  slog.LevelError,
}

// PipeToSelfWithRecover delivers the result of future to the actor itself.
// A failed future is turned into a message by mapFn.
func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			msg = mapFn(err)
		}
		ctx.Send(ctx.Self(), msg)
	})
}

// NewActorSystemWithZapLogger routes the actor system logs through logger at the same level.
func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	writer := zap.NewStdLog(logger).Writer()
	level, ok := slogLevels[logger.Level()]
	if !ok {
		level = slog.LevelInfo
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(writer, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

func PublishAll(eventStream *eventstream.EventStream, events []any) {
	for _, ev := range events {
		eventStream.Publish(ev)
	}
}
