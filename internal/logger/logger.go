package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int32(l))
	}
}

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// SetLevel задает минимальный уровень, который попадет в лог
func SetLevel(l Level) {
	currentLevel.Store(int32(l))
}

func GetLevel() Level {
	return Level(currentLevel.Load())
}

// ParseLevel понимает DEBUG, INFO, WARN, ERROR (регистр не важен).
// Неизвестное значение дает LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(ctx context.Context, msg string, fields ...any) {
	output(ctx, LevelDebug, msg, fields)
}

func Info(ctx context.Context, msg string, fields ...any) {
	output(ctx, LevelInfo, msg, fields)
}

func Warn(ctx context.Context, msg string, fields ...any) {
	output(ctx, LevelWarn, msg, fields)
}

// Error пишет сообщение и ошибку через двоеточие. err может быть nil.
func Error(ctx context.Context, err error, msg string, fields ...any) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	output(ctx, LevelError, msg, fields)
}

type ctxKey struct{}

// WithFields добавляет поля, которые будут выводиться во всех сообщениях с этим контекстом
func WithFields(ctx context.Context, fields ...any) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]any)
	merged := make([]any, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

func output(ctx context.Context, level Level, msg string, fields []any) {
	if level < GetLevel() {
		return
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)

	if ctx != nil {
		if ctxFields, ok := ctx.Value(ctxKey{}).([]any); ok {
			writeFields(&b, ctxFields)
		}
	}
	writeFields(&b, fields)

	log.Print(b.String())
}

func writeFields(b *strings.Builder, fields []any) {
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if i+1 >= len(fields) {
			fmt.Fprintf(b, " %s=<missing>", key)
			break
		}
		fmt.Fprintf(b, " %s=%v", key, fields[i+1])
	}
}
