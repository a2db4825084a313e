package logger

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

type Fields map[string]any

var log = zap.NewNop().Sugar()

var sensitiveKeys = map[string]struct{}{
	"password":   {},
	"answer":     {},
	"secret":     {},
	"passphrase": {},
	"pin":        {},
}

// Init installs the process logger. debug selects the human-readable
// development encoder; otherwise JSON production output is used.
func Init(debug bool) error {
	var l *zap.Logger
	var err error
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	log = l.Sugar()
	return nil
}

func Sync() {
	_ = log.Sync()
}

func Info(message string, fields Fields) {
	log.Infow(message, flatten(fields)...)
}

func Error(message string, err error, fields Fields) {
	kv := flatten(fields)
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	log.Errorw(message, kv...)
}

// SanitizePayload masks sensitive keys in an arbitrary payload before it is
// logged. The payload is round-tripped through JSON so nested maps and
// slices are covered.
func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}
	return sanitizeValue(data)
}

func flatten(fields Fields) []any {
	kv := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		if isSensitiveKey(key) {
			kv = append(kv, key, "******")
			continue
		}
		kv = append(kv, key, value)
	}
	return kv
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "_", ""))
	for sensitive := range sensitiveKeys {
		if strings.Contains(normalized, sensitive) {
			return true
		}
	}
	return false
}
