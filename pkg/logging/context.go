package logging

import "context"

type contextKey int

const fieldsKey contextKey = iota

// WithFields returns a context carrying structured fields that every log call
// made with this context will include.
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	if existing, ok := GetFields(ctx); ok {
		merged := make(map[string]interface{}, len(existing)+len(fields))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
		fields = merged
	}
	return context.WithValue(ctx, fieldsKey, fields)
}

// GetFields returns the structured fields attached to the context, if any.
func GetFields(ctx context.Context) (map[string]interface{}, bool) {
	fields, ok := ctx.Value(fieldsKey).(map[string]interface{})
	return fields, ok
}
