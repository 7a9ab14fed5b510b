package common

import "go.uber.org/zap"

// Tracer emits the per-call input, request and response records.
// The zero value discards everything.
type Tracer struct {
	Logger *zap.Logger
}

func NewTracer(logger *zap.Logger) Tracer {
	return Tracer{Logger: logger}
}

func (t Tracer) L() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

func (t Tracer) LogInputs(action string, inputs map[string]interface{}) {
	t.L().Debug("inputs", zap.String("action", action), zap.Any("inputs", inputs))
}

func (t Tracer) LogRequest(action string, request interface{}) {
	t.L().Debug("request", zap.String("action", action), zap.Any("request", request))
}

func (t Tracer) LogResponse(action string, response interface{}) {
	t.L().Debug("response", zap.String("action", action), zap.Any("response", response))
}
