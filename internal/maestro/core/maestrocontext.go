package core

import (
	"fmt"
	"time"

	"stagedoor/pkg/client"
	"stagedoor/pkg/logger"
)

// MaestroContext carries a flow's state between steps. Input holds the raw
// request payload, Process holds intermediate results keyed by step, and
// Output is what the caller gets back.
type MaestroContext struct {
	Input   map[string]any
	Process map[string]any
	Output  map[string]any
	Client  *client.Client
	Log     *logger.Logger
}

func NewMaestroContext(input map[string]any, client *client.Client, log *logger.Logger) *MaestroContext {
	return &MaestroContext{
		Input:   input,
		Process: make(map[string]any),
		Output:  make(map[string]any),
		Client:  client,
		Log:     log,
	}
}

func (ctx *MaestroContext) ExtractString(key string) string {
	if raw, ok := ctx.Input[key]; ok {
		if str, ok := raw.(string); ok {
			return str
		}
	}
	return ""
}

func (ctx *MaestroContext) ExtractBool(key string) bool {
	if raw, ok := ctx.Input[key]; ok {
		if b, ok := raw.(bool); ok {
			return b
		}
	}
	return false
}

func (ctx *MaestroContext) ExtractStringList(key string) []string {
	if list, ok := ctx.Input[key].([]string); ok {
		return list
	}
	items, ok := ctx.Input[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func (ctx *MaestroContext) ExtractTime(key string) (time.Time, error) {
	raw, ok := ctx.Input[key]
	if !ok {
		return time.Time{}, MissingParamErr(key)
	}
	if t, ok := raw.(time.Time); ok {
		return t, nil
	}
	str, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("param [%v] is not a timestamp", key)
	}
	return time.Parse(time.RFC3339, str)
}
