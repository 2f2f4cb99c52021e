package actions

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/intent"
)

func (d *Dispatcher) generateUI(params intent.Params, log *zap.Logger) *Result {
	kind := params.StringOr("type", intent.DefaultUIType)
	if d.deps.UI == nil {
		return failed(intent.UI, fmt.Sprintf("Failed to generate %s: no renderer", kind))
	}

	markup, err := d.deps.UI.Render(kind, params.Map("data"))
	if err != nil {
		log.Warn("ui render failed", zap.String("type", kind), zap.Error(err))
		return failed(intent.UI, fmt.Sprintf("Failed to generate %s: %v", kind, err))
	}

	return succeeded(intent.UI, fmt.Sprintf("Generated %s UI element", kind), UIData{HTML: markup, Type: kind})
}
