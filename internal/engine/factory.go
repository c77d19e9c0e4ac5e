package engine

import (
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/store"
)

// New builds the analysis engine from config. writer may be nil, in which
// case every rationale comes from the template.
func New(cfg *store.Config, writer interfaces.RationaleWriter) *Engine {
	return newEngine(writer, Options{
		MinATR:           cfg.Engine.MinATR,
		RationaleTimeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Location:         cfg.Location(),
	})
}

// NewWithOptions builds an engine without a config file.
func NewWithOptions(writer interfaces.RationaleWriter, opts Options) *Engine {
	return newEngine(writer, opts)
}
