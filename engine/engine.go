package engine

import (
	"fmt"

	"github.com/joeycumines/go-rulesengine/accumulator"
	"github.com/joeycumines/go-rulesengine/dispatcher"
	"github.com/joeycumines/go-rulesengine/expr"
	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/kleene"
	"github.com/joeycumines/go-rulesengine/monitor"
	"github.com/joeycumines/go-rulesengine/reservoir"
	"github.com/joeycumines/go-rulesengine/status"
)

// Engine combines a Reservoir, Evaluator, monitor Registry, Accumulator,
// and Dispatcher into the single type a host constructs and drives via
// Tick (spec §5.10).
type Engine struct {
	reservoir   *reservoir.Reservoir
	evaluator   *expr.Evaluator
	registry    *monitor.Registry
	accumulator *accumulator.Accumulator
	dispatcher  *dispatcher.Dispatcher
	logger      Logger
}

// New constructs an Engine, applying opts over the default configuration.
func New(opts ...Option) (*Engine, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	r := reservoir.New()
	r.SetEpsilonScale(cfg.epsilonScale)
	ev := expr.New()
	reg := monitor.NewRegistry()
	acc := accumulator.New()
	d := dispatcher.New(reg, ev)
	if cfg.hookCacheCapacity > 0 {
		d.GrowCache(cfg.hookCacheCapacity)
	}

	return &Engine{
		reservoir:   r,
		evaluator:   ev,
		registry:    reg,
		accumulator: acc,
		dispatcher:  d,
		logger:      cfg.logger,
	}, nil
}

func (e *Engine) log(level LogLevel, category, message string, err error) {
	if !e.logger.IsEnabled(level) {
		return
	}
	e.logger.Log(LogEntry{Level: level, Category: category, Message: message, Err: err})
}

// RegisterStatus allocates and initializes a new status within chunkKey.
func (e *Engine) RegisterStatus(chunkKey ids.ChunkKey, key ids.StatusKey, initial status.Value) error {
	if err := e.reservoir.RegisterStatus(chunkKey, key, initial); err != nil {
		e.log(LevelDebug, "reservoir", "RegisterStatus failed", err)
		return err
	}
	return nil
}

// FindStatus reads key's current value.
func (e *Engine) FindStatus(key ids.StatusKey) (status.Value, bool) {
	return e.reservoir.FindStatus(key)
}

// FindTransition reports whether key's value changed since the last tick.
func (e *Engine) FindTransition(key ids.StatusKey) kleene.Ternary {
	return e.reservoir.FindTransition(key)
}

// FindBitFormat returns key's public bit-format byte (spec §6).
func (e *Engine) FindBitFormat(key ids.StatusKey) (byte, bool) {
	prop, ok := e.reservoir.FindProperty(key)
	if !ok {
		return 0, false
	}
	return prop.BitFormat(), true
}

// RegisterSubExpression registers key as the Kleene combination of
// already-registered expressions.
func (e *Engine) RegisterSubExpression(key ids.ExpressionKey, chunkKey ids.ChunkKey, logic expr.Logic, elements []expr.SubExpressionElement) error {
	if err := e.evaluator.RegisterSubExpression(key, chunkKey, logic, elements); err != nil {
		e.log(LevelDebug, "expr", "RegisterSubExpression failed", err)
		return err
	}
	return nil
}

// RegisterStatusTransition registers key as the Kleene combination of
// status-transition elements.
func (e *Engine) RegisterStatusTransition(key ids.ExpressionKey, chunkKey ids.ChunkKey, logic expr.Logic, elements []expr.StatusTransitionElement) error {
	if err := e.evaluator.RegisterStatusTransition(key, chunkKey, logic, elements); err != nil {
		e.log(LevelDebug, "expr", "RegisterStatusTransition failed", err)
		return err
	}
	return nil
}

// RegisterStatusComparison registers key as the Kleene combination of
// status-comparison elements.
func (e *Engine) RegisterStatusComparison(key ids.ExpressionKey, chunkKey ids.ChunkKey, logic expr.Logic, elements []expr.StatusComparisonElement) error {
	if err := e.evaluator.RegisterStatusComparison(key, chunkKey, logic, elements); err != nil {
		e.log(LevelDebug, "expr", "RegisterStatusComparison failed", err)
		return err
	}
	return nil
}

// FindExpression returns key's registered Expression record.
func (e *Engine) FindExpression(key ids.ExpressionKey) (expr.Expression, bool) {
	return e.evaluator.FindExpression(key)
}

// RegisterHook wires predicate/priority/delegate onto key, registering
// key's dependencies on first use.
func (e *Engine) RegisterHook(key ids.ExpressionKey, predicate uint8, priority int32, delegate *monitor.Delegate) error {
	if err := e.dispatcher.RegisterHook(e.reservoir, key, predicate, priority, delegate); err != nil {
		e.log(LevelWarn, "hook", "RegisterHook rejected", err)
		return err
	}
	return nil
}

// UnregisterHook removes every hook on key whose delegate is delegate.
func (e *Engine) UnregisterHook(key ids.ExpressionKey, delegate *monitor.Delegate) error {
	if err := e.dispatcher.UnregisterHook(key, delegate); err != nil {
		e.log(LevelWarn, "hook", "UnregisterHook rejected", err)
		return err
	}
	return nil
}

// FindHook returns the hooks registered on key's expression. A hook whose
// delegate has been collected stays in the list until the next Tick or
// Shrink sweeps it.
func (e *Engine) FindHook(key ids.ExpressionKey) ([]*monitor.Hook, bool) {
	em, ok := e.registry.FindExpressionMonitor(key)
	if !ok {
		return nil, false
	}
	out := make([]*monitor.Hook, len(em.Hooks))
	copy(out, em.Hooks)
	return out, true
}

// RemoveChunk cascades a chunk removal through the reservoir, evaluator,
// and monitor registry, failing with ErrUnknownChunk if chunkKey was
// never registered.
func (e *Engine) RemoveChunk(chunkKey ids.ChunkKey) error {
	if _, ok := e.reservoir.FindChunk(chunkKey); !ok {
		return ErrUnknownChunk
	}
	if err := e.dispatcher.RemoveChunk(e.reservoir, chunkKey); err != nil {
		e.log(LevelWarn, "dispatch", "RemoveChunk rejected", err)
		return err
	}
	e.log(LevelInfo, "reservoir", "chunk removed", nil)
	return nil
}

// Accumulate enqueues a deferred write, applied on the first Tick its
// DelayPolicy permits.
func (e *Engine) Accumulate(entry accumulator.Entry) {
	e.accumulator.Enqueue(entry)
}

// Tick flushes every accumulated write permitted by its DelayPolicy into
// the reservoir, then runs one dispatch pass (spec §2's control flow).
func (e *Engine) Tick() error {
	applied := e.accumulator.Flush(e.reservoir)
	if err := e.dispatcher.Dispatch(e.reservoir); err != nil {
		e.log(LevelWarn, "dispatch", "Tick rejected", err)
		return err
	}
	if e.logger.IsEnabled(LevelDebug) {
		e.logger.Log(LogEntry{Level: LevelDebug, Category: "dispatch", Message: fmt.Sprintf("tick completed, %d accumulator entries applied", applied)})
	}
	return nil
}

// Shrink forces an out-of-tick dead-hook sweep and monitor prune.
func (e *Engine) Shrink() {
	e.dispatcher.Shrink()
}
