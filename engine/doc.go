// Package engine provides Engine: the top-level driver combining a
// Reservoir, Evaluator, monitor Registry, Accumulator, and Dispatcher
// into the single type a host application constructs and ticks.
//
// # Architecture
//
// Engine owns one instance each of [reservoir.Reservoir],
// [expr.Evaluator], [monitor.Registry], [accumulator.Accumulator], and
// [dispatcher.Dispatcher], wiring them together so a host only ever
// touches Engine's methods directly. Status and expression registration,
// hook wiring, and chunk removal all cascade through every owned
// component from one call; [Engine.Accumulate] queues a deferred write
// and [Engine.Tick] flushes the accumulator into the reservoir before
// running one dispatch pass.
//
// # Thread Safety
//
// An Engine is confined to a single goroutine, by contract: none of its
// methods take a lock, matching the single-threaded cooperative model
// every owned component assumes.
//
// # Usage
//
//	e, err := engine.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := e.RegisterStatus(chunkKey, statusKey, status.NewBool(false)); err != nil {
//	    log.Fatal(err)
//	}
//	e.Accumulate(accumulator.Entry{
//	    Assignment: reservoir.StatusAssignment{Key: statusKey, Op: status.OpCopy, RHS: reservoir.Literal(status.NewBool(true))},
//	})
//	if err := e.Tick(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Types
//
// Engine returns the owning package's sentinel errors unchanged
// (reservoir.ErrDuplicateKey, expr.ErrUnknownSubExpression,
// dispatcher.ErrReentrantDispatch, and so on) alongside its own
// [ConfigError] for option-resolution failures and [ErrUnknownChunk] for
// an unregistered chunk key.
package engine
