// Package monitor implements StatusMonitor, ExpressionMonitor, and Hook:
// the dependency-tracking layer that lets the Dispatcher know which
// expressions need re-evaluating after a tick's writes, and which
// registered delegates care about the result (spec §4.5, §3's Delegate).
package monitor

import "github.com/joeycumines/go-rulesengine/ids"

// Delegate is a host callback invoked when a Hook's registered transition
// predicate matches. Hosts own the Delegate's lifetime; a Hook only holds
// a weak reference to it (see Hook), so an unreferenced Delegate is
// collected the same way an unreferenced host object would be, without
// the engine needing an explicit Unregister call.
type Delegate struct {
	Invoke func(key ids.ExpressionKey, transition uint8)
}
