package dispatcher

import "errors"

// ErrReentrantDispatch is returned by Dispatch, RegisterHook,
// UnregisterHook, and RemoveChunk when called re-entrantly — from inside
// a delegate invoked by a dispatch already in progress on the same call
// stack (spec §7, §4.6).
var ErrReentrantDispatch = errors.New("dispatcher: re-entrant call during dispatch")
