// Package renew implements self-healing logical handles over a database
// driver's connections and cursors.
//
// A logical Connection or Cursor owns exactly one current physical handle
// (the slot). When an operation finds the physical handle closed, or a
// driver call fails with a closed-handle error, the layer rebuilds the
// physical handle from its stored construction spec, replaces the slot
// contents (closing the displaced handle), and retries the failed call
// exactly once. Callers never see the swap: every read goes through the
// current physical handle.
//
// Only closed-handle conditions heal. Any other driver error propagates to
// the caller verbatim, with no retry.
//
// The layer provides no concurrency control: a given connection/cursor chain
// must be driven by one goroutine at a time.
package renew
