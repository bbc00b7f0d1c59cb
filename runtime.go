package dimble

import "sync"

// tensorRuntime models the once-only-initialised handle the external
// tensor reader needs. gorgonia.org/tensor has no process-wide runtime
// to bind to (unlike the torch runtime this was carried over from), but
// the lazily initialised, idempotent singleton shape is kept so that a
// future backend requiring real setup (GPU context, thread pool sizing)
// has a single well-defined place to do it.
type tensorRuntime struct{}

var (
	runtimeOnce   sync.Once
	globalRuntime *tensorRuntime
)

// tensorRuntimeHandle returns the process-wide tensor runtime handle,
// initialising it on first use.
func tensorRuntimeHandle() *tensorRuntime {
	runtimeOnce.Do(func() {
		globalRuntime = &tensorRuntime{}
	})
	return globalRuntime
}
