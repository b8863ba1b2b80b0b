package discovery

import "github.com/privacypool/client-sdk/types"

// ProgressObserver receives one Progress report per page, after that
// page's checkpoint has been written; no reports are made within a page.
// A callback that panics is treated by the engine as a cancellation
// signal, exactly like an expired context.
type ProgressObserver interface {
	OnProgress(p types.Progress)
}

// ProgressFunc adapts a plain function to ProgressObserver.
type ProgressFunc func(types.Progress)

func (f ProgressFunc) OnProgress(p types.Progress) { f(p) }

// notifySafely invokes obs.OnProgress, converting a panic into a bool so
// the engine can fold it into its own cancellation path without a
// recovered callback corrupting engine state.
func notifySafely(obs ProgressObserver, p types.Progress) (panicked bool) {
	if obs == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			panicked = true
		}
	}()
	obs.OnProgress(p)
	return false
}
