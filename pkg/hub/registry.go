package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/clara-assistant/modelpull/pkg/logging"
)

// TransferState tracks one in-flight file transfer. The cancelled flag is
// observed cooperatively by the download loop between chunks; the context
// cancel unblocks any pending network read.
type TransferState struct {
	TargetPath string

	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// NewTransferState binds a transfer to its cancel function.
func NewTransferState(targetPath string, cancel context.CancelFunc) *TransferState {
	return &TransferState{TargetPath: targetPath, cancel: cancel}
}

// Cancelled reports whether a cancel was requested for this transfer.
func (s *TransferState) Cancelled() bool {
	return s.cancelled.Load()
}

// markCancelled sets the cooperative flag and cancels the transfer context.
func (s *TransferState) markCancelled() {
	s.cancelled.Store(true)
	if s.cancel != nil {
		s.cancel()
	}
}

// TransferRegistry tracks active transfers by filename so callers can cancel
// them out of band. Filenames are the registry key: two concurrent transfers
// of the same filename are rejected as duplicates.
type TransferRegistry struct {
	mu        sync.Mutex
	transfers map[string]*TransferState
	logger    logging.Interface
}

// NewTransferRegistry returns an empty registry.
func NewTransferRegistry(logger logging.Interface) *TransferRegistry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TransferRegistry{
		transfers: make(map[string]*TransferState),
		logger:    logger,
	}
}

// Register records an in-flight transfer. A duplicate filename is rejected:
// the caller treats it as an already-exists condition.
func (r *TransferRegistry) Register(fileName string, state *TransferState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transfers[fileName]; ok {
		return NewAlreadyExistsError(fileName)
	}
	r.transfers[fileName] = state

	r.logger.WithField("file", fileName).Debug("Registered active transfer")
	return nil
}

// Cancel requests cooperative cancellation of the named transfer. It returns
// false when no such transfer is active; that is not an error.
func (r *TransferRegistry) Cancel(fileName string) bool {
	r.mu.Lock()
	state, ok := r.transfers[fileName]
	r.mu.Unlock()

	if !ok {
		r.logger.WithField("file", fileName).Debug("Cancel requested for unknown transfer")
		return false
	}

	state.markCancelled()
	r.logger.WithField("file", fileName).Info("Cancel requested for active transfer")
	return true
}

// Unregister removes the named transfer. Unregistering a missing entry is a
// no-op so cleanup paths can call it unconditionally.
func (r *TransferRegistry) Unregister(fileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transfers, fileName)
}

// InFlight returns the filenames of all active transfers.
func (r *TransferRegistry) InFlight() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.transfers))
	for name := range r.transfers {
		names = append(names, name)
	}
	return names
}

// Len returns the number of active transfers.
func (r *TransferRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transfers)
}
