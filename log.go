package lrudict

import "go.uber.org/zap"

// Logger is the subset of *zap.Logger LRUDict uses. It exists so callers
// can pass a *zap.Logger directly (it satisfies this interface) without
// this package needing to know about zap.SugaredLogger or any other zap
// flavor.
type Logger interface {
	Warn(msg string, fields ...zap.Field)
}

// logBusyRejection reports a BusyError at Warn level: it always means the
// rejected operation did not run, which is worth a caller's attention
// even though it is not itself a crash.
func (d *LRUDict[K, V]) logBusyRejection(op string) {
	if d.logger == nil {
		return
	}
	d.logger.Warn("lrudict: rejected reentrant write", zap.String("op", op))
}

// logSwallowedCallbackError is the "unraisable" hook of §4.6/§7: a
// callback error that must not interrupt the drain is reported here and
// dropped. Without a logger installed, such errors are silently
// discarded, matching a callback that doesn't bother returning an error
// at all.
func (d *LRUDict[K, V]) logSwallowedCallbackError(err error) {
	if d.logger == nil {
		return
	}
	d.logger.Warn("lrudict: callback error swallowed", zap.Error(err))
}
