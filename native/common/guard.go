package common

import (
	"errors"
	"sync/atomic"
)

var (
	ErrModulePaused  = errors.New("module paused")
	ErrReentrantCall = errors.New("call already in progress")
)

// PauseView reports whether a named module has been administratively paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Latch is a call-in-progress flag wrapped around mutating entry points. A
// nested invocation while a call holds the latch fails with ErrReentrantCall
// instead of observing intermediate state.
type Latch struct {
	busy atomic.Bool
}

// Enter acquires the latch. Callers must pair every successful Enter with an
// Exit on all return paths.
func (l *Latch) Enter() error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

// Exit releases the latch.
func (l *Latch) Exit() {
	l.busy.Store(false)
}

// Busy reports whether a call currently holds the latch.
func (l *Latch) Busy() bool {
	return l.busy.Load()
}
