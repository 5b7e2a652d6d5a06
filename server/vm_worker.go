package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/tusl/vm"
)

// ErrWorkerStopped is returned by Call after Stop.
var ErrWorkerStopped = errors.New("vm worker stopped")

type job struct {
	fn   func(*vm.VM) any
	done chan outcome
}

type outcome struct {
	value any
	err   error
}

// VMWorker owns a VM and runs every request against it on one goroutine.
// A tusl VM keeps its stacks, input and handler chain in the VM value, so
// two callers must never touch it at once.
type VMWorker struct {
	vm   *vm.VM
	jobs chan job
	quit chan struct{}
	once sync.Once
}

// NewVMWorker starts a worker for v.
func NewVMWorker(v *vm.VM) *VMWorker {
	w := &VMWorker{
		vm:   v,
		jobs: make(chan job, 16),
		quit: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *VMWorker) loop() {
	for {
		select {
		case j := <-w.jobs:
			j.done <- w.run(j.fn)
		case <-w.quit:
			return
		}
	}
}

// run calls fn, turning an escaped panic into an error so one bad request
// cannot take the server down.
func (w *VMWorker) run(fn func(*vm.VM) any) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.err = fmt.Errorf("vm worker: %v", r)
		}
	}()
	o.value = fn(w.vm)
	return o
}

// Call runs fn on the worker goroutine and waits for its result.
func (w *VMWorker) Call(ctx context.Context, fn func(*vm.VM) any) (any, error) {
	j := job{fn: fn, done: make(chan outcome, 1)}
	select {
	case w.jobs <- j:
	case <-w.quit:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case o := <-j.done:
		return o.value, o.err
	case <-w.quit:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop ends the worker. Calls after Stop fail with ErrWorkerStopped.
func (w *VMWorker) Stop() {
	w.once.Do(func() { close(w.quit) })
}
