// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"os"
	"sync"
	"syscall"
)

// onInterrupt calls fn for every SIGINT or SIGTERM until the returned stop
// function is called.
func onInterrupt(deps *Deps, fn func(os.Signal)) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	deps.Signals(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case sig := <-sigCh:
				fn(sig)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			deps.StopSignals(sigCh)
			close(done)
			wg.Wait()
		})
	}
}
