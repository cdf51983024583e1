package main

import (
	"fmt"
	"io"
	"sync"

	"jobagg-engine/internal/events"
)

// watchProgress copies hub events to w, one JSON object per line. The
// returned func stops the watcher after draining what was queued.
func watchProgress(hub *events.Hub, w io.Writer) func() {
	ch := hub.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for evt := range ch {
			fmt.Fprintln(w, evt)
		}
	}()
	return func() {
		hub.Unsubscribe(ch)
		wg.Wait()
	}
}
