package bootstrap

import (
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/gary-dev/gary-install/internal/logging"
)

// InterruptedExitCode is the process status after SIGINT or SIGTERM.
const InterruptedExitCode = 130

var (
	signalNotify = signal.Notify
	signalStop   = signal.Stop
)

// registry tracks resources that must be released if the run is cut short.
// Releases must be idempotent; the normal path and the signal handler may
// both reach the same resource.
type registry struct {
	mu    sync.Mutex
	next  int
	items map[int]cleanupItem
}

type cleanupItem struct {
	name    string
	release func() error
}

func newRegistry() *registry {
	return &registry{items: map[int]cleanupItem{}}
}

// add registers release and returns a function that unregisters it.
func (r *registry) add(name string, release func() error) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.items[id] = cleanupItem{name: name, release: release}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.items, id)
	}
}

// releaseAll releases every registered resource, newest first, and empties
// the registry.
func (r *registry) releaseAll() {
	r.mu.Lock()
	ids := make([]int, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	items := make([]cleanupItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, r.items[id])
		delete(r.items, id)
	}
	r.mu.Unlock()

	log := logging.GetLogger("bootstrap")
	for _, item := range items {
		if err := item.release(); err != nil {
			log.Warn().Err(err).Str("resource", item.name).Msg("release failed")
			continue
		}
		log.Debug().Str("resource", item.name).Msg("released")
	}
}

// len reports how many resources are still held.
func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// watch releases everything and calls exit on SIGINT or SIGTERM. The
// returned stop function ends the watch.
func (r *registry) watch(onSignal func(os.Signal), exit func(int)) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signalNotify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log := logging.GetLogger("bootstrap")
			log.Warn().Str("signal", sig.String()).Msg("interrupted; releasing resources")
			r.releaseAll()
			if onSignal != nil {
				onSignal(sig)
			}
			exit(InterruptedExitCode)
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signalStop(sigs)
			close(done)
		})
	}
}
