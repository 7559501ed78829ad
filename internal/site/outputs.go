package site

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// output is one file of the built site: generated bytes or a file to copy.
type output struct {
	owner string
	data  []byte
	src   string
}

// outputSet collects the site's files keyed by output-relative path. It is
// safe for concurrent use by render workers.
type outputSet struct {
	mu    sync.Mutex
	files map[string]output
}

func newOutputSet() *outputSet {
	return &outputSet{files: make(map[string]output)}
}

// add registers generated content. Two generators claiming the same path
// is an error.
func (o *outputSet) add(rel, owner string, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, taken := o.files[rel]; taken {
		return fmt.Errorf("output path %s produced by both %s and %s", rel, prev.owner, owner)
	}
	o.files[rel] = output{owner: owner, data: data}
	return nil
}

// addIfAbsent registers generated content unless the path is taken.
func (o *outputSet) addIfAbsent(rel, owner string, data []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, taken := o.files[rel]; taken {
		slog.Warn("Skipping output that would overwrite another",
			logfields.Output(rel), slog.String("owner", owner), slog.String("existing", prev.owner))
		return false
	}
	o.files[rel] = output{owner: owner, data: data}
	return true
}

// copy registers a file to copy verbatim. Existing entries win.
func (o *outputSet) copy(rel, src string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, taken := o.files[rel]; taken {
		slog.Debug("Generated output shadows copied file",
			logfields.Output(rel), logfields.Path(src), slog.String("existing", prev.owner))
		return false
	}
	o.files[rel] = output{owner: src, src: src}
	return true
}

func (o *outputSet) get(rel string) (output, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := o.files[rel]
	return f, ok
}

func (o *outputSet) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.files)
}

// paths returns every output path in sorted order.
func (o *outputSet) paths() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Sorted(maps.Keys(o.files))
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
