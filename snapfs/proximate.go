package snapfs

import (
	"path/filepath"
	"strings"
	"sync"
)

// ancestorCacheSize bounds the memoised-by-parent-directory cache to
// roughly the working set of one directory walk. This is a pure
// memoisation, not a process-wide global: each [ProximateResolver] owns
// its own cache instance, and lost inserts under contention are acceptable.
const ancestorCacheSize = 30

// ProximateResolver finds the longest mount point in a [MountIndex]
// that is an ancestor of a queried path.
type ProximateResolver struct {
	idx *MountIndex

	mu    sync.Mutex
	cache map[string]string
	order []string // insertion order, for bounded eviction
}

// NewProximateResolver returns a resolver over idx with a fresh,
// empty ancestor cache.
func NewProximateResolver(idx *MountIndex) *ProximateResolver {
	return &ProximateResolver{
		idx:   idx,
		cache: make(map[string]string, ancestorCacheSize),
	}
}

// Resolve returns the mount point in the index that is the longest
// ancestor of path. path need not exist. Returns an *Error of kind
// [ErrKindNoDataset] if no ancestor is present in the index.
//
// Only the immediate parent directory's result is memoised: proximate(path)
// equals path itself when path is a mount, otherwise it equals
// proximate(parent(path)) — so a cache hit on the parent answers path
// in O(1) without walking any further ancestors.
func (r *ProximateResolver) Resolve(path string) (string, error) {
	clean := filepath.Clean(path)

	if r.idx.isMount(clean) {
		return clean, nil
	}

	parent := filepath.Dir(clean)
	if parent != clean {
		if cached, ok := r.lookupCache(parent); ok {
			return cached, nil
		}
	}

	mount, err := r.walk(parent)
	if err != nil {
		return "", newError(ErrKindNoDataset, path, nil)
	}

	r.storeCache(parent, mount)

	return mount, nil
}

// walk performs the uncached ancestor walk: from path upward to the
// filesystem root, the first ancestor present as a key in the index
// is the answer. ancestors() yields longest to shortest, so the first
// hit is automatically the longest ancestor.
func (r *ProximateResolver) walk(path string) (string, error) {
	for _, a := range ancestors(path) {
		if r.idx.isMount(a) {
			return a, nil
		}
	}

	return "", newError(ErrKindNoDataset, path, nil)
}

func (r *ProximateResolver) lookupCache(parent string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.cache[parent]

	return v, ok
}

// storeCache records the resolved ancestor mount for a parent
// directory, evicting the oldest entry once the cache is full.
//
// Canonical behaviour: the cached value is the resolved ancestor
// mount for that parent, not the parent path itself. An earlier
// implementation of this lookup (reported upstream) stored the key as
// its own value under concurrent writes — apparently a bug. This
// resolver never reproduces that: it always stores the derived mount.
func (r *ProximateResolver) storeCache(parent, mount string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache[parent]; !exists {
		if len(r.order) >= ancestorCacheSize {
			oldest := r.order[0]
			r.order = r.order[1:]
			delete(r.cache, oldest)
		}

		r.order = append(r.order, parent)
	}

	r.cache[parent] = mount
}

// ancestors yields path and each of its ancestors, longest first,
// down to the filesystem root.
func ancestors(path string) []string {
	clean := filepath.Clean(path)

	var out []string

	for {
		out = append(out, clean)

		if clean == "/" || clean == "." {
			break
		}

		parent := filepath.Dir(clean)
		if parent == clean {
			break
		}

		clean = parent
	}

	return out
}

// stripPrefix removes the mount prefix from path, returning the
// dataset-relative path used inside every candidate snapshot tree.
// The result never has a leading separator.
func stripPrefix(path, prefix string) string {
	rel := strings.TrimPrefix(filepath.Clean(path), filepath.Clean(prefix))
	return strings.TrimPrefix(rel, string(filepath.Separator))
}
