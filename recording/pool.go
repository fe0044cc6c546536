package recording

import "github.com/gogpu/cfdg"

// ResourcePool stores the paths referenced by recording commands.
// Each path is cloned when added, so later changes to the caller's path do
// not reach the recording. Adding the same *PathStorage twice in a row
// returns the same reference.
//
// ResourcePool is not safe for concurrent use. If concurrent access is needed,
// external synchronization must be provided.
type ResourcePool struct {
	paths []*cfdg.PathStorage
	seen  map[*cfdg.PathStorage]PathRef
}

// NewResourcePool creates an empty resource pool with pre-allocated capacity.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{
		paths: make([]*cfdg.PathStorage, 0, 64),
		seen:  make(map[*cfdg.PathStorage]PathRef),
	}
}

// AddPath adds a path to the pool and returns its reference.
func (p *ResourcePool) AddPath(path *cfdg.PathStorage) PathRef {
	if path == nil {
		p.paths = append(p.paths, nil)
		// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
		return PathRef(uint32(len(p.paths) - 1))
	}
	if ref, ok := p.seen[path]; ok {
		return ref
	}
	p.paths = append(p.paths, path.Clone())
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	ref := PathRef(uint32(len(p.paths) - 1))
	p.seen[path] = ref
	return ref
}

// GetPath returns the path for the given reference.
// Returns nil if the reference is invalid.
func (p *ResourcePool) GetPath(ref PathRef) *cfdg.PathStorage {
	if int(ref) >= len(p.paths) {
		return nil
	}
	return p.paths[ref]
}

// PathCount returns the number of paths in the pool.
func (p *ResourcePool) PathCount() int {
	return len(p.paths)
}

// Clear removes all resources from the pool.
// This does not release the underlying memory; use NewResourcePool for that.
func (p *ResourcePool) Clear() {
	clear(p.paths)
	p.paths = p.paths[:0]
	clear(p.seen)
}

// Clone creates a deep copy of the resource pool.
func (p *ResourcePool) Clone() *ResourcePool {
	clone := &ResourcePool{
		paths: make([]*cfdg.PathStorage, len(p.paths)),
		seen:  make(map[*cfdg.PathStorage]PathRef),
	}
	for i, path := range p.paths {
		if path != nil {
			clone.paths[i] = path.Clone()
		}
	}
	return clone
}
