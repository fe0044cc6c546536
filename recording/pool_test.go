package recording

import (
	"testing"

	"github.com/gogpu/cfdg"
)

func triangle() *cfdg.PathStorage {
	p := cfdg.NewPathStorage()
	p.MoveTo(cfdg.Pt(0, 0))
	p.LineTo(cfdg.Pt(1, 0))
	p.LineTo(cfdg.Pt(0, 1))
	p.Close(false)
	return p
}

func TestNewResourcePool(t *testing.T) {
	pool := NewResourcePool()
	if pool == nil {
		t.Fatal("NewResourcePool returned nil")
	}
	if pool.PathCount() != 0 {
		t.Errorf("PathCount() = %d, want 0", pool.PathCount())
	}
}

func TestResourcePool_AddPath(t *testing.T) {
	pool := NewResourcePool()
	p := triangle()

	ref := pool.AddPath(p)
	if ref != 0 {
		t.Errorf("AddPath() = %d, want 0", ref)
	}
	if again := pool.AddPath(p); again != ref {
		t.Errorf("AddPath(same) = %d, want %d", again, ref)
	}
	if other := pool.AddPath(triangle()); other != 1 {
		t.Errorf("AddPath(other) = %d, want 1", other)
	}
	if pool.PathCount() != 2 {
		t.Errorf("PathCount() = %d, want 2", pool.PathCount())
	}

	got := pool.GetPath(ref)
	if got == p {
		t.Error("GetPath() returned the caller's path, want a clone")
	}
	if !got.Equal(p) {
		t.Error("GetPath() differs from the added path")
	}
}

func TestResourcePool_NilAndInvalid(t *testing.T) {
	pool := NewResourcePool()
	ref := pool.AddPath(nil)
	if pool.GetPath(ref) != nil {
		t.Error("GetPath(nil ref) != nil")
	}
	if pool.GetPath(PathRef(42)) != nil {
		t.Error("GetPath(42) != nil for an unknown reference")
	}
}

func TestResourcePool_ClearAndClone(t *testing.T) {
	pool := NewResourcePool()
	pool.AddPath(triangle())

	clone := pool.Clone()
	pool.Clear()
	if pool.PathCount() != 0 {
		t.Errorf("after Clear PathCount() = %d, want 0", pool.PathCount())
	}
	if clone.PathCount() != 1 {
		t.Errorf("clone PathCount() = %d, want 1", clone.PathCount())
	}
	if !clone.GetPath(0).Equal(triangle()) {
		t.Error("clone lost its path")
	}
}
