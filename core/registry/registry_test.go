package registry

import "testing"

func TestRegistry_SetGetLock(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.GetGlobal("k"); ok {
		t.Fatal("empty registry returned a value")
	}
	r.SetGlobal("k", []string{"a"})
	v, ok := r.GetGlobal("k")
	if !ok || len(v.([]string)) != 1 {
		t.Fatalf("GetGlobal = %v, %v", v, ok)
	}
	if r.IsLocked("k") {
		t.Error("key locked before Lock")
	}
	r.Lock("k")
	if !r.IsLocked("k") {
		t.Error("key not locked after Lock")
	}
	r.UnlockForTesting("k")
	if r.IsLocked("k") {
		t.Error("key still locked after UnlockForTesting")
	}
}
