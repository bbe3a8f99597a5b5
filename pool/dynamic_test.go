package pool

import "testing"

func TestDynamicPool_GetPutReuses(t *testing.T) {
	var created int
	p := NewDynamic(func() *taskRecord {
		created++
		return &taskRecord{id: created}
	})

	w := p.Get()
	if w.id != 1 {
		t.Fatalf("expected first Get to create record id=1, got %d", w.id)
	}
	p.Put(w)

	w2 := p.Get()
	if w2 != w {
		t.Fatalf("expected Get after Put to reuse the same instance")
	}
	if created != 1 {
		t.Fatalf("expected exactly one record created, got %d", created)
	}
}

func TestDynamicPool_GrowsUnderConcurrentDemand(t *testing.T) {
	p := NewDynamic(func() *taskRecord { return &taskRecord{} })

	// sync.Pool never returns nil and never blocks regardless of concurrent
	// demand; this is the behavioral difference from fixed that suits
	// dynamic to pooling where depth can't be pre-sized.
	const n = 50
	got := make([]*taskRecord, n)
	for i := range got {
		got[i] = p.Get()
		if got[i] == nil {
			t.Fatalf("Get returned nil at index %d", i)
		}
	}
}
