package detect

import (
	"testing"

	"github.com/haxorthematrix/BLEPTD/internal/adv"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
)

var trackerSig = sig.Signature{
	Name: "Test Tracker", Category: sig.CategoryTracker, CompanyID: 0x004C,
	Threat: sig.ThreatSevere, Flags: sig.FlagMatchCompany,
}

var medicalSig = sig.Signature{
	Name: "Test CGM", Category: sig.CategoryMedical, CompanyID: 0x00D1,
	Threat: sig.ThreatMedium, Flags: sig.FlagMatchCompany | sig.FlagMedical,
}

func packetAt(addr byte, rssi int8) adv.Packet {
	return adv.Packet{
		Addr: [6]byte{addr, 0x11, 0x22, 0x33, 0x44, 0x55},
		RSSI: rssi,
	}
}

func TestObserveOutcomes(t *testing.T) {
	r := NewRegistry(4, sig.DefaultFilter, -80)

	p := packetAt(0x01, -60)
	if got := r.Observe(&p, &trackerSig, 100); got != New {
		t.Fatalf("first observation = %v, want new", got)
	}
	if got := r.Observe(&p, &trackerSig, 200); got != Refreshed {
		t.Fatalf("second observation = %v, want refreshed", got)
	}
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}

	recs := r.Snapshot(sig.CategoryAll)
	if len(recs) != 1 {
		t.Fatalf("snapshot has %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Hits != 2 {
		t.Errorf("Hits = %d, want 2", rec.Hits)
	}
	if rec.FirstSeen != 100 || rec.LastSeen != 200 {
		t.Errorf("FirstSeen/LastSeen = %d/%d, want 100/200", rec.FirstSeen, rec.LastSeen)
	}
	if rec.Name != "Test Tracker" || rec.Threat != sig.ThreatSevere {
		t.Errorf("record fields not copied from signature: %+v", rec)
	}
}

func TestObserveRefreshUpdatesRSSI(t *testing.T) {
	r := NewRegistry(4, sig.DefaultFilter, -80)

	p := packetAt(0x01, -70)
	r.Observe(&p, &trackerSig, 100)
	p.RSSI = -45
	r.Observe(&p, &trackerSig, 150)

	if got := r.Snapshot(sig.CategoryAll)[0].RSSI; got != -45 {
		t.Errorf("RSSI after refresh = %d, want -45", got)
	}
}

func TestCategoryFilter(t *testing.T) {
	r := NewRegistry(4, sig.CategoryTracker|sig.CategoryGlasses, -80)

	p := packetAt(0x01, -60)
	if got := r.Observe(&p, &medicalSig, 100); got != Filtered {
		t.Fatalf("medical observation = %v, want filtered", got)
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after filtered observation, want 0", r.Count())
	}

	r.SetFilter(sig.CategoryAll)
	if got := r.Observe(&p, &medicalSig, 200); got != New {
		t.Errorf("medical observation with open filter = %v, want new", got)
	}
}

func TestRSSIThreshold(t *testing.T) {
	r := NewRegistry(4, sig.DefaultFilter, -80)

	weak := packetAt(0x01, -90)
	if got := r.Observe(&weak, &trackerSig, 100); got != Filtered {
		t.Fatalf("weak observation = %v, want filtered", got)
	}

	edge := packetAt(0x02, -80)
	if got := r.Observe(&edge, &trackerSig, 100); got != New {
		t.Fatalf("threshold-equal observation = %v, want new", got)
	}

	r.SetRSSIThreshold(-100)
	weak2 := packetAt(0x03, -90)
	if got := r.Observe(&weak2, &trackerSig, 100); got != New {
		t.Errorf("weak observation after lowering threshold = %v, want new", got)
	}
}

func TestCapacityBound(t *testing.T) {
	const capacity = 8
	r := NewRegistry(capacity, sig.DefaultFilter, -80)

	for i := 0; i < capacity; i++ {
		p := packetAt(byte(i), -60)
		if got := r.Observe(&p, &trackerSig, uint32(i)); got != New {
			t.Fatalf("observation %d = %v, want new", i, got)
		}
	}

	overflow := packetAt(0xF0, -60)
	if got := r.Observe(&overflow, &trackerSig, 999); got != Dropped {
		t.Fatalf("overflow observation = %v, want dropped", got)
	}
	if r.Count() != capacity {
		t.Errorf("Count() = %d, want %d", r.Count(), capacity)
	}

	// Known addresses still refresh while full.
	known := packetAt(0x00, -50)
	if got := r.Observe(&known, &trackerSig, 1000); got != Refreshed {
		t.Errorf("refresh while full = %v, want refreshed", got)
	}
}

func TestSnapshotOrderAndFilter(t *testing.T) {
	r := NewRegistry(8, sig.CategoryAll, -80)

	pt := packetAt(0x01, -60)
	pm := packetAt(0x02, -60)
	pt2 := packetAt(0x03, -60)
	r.Observe(&pt, &trackerSig, 1)
	r.Observe(&pm, &medicalSig, 2)
	r.Observe(&pt2, &trackerSig, 3)

	all := r.Snapshot(sig.CategoryAll)
	if len(all) != 3 {
		t.Fatalf("full snapshot has %d records, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].FirstSeen < all[i-1].FirstSeen {
			t.Fatal("snapshot not in insertion order")
		}
	}

	trackers := r.Snapshot(sig.CategoryTracker)
	if len(trackers) != 2 {
		t.Fatalf("tracker snapshot has %d records, want 2", len(trackers))
	}
	for _, rec := range trackers {
		if rec.Category != sig.CategoryTracker {
			t.Errorf("tracker snapshot contains %v record", rec.Category)
		}
	}
}

func TestClear(t *testing.T) {
	r := NewRegistry(4, sig.DefaultFilter, -80)

	p := packetAt(0x01, -60)
	r.Observe(&p, &trackerSig, 100)
	r.Clear()

	if r.Count() != 0 {
		t.Fatalf("Count() after clear = %d, want 0", r.Count())
	}
	if got := r.Observe(&p, &trackerSig, 200); got != New {
		t.Errorf("observation after clear = %v, want new", got)
	}
}
