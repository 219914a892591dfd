package domain

import "testing"

func TestRunBudgetCharge(t *testing.T) {
	t.Parallel()

	b := RunBudget{MaxCost: 1.0, MaxSpawns: 3}

	b.Charge(0.4)
	b.Charge(-1) // negative cost is ignored
	if b.Spent != 0.4 {
		t.Fatalf("spent = %f, want 0.4", b.Spent)
	}
	if r := b.Remaining(); r != 0.6 {
		t.Fatalf("remaining = %f, want 0.6", r)
	}

	if !b.CanAfford(0.6) {
		t.Fatalf("expected exact remaining amount to be affordable")
	}
	if b.CanAfford(0.61) {
		t.Fatalf("expected overrun to be rejected")
	}
}

func TestRunBudgetUnlimitedWhenNoCeiling(t *testing.T) {
	t.Parallel()

	b := RunBudget{MaxSpawns: 1}
	b.Charge(100)
	if !b.CanAfford(100) {
		t.Fatalf("zero ceiling should mean unlimited budget")
	}
}

func TestRunBudgetSpawnCap(t *testing.T) {
	t.Parallel()

	b := RunBudget{MaxSpawns: 2}
	if !b.ReserveSpawn() || !b.ReserveSpawn() {
		t.Fatalf("first two reservations should succeed")
	}
	if b.ReserveSpawn() {
		t.Fatalf("reservation above the cap should fail")
	}
	if b.Spawned != 2 {
		t.Fatalf("spawned = %d, want 2", b.Spawned)
	}
}
