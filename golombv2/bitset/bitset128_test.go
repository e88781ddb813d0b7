package bitset

import (
	"math/rand"
	"testing"
)

func TestSetAndIsSet(t *testing.T) {
	var b BitSet128
	for _, pos := range []int{0, 1, 63, 64, 100, 127} {
		if b.IsSet(pos) {
			t.Errorf("bit %d set on empty set", pos)
		}
		b.Set(pos)
		if !b.IsSet(pos) {
			t.Errorf("bit %d not set after Set", pos)
		}
	}
	b.Set(63) // idempotent
	if !b.IsSet(63) {
		t.Errorf("bit 63 lost after double Set")
	}
	if b.IsSet(2) {
		t.Errorf("bit 2 set unexpectedly")
	}
}

func TestShiftLeft(t *testing.T) {
	var b BitSet128
	b.Set(0)
	b.Set(3)
	b.Set(62)

	cases := []struct {
		shift int
		want  []int
	}{
		{0, []int{0, 3, 62}},
		{1, []int{1, 4, 63}},
		{2, []int{2, 5, 64}},
		{64, []int{64, 67, 126}},
		{65, []int{65, 68, 127}},
		{66, []int{66, 69}}, // bit 62 shifted out
		{127, []int{127}},
		{128, nil},
		{500, nil},
	}

	for _, c := range cases {
		got := b.ShiftLeft(c.shift)
		var want BitSet128
		for _, pos := range c.want {
			want.Set(pos)
		}
		if got != want {
			t.Errorf("shift %d: got %+v want %+v", c.shift, got, want)
		}
	}
}

func TestAnyAndLogic(t *testing.T) {
	var a, b BitSet128
	if a.Any() {
		t.Errorf("empty set Any() = true")
	}
	a.Set(10)
	a.Set(70)
	b.Set(70)
	b.Set(90)

	if got := a.And(b); !got.IsSet(70) || got.IsSet(10) || got.IsSet(90) {
		t.Errorf("And wrong: %+v", got)
	}
	if got := a.Or(b); !got.IsSet(10) || !got.IsSet(70) || !got.IsSet(90) {
		t.Errorf("Or wrong: %+v", got)
	}
	if got := a.Xor(b); got.IsSet(70) || !got.IsSet(10) || !got.IsSet(90) {
		t.Errorf("Xor wrong: %+v", got)
	}
	if !a.And(b).Any() {
		t.Errorf("And(..).Any() = false with a shared bit")
	}
}

// Shifting the reversed-marks set of a ruler by delta must enumerate
// exactly the differences created by appending a mark delta past the end.
func TestReversedShiftEnumeratesNewDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		numMarks := 2 + rng.Intn(6)
		marks := map[int]bool{0: true}
		length := 0
		for len(marks) < numMarks {
			m := rng.Intn(100)
			marks[m] = true
			if m > length {
				length = m
			}
		}

		var reversed BitSet128
		for m := range marks {
			reversed.Set(length - m)
		}

		delta := 1 + rng.Intn(127-length)
		shifted := reversed.ShiftLeft(delta)

		for m := range marks {
			newDiff := length + delta - m
			if !shifted.IsSet(newDiff) {
				t.Fatalf("difference %d missing after shift by %d", newDiff, delta)
			}
		}
		count := 0
		for d := 0; d < 128; d++ {
			if shifted.IsSet(d) {
				count++
			}
		}
		if count != len(marks) {
			t.Fatalf("shift produced %d bits, want %d", count, len(marks))
		}
	}
}

func TestMarks(t *testing.T) {
	// ruler 0,1,4,9,11: reversed bits at 11-m
	var reversed BitSet128
	for _, m := range []int{0, 1, 4, 9, 11} {
		reversed.Set(11 - m)
	}
	got := reversed.Marks(11)
	want := []int{0, 1, 4, 9, 11}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
