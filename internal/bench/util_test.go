package bench

import "testing"

func TestDirOfWithSubdirectory(t *testing.T) {
	if got, want := dirOf("artifacts/batch.csv"), "artifacts"; got != want {
		t.Errorf("dirOf(%q) = %q, want %q", "artifacts/batch.csv", got, want)
	}
}

func TestDirOfNestedSubdirectory(t *testing.T) {
	if got, want := dirOf("a/b/c.csv"), "a/b"; got != want {
		t.Errorf("dirOf(%q) = %q, want %q", "a/b/c.csv", got, want)
	}
}

func TestDirOfBareFilename(t *testing.T) {
	if got, want := dirOf("batch.csv"), ""; got != want {
		t.Errorf("dirOf(%q) = %q, want %q", "batch.csv", got, want)
	}
}

func TestItoa(t *testing.T) {
	if got, want := itoa(42), "42"; got != want {
		t.Errorf("itoa(42) = %q, want %q", got, want)
	}
	if got, want := itoa(-3), "-3"; got != want {
		t.Errorf("itoa(-3) = %q, want %q", got, want)
	}
}

func TestFtoa(t *testing.T) {
	if got, want := ftoa(1.5), "1.500000"; got != want {
		t.Errorf("ftoa(1.5) = %q, want %q", got, want)
	}
}

func TestRandForSeedIsDeterministic(t *testing.T) {
	a := randForSeed(123)
	b := randForSeed(123)
	for i := 0; i < 5; i++ {
		va, vb := a.Intn(1000), b.Intn(1000)
		if va != vb {
			t.Errorf("randForSeed(123) draw %d: %d != %d, want matching streams", i, va, vb)
		}
	}
}
