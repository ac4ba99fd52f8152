package testutil

import (
	"errors"
	"os"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	AssertError(t, errors.New("boom"))
}

func TestAssertNear(t *testing.T) {
	AssertNear(t, "value", 1.0+1e-12, 1.0, DefaultTolerance)
	AssertNear(t, "loose", 1.05, 1.0, 0.1)
}

func TestWriteTempFile(t *testing.T) {
	path := WriteTempFile(t, "tuning.json", []byte(`{"sample_level": 4}`))
	data, err := os.ReadFile(path)
	AssertNoError(t, err)
	if string(data) != `{"sample_level": 4}` {
		t.Fatalf("unexpected content %q", data)
	}
}
