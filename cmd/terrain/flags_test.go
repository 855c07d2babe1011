package main

import "testing"

// TestWorkersFlag verifies the -workers flag defaults to keeping the
// configured worker count.
func TestWorkersFlag(t *testing.T) {
	if workers == nil {
		t.Fatal("workers flag not defined")
	}
	if *workers != -1 {
		t.Errorf("expected workers default to be -1, got %d", *workers)
	}
}

func TestOptionalFlagsDefaultEmpty(t *testing.T) {
	for name, v := range map[string]*string{
		"config": configFile,
		"in":     inPath,
		"tile":   tileID,
		"plot":   plotDir,
	} {
		if v == nil {
			t.Fatalf("%s flag not defined", name)
		}
		if *v != "" {
			t.Errorf("expected %s default to be empty, got %q", name, *v)
		}
	}
	if *traceLog || *showVersion {
		t.Error("expected boolean flags to default to false")
	}
}
