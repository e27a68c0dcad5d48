package lifecycle

import (
	"os"
	"testing"
)

func TestTerminationSignalsIncludeInterrupt(t *testing.T) {
	signals := TerminationSignals()
	if len(signals) == 0 {
		t.Fatal("expected at least one signal")
	}
	if signals[0] != os.Interrupt {
		t.Errorf("first signal = %v, want %v", signals[0], os.Interrupt)
	}
}
