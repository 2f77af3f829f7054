package posture

import (
	"testing"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
)

func TestNew_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range New() {
		if seen[r.ID()] {
			t.Errorf("duplicate rule ID %q", r.ID())
		}
		seen[r.ID()] = true
	}
	if len(seen) != 5 {
		t.Errorf("want 5 rules, got %d", len(seen))
	}
}

func TestNew_Registers(t *testing.T) {
	reg := rules.NewDefaultRuleRegistry(New()...)
	if len(reg.All()) != len(New()) {
		t.Errorf("registry holds %d rules; want %d", len(reg.All()), len(New()))
	}
}
