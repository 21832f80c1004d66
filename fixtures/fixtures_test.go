package fixtures

import (
	"testing"

	"github.com/warp/resource-engine/store/memory"
)

func TestLoadFile_HouseholdFixture(t *testing.T) {
	b, err := LoadFile("testdata/household.json")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(b.Accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(b.Accounts))
	}
	if len(b.Schedules) != 2 {
		t.Fatalf("got %d schedules, want 2", len(b.Schedules))
	}
	if b.Schedules[0].Tags == nil && b.Schedules[1].Tags == nil {
		t.Error("expected at least one schedule to carry tags")
	}

	mem := memory.New()
	b.SeedInto(mem)
}

func TestParse_RejectsUnknownPeriod(t *testing.T) {
	raw := []byte(`{"schedules":[{"id":"s1","amount":"1.00","start_date":"2024-01-01","period":"Fortnightly","target_account":"a"}]}`)
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected an error for an unknown period string")
	}
}

func TestParse_RejectsMalformedAmount(t *testing.T) {
	raw := []byte(`{"schedules":[{"id":"s1","amount":"not-a-number","start_date":"2024-01-01","period":"Monthly","target_account":"a"}]}`)
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected an error for a malformed amount")
	}
}
