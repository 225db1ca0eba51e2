package scheduling

import (
	"fmt"
	"testing"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

func requirement(shiftID, positionID string, required int) PositionRequirement {
	return PositionRequirement{
		ShiftID:       shiftID,
		Position:      expand.Reference[employees.Position](positionID),
		RequiredCount: required,
	}
}

func assignment(shiftID, positionID, employeeID string) Assignment {
	return Assignment{
		ShiftID:  shiftID,
		Position: expand.Reference[employees.Position](positionID),
		Employee: expand.Reference[employees.Employee](employeeID),
	}
}

// A week of 7 shifts each needing 2 servers, with 10 slots filled,
// sits at 71.4% and must not be publishable.
func TestReadinessWeekScenario(t *testing.T) {
	var requirements []PositionRequirement
	for day := 0; day < 7; day++ {
		requirements = append(requirements, requirement(fmt.Sprintf("shift-%d", day), "server", 2))
	}

	var assignments []Assignment
	for i := 0; i < 10; i++ {
		day := i % 7
		assignments = append(assignments, assignment(fmt.Sprintf("shift-%d", day), "server", fmt.Sprintf("emp-%d", i)))
	}

	readiness := ComputeReadiness("week-1", requirements, assignments)
	if readiness.TotalRequired != 14 {
		t.Fatalf("expected 14 required, got %d", readiness.TotalRequired)
	}
	if readiness.TotalAssigned != 10 {
		t.Fatalf("expected 10 assigned, got %d", readiness.TotalAssigned)
	}
	if readiness.Coverage != 71.4 {
		t.Fatalf("expected coverage 71.4, got %v", readiness.Coverage)
	}
	if readiness.CanPublish {
		t.Fatal("71.4%% coverage must not be publishable")
	}
	if readiness.Status != ReadinessActive {
		t.Fatalf("expected active band, got %s", readiness.Status)
	}
}

func TestReadinessBands(t *testing.T) {
	cases := []struct {
		name       string
		assigned   int
		required   int
		status     string
		canPublish bool
	}{
		{"full", 10, 10, ReadinessSuccess, true},
		{"at publish threshold", 8, 10, ReadinessSuccess, true},
		{"mid band", 5, 10, ReadinessActive, false},
		{"below warn", 4, 10, ReadinessException, false},
		{"empty", 0, 10, ReadinessException, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requirements := []PositionRequirement{requirement("s1", "cook", tc.required)}
			var assignments []Assignment
			for i := 0; i < tc.assigned; i++ {
				assignments = append(assignments, assignment("s1", "cook", fmt.Sprintf("emp-%d", i)))
			}
			readiness := ComputeReadiness("week", requirements, assignments)
			if readiness.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, readiness.Status)
			}
			if readiness.CanPublish != tc.canPublish {
				t.Fatalf("expected canPublish=%v, got %v", tc.canPublish, readiness.CanPublish)
			}
		})
	}
}

func TestReadinessOverstaffedSlotDoesNotInflate(t *testing.T) {
	requirements := []PositionRequirement{
		requirement("s1", "cook", 1),
		requirement("s1", "server", 2),
	}
	assignments := []Assignment{
		assignment("s1", "cook", "a"),
		assignment("s1", "cook", "b"), // beyond the requirement
	}
	readiness := ComputeReadiness("week", requirements, assignments)
	if readiness.TotalAssigned != 1 {
		t.Fatalf("expected capped assigned 1, got %d", readiness.TotalAssigned)
	}
	if len(readiness.Understaffed) != 1 {
		t.Fatalf("expected one shortfall, got %d", len(readiness.Understaffed))
	}
	if readiness.Understaffed[0].PositionID != "server" {
		t.Fatalf("expected server shortfall, got %s", readiness.Understaffed[0].PositionID)
	}
}

func TestReadinessNoRequirements(t *testing.T) {
	readiness := ComputeReadiness("week", nil, nil)
	if readiness.Coverage != 100 || !readiness.CanPublish {
		t.Fatalf("a schedule without requirements is trivially publishable, got %+v", readiness)
	}
}
