package employees

import (
	"testing"

	"hrms/internal/domain/auth"
)

func TestDisplayNameDerivation(t *testing.T) {
	emp := Employee{FirstName: "Linh", LastName: "Tran"}
	if got := emp.DisplayName(); got != "Linh Tran" {
		t.Fatalf("expected derived name Linh Tran, got %q", got)
	}

	// repeated calls must agree: the derivation never mutates state
	if emp.DisplayName() != emp.DisplayName() {
		t.Fatal("display name derivation is not idempotent")
	}
	if emp.FullName != "" {
		t.Fatal("derivation must not persist the full name")
	}

	emp.FullName = "Tran Thi Linh"
	if got := emp.DisplayName(); got != "Tran Thi Linh" {
		t.Fatalf("stored full name must win, got %q", got)
	}
}

func TestAvatarURLFollowsDisplayName(t *testing.T) {
	emp := Employee{FirstName: "Minh", LastName: "Nguyen"}
	first := emp.AvatarURL()
	second := emp.AvatarURL()
	if first != second {
		t.Fatal("avatar URL must be stable across calls")
	}
	if first != "https://ui-avatars.com/api/?name=Minh+Nguyen" {
		t.Fatalf("unexpected avatar URL %q", first)
	}
}

func TestFilterFieldsByRole(t *testing.T) {
	base := Employee{ID: "emp-1", Phone: "0123", Address: "Hanoi"}

	hrView := base
	FilterFields(&hrView, auth.UserContext{RoleName: "hr"})
	if hrView.Phone == "" {
		t.Fatal("hr must see contact fields")
	}

	selfView := base
	FilterFields(&selfView, auth.UserContext{RoleName: "employee", EmployeeID: "emp-1"})
	if selfView.Phone == "" {
		t.Fatal("employees must see their own contact fields")
	}

	otherView := base
	FilterFields(&otherView, auth.UserContext{RoleName: "employee", EmployeeID: "emp-2"})
	if otherView.Phone != "" || otherView.Address != "" {
		t.Fatal("employees must not see other people's contact fields")
	}
}
