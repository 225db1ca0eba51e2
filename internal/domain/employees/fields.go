package employees

import "hrms/internal/domain/auth"

// FilterFields blanks personal fields the caller may not see. HR and
// admin see everything; everyone else loses contact details on records
// other than their own.
func FilterFields(emp *Employee, user auth.UserContext) {
	switch user.RoleName {
	case "admin", "hr":
		return
	}
	if user.EmployeeID == emp.ID {
		return
	}
	emp.Phone = ""
	emp.Address = ""
	emp.DateOfBirth = nil
}
