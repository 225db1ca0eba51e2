package access

const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionApprove = "approve"
	ActionPublish = "publish"
	ActionAny     = "*"
)

const (
	CollectionEmployees          = "employees"
	CollectionContracts          = "contracts"
	CollectionSalarySchemes      = "salary-schemes"
	CollectionPositions          = "positions"
	CollectionShiftTypes         = "shift-types"
	CollectionShifts             = "shifts"
	CollectionWeeklySchedules    = "weekly-schedules"
	CollectionRequirements       = "shift-position-requirements"
	CollectionAvailability       = "employee-availability"
	CollectionAssignments        = "schedule-assignments"
	CollectionAdjustments        = "attendance-adjustments"
	CollectionAttendanceLogs     = "attendance-logs"
	CollectionDevices            = "devices"
	CollectionMonthlyPayrolls    = "monthly-payrolls"
	CollectionNotifications      = "notifications"
	CollectionRoles              = "roles"
	CollectionPolicies           = "policies"
	CollectionPermissions        = "permissions"
	CollectionReports            = "reports"
	CollectionAny                = "*"
)

type Grant struct {
	Collection string
	Action     string
}

func crud(collection string) []Grant {
	return []Grant{
		{collection, ActionRead},
		{collection, ActionCreate},
		{collection, ActionUpdate},
		{collection, ActionDelete},
	}
}

func readOnly(collections ...string) []Grant {
	grants := make([]Grant, 0, len(collections))
	for _, c := range collections {
		grants = append(grants, Grant{c, ActionRead})
	}
	return grants
}

// DefaultPermissions is the full permission catalogue seeded at boot.
var DefaultPermissions = buildDefaultPermissions()

func buildDefaultPermissions() []Grant {
	perms := []Grant{{CollectionAny, ActionAny}}
	for _, collection := range []string{
		CollectionEmployees, CollectionContracts, CollectionSalarySchemes,
		CollectionPositions, CollectionShiftTypes, CollectionShifts,
		CollectionWeeklySchedules, CollectionRequirements, CollectionAvailability,
		CollectionAssignments, CollectionAdjustments, CollectionAttendanceLogs,
		CollectionDevices, CollectionMonthlyPayrolls, CollectionNotifications,
		CollectionRoles, CollectionPolicies, CollectionPermissions,
	} {
		perms = append(perms, crud(collection)...)
	}
	perms = append(perms,
		Grant{CollectionReports, ActionRead},
		Grant{CollectionAdjustments, ActionApprove},
		Grant{CollectionMonthlyPayrolls, ActionApprove},
		Grant{CollectionWeeklySchedules, ActionPublish},
	)
	return perms
}

// DefaultPolicies groups permissions the way the seed wires them to roles.
var DefaultPolicies = map[string][]Grant{
	"full-access": {{CollectionAny, ActionAny}},
	"people-management": concat(
		crud(CollectionEmployees),
		crud(CollectionContracts),
		crud(CollectionSalarySchemes),
		crud(CollectionPositions),
	),
	"scheduling-management": concat(
		crud(CollectionShiftTypes),
		crud(CollectionShifts),
		crud(CollectionWeeklySchedules),
		crud(CollectionRequirements),
		crud(CollectionAssignments),
		crud(CollectionAvailability),
		[]Grant{{CollectionWeeklySchedules, ActionPublish}},
	),
	"attendance-management": concat(
		crud(CollectionAdjustments),
		crud(CollectionAttendanceLogs),
		crud(CollectionDevices),
		[]Grant{{CollectionAdjustments, ActionApprove}},
	),
	"payroll-management": concat(
		crud(CollectionMonthlyPayrolls),
		[]Grant{{CollectionMonthlyPayrolls, ActionApprove}, {CollectionReports, ActionRead}},
	),
	"notification-management": crud(CollectionNotifications),
	"self-service": concat(
		readOnly(
			CollectionEmployees, CollectionPositions, CollectionShiftTypes,
			CollectionShifts, CollectionWeeklySchedules, CollectionRequirements,
			CollectionAssignments, CollectionNotifications, CollectionAttendanceLogs,
		),
		[]Grant{
			{CollectionAvailability, ActionRead},
			{CollectionAvailability, ActionCreate},
			{CollectionAvailability, ActionDelete},
			{CollectionAdjustments, ActionRead},
			{CollectionAdjustments, ActionCreate},
		},
	),
}

var DefaultRolePolicies = map[string][]string{
	RoleAdmin: {"full-access"},
	RoleHR: {
		"people-management", "scheduling-management", "attendance-management",
		"payroll-management", "notification-management", "self-service",
	},
	RoleManager: {"scheduling-management", "attendance-management", "notification-management", "self-service"},
	RoleEmployee: {"self-service"},
}

func concat(groups ...[]Grant) []Grant {
	var out []Grant
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
