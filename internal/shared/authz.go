package shared

// Capability is a named atomic permission such as "pets.view". Keeping it
// typed stops raw strings from leaking into route registrations.
type Capability string

// String returns the permission name stored for this capability.
func (c Capability) String() string { return string(c) }

// User management.
const (
	CapUserView   Capability = "user.view"
	CapUserCreate Capability = "user.create"
	CapUserEdit   Capability = "user.edit"
	CapUserDelete Capability = "user.delete"
)

// Role management.
const (
	CapRolesView   Capability = "roles.view"
	CapRolesCreate Capability = "roles.create"
	CapRolesEdit   Capability = "roles.edit"
	CapRolesDelete Capability = "roles.delete"
)

// Permission management.
const (
	CapPermissionsView   Capability = "permissions.view"
	CapPermissionsCreate Capability = "permissions.create"
	CapPermissionsEdit   Capability = "permissions.edit"
	CapPermissionsDelete Capability = "permissions.delete"
)

// Clinic records.
const (
	CapPetsView   Capability = "pets.view"
	CapPetsCreate Capability = "pets.create"
	CapPetsEdit   Capability = "pets.edit"
	CapPetsDelete Capability = "pets.delete"

	CapStaffView   Capability = "staff.view"
	CapStaffCreate Capability = "staff.create"
	CapStaffEdit   Capability = "staff.edit"
	CapStaffDelete Capability = "staff.delete"

	CapSchedulesView   Capability = "schedules.view"
	CapSchedulesCreate Capability = "schedules.create"
	CapSchedulesEdit   Capability = "schedules.edit"
	CapSchedulesDelete Capability = "schedules.delete"

	CapAppointmentsView   Capability = "appointments.view"
	CapAppointmentsCreate Capability = "appointments.create"
	CapAppointmentsEdit   Capability = "appointments.edit"
	CapAppointmentsDelete Capability = "appointments.delete"
)

// CapDashboardView gates the aggregate dashboard page.
const CapDashboardView Capability = "dashboard.view"

// AllCapabilities lists every capability the application checks. The seeder
// ensures a permission record exists for each entry, so route registrations
// and the durable permission store cannot drift apart.
func AllCapabilities() []Capability {
	return []Capability{
		CapUserView, CapUserCreate, CapUserEdit, CapUserDelete,
		CapRolesView, CapRolesCreate, CapRolesEdit, CapRolesDelete,
		CapPermissionsView, CapPermissionsCreate, CapPermissionsEdit, CapPermissionsDelete,
		CapPetsView, CapPetsCreate, CapPetsEdit, CapPetsDelete,
		CapStaffView, CapStaffCreate, CapStaffEdit, CapStaffDelete,
		CapSchedulesView, CapSchedulesCreate, CapSchedulesEdit, CapSchedulesDelete,
		CapAppointmentsView, CapAppointmentsCreate, CapAppointmentsEdit, CapAppointmentsDelete,
		CapDashboardView,
	}
}
