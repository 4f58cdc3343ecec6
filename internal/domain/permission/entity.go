package permission

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Module string

const (
	ModuleBatches             Module = "batches"
	ModuleStudents            Module = "students"
	ModuleFaculty             Module = "faculty"
	ModuleEmployees           Module = "employees"
	ModuleSessions            Module = "sessions"
	ModuleAttendance          Module = "attendance"
	ModulePayments            Module = "payments"
	ModulePortfolios          Module = "portfolios"
	ModuleReports             Module = "reports"
	ModuleApprovals           Module = "approvals"
	ModuleUsers               Module = "users"
	ModuleSoftwareCompletions Module = "software_completions"
	ModuleStudentLeaves       Module = "student_leaves"
	ModuleBatchExtensions     Module = "batch_extensions"
	ModuleEmployeePunches     Module = "employee_punches"
)

// AllModules is ordered the way modules are listed to clients.
var AllModules = []Module{
	ModuleBatches,
	ModuleStudents,
	ModuleFaculty,
	ModuleEmployees,
	ModuleSessions,
	ModuleAttendance,
	ModulePayments,
	ModulePortfolios,
	ModuleReports,
	ModuleApprovals,
	ModuleUsers,
	ModuleSoftwareCompletions,
	ModuleStudentLeaves,
	ModuleBatchExtensions,
	ModuleEmployeePunches,
}

func (m Module) IsValid() bool {
	for _, module := range AllModules {
		if m == module {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.English)

// Label turns "software_completions" into "Software Completions".
func (m Module) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(m), "_", " "))
}

type Capability string

const (
	CapabilityView   Capability = "view"
	CapabilityAdd    Capability = "add"
	CapabilityEdit   Capability = "edit"
	CapabilityDelete Capability = "delete"
)

// CapabilitySet is the {view, add, edit, delete} grant of one module.
type CapabilitySet struct {
	CanView   bool `json:"can_view"`
	CanAdd    bool `json:"can_add"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func (c CapabilitySet) Has(capability Capability) bool {
	switch capability {
	case CapabilityView:
		return c.CanView
	case CapabilityAdd:
		return c.CanAdd
	case CapabilityEdit:
		return c.CanEdit
	case CapabilityDelete:
		return c.CanDelete
	default:
		return false
	}
}

// Permission is a per-user override row replacing the role default of a module.
type Permission struct {
	ID     string
	UserID string
	Module Module
	CapabilitySet
	CreatedAt time.Time
	UpdatedAt time.Time
}
