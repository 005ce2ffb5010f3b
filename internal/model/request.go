package model

import "fmt"

// Entity identifies one HR resource type managed by the console.
type Entity string

const (
	EntityEmployees     Entity = "employees"
	EntityDepartments   Entity = "departments"
	EntityJobTitles     Entity = "job_titles"
	EntityShifts        Entity = "shifts"
	EntityLeaveRequests Entity = "leave_requests"
	EntitySalaries      Entity = "salaries"
	EntityPayslips      Entity = "payslips"

	// EntitySession is used for events raised by the session store rather
	// than by an entity slice.
	EntitySession Entity = "session"
)

// Entities lists every managed entity in menu order.
var Entities = []Entity{
	EntityEmployees,
	EntityDepartments,
	EntityJobTitles,
	EntityShifts,
	EntityLeaveRequests,
	EntitySalaries,
	EntityPayslips,
}

// Label returns the human-readable name of the entity.
func (e Entity) Label() string {
	switch e {
	case EntityEmployees:
		return "Employees"
	case EntityDepartments:
		return "Departments"
	case EntityJobTitles:
		return "Job Titles"
	case EntityShifts:
		return "Shifts"
	case EntityLeaveRequests:
		return "Leave Requests"
	case EntitySalaries:
		return "Salaries"
	case EntityPayslips:
		return "Payslips"
	case EntitySession:
		return "Session"
	default:
		return string(e)
	}
}

// Operation names a slot within an entity slice. Each operation owns
// exactly one request state.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpRemove Operation = "remove"

	// OpAuth tags session-level failures.
	OpAuth Operation = "auth"
)

// Operations lists the slots every slice tracks.
var Operations = []Operation{OpList, OpGet, OpCreate, OpUpdate, OpRemove}

// Status is the lifecycle position of one request slot.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether the status ends a logical request.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Pagination mirrors the page window reported by the server for a list.
// The client never computes these values itself.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// HasNext reports whether a page after the current one exists.
func (p Pagination) HasNext() bool {
	return p.LastPage >= 1 && p.CurrentPage < p.LastPage
}

// HasPrev reports whether a page before the current one exists.
func (p Pagination) HasPrev() bool {
	return p.CurrentPage > 1
}

// Contains reports whether n is a valid page number for this window.
func (p Pagination) Contains(n int) bool {
	return p.LastPage >= 1 && n >= 1 && n <= p.LastPage
}
