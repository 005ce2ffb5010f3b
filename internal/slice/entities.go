package slice

import (
	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/model"
)

// NewHRRegistry creates one slice per HR entity, all bound to client.
func NewHRRegistry(client *api.Client, opts Options) *Registry {
	r := NewRegistry()
	r.Register(newEntity[model.Employee](client, model.EntityEmployees, opts))
	r.Register(newEntity[model.Department](client, model.EntityDepartments, opts))
	r.Register(newEntity[model.JobTitle](client, model.EntityJobTitles, opts))
	r.Register(newEntity[model.Shift](client, model.EntityShifts, opts))
	r.Register(newEntity[model.LeaveRequest](client, model.EntityLeaveRequests, opts))
	r.Register(newEntity[model.Salary](client, model.EntitySalaries, opts))
	r.Register(newEntity[model.Payslip](client, model.EntityPayslips, opts))
	return r
}

func newEntity[T any](client *api.Client, e model.Entity, opts Options) *Slice[T] {
	return New[T](e, api.NewResource[T](client, api.EntityPath(e)), opts)
}
