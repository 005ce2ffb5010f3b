package model

import (
	"encoding/json"
	"fmt"
)

// Record is the common interface for HR rows rendered by the list and
// detail views. Every entity type implements it.
type Record interface {
	GetID() int64
	GetTitle() string
	Columns() []string
	Details() []Field
}

// Field is one labelled value in a detail view.
type Field struct {
	Label string
	Value string
}

// FormField describes one editable attribute of an entity. Key is the JSON
// property name sent to the server.
type FormField struct {
	Key         string
	Label       string
	Placeholder string
	Required    bool
}

// Department groups employees.
type Department struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ManagerName string `json:"manager_name"`
	CreatedAt   string `json:"created_at"`
}

// JobTitle is a position employees can hold.
type JobTitle struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DepartmentID *int64 `json:"department_id"`
	CreatedAt    string `json:"created_at"`
}

// Shift is a working time window.
type Shift struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	CreatedAt string `json:"created_at"`
}

// Employee is a person employed by the organization.
type Employee struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	HireDate     string      `json:"hire_date"`
	DepartmentID *int64      `json:"department_id"`
	JobTitleID   *int64      `json:"job_title_id"`
	ShiftID      *int64      `json:"shift_id"`
	Department   *Department `json:"department,omitempty"`
	JobTitle     *JobTitle   `json:"job_title,omitempty"`
	Shift        *Shift      `json:"shift,omitempty"`
	Status       string      `json:"status"`
}

// LeaveRequest is an employee's request for time off. Approval rules are
// enforced server-side.
type LeaveRequest struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	Employee   *Employee `json:"employee,omitempty"`
	Type       string    `json:"type"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
}

// Salary is the pay configuration of one employee.
type Salary struct {
	ID          int64       `json:"id"`
	EmployeeID  int64       `json:"employee_id"`
	Employee    *Employee   `json:"employee,omitempty"`
	BasicSalary json.Number `json:"basic_salary"`
	Allowances  json.Number `json:"allowances"`
	Deductions  json.Number `json:"deductions"`
	EffectiveAt string      `json:"effective_date"`
}

// Payslip is a generated pay statement. Amounts are computed by the server.
type Payslip struct {
	ID         int64       `json:"id"`
	EmployeeID int64       `json:"employee_id"`
	Employee   *Employee   `json:"employee,omitempty"`
	Month      string      `json:"month"`
	GrossPay   json.Number `json:"gross_pay"`
	NetPay     json.Number `json:"net_pay"`
	Status     string      `json:"status"`
}

func (d Department) GetID() int64      { return d.ID }
func (d Department) GetTitle() string  { return d.Name }
func (d Department) Columns() []string { return []string{idString(d.ID), d.Name, d.ManagerName} }
func (d Department) Details() []Field {
	return []Field{
		{"Name", d.Name},
		{"Description", d.Description},
		{"Manager", d.ManagerName},
		{"Created", d.CreatedAt},
	}
}

func (j JobTitle) GetID() int64      { return j.ID }
func (j JobTitle) GetTitle() string  { return j.Name }
func (j JobTitle) Columns() []string { return []string{idString(j.ID), j.Name, j.Description} }
func (j JobTitle) Details() []Field {
	return []Field{
		{"Name", j.Name},
		{"Description", j.Description},
		{"Department", optionalID(j.DepartmentID)},
		{"Created", j.CreatedAt},
	}
}

func (s Shift) GetID() int64     { return s.ID }
func (s Shift) GetTitle() string { return s.Name }
func (s Shift) Columns() []string {
	return []string{idString(s.ID), s.Name, s.StartTime + " - " + s.EndTime}
}
func (s Shift) Details() []Field {
	return []Field{
		{"Name", s.Name},
		{"Starts", s.StartTime},
		{"Ends", s.EndTime},
		{"Created", s.CreatedAt},
	}
}

func (e Employee) GetID() int64     { return e.ID }
func (e Employee) GetTitle() string { return e.Name }
func (e Employee) Columns() []string {
	dept := ""
	if e.Department != nil {
		dept = e.Department.Name
	}
	return []string{idString(e.ID), e.Name, e.Email, dept}
}
func (e Employee) Details() []Field {
	fields := []Field{
		{"Name", e.Name},
		{"Email", e.Email},
		{"Phone", e.Phone},
		{"Hire date", e.HireDate},
		{"Status", e.Status},
	}
	if e.Department != nil {
		fields = append(fields, Field{"Department", e.Department.Name})
	}
	if e.JobTitle != nil {
		fields = append(fields, Field{"Job title", e.JobTitle.Name})
	}
	if e.Shift != nil {
		fields = append(fields, Field{"Shift", e.Shift.Name})
	}
	return fields
}

func (l LeaveRequest) GetID() int64     { return l.ID }
func (l LeaveRequest) GetTitle() string { return l.Type + " " + l.StartDate }
func (l LeaveRequest) Columns() []string {
	return []string{idString(l.ID), employeeName(l.Employee, l.EmployeeID), l.StartDate + " → " + l.EndDate, l.Status}
}
func (l LeaveRequest) Details() []Field {
	return []Field{
		{"Employee", employeeName(l.Employee, l.EmployeeID)},
		{"Type", l.Type},
		{"From", l.StartDate},
		{"To", l.EndDate},
		{"Reason", l.Reason},
		{"Status", l.Status},
	}
}

func (s Salary) GetID() int64     { return s.ID }
func (s Salary) GetTitle() string { return employeeName(s.Employee, s.EmployeeID) }
func (s Salary) Columns() []string {
	return []string{idString(s.ID), employeeName(s.Employee, s.EmployeeID), s.BasicSalary.String(), s.EffectiveAt}
}
func (s Salary) Details() []Field {
	return []Field{
		{"Employee", employeeName(s.Employee, s.EmployeeID)},
		{"Basic salary", s.BasicSalary.String()},
		{"Allowances", s.Allowances.String()},
		{"Deductions", s.Deductions.String()},
		{"Effective", s.EffectiveAt},
	}
}

func (p Payslip) GetID() int64     { return p.ID }
func (p Payslip) GetTitle() string { return employeeName(p.Employee, p.EmployeeID) + " " + p.Month }
func (p Payslip) Columns() []string {
	return []string{idString(p.ID), employeeName(p.Employee, p.EmployeeID), p.Month, p.NetPay.String()}
}
func (p Payslip) Details() []Field {
	return []Field{
		{"Employee", employeeName(p.Employee, p.EmployeeID)},
		{"Month", p.Month},
		{"Gross pay", p.GrossPay.String()},
		{"Net pay", p.NetPay.String()},
		{"Status", p.Status},
	}
}

// Headers returns the list column titles for an entity, matching the
// order of that entity's Columns.
func Headers(e Entity) []string {
	switch e {
	case EntityEmployees:
		return []string{"ID", "Name", "Email", "Department"}
	case EntityDepartments:
		return []string{"ID", "Name", "Manager"}
	case EntityJobTitles:
		return []string{"ID", "Name", "Description"}
	case EntityShifts:
		return []string{"ID", "Name", "Hours"}
	case EntityLeaveRequests:
		return []string{"ID", "Employee", "Period", "Status"}
	case EntitySalaries:
		return []string{"ID", "Employee", "Basic", "Effective"}
	case EntityPayslips:
		return []string{"ID", "Employee", "Month", "Net"}
	default:
		return []string{"ID"}
	}
}

// FormFields returns the editable attributes of an entity.
func FormFields(e Entity) []FormField {
	switch e {
	case EntityEmployees:
		return []FormField{
			{Key: "name", Label: "Name", Required: true},
			{Key: "email", Label: "Email", Placeholder: "name@company.com", Required: true},
			{Key: "phone", Label: "Phone"},
			{Key: "hire_date", Label: "Hire date", Placeholder: "2006-01-02", Required: true},
			{Key: "department_id", Label: "Department ID", Required: true},
			{Key: "job_title_id", Label: "Job title ID", Required: true},
			{Key: "shift_id", Label: "Shift ID"},
		}
	case EntityDepartments:
		return []FormField{
			{Key: "name", Label: "Name", Required: true},
			{Key: "description", Label: "Description"},
		}
	case EntityJobTitles:
		return []FormField{
			{Key: "name", Label: "Name", Required: true},
			{Key: "description", Label: "Description"},
			{Key: "department_id", Label: "Department ID"},
		}
	case EntityShifts:
		return []FormField{
			{Key: "name", Label: "Name", Required: true},
			{Key: "start_time", Label: "Start time", Placeholder: "09:00", Required: true},
			{Key: "end_time", Label: "End time", Placeholder: "17:00", Required: true},
		}
	case EntityLeaveRequests:
		return []FormField{
			{Key: "employee_id", Label: "Employee ID", Required: true},
			{Key: "type", Label: "Type", Placeholder: "annual", Required: true},
			{Key: "start_date", Label: "Start date", Placeholder: "2006-01-02", Required: true},
			{Key: "end_date", Label: "End date", Placeholder: "2006-01-02", Required: true},
			{Key: "reason", Label: "Reason"},
		}
	case EntitySalaries:
		return []FormField{
			{Key: "employee_id", Label: "Employee ID", Required: true},
			{Key: "basic_salary", Label: "Basic salary", Required: true},
			{Key: "allowances", Label: "Allowances"},
			{Key: "deductions", Label: "Deductions"},
			{Key: "effective_date", Label: "Effective date", Placeholder: "2006-01-02"},
		}
	case EntityPayslips:
		return []FormField{
			{Key: "employee_id", Label: "Employee ID", Required: true},
			{Key: "month", Label: "Month", Placeholder: "2006-01", Required: true},
		}
	default:
		return nil
	}
}

func idString(id int64) string {
	return fmt.Sprintf("%d", id)
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return idString(*id)
}

func employeeName(e *Employee, id int64) string {
	if e != nil && e.Name != "" {
		return e.Name
	}
	return "#" + idString(id)
}
