package events

import "time"

const (
	PayStubGenerationRequestedTopic = "payroll.paystub.generation.requested.v1"
	PayStubGenerationRequestedType  = "paystub.generation.requested"
)

type PayStubGenerationRequestedEvent struct {
	EventType        string    `json:"event_type"`
	RequestID        string    `json:"request_id"`
	CompanyID        string    `json:"company_id"`
	PayrollPeriodID  string    `json:"payroll_period_id"`
	EmployeeIDs      []string  `json:"employee_ids,omitempty"`
	GeneratePDF      bool      `json:"generate_pdf"`
	EmailToEmployees bool      `json:"email_to_employees"`
	RequestedBy      string    `json:"requested_by"`
	OccurredAt       time.Time `json:"occurred_at"`
}
