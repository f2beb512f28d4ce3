package events

import "time"

const (
	PayStubEmailRequestedTopic = "payroll.paystub.email.requested.v1"
	PayStubEmailRequestedType  = "paystub.email.requested"
)

// PayStubEmailRequestedEvent hands a rendered stub to the mail delivery
// service.
type PayStubEmailRequestedEvent struct {
	EventType     string    `json:"event_type"`
	PayStubID     string    `json:"pay_stub_id"`
	StubNumber    string    `json:"stub_number"`
	CompanyID     string    `json:"company_id"`
	EmployeeID    string    `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	EmployeeEmail string    `json:"employee_email"`
	PDFPath       string    `json:"pdf_path"`
	PayDate       string    `json:"pay_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}
