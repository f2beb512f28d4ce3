package accesslog

import "time"

// Entry is what a caller knows about an access: the stub, who touched it and
// the client they used.
type Entry struct {
	PayStubID  string
	CompanyID  string
	AccessedBy string
	AccessType string
	IPAddress  string
	UserAgent  string
}

type AccessLogResponse struct {
	ID         string `json:"id"`
	PayStubID  string `json:"pay_stub_id"`
	AccessedBy string `json:"accessed_by"`
	AccessType string `json:"access_type"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	AccessedAt string `json:"accessed_at"`
}

func mapToResponse(l AccessLog) AccessLogResponse {
	return AccessLogResponse{
		ID:         l.ID.String(),
		PayStubID:  l.PayStubID.String(),
		AccessedBy: l.AccessedBy,
		AccessType: l.AccessType,
		IPAddress:  l.IPAddress,
		UserAgent:  l.UserAgent,
		AccessedAt: l.AccessedAt.Format(time.RFC3339),
	}
}
