// Package cfn implements the custom resource callback protocol spoken by the
// stack orchestration host: it parses inbound lifecycle events and guarantees
// that exactly one completion signal is sent back per invocation.
package cfn

// RequestType is the lifecycle operation the host is asking for.
type RequestType string

const (
	RequestTypeCreate RequestType = "Create"
	RequestTypeUpdate RequestType = "Update"
	RequestTypeDelete RequestType = "Delete"
)

// PhysicalResourceIDNotCreated marks an invocation whose create flow never
// produced a certificate. A later Delete for this ID has nothing to remove.
const PhysicalResourceIDNotCreated = "RESOURCE_NOT_CREATED"

// Event is the inbound custom resource event from the orchestration host.
type Event struct {
	RequestType        RequestType `json:"RequestType"`
	RequestID          string      `json:"RequestId"`
	StackID            string      `json:"StackId"`
	LogicalResourceID  string      `json:"LogicalResourceId"`
	PhysicalResourceID string      `json:"PhysicalResourceId,omitempty"`
	ResponseURL        string      `json:"ResponseURL"`
	ResourceProperties Properties  `json:"ResourceProperties"`
}

// Properties are the resource properties carried by the event.
type Properties struct {
	AppName                 string   `json:"AppName"`
	EnvName                 string   `json:"EnvName"`
	DomainName              string   `json:"DomainName"`
	SubjectAlternativeNames []string `json:"SubjectAlternativeNames,omitempty"`
	EnvHostedZoneID         string   `json:"EnvHostedZoneId,omitempty"`
	RootDNSRole             string   `json:"RootDNSRole,omitempty"`
	Region                  string   `json:"Region,omitempty"`
}

// Status is the outcome reported back to the host.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Response is the outbound callback payload. Reason is surfaced verbatim by
// the host as the stack operation failure message.
type Response struct {
	Status             Status            `json:"Status"`
	Reason             string            `json:"Reason,omitempty"`
	PhysicalResourceID string            `json:"PhysicalResourceId"`
	StackID            string            `json:"StackId"`
	RequestID          string            `json:"RequestId"`
	LogicalResourceID  string            `json:"LogicalResourceId"`
	Data               map[string]string `json:"Data,omitempty"`
}
