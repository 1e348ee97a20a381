package model

// TimestampLayout is the wire format KSeF uses for timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type ExceptionDetail struct {
	ExceptionCode        int    `json:"exceptionCode"`
	ExceptionDescription string `json:"exceptionDescription"`
}

type Exception struct {
	ServiceCtx          string            `json:"serviceCtx"`
	ServiceCode         string            `json:"serviceCode"`
	ServiceName         string            `json:"serviceName"`
	Timestamp           string            `json:"timestamp"`
	ReferenceNumber     string            `json:"referenceNumber"`
	ExceptionDetailList []ExceptionDetail `json:"exceptionDetailList"`
}

// ExceptionResponse is the KSeF error envelope. The shape is part of the
// wire contract and must not change.
type ExceptionResponse struct {
	Exception Exception `json:"exception"`
}

type SessionStatusResponse struct {
	Timestamp             string `json:"timestamp"`
	ReferenceNumber       string `json:"referenceNumber"`
	NumberOfElements      int    `json:"numberOfElements"`
	PageSize              int    `json:"pageSize"`
	PageOffset            int    `json:"pageOffset"`
	ProcessingCode        int    `json:"processingCode"`
	ProcessingDescription string `json:"processingDescription"`
}

type TerminateSessionResponse struct {
	Timestamp             string `json:"timestamp"`
	ReferenceNumber       string `json:"referenceNumber"`
	ProcessingCode        int    `json:"processingCode"`
	ProcessingDescription string `json:"processingDescription"`
}

// PublicKeyCertificate describes one entry of the upstream public key
// certificate listing used for KSeF token encryption.
type PublicKeyCertificate struct {
	Certificate string   `json:"certificate"`
	ValidFrom   string   `json:"validFrom"`
	ValidTo     string   `json:"validTo"`
	Usage       []string `json:"usage"`
}

const UsageKsefTokenEncryption = "KsefTokenEncryption"
