package model

type SendInvoiceResponse struct {
	Timestamp              string `json:"timestamp"`
	ReferenceNumber        string `json:"referenceNumber"`
	ProcessingCode         int    `json:"processingCode"`
	ProcessingDescription  string `json:"processingDescription"`
	ElementReferenceNumber string `json:"elementReferenceNumber"`
}

// InvoiceStatusDetail is present only once the invoice reached the
// accepted state. Optional fields are explicit, no partial object merging.
type InvoiceStatusDetail struct {
	InvoiceNumber        string `json:"invoiceNumber"`
	KsefReferenceNumber  string `json:"ksefReferenceNumber"`
	AcquisitionTimestamp string `json:"acquisitionTimestamp"`
}

type InvoiceStatusResponse struct {
	Timestamp              string               `json:"timestamp"`
	ReferenceNumber        string               `json:"referenceNumber"`
	ElementReferenceNumber string               `json:"elementReferenceNumber"`
	ProcessingCode         int                  `json:"processingCode"`
	ProcessingDescription  string               `json:"processingDescription"`
	InvoiceStatus          *InvoiceStatusDetail `json:"invoiceStatus,omitempty"`
}

type InvoiceHeader struct {
	KsefReferenceNumber    string `json:"ksefReferenceNumber"`
	InvoiceReferenceNumber string `json:"invoiceReferenceNumber"`
	InvoiceNumber          string `json:"invoiceNumber"`
	AcquisitionTimestamp   string `json:"acquisitionTimestamp"`
	InvoicingDate          string `json:"invoicingDate"`
	Net                    string `json:"net"`
	Vat                    string `json:"vat"`
	Gross                  string `json:"gross"`
	Currency               string `json:"currency"`
}

type QueryInvoiceSyncResponse struct {
	Timestamp         string          `json:"timestamp"`
	ReferenceNumber   string          `json:"referenceNumber"`
	NumberOfElements  int             `json:"numberOfElements"`
	PageSize          int             `json:"pageSize"`
	PageOffset        int             `json:"pageOffset"`
	HasMoreElements   bool            `json:"hasMoreElements"`
	InvoiceHeaderList []InvoiceHeader `json:"invoiceHeaderList"`
}

type QueryCriteria struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}
