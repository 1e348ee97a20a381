package api

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/alapierre/go-ksef-proxy/ksef"
	"github.com/alapierre/go-ksef-proxy/ksef/model"
)

// ContentKind describes how a send-invoice payload is packaged.
type ContentKind string

const (
	ContentXML  ContentKind = "xml"
	ContentGzip ContentKind = "gzip"
	ContentZip  ContentKind = "zip"
)

// ParseContentKind validates a caller supplied content type string.
func ParseContentKind(s string) (ContentKind, error) {
	switch ContentKind(s) {
	case ContentXML, ContentGzip, ContentZip:
		return ContentKind(s), nil
	case "":
		return ContentXML, nil
	}
	return "", ksef.Validation("invalid contentType %q (allowed: xml, gzip, zip)", s)
}

type InvoiceService interface {
	Send(token string, payload []byte, kind ContentKind) (*model.SendInvoiceResponse, error)
	Status(elementReferenceNumber, token string) (*model.InvoiceStatusResponse, error)
	Get(ksefReferenceNumber, token string) ([]byte, string, error)
	QuerySync(token string, criteria model.QueryCriteria, pageSize, pageOffset int) (*model.QueryInvoiceSyncResponse, error)
}

type invoice struct {
	client Client
}

func NewInvoiceService(client Client) InvoiceService {
	return &invoice{client: client}
}

// Send transmits an invoice payload. xml goes as-is with an XML content
// type, gzip gets decompressed first, zip goes as raw binary. Payload
// packaging is validated before any network call.
func (i *invoice) Send(token string, payload []byte, kind ContentKind) (*model.SendInvoiceResponse, error) {

	logger.Debugf("Send invoice, %d bytes, kind %s", len(payload), kind)

	if token == "" {
		return nil, ksef.Validation("session token is required")
	}

	contentType := "text/xml; charset=utf-8"

	switch kind {
	case ContentXML:
		// as-is
	case ContentGzip:
		gz, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, ksef.Validation("payload is not valid gzip: %v", err)
		}
		decompressed, err := io.ReadAll(gz)
		if err != nil {
			return nil, ksef.Validation("cannot decompress payload: %v", err)
		}
		payload = decompressed
	case ContentZip:
		contentType = "application/zip"
	default:
		return nil, ksef.Validation("invalid contentType %q (allowed: xml, gzip, zip)", string(kind))
	}

	res := &model.SendInvoiceResponse{}
	err := i.client.PutBytes("/online/Invoice/Send", token, contentType, payload, res)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Status checks processing status of a previously sent invoice
func (i *invoice) Status(elementReferenceNumber, token string) (*model.InvoiceStatusResponse, error) {

	logger.Debugf("Invoice status for %s", elementReferenceNumber)

	if token == "" {
		return nil, ksef.Validation("session token is required")
	}
	if elementReferenceNumber == "" {
		return nil, ksef.Validation("element reference number is required")
	}

	response := &model.InvoiceStatusResponse{}
	endpoint := fmt.Sprintf("/online/Invoice/Status/%s", elementReferenceNumber)
	err := i.client.GetJSON(endpoint, token, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Get downloads invoice content by its KSeF reference number
func (i *invoice) Get(ksefReferenceNumber, token string) ([]byte, string, error) {

	logger.Debugf("Get invoice %s", ksefReferenceNumber)

	if token == "" {
		return nil, "", ksef.Validation("session token is required")
	}
	if ksefReferenceNumber == "" {
		return nil, "", ksef.Validation("KSeF reference number is required")
	}

	return i.client.GetBytes(fmt.Sprintf("/online/Invoice/Get/%s", ksefReferenceNumber), token)
}

// QuerySync runs a synchronous invoice query
func (i *invoice) QuerySync(token string, criteria model.QueryCriteria, pageSize, pageOffset int) (*model.QueryInvoiceSyncResponse, error) {

	logger.Debug("Query invoices (sync)")

	if token == "" {
		return nil, ksef.Validation("session token is required")
	}

	response := &model.QueryInvoiceSyncResponse{}
	endpoint := fmt.Sprintf("/online/Query/Invoice/Sync?PageSize=%d&PageOffset=%d", pageSize, pageOffset)
	err := i.client.PostJSON(endpoint, token, criteria, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
