package mock

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/alapierre/go-ksef-proxy/ksef/model"
	"github.com/alapierre/go-ksef-proxy/ksef/util"
)

var logger = log.WithField("component", "ksef.mock")

// Exception codes mirrored from the real service.
const (
	CodeInvalidContext  = 21001
	CodeUnknownElement  = 21002
	CodeNoActiveSession = 21003
)

const (
	// invoices flip from processing to accepted this long after creation,
	// evaluated lazily on status reads
	acceptAfter = 2 * time.Minute

	// simulated signature verification time on InitSigned
	defaultInitDelay = 500 * time.Millisecond

	// the mock does not know the real subject, every session gets this NIP
	placeholderNip = "1111111111"
)

// Exception is the KSeF shaped error of the simulator. The envelope is a
// drop-in replacement for the real error schema.
type Exception struct {
	HTTPStatus int
	Envelope   model.ExceptionResponse
}

func (e *Exception) Error() string {
	d := e.Envelope.Exception.ExceptionDetailList
	if len(d) == 0 {
		return fmt.Sprintf("ksef exception, http status %d", e.HTTPStatus)
	}
	return fmt.Sprintf("%d: %s", d[0].ExceptionCode, d[0].ExceptionDescription)
}

// Simulator implements the KSeF interactive operations against an injected
// in-memory store. The clock is injectable so the lazy invoice status
// transition is testable without sleeping.
type Simulator struct {
	store     *Store
	now       func() time.Time
	initDelay time.Duration
}

type Option func(*Simulator)

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithInitDelay(d time.Duration) Option {
	return func(s *Simulator) { s.initDelay = d }
}

func New(store *Store, opts ...Option) *Simulator {
	s := &Simulator{
		store:     store,
		now:       time.Now,
		initDelay: defaultInitDelay,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Simulator) exception(httpStatus, code int, description, serviceName string) *Exception {
	now := s.now()
	return &Exception{
		HTTPStatus: httpStatus,
		Envelope: model.ExceptionResponse{
			Exception: model.Exception{
				ServiceCtx:      "srvTEST",
				ServiceCode:     util.ServiceCode(),
				ServiceName:     serviceName,
				Timestamp:       now.UTC().Format(model.TimestampLayout),
				ReferenceNumber: util.ReferenceNumber(util.CategorySession, now),
				ExceptionDetailList: []model.ExceptionDetail{
					{ExceptionCode: code, ExceptionDescription: description},
				},
			},
		},
	}
}

func (s *Simulator) noActiveSession(serviceName string) *Exception {
	return s.exception(401, CodeNoActiveSession, "Brak aktywnej sesji", serviceName)
}

// session validates the token and returns the session, or a 21003 exception.
func (s *Simulator) session(token, serviceName string) (Session, *Exception) {
	if token == "" {
		return Session{}, s.noActiveSession(serviceName)
	}
	sess, ok := s.store.Session(token)
	if !ok || sess.Status != SessionActive {
		return Session{}, s.noActiveSession(serviceName)
	}
	return sess, nil
}

// AuthorisationChallenge issues a fresh challenge. Both context identifier
// fields are required.
func (s *Simulator) AuthorisationChallenge(ctx model.ContextIdentifier) (*model.AuthorisationChallengeResponse, error) {

	if ctx.Type == "" || ctx.Identifier == "" {
		return nil, s.exception(400, CodeInvalidContext,
			"Nieprawidłowy kontekst identyfikatora", "online.session.authorisationChallenge")
	}

	now := s.now()
	logger.Debugf("mock challenge for %s %s", ctx.Type, ctx.Identifier)

	return &model.AuthorisationChallengeResponse{
		Timestamp: now.UTC().Format(model.TimestampLayout),
		Challenge: util.ReferenceNumber(util.CategoryChallenge, now),
	}, nil
}

// InitSigned opens a session for any signed body after a simulated
// signature verification delay. The mock does not verify the signature nor
// track which challenge the body references.
func (s *Simulator) InitSigned(body []byte) (*model.InitSessionResponse, error) {
	time.Sleep(s.initDelay)
	return s.createSession(), nil
}

// InitToken opens a session for any token init body, without the delay.
func (s *Simulator) InitToken(body []byte) (*model.InitSessionResponse, error) {
	return s.createSession(), nil
}

func (s *Simulator) createSession() *model.InitSessionResponse {
	now := s.now()

	sess := &Session{
		Token:           util.SessionTokenValue(),
		ReferenceNumber: util.ReferenceNumber(util.CategorySession, now),
		Identifier:      placeholderNip,
		Status:          SessionActive,
		CreatedAt:       now,
	}
	s.store.PutSession(sess)

	logger.Debugf("mock session %s created", sess.ReferenceNumber)

	return &model.InitSessionResponse{
		Timestamp:       now.UTC().Format(model.TimestampLayout),
		ReferenceNumber: sess.ReferenceNumber,
		SessionToken:    model.SessionToken{Token: sess.Token},
	}
}

// SessionStatus reports the session start timestamp. The mock never has
// elements in flight, counts are always zero.
func (s *Simulator) SessionStatus(token string, pageSize, pageOffset int) (*model.SessionStatusResponse, error) {

	sess, ex := s.session(token, "online.session.status")
	if ex != nil {
		return nil, ex
	}

	return &model.SessionStatusResponse{
		Timestamp:             sess.CreatedAt.UTC().Format(model.TimestampLayout),
		ReferenceNumber:       sess.ReferenceNumber,
		NumberOfElements:      0,
		PageSize:              pageSize,
		PageOffset:            pageOffset,
		ProcessingCode:        200,
		ProcessingDescription: "Sesja aktywna",
	}, nil
}

// Terminate removes the session if present. Unknown tokens still succeed.
func (s *Simulator) Terminate(token string) (*model.TerminateSessionResponse, error) {

	s.store.DeleteSession(token)

	return &model.TerminateSessionResponse{
		Timestamp:             s.now().UTC().Format(model.TimestampLayout),
		ReferenceNumber:       util.ReferenceNumber(util.CategorySession, s.now()),
		ProcessingCode:        200,
		ProcessingDescription: "Sesja zakończona",
	}, nil
}

// SendInvoice stores a new invoice in processing state.
func (s *Simulator) SendInvoice(token string, payload []byte) (*model.SendInvoiceResponse, error) {

	sess, ex := s.session(token, "online.invoice.send")
	if ex != nil {
		return nil, ex
	}

	now := s.now()
	inv := &Invoice{
		ElementReferenceNumber: util.ReferenceNumber(util.CategoryElement, now),
		KsefReferenceNumber:    util.KsefReferenceNumber(sess.Identifier, now),
		SessionToken:           token,
		InvoiceNumber:          fmt.Sprintf("FV/%s/%s", now.Format("2006/01"), util.RandomHexUpper(2)),
		Status:                 InvoiceProcessing,
		CreatedAt:              now,
	}
	s.store.PutInvoice(inv)

	logger.Debugf("mock invoice %s stored (%d bytes)", inv.ElementReferenceNumber, len(payload))

	return &model.SendInvoiceResponse{
		Timestamp:              now.UTC().Format(model.TimestampLayout),
		ReferenceNumber:        sess.ReferenceNumber,
		ProcessingCode:         100,
		ProcessingDescription:  "Faktura przyjęta do przetwarzania",
		ElementReferenceNumber: inv.ElementReferenceNumber,
	}, nil
}

// InvoiceStatus reads invoice state, applying the lazy time based
// transition: once enough wall-clock time passed since creation the invoice
// becomes accepted. No timer drives this, only reads.
func (s *Simulator) InvoiceStatus(token, elementReferenceNumber string) (*model.InvoiceStatusResponse, error) {

	_, ex := s.session(token, "online.invoice.status")
	if ex != nil {
		return nil, ex
	}

	inv, ok := s.store.Invoice(elementReferenceNumber)
	if !ok {
		return nil, s.exception(404, CodeUnknownElement,
			"Nieznany numer referencyjny", "online.invoice.status")
	}

	now := s.now()
	if inv.Status == InvoiceProcessing && now.Sub(inv.CreatedAt) >= acceptAfter {
		s.store.AcceptInvoice(elementReferenceNumber)
		inv.Status = InvoiceAccepted
	}

	res := &model.InvoiceStatusResponse{
		Timestamp:              now.UTC().Format(model.TimestampLayout),
		ReferenceNumber:        inv.KsefReferenceNumber,
		ElementReferenceNumber: inv.ElementReferenceNumber,
	}

	if inv.Status == InvoiceAccepted {
		res.ProcessingCode = 200
		res.ProcessingDescription = "Faktura przyjęta do systemu"
		res.InvoiceStatus = &model.InvoiceStatusDetail{
			InvoiceNumber:        inv.InvoiceNumber,
			KsefReferenceNumber:  inv.KsefReferenceNumber,
			AcquisitionTimestamp: inv.CreatedAt.Add(acceptAfter).UTC().Format(model.TimestampLayout),
		}
	} else {
		res.ProcessingCode = 100
		res.ProcessingDescription = "Faktura w trakcie przetwarzania"
	}

	return res, nil
}

// GetInvoice returns a synthesized invoice document looked up by KSeF
// reference number. Not gated on invoice status.
func (s *Simulator) GetInvoice(token, ksefReferenceNumber string) ([]byte, error) {

	_, ex := s.session(token, "online.invoice.get")
	if ex != nil {
		return nil, ex
	}

	inv, ok := s.store.InvoiceByKsefReference(ksefReferenceNumber)
	if !ok {
		return nil, s.exception(404, CodeUnknownElement,
			"Nieznany numer referencyjny", "online.invoice.get")
	}

	return renderInvoiceXML(inv)
}

// QueryInvoiceSync synthesizes up to five invoice headers with descending
// timestamps. There is never a next page.
func (s *Simulator) QueryInvoiceSync(token string, pageSize, pageOffset int) (*model.QueryInvoiceSyncResponse, error) {

	sess, ex := s.session(token, "online.query.invoice.sync")
	if ex != nil {
		return nil, ex
	}

	if pageSize <= 0 {
		pageSize = 10
	}
	n := pageSize
	if n > 5 {
		n = 5
	}

	now := s.now()
	headers := make([]model.InvoiceHeader, 0, n)
	for i := 0; i < n; i++ {
		ts := now.Add(-time.Duration(i) * 24 * time.Hour)
		headers = append(headers, model.InvoiceHeader{
			KsefReferenceNumber:    util.KsefReferenceNumber(sess.Identifier, ts),
			InvoiceReferenceNumber: util.ReferenceNumber(util.CategoryElement, ts),
			InvoiceNumber:          fmt.Sprintf("FV/%s/%d", ts.Format("2006/01"), n-i),
			AcquisitionTimestamp:   ts.UTC().Format(model.TimestampLayout),
			InvoicingDate:          ts.UTC().Format("2006-01-02"),
			Net:                    "1000.00",
			Vat:                    "230.00",
			Gross:                  "1230.00",
			Currency:               "PLN",
		})
	}

	return &model.QueryInvoiceSyncResponse{
		Timestamp:         now.UTC().Format(model.TimestampLayout),
		ReferenceNumber:   sess.ReferenceNumber,
		NumberOfElements:  len(headers),
		PageSize:          pageSize,
		PageOffset:        pageOffset,
		HasMoreElements:   false,
		InvoiceHeaderList: headers,
	}, nil
}

// GenerateCredentialToken issues a fresh opaque authorisation token.
func (s *Simulator) GenerateCredentialToken(token string) (*model.GenerateTokenResponse, error) {

	sess, ex := s.session(token, "online.credentials.generateToken")
	if ex != nil {
		return nil, ex
	}

	now := s.now()
	return &model.GenerateTokenResponse{
		Timestamp:              now.UTC().Format(model.TimestampLayout),
		ReferenceNumber:        sess.ReferenceNumber,
		ElementReferenceNumber: util.ReferenceNumber(util.CategoryElement, now),
		ProcessingCode:         200,
		ProcessingDescription:  "Token wygenerowany",
		AuthorisationToken:     util.CredentialTokenValue(),
	}, nil
}

// Health reports live session and invoice counts.
func (s *Simulator) Health() (sessions, invoices int) {
	return s.store.Counts()
}
