package proxy

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alapierre/go-ksef-proxy/ksef"
	"github.com/alapierre/go-ksef-proxy/ksef/api"
	"github.com/alapierre/go-ksef-proxy/ksef/cipher"
	"github.com/alapierre/go-ksef-proxy/ksef/model"
	"github.com/alapierre/go-ksef-proxy/ksef/tpl"
	"github.com/alapierre/go-ksef-proxy/mock"
	"github.com/alapierre/go-ksef-proxy/qr"
)

var logger = log.WithField("component", "ksef.proxy")

// SessionTokenHeader is the header the frontend sends its session token in.
const SessionTokenHeader = "session-token"

// Gateway bundles the real KSeF services built for one base URL.
type Gateway struct {
	Session api.SessionService
	Invoice api.InvoiceService
}

// GatewayFactory builds a Gateway per request, after the environment name
// from the request body resolved to a base URL.
type GatewayFactory func(baseURL string) Gateway

// Handlers implements the proxy HTTP surface. Every handler resolves the
// mode switch itself so env changes apply per request.
type Handlers struct {
	sim        *mock.Simulator
	newGateway GatewayFactory
	resolve    func() Mode
}

// NewHandlers wires the default gateway factory around a shared encryption
// service.
func NewHandlers(sim *mock.Simulator, encryptor *cipher.EncryptionService) *Handlers {
	return &Handlers{
		sim: sim,
		newGateway: func(baseURL string) Gateway {
			client := api.New(baseURL)
			return Gateway{
				Session: api.NewSessionService(client, baseURL, encryptor),
				Invoice: api.NewInvoiceService(client),
			}
		},
		resolve: ResolveMode,
	}
}

func (h *Handlers) gateway(mode Mode, requestedEnv string) Gateway {
	return h.newGateway(ksef.ResolveBaseURL(requestedEnv, mode.RealBaseURL))
}

// Routes registers the proxy surface on the given router.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/authorization-challenge", h.AuthorizationChallenge)
	r.Post("/request-session-token", h.RequestSessionToken)
	r.Post("/init-session-signed", h.InitSessionSigned)
	r.Post("/init-session-token", h.InitSessionToken)
	r.Post("/send-invoice", h.SendInvoice)
	r.Get("/invoice-status/{referenceNumber}", h.InvoiceStatus)
	r.Get("/invoice/{ksefId}", h.GetInvoice)
	r.Post("/query-invoices", h.QueryInvoices)
	r.Post("/terminate-session", h.TerminateSession)
	r.Get("/health", h.Health)
	r.Post("/verification-qr", h.VerificationQR)
}

type challengeRequest struct {
	ContextIdentifier model.ContextIdentifier `json:"contextIdentifier"`
	Environment       string                  `json:"environment"`
}

type challengeResponse struct {
	Challenge string `json:"challenge"`
	Timestamp string `json:"timestamp"`
	XMLToSign string `json:"xmlToSign"`
	Message   string `json:"message"`
}

func (h *Handlers) AuthorizationChallenge(w http.ResponseWriter, r *http.Request) {

	var req challengeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mode := h.resolve()

	var challenge *model.AuthorisationChallengeResponse
	var err error

	if mode.UseMock {
		challenge, err = h.sim.AuthorisationChallenge(req.ContextIdentifier)
	} else {
		challenge, err = h.gateway(mode, req.Environment).Session.
			AuthorisationChallenge(req.ContextIdentifier.Identifier, req.ContextIdentifier.Type)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	// render the document the user signs, regardless of backing mode
	xmlToSign, err := tpl.InitSessionRequest(tpl.Signed, challenge.Challenge,
		req.ContextIdentifier.Type, req.ContextIdentifier.Identifier, "")
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, challengeResponse{
		Challenge: challenge.Challenge,
		Timestamp: challenge.Timestamp,
		XMLToSign: base64.StdEncoding.EncodeToString(xmlToSign),
		Message:   "sign the xmlToSign document and call /init-session-signed",
	})
}

type initSignedRequest struct {
	SignedXMLBase64 string `json:"signedXmlBase64"`
	Environment     string `json:"environment"`
	Compressed      bool   `json:"compressed"`
}

type sessionResponse struct {
	SessionToken    string `json:"sessionToken"`
	Timestamp       string `json:"timestamp"`
	ReferenceNumber string `json:"referenceNumber"`
}

func (h *Handlers) RequestSessionToken(w http.ResponseWriter, r *http.Request) {
	h.initSigned(w, r, false)
}

func (h *Handlers) InitSessionSigned(w http.ResponseWriter, r *http.Request) {
	h.initSigned(w, r, true)
}

func (h *Handlers) initSigned(w http.ResponseWriter, r *http.Request, allowCompressed bool) {

	var req initSignedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	signed, err := base64.StdEncoding.DecodeString(req.SignedXMLBase64)
	if err != nil {
		writeError(w, ksef.Validation("signedXmlBase64 is not valid base64: %v", err))
		return
	}
	if len(signed) == 0 {
		writeError(w, ksef.Validation("signedXmlBase64 is required"))
		return
	}

	compressed := allowCompressed && req.Compressed
	mode := h.resolve()

	var res *model.InitSessionResponse
	if mode.UseMock {
		res, err = h.sim.InitSigned(signed)
	} else {
		res, err = h.gateway(mode, req.Environment).Session.
			InitSessionWithSignedDocument(signed, compressed)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionToken:    res.SessionToken.Token,
		Timestamp:       res.Timestamp,
		ReferenceNumber: res.ReferenceNumber,
	})
}

type initTokenRequest struct {
	Nip         string `json:"nip"`
	AuthToken   string `json:"authToken"`
	Environment string `json:"environment"`
}

func (h *Handlers) InitSessionToken(w http.ResponseWriter, r *http.Request) {

	var req initTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.Nip == "" || req.AuthToken == "" {
		writeError(w, ksef.Validation("nip and authToken are required"))
		return
	}

	mode := h.resolve()

	var res *model.InitSessionResponse
	var err error

	if mode.UseMock {
		res, err = h.sim.InitToken(nil)
	} else {
		res, err = h.gateway(mode, req.Environment).Session.
			InitSessionWithToken(req.Nip, req.AuthToken)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionToken:    res.SessionToken.Token,
		Timestamp:       res.Timestamp,
		ReferenceNumber: res.ReferenceNumber,
	})
}

type sendInvoiceRequest struct {
	SessionToken     string `json:"sessionToken"`
	InvoiceXMLBase64 string `json:"invoiceXmlBase64"`
	Environment      string `json:"environment"`
	ContentType      string `json:"contentType"`
}

func (h *Handlers) SendInvoice(w http.ResponseWriter, r *http.Request) {

	var req sendInvoiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.SessionToken == "" {
		writeError(w, ksef.Validation("sessionToken is required"))
		return
	}

	kind, err := api.ParseContentKind(req.ContentType)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := base64.StdEncoding.DecodeString(req.InvoiceXMLBase64)
	if err != nil {
		writeError(w, ksef.Validation("invoiceXmlBase64 is not valid base64: %v", err))
		return
	}

	mode := h.resolve()

	var res *model.SendInvoiceResponse
	if mode.UseMock {
		res, err = h.sim.SendInvoice(req.SessionToken, payload)
	} else {
		res, err = h.gateway(mode, req.Environment).Invoice.Send(req.SessionToken, payload, kind)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handlers) InvoiceStatus(w http.ResponseWriter, r *http.Request) {

	token := r.Header.Get(SessionTokenHeader)
	if token == "" {
		writeError(w, ksef.Validation("session-token header is required"))
		return
	}

	ref := chi.URLParam(r, "referenceNumber")
	mode := h.resolve()

	var res *model.InvoiceStatusResponse
	var err error

	if mode.UseMock {
		res, err = h.sim.InvoiceStatus(token, ref)
	} else {
		res, err = h.gateway(mode, r.URL.Query().Get("environment")).Invoice.Status(ref, token)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type getInvoiceResponse struct {
	KsefID        string `json:"ksefId"`
	InvoiceBase64 string `json:"invoiceBase64"`
	ContentType   string `json:"contentType"`
}

func (h *Handlers) GetInvoice(w http.ResponseWriter, r *http.Request) {

	token := r.Header.Get(SessionTokenHeader)
	if token == "" {
		writeError(w, ksef.Validation("session-token header is required"))
		return
	}

	ksefID := chi.URLParam(r, "ksefId")
	mode := h.resolve()

	var content []byte
	var contentType string
	var err error

	if mode.UseMock {
		content, err = h.sim.GetInvoice(token, ksefID)
		contentType = "application/octet-stream"
	} else {
		content, contentType, err = h.gateway(mode, r.URL.Query().Get("environment")).Invoice.Get(ksefID, token)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getInvoiceResponse{
		KsefID:        ksefID,
		InvoiceBase64: base64.StdEncoding.EncodeToString(content),
		ContentType:   contentType,
	})
}

type queryInvoicesRequest struct {
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
	Environment string `json:"environment"`
	PageSize    int    `json:"pageSize"`
	PageOffset  int    `json:"pageOffset"`
}

func (h *Handlers) QueryInvoices(w http.ResponseWriter, r *http.Request) {

	token := r.Header.Get(SessionTokenHeader)
	if token == "" {
		writeError(w, ksef.Validation("session-token header is required"))
		return
	}

	var req queryInvoicesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mode := h.resolve()

	var res *model.QueryInvoiceSyncResponse
	var err error

	if mode.UseMock {
		res, err = h.sim.QueryInvoiceSync(token, req.PageSize, req.PageOffset)
	} else {
		criteria := model.QueryCriteria{DateFrom: req.DateFrom, DateTo: req.DateTo}
		res, err = h.gateway(mode, req.Environment).Invoice.QuerySync(token, criteria, req.PageSize, req.PageOffset)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type terminateResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (h *Handlers) TerminateSession(w http.ResponseWriter, r *http.Request) {

	token := r.Header.Get(SessionTokenHeader)
	if token == "" {
		writeError(w, ksef.Validation("session-token header is required"))
		return
	}

	mode := h.resolve()

	var res *model.TerminateSessionResponse
	var err error

	if mode.UseMock {
		res, err = h.sim.Terminate(token)
	} else {
		var env string
		var req struct {
			Environment string `json:"environment"`
		}
		// body is optional here
		_ = json.NewDecoder(r.Body).Decode(&req)
		env = req.Environment
		res, err = h.gateway(mode, env).Session.Terminate(token)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	msg := res.ProcessingDescription
	if msg == "" {
		msg = "session terminated"
	}
	writeJSON(w, http.StatusOK, terminateResponse{Message: msg, Timestamp: res.Timestamp})
}

type healthResponse struct {
	Status      string `json:"status"`
	Mode        string `json:"mode"`
	Environment string `json:"environment"`
	BaseURL     string `json:"baseUrl"`
	Sessions    int    `json:"sessions"`
	Invoices    int    `json:"invoices"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {

	mode := h.resolve()
	sessions, invoices := h.sim.Health()

	res := healthResponse{
		Status:      "ok",
		Environment: mode.Environment.Name(),
		Sessions:    sessions,
		Invoices:    invoices,
	}
	if mode.UseMock {
		res.Mode = "mock"
		res.BaseURL = mode.MockBaseURL
	} else {
		res.Mode = "real"
		res.BaseURL = mode.RealBaseURL
	}

	writeJSON(w, http.StatusOK, res)
}

type verificationQRRequest struct {
	Nip              string `json:"nip"`
	IssueDate        string `json:"issueDate"`
	InvoiceXMLBase64 string `json:"invoiceXmlBase64"`
	Environment      string `json:"environment"`
}

type verificationQRResponse struct {
	VerificationLink string `json:"verificationLink"`
	QRPngBase64      string `json:"qrPngBase64"`
}

func (h *Handlers) VerificationQR(w http.ResponseWriter, r *http.Request) {

	var req verificationQRRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	issueDate, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		writeError(w, ksef.Validation("issueDate must be YYYY-MM-DD: %v", err))
		return
	}

	invoiceXML, err := base64.StdEncoding.DecodeString(req.InvoiceXMLBase64)
	if err != nil {
		writeError(w, ksef.Validation("invoiceXmlBase64 is not valid base64: %v", err))
		return
	}

	mode := h.resolve()
	env := ksef.ResolveEnvironment(req.Environment, mode.Environment)

	link, err := qr.GenerateVerificationLink(env, req.Nip, issueDate, invoiceXML)
	if err != nil {
		writeError(w, ksef.Validation("%v", err))
		return
	}

	png, err := qr.Png(link)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verificationQRResponse{
		VerificationLink: link,
		QRPngBase64:      base64.StdEncoding.EncodeToString(png),
	})
}

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return ksef.Validation("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("cannot encode response: %v", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// writeError maps the error taxonomy onto HTTP. Mock exceptions keep their
// KSeF envelope verbatim; upstream error bodies surface under details.
func writeError(w http.ResponseWriter, err error) {

	var ex *mock.Exception
	if errors.As(err, &ex) {
		writeJSON(w, ex.HTTPStatus, ex.Envelope)
		return
	}

	var ve *ksef.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message})
		return
	}

	var ue *ksef.UpstreamError
	if errors.As(err, &ue) {
		status := ue.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		var details any
		if ue.Details != nil {
			details = ue.Details
		} else if ue.Body != "" {
			details = ue.Body
		}
		writeJSON(w, status, errorResponse{Error: "upstream KSeF call failed", Details: details})
		return
	}

	var ce *ksef.CryptoError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: ce.Error()})
		return
	}

	logger.Errorf("unhandled error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
