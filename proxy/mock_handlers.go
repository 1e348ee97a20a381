package proxy

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alapierre/go-ksef-proxy/ksef/model"
)

// upstreamTokenHeader is the header name the official KSeF API uses; the
// mock endpoints mirror it for drop-in compatibility.
const upstreamTokenHeader = "SessionToken"

// MockRoutes registers the KSeF path shaped endpoints backed directly by
// the simulator, mounted under /mock/api.
func (h *Handlers) MockRoutes(r chi.Router) {
	r.Post("/online/Session/AuthorisationChallenge", h.mockChallenge)
	r.Post("/online/Session/InitSigned", h.mockInitSigned)
	r.Post("/online/Session/InitToken", h.mockInitToken)
	r.Get("/online/Session/Status", h.mockSessionStatus)
	r.Get("/online/Session/Terminate", h.mockTerminate)
	r.Put("/online/Invoice/Send", h.mockSendInvoice)
	r.Get("/online/Invoice/Status/{elementReferenceNumber}", h.mockInvoiceStatus)
	r.Get("/online/Invoice/Get/{ksefReferenceNumber}", h.mockGetInvoice)
	r.Post("/online/Query/Invoice/Sync", h.mockQueryInvoiceSync)
	r.Post("/online/Credentials/GenerateToken", h.mockGenerateToken)
	r.Get("/health", h.mockHealth)
}

func (h *Handlers) mockChallenge(w http.ResponseWriter, r *http.Request) {

	var req model.AuthorisationChallengeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.sim.AuthorisationChallenge(req.ContextIdentifier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) mockInitSigned(w http.ResponseWriter, r *http.Request) {

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.sim.InitSigned(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) mockInitToken(w http.ResponseWriter, r *http.Request) {

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.sim.InitToken(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) mockSessionStatus(w http.ResponseWriter, r *http.Request) {

	pageSize, _ := strconv.Atoi(r.URL.Query().Get("PageSize"))
	pageOffset, _ := strconv.Atoi(r.URL.Query().Get("PageOffset"))

	res, err := h.sim.SessionStatus(r.Header.Get(upstreamTokenHeader), pageSize, pageOffset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) mockTerminate(w http.ResponseWriter, r *http.Request) {

	res, err := h.sim.Terminate(r.Header.Get(upstreamTokenHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) mockSendInvoice(w http.ResponseWriter, r *http.Request) {

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.sim.SendInvoice(r.Header.Get(upstreamTokenHeader), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handlers) mockInvoiceStatus(w http.ResponseWriter, r *http.Request) {

	res, err := h.sim.InvoiceStatus(
		r.Header.Get(upstreamTokenHeader),
		chi.URLParam(r, "elementReferenceNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) mockGetInvoice(w http.ResponseWriter, r *http.Request) {

	content, err := h.sim.GetInvoice(
		r.Header.Get(upstreamTokenHeader),
		chi.URLParam(r, "ksefReferenceNumber"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handlers) mockQueryInvoiceSync(w http.ResponseWriter, r *http.Request) {

	pageSize, _ := strconv.Atoi(r.URL.Query().Get("PageSize"))
	pageOffset, _ := strconv.Atoi(r.URL.Query().Get("PageOffset"))

	res, err := h.sim.QueryInvoiceSync(r.Header.Get(upstreamTokenHeader), pageSize, pageOffset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) mockGenerateToken(w http.ResponseWriter, r *http.Request) {

	res, err := h.sim.GenerateCredentialToken(r.Header.Get(upstreamTokenHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type mockHealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Invoices int    `json:"invoices"`
}

func (h *Handlers) mockHealth(w http.ResponseWriter, r *http.Request) {
	sessions, invoices := h.sim.Health()
	writeJSON(w, http.StatusOK, mockHealthResponse{Status: "ok", Sessions: sessions, Invoices: invoices})
}
