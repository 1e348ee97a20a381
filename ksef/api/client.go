package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/alapierre/go-ksef-proxy/ksef"
	"github.com/alapierre/go-ksef-proxy/ksef/util"
)

// Client is the low level HTTP surface against one KSeF deployment.
// Every call carries a bounded timeout; failures are never retried here.
type Client interface {
	PostJSONNoAuth(endpoint string, body any, result any) error
	PostXMLFromBytes(endpoint string, body []byte, result any) error
	PostJSON(endpoint, token string, body any, result any) error
	PutBytes(endpoint, token, contentType string, body []byte, result any) error
	GetJSON(endpoint, token string, result any) error
	GetBytes(endpoint, token string) ([]byte, string, error)
}

const sessionTokenHeader = "SessionToken"

type client struct {
	rest    *resty.Client
	baseURL string
}

// New creates a Client for the given base URL with a 30 second timeout.
func New(baseURL string) Client {
	restyClient := resty.New().SetTimeout(30 * time.Second)
	return &client{rest: restyClient, baseURL: baseURL}
}

func (c *client) PostJSONNoAuth(endpoint string, body any, result any) error {

	r := c.rest.R()
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}

	resp, err := r.
		SetBody(body).
		SetResult(result).
		Post(c.baseURL + endpoint)

	printTraceInfo(endpoint, c, err, resp)
	return checkError(resp, err)
}

func (c *client) PostXMLFromBytes(endpoint string, body []byte, result any) error {

	r := c.rest.R()
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}

	resp, err := r.
		SetBody(body).
		SetResult(result).
		SetHeader("Content-Type", "application/octet-stream; charset=utf-8").
		Post(c.baseURL + endpoint)

	printTraceInfo(endpoint, c, err, resp)
	return checkError(resp, err)
}

func (c *client) PostJSON(endpoint, token string, body any, result any) error {

	r := c.rest.R()
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}

	resp, err := r.
		SetBody(body).
		SetResult(result).
		SetHeader(sessionTokenHeader, token).
		Post(c.baseURL + endpoint)

	printTraceInfo(endpoint, c, err, resp)
	return checkError(resp, err)
}

func (c *client) PutBytes(endpoint, token, contentType string, body []byte, result any) error {

	r := c.rest.R()
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}

	resp, err := r.
		SetBody(body).
		SetResult(result).
		SetHeader("Content-Type", contentType).
		SetHeader(sessionTokenHeader, token).
		Put(c.baseURL + endpoint)

	printTraceInfo(endpoint, c, err, resp)
	return checkError(resp, err)
}

func (c *client) GetJSON(endpoint, token string, result any) error {

	r := c.rest.R()
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}

	resp, err := r.
		SetResult(result).
		SetHeader(sessionTokenHeader, token).
		Get(c.baseURL + endpoint)

	printTraceInfo(endpoint, c, err, resp)
	return checkError(resp, err)
}

func (c *client) GetBytes(endpoint, token string) ([]byte, string, error) {

	r := c.rest.R()
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}

	resp, err := r.
		SetHeader(sessionTokenHeader, token).
		Get(c.baseURL + endpoint)

	printTraceInfo(endpoint, c, err, resp)
	if err := checkError(resp, err); err != nil {
		return nil, "", err
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// checkError maps transport failures and non-2xx responses onto
// UpstreamError, keeping the upstream status code and body.
func checkError(resp *resty.Response, err error) error {
	if err != nil {
		return &ksef.UpstreamError{Err: err}
	}
	if resp.IsError() {

		body := resp.String()
		var errorMap map[string]any
		if body != "" {
			_ = json.Unmarshal([]byte(body), &errorMap)
		}

		return &ksef.UpstreamError{
			StatusCode: resp.StatusCode(),
			Body:       body,
			Details:    errorMap,
		}
	}
	return nil
}

func printTraceInfo(endpoint string, c *client, err error, resp *resty.Response) {

	if !util.HttpTraceEnabled() || resp == nil {
		return
	}

	fmt.Println("Response Info:")
	fmt.Println("  URL        :", c.baseURL+endpoint)
	fmt.Println("  Error      :", err)
	fmt.Println("  Status Code:", resp.StatusCode())
	fmt.Println("  Status     :", resp.Status())
	fmt.Println("  Time       :", resp.Time())
	fmt.Println("  Received At:", resp.ReceivedAt())
	fmt.Println("  Body       :\n", resp)
	fmt.Println()
}
