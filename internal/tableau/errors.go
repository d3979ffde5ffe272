package tableau

import (
	"encoding/xml"
	"fmt"
	"net/http"
)

// Fault defaults when the server's error document omits an element.
const (
	unknownCode    = "unknown code"
	unknownSummary = "unknown summary"
	unknownDetail  = "unknown detail"
)

// ValidationError reports a missing or invalid caller-supplied field. It is
// returned before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// APICallError reports a non-success status from the Tableau API, carrying
// the fault parsed from the XML error document and the remote HTTP status.
type APICallError struct {
	StatusCode int
	Code       string
	Summary    string
	Detail     string
}

func (e *APICallError) Error() string {
	return fmt.Sprintf("%s: %s - %s", e.Code, e.Summary, e.Detail)
}

// ProtocolError reports malformed or unexpected XML from the Tableau API on
// an otherwise successful exchange.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("tableau: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

type faultDocument struct {
	Error *struct {
		Code    string `xml:"code,attr"`
		Summary string `xml:"http://tableau.com/api summary"`
		Detail  string `xml:"http://tableau.com/api detail"`
	} `xml:"http://tableau.com/api error"`
}

// CheckStatus compares the response status against the expected success code.
// On mismatch it parses the body as an XML fault document and returns an
// *APICallError; a body that is not well-formed XML yields a *ProtocolError
// instead of crashing the request.
func CheckStatus(resp *http.Response, body []byte, successCode int) error {
	if resp.StatusCode == successCode {
		return nil
	}

	var fault faultDocument
	if err := xml.Unmarshal(body, &fault); err != nil {
		return &ProtocolError{
			Op:  fmt.Sprintf("parse fault document (status %d)", resp.StatusCode),
			Err: err,
		}
	}

	apiErr := &APICallError{
		StatusCode: resp.StatusCode,
		Code:       unknownCode,
		Summary:    unknownSummary,
		Detail:     unknownDetail,
	}
	if fault.Error != nil {
		if fault.Error.Code != "" {
			apiErr.Code = sanitizeText(fault.Error.Code)
		}
		if fault.Error.Summary != "" {
			apiErr.Summary = sanitizeText(fault.Error.Summary)
		}
		if fault.Error.Detail != "" {
			apiErr.Detail = sanitizeText(fault.Error.Detail)
		}
	}
	return apiErr
}
