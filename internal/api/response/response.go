// Package response writes the UI server's JSON bodies. A success is
// {"data":...,"meta":...} and a failure is {"error":...}.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/stockboard/internal/core"
)

// Meta is attached to every success body.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// Envelope is a success body.
type Envelope struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// Problem describes why a request failed.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// Failure is an error body.
type Failure struct {
	Error Problem `json:"error"`
}

var internalProblem = Problem{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}

var now = time.Now

// statuses is matched in order against the error chain.
var statuses = []struct {
	status  int
	classes []error
}{
	{http.StatusConflict, []error{core.ErrBusy}},
	{http.StatusNotFound, []error{core.ErrJobNotFound}},
	{http.StatusBadRequest, []error{
		core.ErrValidation, core.ErrSymbolRequired,
		core.ErrUnknownCommand, core.ErrUnknownTab, core.ErrUnknownField,
	}},
	{http.StatusServiceUnavailable, []error{context.Canceled}},
	{http.StatusBadGateway, []error{core.ErrTransport, core.ErrAPI}},
}

// JSON writes data in a success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data, Meta: Meta{Timestamp: now().UTC()}})
}

// Error writes err with the given status. Errors outside the core taxonomy
// are reported as internal and their text is withheld.
func Error(w http.ResponseWriter, status int, err error) {
	write(w, status, Failure{Error: problemFor(err)})
}

// Fail writes err with the status StatusFor picks.
func Fail(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}

// StatusFor maps a command error to an HTTP status. Unclassified errors are
// internal server errors.
func StatusFor(err error) int {
	for _, s := range statuses {
		for _, class := range s.classes {
			if errors.Is(err, class) {
				return s.status
			}
		}
	}
	return http.StatusInternalServerError
}

func problemFor(err error) Problem {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		return internalProblem
	}
	p := Problem{Code: coreErr.Code, Message: coreErr.Message}
	if coreErr.Cause != nil {
		p.Cause = coreErr.Cause.Error()
	}
	return p
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
