// Package cerr defines the coded error type shared by the store, the
// persistence layer and the HTTP API.
package cerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/kazz187/taskgantt/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string          // returned to the caller together with Code
	Err     error           // kept for logs only
	Stack   string          // captured for error-level codes
	Details []proto.Message // returned to the caller
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.ConnectCodeToLevel(code.ConnectCode()) == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

// NewValidationError builds an InvalidArgument error carrying one violation
// per failed rule.
func NewValidationError(msg string, violations []*validate.Violation) *Error {
	err := NewError(InvalidArgument, msg, nil)
	for _, v := range violations {
		err.Details = append(err.Details, v)
	}
	return err
}

// Violation builds a buf.validate violation with a rule id and message.
func Violation(ruleID, msg string) *validate.Violation {
	return &validate.Violation{
		RuleId:  &ruleID,
		Message: &msg,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Violations returns the validation details attached to e.
func (e *Error) Violations() []*validate.Violation {
	var out []*validate.Violation
	for _, d := range e.Details {
		if v, ok := d.(*validate.Violation); ok {
			out = append(out, v)
		}
	}
	return out
}

func (e *Error) AddDetailMessageWithCode(msg string, code string) error {
	e.Details = append(e.Details, Violation(code, msg))
	return e
}

func (e *Error) ConnectError() *connect.Error {
	connectErr := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, detailMsg := range e.Details {
		detail, err := connect.NewErrorDetail(detailMsg)
		if err != nil {
			continue
		}
		connectErr.AddDetail(detail)
	}
	return connectErr
}

// Normalize converts err into *Error, mapping cancellation to Canceled and
// anything uncoded to Unknown.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return NewError(Canceled, "connection closed", err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled" {
		return NewError(Canceled, "connection closed", err)
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	return NewError(Unknown, "unknown error", err)
}

func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	cerr := Normalize(err)
	if cerr.Code != Canceled {
		clog.AddError(ctx, err)
		if cerr.Stack != "" {
			clog.AddStack(ctx, cerr.Stack)
		}
	}
	return cerr.ConnectError()
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}
