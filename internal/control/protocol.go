// Package control implements the daemon's local control channel.
//
// Requests are one line: "<version>|<command>[:<argument>]".
// Responses are framed text terminated by an "END" line:
//
//	OK
//	<payload lines>
//	END
//
//	ERR
//	error_code=<code>
//	message=<text>
//	END
//
// Handlers never fail outward; every request is answered with a Response.
package control

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// ProtocolVersion is the only request version the daemon accepts.
	ProtocolVersion = "1.2"
	// DaemonVersion is reported by the version command.
	DaemonVersion = "1.2.0"
)

// Build is reported by the version command; set with -ldflags -X.
var Build = "debug"

// Error codes carried in ERR responses.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidVersionFormat = "invalid_version_format"
	CodeUnsupportedVersion   = "unsupported_version"
	CodeUnknownCommand       = "unknown_command"
	CodeInternalError        = "internal_error"
)

const internalErrorMessage = "internal error"

var versionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)

// Request is one parsed control request.
type Request struct {
	ProtocolVersion string
	Command         string
	Argument        string
	HasArgument     bool
}

// Response is one control reply, success or failure.
type Response struct {
	Success   bool
	Payload   string
	ErrorCode string
	Message   string
}

// Error is a protocol-level failure that maps onto an ERR response.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("control: %s: %s", e.Code, e.Message)
}

// OK builds a success response.
func OK(payload string) Response {
	return Response{Success: true, Payload: payload}
}

// Failure builds a failure response.
func Failure(code, message string) Response {
	return Response{Success: false, ErrorCode: code, Message: message}
}

// ParseRequest decodes one request line. The returned error is always *Error.
func ParseRequest(line string) (Request, error) {
	line = strings.TrimSpace(line)
	version, rest, ok := strings.Cut(line, "|")
	if !ok {
		return Request{}, &Error{Code: CodeInvalidRequest, Message: "missing version separator"}
	}
	version = strings.TrimSpace(version)
	if !versionPattern.MatchString(version) {
		return Request{}, &Error{Code: CodeInvalidVersionFormat, Message: fmt.Sprintf("malformed version %q", version)}
	}
	if version != ProtocolVersion {
		return Request{}, &Error{
			Code:    CodeUnsupportedVersion,
			Message: fmt.Sprintf("unsupported version %s (supported %s)", version, ProtocolVersion),
		}
	}

	command, argument, hasArg := strings.Cut(rest, ":")
	command = strings.TrimSpace(command)
	if command == "" {
		return Request{}, &Error{Code: CodeInvalidRequest, Message: "missing command"}
	}
	argument = strings.TrimSpace(argument)
	if hasArg && argument == "" {
		return Request{}, &Error{Code: CodeInvalidRequest, Message: "empty argument"}
	}

	return Request{
		ProtocolVersion: version,
		Command:         command,
		Argument:        argument,
		HasArgument:     hasArg,
	}, nil
}

// EncodeRequest renders req as one newline-terminated request line.
func EncodeRequest(req Request) string {
	version := req.ProtocolVersion
	if version == "" {
		version = ProtocolVersion
	}
	if req.HasArgument || req.Argument != "" {
		return version + "|" + req.Command + ":" + req.Argument + "\n"
	}
	return version + "|" + req.Command + "\n"
}
