package control

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	lineOK  = "OK"
	lineERR = "ERR"
	lineEND = "END"

	maxResponseLines = 1024
)

var (
	ErrMalformedResponse  = errors.New("control: malformed response")
	ErrIncompleteResponse = errors.New("control: incomplete response")
)

// EncodeResponse renders resp in the framed wire format.
func EncodeResponse(resp Response) []byte {
	var b strings.Builder
	if resp.Success {
		b.WriteString(lineOK + "\n")
		if resp.Payload != "" {
			b.WriteString(resp.Payload)
			if !strings.HasSuffix(resp.Payload, "\n") {
				b.WriteByte('\n')
			}
		}
		b.WriteString(lineEND + "\n")
		return []byte(b.String())
	}

	code := strings.TrimSpace(resp.ErrorCode)
	if code == "" {
		code = CodeInternalError
	}
	msg := singleLine(resp.Message)
	if msg == "" {
		msg = internalErrorMessage
	}
	b.WriteString(lineERR + "\n")
	b.WriteString("error_code=" + code + "\n")
	b.WriteString("message=" + msg + "\n")
	b.WriteString(lineEND + "\n")
	return []byte(b.String())
}

// DecodeResponse reads one framed response, however many reads it spans.
func DecodeResponse(r *bufio.Reader) (Response, error) {
	head, err := readLine(r)
	if err != nil {
		return Response{}, err
	}

	switch head {
	case lineOK:
		var payload []string
		for i := 0; i < maxResponseLines; i++ {
			line, err := readLine(r)
			if err != nil {
				return Response{}, err
			}
			if line == lineEND {
				return OK(strings.Join(payload, "\n")), nil
			}
			payload = append(payload, line)
		}
	case lineERR:
		resp := Response{Success: false}
		for i := 0; i < maxResponseLines; i++ {
			line, err := readLine(r)
			if err != nil {
				return Response{}, err
			}
			if line == lineEND {
				return resp, nil
			}
			key, value, _ := strings.Cut(line, "=")
			switch key {
			case "error_code":
				resp.ErrorCode = value
			case "message":
				resp.Message = value
			}
		}
	default:
		return Response{}, fmt.Errorf("%w: unexpected status line %q", ErrMalformedResponse, head)
	}
	return Response{}, fmt.Errorf("%w: missing END terminator", ErrMalformedResponse)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: %v", ErrIncompleteResponse, io.ErrUnexpectedEOF)
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
