package portal

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error kinds. Match them with errors.Is.
var (
	ErrAuthentication = errors.New("login and password mismatch")
	ErrParse          = errors.New("unexpected portal markup")
	ErrTransport      = errors.New("portal unreachable")
)

// snippetLen bounds how much of a response body is kept for diagnostics.
const snippetLen = 512

// Error is returned by Client.Fetch. Kind is one of the Err* sentinels and
// Snippet holds the start of the response body when one was received.
type Error struct {
	Kind    error
	Op      string
	Snippet string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func transportError(op string, err error) *Error {
	return &Error{Kind: ErrTransport, Op: op, Err: err}
}

func parseError(op, body string, err error) *Error {
	return &Error{Kind: ErrParse, Op: op, Snippet: snippet(body), Err: err}
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= snippetLen {
		return body
	}
	n := snippetLen
	for n > 0 && !utf8.RuneStart(body[n]) {
		n--
	}
	return body[:n]
}
