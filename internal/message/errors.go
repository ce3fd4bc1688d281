package message

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Envelope is the serializable projection of an error crossing the messaging
// boundary between execution contexts. Reconstituting an envelope yields an
// error exposing the same three fields.
type Envelope struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// Error is an error carrying the envelope triple natively.
type Error struct {
	Name  string
	Msg   string
	Stack string
}

// NewError creates an Error named name, capturing the current stack.
func NewError(name, msg string) *Error {
	return &Error{
		Name:  name,
		Msg:   msg,
		Stack: strings.TrimSpace(string(debug.Stack())),
	}
}

func (e *Error) Error() string {
	return e.Msg
}

// Encode projects err into an Envelope. An *Error keeps its original triple;
// any other error is encoded with its Go type as the name and no stack.
func Encode(err error) Envelope {
	var me *Error
	if errors.As(err, &me) {
		return Envelope{Name: me.Name, Message: me.Msg, Stack: me.Stack}
	}
	return Envelope{
		Name:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
}

// Err reconstitutes the envelope into an error exposing the same triple.
func (v Envelope) Err() *Error {
	return &Error{Name: v.Name, Msg: v.Message, Stack: v.Stack}
}
