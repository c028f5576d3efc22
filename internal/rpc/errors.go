package rpc

import (
	"errors"
	"fmt"
)

// Kind определяет тип ошибки протокола
type Kind string

const (
	// KindNotSupported - не выполнено предусловие (некорректные опции, нет транспорта)
	KindNotSupported Kind = "NOT_SUPPORTED"
	// KindNoResponse - сбой транспорта или ответ без result
	KindNoResponse Kind = "NO_RESPONSE"
	// KindResponseError - ответ получен, но ret != 0
	KindResponseError Kind = "RESPONSE_ERROR"
)

// Error представляет ошибку протокола с типом и контекстом
type Error struct {
	Kind    Kind
	Context any
	Err     error
}

// NewError создает ошибку протокола заданного типа
func NewError(kind Kind, context any) *Error {
	e := &Error{Kind: kind, Context: context}
	if err, ok := context.(error); ok {
		e.Err = err
	}
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Context != nil {
		return fmt.Sprintf("%s: %+v", e.Kind, e.Context)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind проверяет, что в цепочке ошибок есть ошибка протокола заданного типа
func IsKind(err error, kind Kind) bool {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Kind == kind
	}
	return false
}
