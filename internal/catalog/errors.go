package catalog

import "errors"

var (
	ErrNotFound     = errors.New("catalog: product not found")
	ErrForbidden    = errors.New("catalog: not the product owner")
	ErrInvalidInput = errors.New("catalog: invalid input")
)
