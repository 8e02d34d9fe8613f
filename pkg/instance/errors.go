package instance

import "errors"

var (
	ErrEmptyInstance    = errors.New("instance has no entities")
	ErrUnknownEntity    = errors.New("entity not listed in instance")
	ErrUnknownStatement = errors.New("statement not listed in instance")
	ErrOrphanStatement  = errors.New("statement has no owning entity")
	ErrMalformed        = errors.New("malformed instance document")
)
