package errors

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid")
	ErrNoData      = errors.New("no data imported")
	ErrInvalidFile = errors.New("invalid export file")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
