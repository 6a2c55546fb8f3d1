package service

import "errors"

// Upload request errors. They surface to callers as result messages.
var (
	ErrNoFileSource        = errors.New("either fileBase64 or fileName must be provided")
	ErrAmbiguousFileSource = errors.New("provide only one of fileBase64 or fileName")
	ErrInvalidBase64       = errors.New("fileBase64 is not valid base64")
	ErrEmptyFile           = errors.New("file is empty")
	ErrHoldingUnavailable  = errors.New("holding storage is not available")
	ErrHoldingBusy         = errors.New("holding file is already being processed")
)
