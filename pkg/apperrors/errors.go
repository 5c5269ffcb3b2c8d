package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrListTooLarge = errors.New("list has too many items to compare")

	// Feed ingestion permanent skips. Files failing with one of these are
	// archived immediately: retrying would repeat the outcome.
	ErrBranchUnknown     = errors.New("branch not present in catalog")
	ErrBranchIDMissing   = errors.New("no branch id in price file name")
	ErrBranchIDAmbiguous = errors.New("ambiguous branch id in price file name")
)
