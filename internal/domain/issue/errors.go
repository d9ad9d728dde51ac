package issue

import "errors"

var (
	ErrIssueNotFound   = errors.New("issue not found")
	ErrNotIssueOwner   = errors.New("account does not own this issue")
	ErrInvalidCategory = errors.New("invalid issue category")
	ErrInvalidStatus   = errors.New("invalid issue status")
	ErrTooManyImages   = errors.New("too many images attached to issue")
)
