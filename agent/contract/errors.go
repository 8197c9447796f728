package contract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrClassification = errors.New("query classification failed")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("upstream rate limited")
	ErrUpstream       = errors.New("upstream service failed")
	ErrIngest         = errors.New("document ingestion failed")
	ErrTranslation    = errors.New("query translation failed")
	ErrExecution      = errors.New("query execution failed")
	ErrStorage        = errors.New("storage failure")
)

// BranchError is returned by a branch handler. Kind is one of the sentinel
// errors above; Reason is human readable and stays inside the service.
type BranchError struct {
	Category Category
	Kind     error
	Reason   string
	Err      error
}

func NewBranchError(category Category, kind error, reason string, cause error) *BranchError {
	return &BranchError{
		Category: category,
		Kind:     kind,
		Reason:   strings.TrimSpace(reason),
		Err:      cause,
	}
}

func (e *BranchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "branch %s", e.Category)
	if e.Kind != nil {
		fmt.Fprintf(&b, ": %v", e.Kind)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *BranchError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsBranchError converts any error into a BranchError for category. Errors that
// already are BranchErrors keep their kind; others are classified by the
// sentinel they wrap, defaulting to ErrUpstream.
func AsBranchError(category Category, err error) *BranchError {
	if err == nil {
		return nil
	}
	var be *BranchError
	if errors.As(err, &be) {
		if be.Category == "" {
			be.Category = category
		}
		return be
	}
	return NewBranchError(category, KindOf(err), "", err)
}

// KindOf returns the taxonomy sentinel wrapped by err.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrRateLimited,
		ErrIngest,
		ErrTranslation,
		ErrExecution,
		ErrStorage,
		ErrValidation,
		ErrClassification,
		ErrUpstream,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrUpstream
}
