package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSubmitter ensures the submitter identifier is a non-empty,
// email-shaped string.
func validateSubmitter(submitter string) error {
	submitter = strings.TrimSpace(submitter)
	if submitter == "" {
		return fmt.Errorf("%w: submitter is empty", common.ErrInvalidSubmitter)
	}
	at := strings.Index(submitter, "@")
	if at <= 0 || at == len(submitter)-1 || strings.ContainsAny(submitter, " \t\n") {
		return fmt.Errorf("%w: %q is not email-shaped", common.ErrInvalidSubmitter, submitter)
	}
	return nil
}

// validateClassification ensures a classification carries the fields the
// store persists.
func validateClassification(c *model.Classification) error {
	if c == nil {
		return fmt.Errorf("%w: classification", ErrNilParameter)
	}
	if err := validateString(c.Label, "label"); err != nil {
		return err
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", c.Confidence)
	}
	return nil
}
