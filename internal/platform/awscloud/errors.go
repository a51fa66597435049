package awscloud

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrNotFound marks a missing resource in errors built outside the SDK.
var ErrNotFound = errors.New("resource not found")

// ProviderCallError wraps a failed EC2 call.
type ProviderCallError struct {
	Op       string
	Resource string
	Err      error
}

func (e *ProviderCallError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("ec2 %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ec2 %s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *ProviderCallError) Unwrap() error {
	return e.Err
}

func wrap(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var pce *ProviderCallError
	if errors.As(err, &pce) {
		return err
	}
	return &ProviderCallError{Op: op, Resource: resource, Err: err}
}

// NotFoundError builds a ProviderCallError classified as not found.
func NotFoundError(op, resource string) error {
	return &ProviderCallError{Op: op, Resource: resource, Err: ErrNotFound}
}

// notFoundCodes are EC2 codes that mean the target is already gone.
var notFoundCodes = map[string]bool{
	"fleetRequestIdDoesNotExist": true,
	"Gateway.NotAttached":        true,
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	code := errorCode(err)
	if code == "" {
		return false
	}
	return strings.HasSuffix(code, ".NotFound") || code == "NotFound" || notFoundCodes[code]
}

// alreadyExistsCodes are EC2 codes returned when a create or grant was
// already applied by an earlier run.
var alreadyExistsCodes = map[string]bool{
	"InvalidPermission.Duplicate": true,
	"InvalidGroup.Duplicate":      true,
	"Resource.AlreadyAssociated":  true,
	"RouteAlreadyExists":          true,
	"InvalidKeyPair.Duplicate":    true,
}

// IsAlreadyExists checks if an error indicates the change is already in place.
func IsAlreadyExists(err error) bool {
	return alreadyExistsCodes[errorCode(err)]
}

// IsThrottled checks if an error indicates request throttling.
func IsThrottled(err error) bool {
	switch errorCode(err) {
	case "RequestLimitExceeded", "Throttling", "ThrottlingException", "Client.RequestLimitExceeded":
		return true
	}
	return false
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
