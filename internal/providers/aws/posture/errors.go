package awsposture

import (
	"context"
	"errors"
	"net"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

var errorCodeKinds = map[string]models.ErrorKind{
	"AccessDenied":             models.ErrAccessDenied,
	"AccessDeniedException":    models.ErrAccessDenied,
	"AllAccessDisabled":        models.ErrAccessDenied,
	"UnauthorizedOperation":    models.ErrAccessDenied,
	"InvalidClientTokenId":     models.ErrAccessDenied,
	"ExpiredToken":             models.ErrAccessDenied,
	"NoSuchBucket":             models.ErrNotFound,
	"NoSuchEntity":             models.ErrNotFound,
	"NoSuchEntityException":    models.ErrNotFound,
	"TrailNotFoundException":   models.ErrNotFound,
	"NotFound":                 models.ErrNotFound,
	"Throttling":               models.ErrThrottled,
	"ThrottlingException":      models.ErrThrottled,
	"SlowDown":                 models.ErrThrottled,
	"TooManyRequestsException": models.ErrThrottled,
	"RequestLimitExceeded":     models.ErrThrottled,
	"MalformedPolicyDocument":  models.ErrMalformed,
}

// KindOf classifies an error returned by an AWS SDK call.
func KindOf(err error) models.ErrorKind {
	var fe *models.FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrTimeout
	case errors.Is(err, context.Canceled):
		return models.ErrCanceled
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := errorCodeKinds[apiErr.ErrorCode()]; ok {
			return kind
		}
		return models.ErrUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ErrTimeout
	}
	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) || netErr != nil {
		return models.ErrTransport
	}
	return models.ErrUnknown
}

// wrap tags err with op and its classification. nil stays nil.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &models.FetchError{Kind: KindOf(err), Op: op, Err: err}
}

// isErrorCode reports whether err is an API error with the given code.
func isErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
