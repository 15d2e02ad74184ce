package adapter

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-protocol-sync/models"
)

// mapHTTPError turns a non-2xx response into an adapter sentinel. Every
// failure also matches [models.ErrNetworkFailure] except 401, which matches
// [models.ErrAuthenticationRequired].
func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w: %s", models.ErrAuthenticationRequired, ErrUnauthorized, body)
	case code == http.StatusBadRequest:
		return fmt.Errorf("%w: %w: %s", models.ErrNetworkFailure, ErrBadRequest, body)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s", models.ErrNetworkFailure, ErrForbidden, body)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s", models.ErrNetworkFailure, ErrNotFound, body)
	case code == http.StatusConflict:
		return fmt.Errorf("%w: %w: %s", models.ErrNetworkFailure, ErrConflict, body)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w: %s", models.ErrNetworkFailure, ErrRateLimited, body)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w: http %d: %s", models.ErrNetworkFailure, ErrServiceUnavailable, code, body)
	default:
		return fmt.Errorf("%w: http %d: %s", models.ErrNetworkFailure, code, body)
	}
}

// wrapTransportError marks a failed round trip as a network failure.
func wrapTransportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrNetworkFailure, op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
