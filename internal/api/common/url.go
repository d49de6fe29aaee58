package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetAndValidateURLParam extracts and decodes a URL parameter from the request.
// chi matches against the raw path when the request carried escapes that
// change meaning (such as %2F), in which case the value is unescaped here.
// The decoded value must not be blank.
func GetAndValidateURLParam(r *http.Request, paramName string) (string, error) {
	value := chi.URLParam(r, paramName)

	if r.URL.RawPath != "" {
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return "", fmt.Errorf("invalid URL encoding in %s", paramName)
		}
		value = decoded
	}

	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s cannot be empty", paramName)
	}

	return value, nil
}
