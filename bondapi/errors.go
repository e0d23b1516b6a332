package bondapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// RequestError is returned for any response outside the 2xx range. Message is the
// backend's "error" field when the body carries one, otherwise the HTTP status text.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// statusText returns the reason phrase of the response, e.g. "Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// decodeResponse unmarshals a 2xx JSON body into v, or converts any other response into
// a *RequestError.
func decodeResponse[T any](resp *http.Response, v *T) error {
	if isSuccess(resp) {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("unable to decode response body (status code = %d), %w", resp.StatusCode, err)
		}
		return nil
	}

	reqErr := &RequestError{
		StatusCode: resp.StatusCode,
		Message:    statusText(resp),
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reqErr
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		reqErr.Message = eb.Error
	}
	return reqErr
}
