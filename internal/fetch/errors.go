package fetch

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	maxErrorBody   = 64 << 10
	maxDetailChars = 160
)

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	// Detail is a one-line excerpt of the response body.
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return "HTTP " + strconv.Itoa(e.StatusCode)
	}
	return "HTTP " + strconv.Itoa(e.StatusCode) + " - " + e.Detail
}

// errorDetail picks the most useful text out of an error body: a string
// "error" field, a coded {"error":{"code","message"}} object, the compact
// JSON, or the raw text.
func errorDetail(contentType string, body []byte) string {
	var detail string
	if strings.Contains(contentType, "application/json") {
		detail = jsonDetail(body)
	} else {
		detail = string(body)
	}
	detail = strings.Join(strings.Fields(detail), " ")
	if r := []rune(detail); len(r) > maxDetailChars {
		detail = string(r[:maxDetailChars])
	}
	return detail
}

func jsonDetail(body []byte) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}

	var msg string
	if err := json.Unmarshal(payload.Error, &msg); err == nil {
		return msg
	}
	var coded struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &coded); err == nil && coded.Message != "" {
		if coded.Code != "" {
			return coded.Code + ": " + coded.Message
		}
		return coded.Message
	}
	return string(body)
}
