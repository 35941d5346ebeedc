package httpapi

import (
	"encoding/json"
	"strings"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// errorBody is the service's failure body. detail is either a message or,
// for request validation failures, a list of {msg, loc, type} items.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Msg string `json:"msg"`
}

// newAPIError builds an APIError carrying whatever detail the body provides
func newAPIError(status int, body []byte) *domain.APIError {
	return &domain.APIError{StatusCode: status, Detail: parseDetail(body)}
}

// parseDetail extracts a displayable message from a failure body.
// It returns "" when the body has no usable detail.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(eb.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []validationItem
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
