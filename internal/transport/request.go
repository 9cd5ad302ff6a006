package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/agentstation/configurator/pkg/errors"
)

// request is the GraphQL-over-HTTP request envelope.
type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// response is the GraphQL-over-HTTP response envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Path    []any  `json:"path,omitempty"`
	} `json:"errors"`
}

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// decodeResponse reads resp and decodes its data into out.
func decodeResponse(resp *http.Response, operation string, out any) error {
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := truncate(strings.TrimSpace(string(body)), maxErrorBody)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errors.NewAPIError(operation, resp.StatusCode, msg)
	}

	var env response
	if err := json.Unmarshal(body, &env); err != nil {
		return errors.WrapParse("json", operation, err)
	}

	if len(env.Errors) > 0 {
		gqlErr := &errors.GraphQLError{Operation: operation}
		for _, e := range env.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return gqlErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.WrapParse("json", operation, err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
