// api.go -- Sender that forwards submissions to a remote HTTP API.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a failed call to the remote contact API. Status 408 marks
// a timeout.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("contact api: status %d: %s", e.Status, e.Message)
}

// maxAPIBody caps how much of an error body is kept for logs.
const maxAPIBody = 4 << 10

// APISender POSTs the submission as JSON to URL and expects a
// {"success": bool, "message": string} reply.
type APISender struct {
	URL    string
	Client *http.Client
}

// NewAPISender returns an APISender using the default HTTP client. Deadlines
// come from the caller's context.
func NewAPISender(url string) *APISender {
	return &APISender{URL: url, Client: http.DefaultClient}
}

func (s *APISender) Send(ctx context.Context, sub Submission) (Result, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return Result{}, fmt.Errorf("encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("building contact api request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, &APIError{Status: http.StatusRequestTimeout, Message: "request timed out"}
		}
		return Result{}, fmt.Errorf("contact api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIBody))
	if err != nil {
		return Result{}, fmt.Errorf("reading contact api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Body: string(body)}
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return Result{}, &APIError{Status: resp.StatusCode, Message: "invalid response body", Body: string(body)}
	}
	return res, nil
}
