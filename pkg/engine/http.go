package engine

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// HTTPRequest describes an HTTP call made by a virtual user.
type HTTPRequest struct {
	Name    string
	Method  string
	URL     string
	Body    string
	Headers map[string]string
	// Expected response status. A value of 0 accepts any status below 400.
	ExpectStatus int
}

// Action returns an action performing the request with client, or http.DefaultClient if client is nil.
func (r HTTPRequest) Action(client *http.Client) Action {
	if client == nil {
		client = http.DefaultClient
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	return Action{
		Name: r.Name,
		Exec: func(ctx context.Context) error {
			var body io.Reader
			if r.Body != "" {
				body = strings.NewReader(r.Body)
			}
			req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
			if err != nil {
				return errors.WithStack(err)
			}
			for k, v := range r.Headers {
				req.Header.Set(k, v)
			}
			resp, err := client.Do(req)
			if err != nil {
				return errors.WithStack(err)
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			if r.ExpectStatus != 0 && resp.StatusCode != r.ExpectStatus {
				return errors.Errorf("expected status %d but got %d", r.ExpectStatus, resp.StatusCode)
			}
			if r.ExpectStatus == 0 && resp.StatusCode >= 400 {
				return errors.Errorf("unexpected status %d", resp.StatusCode)
			}
			return nil
		},
	}
}
