// Package welfareapi talks to the remote welfare-system REST API.
package welfareapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/domain/dto"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
)

const maxErrorBody = 64 << 10

// Doer is the part of *http.Client the client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	http    Doer
}

// NewClient builds a client for baseURL. A nil doer means http.DefaultClient,
// so calls have no explicit timeout and rely on the transport.
func NewClient(baseURL string, doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

func (c *Client) endpoint(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) newRequest(ctx context.Context, auth *utils.AuthContext, method, target string, body interface{}) (*http.Request, error) {
	if auth == nil || auth.Token == "" {
		return nil, constants.ErrMissingAuthToken
	}

	var reader io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+auth.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do performs req and decodes a 2xx JSON body into out. Non-2xx answers
// become *constants.UpstreamError.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func upstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &constants.UpstreamError{
		Status:  resp.StatusCode,
		Message: ErrorMessage(resp.Header.Get("Content-Type"), raw, resp.StatusCode),
	}
}

// ErrorMessage extracts a readable message from an error body: the
// message/error field of a JSON body, the title of an HTML page, a short
// plain text body, or the status text.
func ErrorMessage(contentType string, body []byte, status int) string {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && (trimmed[0] == '{' || strings.Contains(contentType, "json")) {
		var eb dto.ErrorBody
		if err := sonic.Unmarshal(trimmed, &eb); err == nil && eb.Text() != "" {
			return eb.Text()
		}
	}

	if strings.Contains(contentType, "html") || bytes.HasPrefix(trimmed, []byte("<")) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed)); err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return title
			}
			if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
				return h1
			}
		}
	} else if len(trimmed) > 0 && len(trimmed) <= 200 {
		return string(trimmed)
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// FetchAccessibleLocations returns the catalog the token's owner may see.
// Single attempt, no retries.
func (c *Client) FetchAccessibleLocations(ctx context.Context, auth *utils.AuthContext) (*domain.LocationCatalog, error) {
	req, err := c.newRequest(ctx, auth, http.MethodGet, c.endpoint("/accessible-locations"), nil)
	if err != nil {
		return nil, err
	}

	catalog := new(domain.LocationCatalog)
	if err := c.do(req, catalog); err != nil {
		return nil, err
	}

	if catalog.Districts == nil {
		catalog.Districts = []domain.District{}
	}
	if catalog.DSs == nil {
		catalog.DSs = []domain.DSDivision{}
	}
	if catalog.Zones == nil {
		catalog.Zones = []domain.Zone{}
	}
	if catalog.GNDDivisions == nil {
		catalog.GNDDivisions = []domain.GNDivision{}
	}

	return catalog, nil
}

// FetchReport queries a report endpoint with filters as query parameters.
func (c *Client) FetchReport(ctx context.Context, auth *utils.AuthContext, path string, filters domain.FilterState) ([]domain.ReportRow, error) {
	target, err := url.Parse(c.endpoint(path))
	if err != nil {
		return nil, fmt.Errorf("parse report url: %w", err)
	}
	q := target.Query()
	for k, vs := range filters.Values() {
		q[k] = vs
	}
	target.RawQuery = q.Encode()

	req, err := c.newRequest(ctx, auth, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}

	var env dto.RowsEnvelope
	if err := c.do(req, &env); err != nil {
		return nil, err
	}

	if env.Rows == nil {
		return []domain.ReportRow{}, nil
	}
	return env.Rows, nil
}

// SaveGrantUtilization creates the record when it has no id and updates it otherwise.
func (c *Client) SaveGrantUtilization(ctx context.Context, auth *utils.AuthContext, record *domain.GrantUtilization) (*domain.GrantUtilization, error) {
	method, path := http.MethodPost, "/grant-utilizations"
	if record.ID != "" {
		method, path = http.MethodPut, "/grant-utilizations/"+url.PathEscape(record.ID)
	}

	req, err := c.newRequest(ctx, auth, method, c.endpoint(path), record)
	if err != nil {
		return nil, err
	}

	var saved domain.GrantUtilization
	if err := c.do(req, &saved); err != nil {
		return nil, err
	}
	if saved.ID == "" {
		saved = *record
	}
	return &saved, nil
}
