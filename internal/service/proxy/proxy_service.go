// Package proxy runs ad hoc calls against external APIs for the portal's
// connectivity checks, logging in first when the target needs a token.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/domain/dto"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
	"github.com/ougirez/welfare-portal/internal/pkg/welfareapi"
)

const maxBody = 10 << 20

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

type Request struct {
	URL             string                 `json:"url" validate:"required,url"`
	Method          string                 `json:"method"`
	Payload         interface{}            `json:"payload,omitempty"`
	QueryParams     map[string]interface{} `json:"queryParams,omitempty"`
	RequiresAuth    bool                   `json:"requiresAuth"`
	AuthToken       string                 `json:"authToken,omitempty"`
	UserCredentials *dto.Credentials       `json:"userCredentials,omitempty" validate:"-"`
}

type Response struct {
	Success      bool              `json:"success"`
	StatusCode   int               `json:"statusCode"`
	ResponseTime int64             `json:"responseTime"`
	Data         interface{}       `json:"data"`
	Headers      map[string]string `json:"headers,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Outcome is the response plus the cookie changes the caller must apply.
// IssuedToken is set after a fresh login; ClearToken after an upstream 401.
type Outcome struct {
	Response
	IssuedToken string
	ClearToken  bool
}

type Authenticator interface {
	Login(ctx context.Context, creds *dto.Credentials) (*utils.AuthContext, error)
}

type Recorder interface {
	InsertAPICheck(ctx context.Context, check *domain.APICheck) (*domain.APICheck, error)
}

type Service struct {
	doer     welfareapi.Doer
	auth     Authenticator
	recorder Recorder
	timeout  time.Duration
	now      func() time.Time
}

// NewProxyService builds the proxy. recorder may be nil.
func NewProxyService(doer welfareapi.Doer, auth Authenticator, recorder Recorder, timeout time.Duration) *Service {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Service{doer: doer, auth: auth, recorder: recorder, timeout: timeout, now: time.Now}
}

// Check performs req. cookieToken is the token currently stored in the
// caller's cookie, if any. Any 401 from the target marks the cookie for
// deletion, whether or not the call asked for auth.
func (s *Service) Check(ctx context.Context, req *Request, cookieToken string) *Outcome {
	started := s.now()
	out := s.check(ctx, req, cookieToken)
	out.ResponseTime = s.now().Sub(started).Milliseconds()

	s.record(ctx, req, out)
	return out
}

func (s *Service) check(ctx context.Context, req *Request, cookieToken string) *Outcome {
	method := normalizeMethod(req.Method)
	if _, ok := allowedMethods[method]; !ok {
		return failure(http.StatusBadRequest, (&constants.ValidationError{Field: "method", Reason: "unsupported method " + req.Method}).Error())
	}

	target, err := BuildURL(req.URL, req.QueryParams)
	if err != nil {
		return failure(http.StatusBadRequest, err.Error())
	}

	out := &Outcome{}

	var token string
	if req.RequiresAuth {
		token = strings.TrimSpace(req.AuthToken)
		if token == "" {
			token = cookieToken
		}
		if token == "" {
			authCtx, err := s.auth.Login(ctx, req.UserCredentials)
			if err != nil {
				logger.Warnf(ctx, "check-external-api: login failed: %s", err.Error())
				return failure(http.StatusUnauthorized, constants.ErrFailedToAuthenticate.Error())
			}
			token = authCtx.Token
			out.IssuedToken = token
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpReq, err := newRequest(callCtx, method, target, req.Payload)
	if err != nil {
		return out.fail(http.StatusInternalServerError, err.Error())
	}
	if token != "" {
		httpReq.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
	}

	resp, err := s.doer.Do(httpReq)
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			return out.fail(http.StatusRequestTimeout, constants.ErrRequestTimeout.Error())
		}
		return out.fail(http.StatusInternalServerError, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			return out.fail(http.StatusRequestTimeout, constants.ErrRequestTimeout.Error())
		}
		return out.fail(http.StatusInternalServerError, fmt.Sprintf("read response: %s", err.Error()))
	}

	out.StatusCode = resp.StatusCode
	out.Success = resp.StatusCode >= 200 && resp.StatusCode <= 299
	out.Data = decodeBody(resp.Header.Get("Content-Type"), body)
	out.Headers = flattenHeaders(resp.Header)

	if !out.Success {
		out.Error = welfareapi.ErrorMessage(resp.Header.Get("Content-Type"), body, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		out.ClearToken = true
		out.IssuedToken = ""
	}

	return out
}

func (s *Service) record(ctx context.Context, req *Request, out *Outcome) {
	if s.recorder == nil {
		return
	}

	check := &domain.APICheck{
		Method:         normalizeMethod(req.Method),
		URL:            redact(req.URL),
		StatusCode:     out.StatusCode,
		Success:        out.Success,
		ResponseTimeMs: out.ResponseTime,
		Error:          out.Error,
	}
	if id, ok := ctx.Value(constants.CtxKeyRequestID).(string); ok {
		check.RequestID = id
	}
	if a, ok := ctx.Value(constants.CtxKeyAuth).(*utils.AuthContext); ok {
		check.UserID = a.UserID()
	}

	if _, err := s.recorder.InsertAPICheck(ctx, check); err != nil {
		logger.Errorf(ctx, "record api check: %s", err.Error())
	}
}

func failure(status int, msg string) *Outcome {
	return (&Outcome{}).fail(status, msg)
}

func (o *Outcome) fail(status int, msg string) *Outcome {
	o.Success = false
	o.StatusCode = status
	o.Error = msg
	return o
}

func normalizeMethod(m string) string {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return http.MethodGet
	}
	return m
}

// BuildURL merges params into the query string of raw.
func BuildURL(raw string, params map[string]interface{}) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", &constants.ValidationError{Field: "url", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &constants.ValidationError{Field: "url", Reason: "must be an http or https url"}
	}

	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			if v == nil {
				continue
			}
			q.Set(k, queryValue(v))
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// queryValue renders a decoded JSON value the way it appeared in the
// request: integers without exponents, composites as JSON.
func queryValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}, []interface{}:
		raw, err := sonic.MarshalString(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return raw
	default:
		return fmt.Sprint(t)
	}
}

func newRequest(ctx context.Context, method, target string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil && method != http.MethodGet {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func decodeBody(contentType string, body []byte) interface{} {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if strings.Contains(contentType, "json") || trimmed[0] == '{' || trimmed[0] == '[' {
		var v interface{}
		if err := sonic.Unmarshal(trimmed, &v); err == nil {
			return v
		}
	}
	return string(body)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) == 0 || strings.EqualFold(k, "Set-Cookie") {
			continue
		}
		out[k] = strings.Join(vs, ", ")
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// redact drops credentials and query values before the url is stored.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
