package welfareapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/ougirez/welfare-portal/internal/domain/dto"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
)

// Login exchanges credentials for a bearer token at loginURL.
func Login(ctx context.Context, doer Doer, loginURL string, creds dto.Credentials) (string, error) {
	if doer == nil {
		doer = http.DefaultClient
	}

	raw, err := sonic.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", upstreamError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}

	var lr dto.LoginResponse
	if err := sonic.Unmarshal(body, &lr); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	token := lr.BearerToken()
	if token == "" {
		return "", &constants.UpstreamError{Status: resp.StatusCode, Message: "login response carried no token"}
	}
	return token, nil
}
