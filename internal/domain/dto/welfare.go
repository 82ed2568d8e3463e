package dto

import (
	"github.com/bytedance/sonic"
)

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse covers the token field names the welfare API has used.
type LoginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	AltToken    string `json:"access_token"`
	Data        *struct {
		Token string `json:"token"`
	} `json:"data"`
}

func (r *LoginResponse) BearerToken() string {
	switch {
	case r.Token != "":
		return r.Token
	case r.AccessToken != "":
		return r.AccessToken
	case r.AltToken != "":
		return r.AltToken
	case r.Data != nil:
		return r.Data.Token
	default:
		return ""
	}
}

// ErrorBody is the JSON error shape of the welfare API.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b *ErrorBody) Text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// RowsEnvelope accepts both a bare JSON array and {"data": [...]}.
type RowsEnvelope struct {
	Rows []map[string]interface{}
}

func (e *RowsEnvelope) UnmarshalJSON(data []byte) error {
	var rows []map[string]interface{}
	if err := sonic.Unmarshal(data, &rows); err == nil {
		e.Rows = rows
		return nil
	}

	var wrapped struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := sonic.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	e.Rows = wrapped.Data
	return nil
}
