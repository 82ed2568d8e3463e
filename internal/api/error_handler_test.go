package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/welfare-portal/internal/domain/dto"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{
			name: "coded",
			err:  fmt.Errorf("fetch beneficiaries report: %w", constants.ErrSuperseded),
			code: http.StatusConflict,
			body: `{"message":"fetch beneficiaries report: request superseded by a newer one","code":409}`,
		},
		{
			name: "upstream",
			err:  fmt.Errorf("fetch accessible locations: %w", &constants.UpstreamError{Status: 500, Message: "db down"}),
			code: http.StatusBadGateway,
			body: `{"message":"db down","code":502}`,
		},
		{
			name: "echo",
			err:  echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"),
			code: http.StatusMethodNotAllowed,
			body: `{"message":"Method Not Allowed","code":405}`,
		},
		{
			name: "plain",
			err:  fmt.Errorf("boom"),
			code: http.StatusInternalServerError,
			body: `{"message":"boom","code":500}`,
		},
	}

	e := echo.New()
	e.JSONSerializer = sonicSerializer{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			httpErrorHandler(tt.err, c)

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestValidatorUsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&dto.Credentials{Username: "officer"})
	var ve *constants.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)
	assert.Equal(t, "password: is required", ve.Error())

	assert.NoError(t, v.Validate(&dto.Credentials{Username: "officer", Password: "x"}))
	assert.NoError(t, v.Validate(map[string]string{}))
}
