package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"merkado/internal/usecase"
	"merkado/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"http error", usecase.NewHTTPError(http.StatusConflict, "Store is currently closed: Closed"), 409, `{"error":"Store is currently closed: Closed"}`},
		{"validation with detail", fmt.Errorf("%w: email is required", usecase.ErrValidation), 400, `{"error":"email is required"}`},
		{"bare validation", usecase.ErrValidation, 400, `{"error":"validation error"}`},
		{"unauthorized", usecase.ErrUnauthorized, 401, `{"error":"unauthorized"}`},
		{"forbidden", usecase.ErrForbidden, 403, `{"error":"forbidden"}`},
		{"not found", usecase.ErrNotFound, 404, `{"error":"not found"}`},
		{"conflict", fmt.Errorf("%w: email already registered", usecase.ErrConflict), 409, `{"error":"email already registered"}`},
		{"unknown", errors.New("pq: connection refused"), 500, `{"error":"internal error"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, writeError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestQueryInt(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc", nil), httptest.NewRecorder())

	v, ok := queryInt(c, "page", 1)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = queryInt(c, "limit", 20)
	assert.False(t, ok)

	v, ok = queryInt(c, "missing", 20)
	assert.True(t, ok)
	assert.Equal(t, 20, v)
}

func TestParseIDParam(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")

	c.SetParamValues("42")
	id, ok := parseIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-1", "x"} {
		c.SetParamValues(bad)
		_, ok := parseIDParam(c, "id")
		assert.False(t, ok, bad)
	}
}

func TestBindBody(t *testing.T) {
	e := echo.New()
	e.Validator = validator.New()

	cases := []struct {
		name   string
		body   string
		ok     bool
		status int
		msg    string
	}{
		{"valid", `{"name":"Home","address":"Navotas","contact":"0917","latitude":14.6,"longitude":120.9}`, true, 0, ""},
		{"broken json", `{"name":`, false, 400, `{"error":"invalid body"}`},
		{"missing latitude", `{"name":"Home","address":"Navotas","contact":"0917","longitude":120.9}`, false, 400, `{"error":"latitude is required"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var body usecase.AddressCreateRequest
			ok, err := bindBody(c, &body)
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.Equal(t, tc.status, rec.Code)
				assert.JSONEq(t, tc.msg, rec.Body.String())
			}
		})
	}
}
