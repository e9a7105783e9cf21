package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDomain = errors.New("shop: widget missing")

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		kind   error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrUpstream, http.StatusBadGateway},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		err := Classify(tc.kind, fmt.Errorf("lookup: %w", errDomain))
		RespondError(rec, err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Contains(t, rec.Body.String(), "widget missing")
		assert.True(t, errors.Is(err, errDomain))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password leaked"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "leaked")
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
		Qty  int    `json:"qty" validate:"gte=1"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","qty":0}`))
	var p payload
	err := DecodeAndValidate(req, &p)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "Name: required")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	require.ErrorIs(t, DecodeAndValidate(req, &p), ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","qty":2}`))
	require.NoError(t, DecodeAndValidate(req, &p))
	assert.Equal(t, 2, p.Qty)
}
