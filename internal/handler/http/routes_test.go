// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit_RoutesAndMethods(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "status", method: http.MethodGet, path: "/api/status", want: http.StatusOK},
		{name: "history", method: http.MethodGet, path: "/api/history", want: http.StatusOK},
		{name: "records", method: http.MethodGet, path: "/api/records", want: http.StatusOK},
		{name: "force sync", method: http.MethodPost, path: "/api/sync", want: http.StatusAccepted},

		// registered path, wrong method: hidden as 404
		{name: "GET sync", method: http.MethodGet, path: "/api/sync", want: http.StatusNotFound},
		{name: "DELETE status", method: http.MethodDelete, path: "/api/status", want: http.StatusNotFound},
		{name: "GET conflict", method: http.MethodGet, path: "/api/conflict", want: http.StatusNotFound},
		{name: "POST record", method: http.MethodPost, path: "/api/records/Protocol/" + protocolID, want: http.StatusNotFound},

		{name: "unknown path", method: http.MethodGet, path: "/api/version", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, "")
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestInit_TraceIDOnEveryResponse(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/status", "/api/version"} {
		rr := env.do(t, http.MethodGet, path, "")
		assert.NotEmpty(t, rr.Header().Get(traceIDHeader), path)
	}
}

func TestInit_RecoversPanics(t *testing.T) {
	env := newTestEnv(t)
	env.handler.history = nil

	rr := env.do(t, http.MethodGet, "/api/history", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
