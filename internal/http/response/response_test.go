package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/civicpulse-backend/internal/platform/apierr"
)

func respond(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondAPIError(c, err)
	var env ErrorEnvelope
	if decodeErr := json.Unmarshal(w.Body.Bytes(), &env); decodeErr != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), decodeErr)
	}
	return w.Code, env
}

func TestRespondAPIError(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"client error", apierr.BadRequest("invalid_request", "title is required"), http.StatusBadRequest, "invalid_request", "title is required"},
		{"wrapped", errors.Join(errors.New("ctx"), apierr.NotFound("complaint_not_found", "complaint not found")), http.StatusNotFound, "complaint_not_found", "complaint not found"},
		{"internal detail hidden", apierr.New(http.StatusInternalServerError, "internal_error", errors.New("pq: connection refused")), http.StatusInternalServerError, "internal_error", "Internal Server Error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error", "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := respond(t, tc.err)
			if status != tc.wantStatus || env.Error.Code != tc.wantCode || env.Error.Message != tc.wantMessage {
				t.Fatalf("got (%d, %+v), want (%d, %q, %q)", status, env.Error, tc.wantStatus, tc.wantCode, tc.wantMessage)
			}
		})
	}
}
