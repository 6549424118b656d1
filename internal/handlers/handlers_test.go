package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(t *testing.T, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Params = gin.Params{{Key: "creatorId", Value: "creator-1"}}
	return c, w
}

func TestGetLifecycle_MissingUserHeader(t *testing.T) {
	c, w := testContext(t, http.MethodGet, "/api/v1/lifecycle/creator-1", "")

	handler := NewLifecycleHandler(nil)
	handler.GetLifecycle(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "user-id")
}

func TestReportDeath_MissingUserHeader(t *testing.T) {
	c, w := testContext(t, http.MethodPost, "/api/v1/lifecycle/creator-1/report-death", "")

	handler := NewLifecycleHandler(nil)
	handler.ReportDeath(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitConsent_InvalidBody(t *testing.T) {
	c, w := testContext(t, http.MethodPost, "/api/v1/lifecycle/creator-1/consent", `{}`)
	c.Set("userID", "member-1")

	handler := NewConsentHandler(nil)
	handler.SubmitConsent(c)

	// consented is required; an empty body must not default to a decline
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitConsent_MalformedJSON(t *testing.T) {
	c, w := testContext(t, http.MethodPost, "/api/v1/lifecycle/creator-1/consent", `{not json`)
	c.Set("userID", "member-1")

	handler := NewConsentHandler(nil)
	handler.SubmitConsent(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitDeletionConsent_MissingUserHeader(t *testing.T) {
	c, w := testContext(t, http.MethodPost, "/api/v1/lifecycle/creator-1/deletion-consent", `{"consented":true}`)

	handler := NewDeletionHandler(nil)
	handler.SubmitDeletionConsent(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
