package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestServer creates a test HTTP server with Gin
func TestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

// TestContext creates a test Gin context
func TestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)

	return ctx, recorder
}

// SetupTestEnvironment clears delegation settings inherited from the host and
// sets the stage to local.
func SetupTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("STAGE", "local")
	t.Setenv("LOG_LEVEL", "error")
	for _, key := range []string{
		"RPC_URL", "CHAIN_ID", "DELEGATE_ADDRESS", "OWNER_ADDRESS", "GAS_LIMIT",
		"NONCE_POLICY", "RECIPIENT", "POLL_INTERVAL", "INCLUSION_TIMEOUT", "RPC_REQUESTS_PER_SECOND",
		"OWNER_PRIVATE_KEY", "OWNER_PRIVATE_KEY_ARN", "PRIVATE_KEY",
		"GAS_PAYER_PRIVATE_KEY", "GAS_PAYER_PRIVATE_KEY_ARN",
	} {
		t.Setenv(key, "")
	}
}

// AssertStatusCode checks HTTP status code
func AssertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if recorder.Code != expected {
		t.Errorf("Expected status code %d, got %d. Response body: %s",
			expected, recorder.Code, recorder.Body.String())
	}
}
