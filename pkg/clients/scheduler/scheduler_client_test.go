package scheduler_client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
	"github.com/speakwise/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Signature format
// =============================================================================

func TestSign_ProducesVerifiableToken(t *testing.T) {
	body := []byte(`{"sessionId":"s1"}`)
	now := time.Now()

	token, err := Sign(body, "signing-key", "https://api.example.com/v1/session/pipeline/run", now)
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("signing-key"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err, "token must verify with the signing key")
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, SignatureIssuer, claims["iss"])
	assert.Equal(t, "https://api.example.com/v1/session/pipeline/run", claims["sub"])
	assert.Equal(t, BodyDigest(body), claims[BodyDigestClaim], "digest claim must cover the raw body")
}

func TestBodyDigest_ChangesWithBody(t *testing.T) {
	assert.NotEqual(t, BodyDigest([]byte("a")), BodyDigest([]byte("b")))
	assert.Equal(t, BodyDigest([]byte("a")), BodyDigest([]byte("a")))
}

// =============================================================================
// Queue publishing
// =============================================================================

func TestEnqueuePipelineRun_PublishesToQueue(t *testing.T) {
	var (
		captured publishRequest
		auth     string
		path     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messageId":"m1"}`))
	}))
	defer srv.Close()

	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)

	client := NewSchedulerClient(configs.SchedulerConfig{
		Url:               srv.URL,
		Token:             "queue-token",
		Destination:       "https://api.example.com",
		CurrentSigningKey: "current-key",
		NextSigningKey:    "next-key",
	}, logger)

	require.NoError(t, client.EnqueuePipelineRun(context.Background(), "s1"))

	assert.Equal(t, "Bearer queue-token", auth)
	assert.Equal(t, "/v1/publish", path)
	assert.Equal(t, "https://api.example.com/v1/session/pipeline/run", captured.Destination)
	assert.JSONEq(t, `{"sessionId":"s1"}`, string(captured.Body))

	signature := captured.Headers[utils.HEADER_SIGNATURE_KEY]
	require.NotEmpty(t, signature, "publish request must forward the delivery signature")

	parsed, err := jwt.Parse(signature, func(tok *jwt.Token) (interface{}, error) {
		return []byte("current-key"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err, "forwarded signature must be signed with the current key")
	assert.True(t, parsed.Valid)
}

func TestEnqueuePipelineRun_QueueErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)

	client := NewSchedulerClient(configs.SchedulerConfig{
		Url:               srv.URL,
		Destination:       "https://api.example.com",
		CurrentSigningKey: "current-key",
	}, logger)

	err = client.EnqueuePipelineRun(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

// =============================================================================
// Inline delivery (no queue configured)
// =============================================================================

func TestEnqueuePipelineRun_InlineDelivery(t *testing.T) {
	var signature string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PipelineRunPath, r.URL.Path)
		signature = r.Header.Get(utils.HEADER_SIGNATURE_KEY)
		var err error
		body, err = json.Marshal(map[string]string{"sessionId": "s1"})
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)

	client := NewSchedulerClient(configs.SchedulerConfig{
		Url:               "",
		Destination:       srv.URL,
		CurrentSigningKey: "current-key",
	}, logger)

	require.NoError(t, client.EnqueuePipelineRun(context.Background(), "s1"))
	require.NotEmpty(t, signature, "inline delivery must carry the signature header")

	parsed, err := jwt.Parse(signature, func(tok *jwt.Token) (interface{}, error) {
		return []byte("current-key"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, BodyDigest(body), claims[BodyDigestClaim])
}
