package session_api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-gorm/caches/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	internal_entity "github.com/speakwise/api/session-api/internal/entity"
	internal_session "github.com/speakwise/api/session-api/internal/session"
	"github.com/speakwise/config"
	"github.com/speakwise/pkg/commons"
	storage_files "github.com/speakwise/pkg/storages/file-storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Test Doubles ---

type testConnector struct {
	db *gorm.DB
}

func (c *testConnector) DB(ctx context.Context) *gorm.DB     { return c.db.WithContext(ctx) }
func (c *testConnector) Ping(ctx context.Context) error      { return nil }
func (c *testConnector) UseQueryCache(_ caches.Cacher) error { return nil }
func (c *testConnector) Migrate() error                      { return nil }
func (c *testConnector) Close() error                        { return nil }

func newTestLogger() commons.Logger {
	l, _ := commons.NewApplicationLogger()
	return l
}

type fakeStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeStorage) Store(ctx context.Context, key string, data []byte, contentType string) error {
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage_files.ErrNotFound, key)
	}
	return data, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type fakeScheduler struct {
	enqueued []string
	err      error
}

func (f *fakeScheduler) EnqueuePipelineRun(ctx context.Context, sessionId string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, sessionId)
	return nil
}

// --- Harness ---

type harness struct {
	api       *sessionApi
	engine    *gin.Engine
	store     internal_session.Store
	storage   *fakeStorage
	scheduler *fakeScheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&internal_entity.Session{},
		&internal_entity.Transcript{},
		&internal_entity.Insight{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	connector := &testConnector{db: db}
	logger := newTestLogger()

	h := &harness{
		store:     internal_session.NewStore(connector, logger),
		storage:   &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}},
		scheduler: &fakeScheduler{},
	}
	h.api = &sessionApi{
		cfg:       &config.AppConfig{Secret: "test-secret"},
		logger:    logger,
		postgres:  connector,
		store:     h.store,
		storage:   h.storage,
		scheduler: h.scheduler,
	}

	h.engine = gin.New()
	apiv1 := h.engine.Group("v1/session")
	apiv1.POST("/create", h.api.Create)
	apiv1.POST("/:sessionId/audio", h.api.UploadAudio)
	apiv1.GET("/:sessionId", h.api.Get)
	apiv1.DELETE("/:sessionId", h.api.Delete)
	return h
}

func (h *harness) createSession(t *testing.T, userId string) string {
	t.Helper()
	id, err := h.store.Save(context.Background(), &internal_entity.Session{UserId: userId})
	require.NoError(t, err)
	return id
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func multipartAudio(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// --- Create Tests ---

func TestCreate_ReturnsSessionId(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/session/create",
		bytes.NewBufferString(`{"userId": "u1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := h.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response["sessionId"])
	assert.Equal(t, "CREATED", response["status"])

	sess, err := h.store.Get(context.Background(), response["sessionId"])
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserId)
}

func TestCreate_RequiresUserId(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/session/create",
		bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := h.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_RejectsMalformedBody(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/session/create",
		bytes.NewBufferString(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	w := h.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Upload Tests ---

func TestUploadAudio_StoresAndEnqueues(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")

	body, contentType := multipartAudio(t, "practice.webm", []byte("webm-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/session/"+id+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := h.do(req)

	require.Equal(t, http.StatusOK, w.Code)

	key := storage_files.AudioObjectKey("u1", id, "webm")
	assert.Equal(t, []byte("webm-bytes"), h.storage.objects[key])
	assert.Equal(t, "audio/webm", h.storage.types[key])
	assert.Equal(t, []string{id}, h.scheduler.enqueued)

	sess, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, internal_entity.SessionUploaded, sess.Status)
	assert.Equal(t, key, sess.AudioKey)
	assert.Equal(t, "audio/webm", sess.AudioContentType)
}

func TestUploadAudio_UnknownSession(t *testing.T) {
	h := newHarness(t)

	body, contentType := multipartAudio(t, "practice.webm", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/session/missing/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := h.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, h.scheduler.enqueued)
}

func TestUploadAudio_RejectsClaimedSession(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")
	require.NoError(t, h.store.UpdateFields(context.Background(), id, map[string]interface{}{
		"status": internal_entity.SessionTranscribing,
	}))

	body, contentType := multipartAudio(t, "practice.webm", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/session/"+id+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := h.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, h.scheduler.enqueued)
}

func TestUploadAudio_RequiresAudioField(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "my practice"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/session/"+id+"/audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := h.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAudio_RejectsEmptyFile(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")

	body, contentType := multipartAudio(t, "practice.webm", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/session/"+id+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := h.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, h.scheduler.enqueued)
}

func TestUploadAudio_SchedulerFailureKeepsSessionRetryable(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")
	h.scheduler.err = fmt.Errorf("queue unreachable")

	body, contentType := multipartAudio(t, "practice.webm", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/session/"+id+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := h.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// Audio is stored and the session stays UPLOADED, so a retried upload
	// can schedule the run again.
	sess, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, internal_entity.SessionUploaded, sess.Status)
}

func TestUploadAudio_DefaultsExtensionWhenFilenameHasNone(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")

	body, contentType := multipartAudio(t, "blob", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/session/"+id+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := h.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	key := storage_files.AudioObjectKey("u1", id, "webm")
	assert.Contains(t, h.storage.objects, key)
}

// --- Get Tests ---

func TestGet_ReturnsSessionWithFeedback(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")
	require.NoError(t, h.store.SaveTranscript(context.Background(), &internal_entity.Transcript{
		SessionId: id,
		Text:      "so I was thinking",
		WordCount: 4,
	}))
	require.NoError(t, h.store.SaveInsights(context.Background(), id, []*internal_entity.Insight{
		{
			SessionId: id,
			Category:  internal_entity.CategoryGrammar,
			Pattern:   "articles",
			Frequency: 2,
			Severity:  internal_entity.SeverityHigh,
		},
	}, "Practice article usage"))

	req := httptest.NewRequest(http.MethodGet, "/v1/session/"+id, nil)
	w := h.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	var response internal_entity.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, id, response.SessionId)
	assert.Equal(t, "Practice article usage", response.FocusNext)
	require.NotNil(t, response.Transcript)
	assert.Equal(t, "so I was thinking", response.Transcript.Text)
	require.Len(t, response.Insights, 1)
	assert.Equal(t, internal_entity.CategoryGrammar, response.Insights[0].Category)
}

func TestGet_NotFound(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/session/missing", nil)
	w := h.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Delete Tests ---

func TestDelete_RequiresServiceSecret(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")

	req := httptest.NewRequest(http.MethodDelete, "/v1/session/"+id, nil)
	w := h.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/session/"+id, nil)
	req.Header.Set("Authorization", "Bearer wrong-secret")
	w = h.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, err := h.store.Get(context.Background(), id)
	assert.NoError(t, err, "unauthorized delete must not remove the session")
}

func TestDelete_PurgesAudioAndRows(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t, "u1")
	key := storage_files.AudioObjectKey("u1", id, "webm")
	h.storage.objects[key] = []byte("webm-bytes")
	require.NoError(t, h.store.MarkUploaded(context.Background(), id, key, "audio/webm"))

	req := httptest.NewRequest(http.MethodDelete, "/v1/session/"+id, nil)
	req.Header.Set("Authorization", "Bearer test-secret")
	w := h.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, h.storage.objects, key)

	_, err := h.store.Get(context.Background(), id)
	assert.ErrorIs(t, err, internal_session.ErrSessionNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodDelete, "/v1/session/missing", nil)
	req.Header.Set("Authorization", "Bearer test-secret")
	w := h.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
