package internal_notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_entity "github.com/speakwise/api/session-api/internal/entity"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

func newTestLogger() commons.Logger {
	l, _ := commons.NewApplicationLogger()
	return l
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []string
	subjects []string
}

func (f *fakeMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, toEmail)
	f.subjects = append(f.subjects, subject)
	return nil
}

func doneSession() *internal_entity.Session {
	return &internal_entity.Session{
		SessionId: "s1",
		UserId:    "u1",
		Status:    internal_entity.SessionDone,
		FocusNext: "practice articles",
	}
}

func failedSession() *internal_entity.Session {
	return &internal_entity.Session{
		SessionId:    "s1",
		UserId:       "u1",
		Status:       internal_entity.SessionFailed,
		ErrorMessage: "transcription provider unavailable",
	}
}

func TestNotifyTerminal_DeliversWebhook(t *testing.T) {
	var received terminalEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, configs.MailerConfig{}, newTestLogger())
	err := n.NotifyTerminal(context.Background(), doneSession())
	require.NoError(t, err)

	assert.Equal(t, "s1", received.SessionId)
	assert.Equal(t, "DONE", received.Status)
	assert.Equal(t, "practice articles", received.FocusNext)
	assert.Empty(t, received.ErrorMessage)
}

func TestNotifyTerminal_SurfacesWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, configs.MailerConfig{}, newTestLogger())
	err := n.NotifyTerminal(context.Background(), doneSession())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotifyTerminal_NoTargetsConfigured(t *testing.T) {
	n := NewNotifier("", configs.MailerConfig{}, newTestLogger())
	assert.NoError(t, n.NotifyTerminal(context.Background(), doneSession()))
}

func TestNotifyTerminal_MailsOperatorsOnFailure(t *testing.T) {
	mailer := &fakeMailer{}
	n := &restNotifier{
		mailer:   mailer,
		opsEmail: "oncall@speakwise.io",
		logger:   newTestLogger(),
	}

	require.NoError(t, n.NotifyTerminal(context.Background(), failedSession()))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "oncall@speakwise.io", mailer.sent[0])
	assert.Contains(t, mailer.subjects[0], "s1")
}

func TestNotifyTerminal_NoMailOnSuccess(t *testing.T) {
	mailer := &fakeMailer{}
	n := &restNotifier{
		mailer:   mailer,
		opsEmail: "oncall@speakwise.io",
		logger:   newTestLogger(),
	}

	require.NoError(t, n.NotifyTerminal(context.Background(), doneSession()))
	assert.Empty(t, mailer.sent)
}

func TestNewMailer_SelectsProvider(t *testing.T) {
	logger := newTestLogger()

	assert.IsType(t, &sendgridMailer{}, NewMailer(configs.MailerConfig{Provider: "sendgrid"}, logger))
	assert.IsType(t, &sesMailer{}, NewMailer(configs.MailerConfig{Provider: " SES "}, logger))
	assert.Nil(t, NewMailer(configs.MailerConfig{Provider: "smtp"}, logger))
	assert.Nil(t, NewMailer(configs.MailerConfig{}, logger))

	// An api key without an explicit provider keeps selecting sendgrid.
	assert.IsType(t, &sendgridMailer{}, NewMailer(configs.MailerConfig{SendgridApiKey: "SG.key"}, logger))
}

func TestSesMailer_MissingRegionSurfacesAtFirstSend(t *testing.T) {
	mailer := NewSesMailer(configs.MailerConfig{Provider: "ses", OpsEmail: "oncall@speakwise.io"}, newTestLogger())

	err := mailer.Send(context.Background(), "oncall@speakwise.io", "subject", "plain", "<p>html</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region is not configured")
}
