package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

type fakeBackend struct {
	reply       string
	err         error
	block       bool
	instruction string
	message     string
}

func (b *fakeBackend) Reply(ctx context.Context, instruction, message string) (string, error) {
	b.instruction = instruction
	b.message = message
	if b.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return b.reply, b.err
}

func newTestAssistant(t *testing.T, backend ChatBackend, timeout time.Duration) (*AssistantService, *memoryFixture) {
	t.Helper()
	f := newMemoryFixture(t)
	svc := NewAssistantService(backend, f.students, f.grades, f.subjects, f.topics, testEngine(0), NewMetricsService(), nil, nil, AssistantConfig{
		Timeout:         timeout,
		FallbackMessage: "sorry",
	})
	return svc, f
}

func TestAssistantServiceReply(t *testing.T) {
	backend := &fakeBackend{reply: "  Weiter so!  "}
	svc, f := newTestAssistant(t, backend, time.Second)
	f.addGrade(t, testStudentID, mathID, 5.5, "2024-01-01")
	require.NoError(t, f.topics.Create(context.Background(), &models.Topic{SubjectID: mathID, Name: "Geometrie"}))

	resp, err := svc.Chat(context.Background(), studentActor(testStudentID), models.ChatRequest{Message: "Wie stehe ich?"})
	require.NoError(t, err)
	assert.Equal(t, "Weiter so!", resp.Reply)
	assert.False(t, resp.Fallback)

	assert.Equal(t, "Wie stehe ich?", backend.message)
	assert.Contains(t, backend.instruction, "Student name: Lena")
	assert.Contains(t, backend.instruction, "Mathematik (weight 1): average 5.50")
	assert.Contains(t, backend.instruction, "Bildnerisches Gestalten (weight 1): no grades yet")
	assert.Contains(t, backend.instruction, "[ ] Geometrie (Mathematik)")
}

func TestAssistantServiceStudentCannotBorrowContext(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	svc, _ := newTestAssistant(t, backend, time.Second)

	_, err := svc.Chat(context.Background(), studentActor(testStudentID), models.ChatRequest{Message: "hi", StudentID: otherStudentID})
	require.NoError(t, err)
	assert.Contains(t, backend.instruction, "Student name: Lena")
	assert.NotContains(t, backend.instruction, "Jonas")
}

func TestAssistantServiceAnonymousHasNoContext(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	svc, _ := newTestAssistant(t, backend, time.Second)

	_, err := svc.Chat(context.Background(), nil, models.ChatRequest{Message: "hi", StudentID: testStudentID})
	require.NoError(t, err)
	assert.NotContains(t, backend.instruction, "Student name")
}

func TestAssistantServiceFallbacks(t *testing.T) {
	cases := map[string]ChatBackend{
		"no backend":    nil,
		"backend error": &fakeBackend{err: errors.New("quota exceeded")},
		"empty reply":   &fakeBackend{reply: "   "},
		"timeout":       &fakeBackend{block: true},
	}
	for name, backend := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestAssistant(t, backend, 20*time.Millisecond)
			resp, err := svc.Chat(context.Background(), adminActor(), models.ChatRequest{Message: "hi"})
			require.NoError(t, err)
			assert.True(t, resp.Fallback)
			assert.Equal(t, "sorry", resp.Reply)
		})
	}
}

func TestAssistantServiceValidation(t *testing.T) {
	svc, _ := newTestAssistant(t, &fakeBackend{reply: "ok"}, time.Second)
	_, err := svc.Chat(context.Background(), nil, models.ChatRequest{Message: "   "})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
