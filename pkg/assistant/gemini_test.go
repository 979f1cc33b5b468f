package assistant

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Dein Schnitt "), genai.Text("ist 5.0. ")}},
		}},
	}

	reply, err := replyText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Dein Schnitt ist 5.0.", reply)
}

func TestReplyTextEmpty(t *testing.T) {
	_, err := replyText(nil)
	assert.ErrorIs(t, err, ErrEmptyReply)

	_, err = replyText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyReply)

	_, err = replyText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}}},
	})
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "gemini-1.5-flash")
	assert.Error(t, err)
}
