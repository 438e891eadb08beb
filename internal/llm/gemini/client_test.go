package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestTextFromResponseJoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{
						genai.Text("Dear hiring "),
						genai.Text("manager,\n"),
					},
				},
			},
		},
	}
	got, err := textFromResponse(resp)
	if err != nil {
		t.Fatalf("textFromResponse: %v", err)
	}
	if got != "Dear hiring manager," {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestTextFromResponseEmpty(t *testing.T) {
	if _, err := textFromResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}
	if _, err := textFromResponse(resp); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error without api key")
	}
}
