package drafting

import (
	"context"
	"fmt"
	"strings"

	"outreach_backend/internal/leads/domain"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const writerAppName = "dm-draft-writer"

// Writer composes one DM draft per call with an ADK agent without tools. Every
// call runs in its own throwaway session, so calls may overlap.
type Writer struct {
	runner         *runner.Runner
	sessionService session.Service
}

// NewWriter wraps llm in a single-turn drafting agent.
func NewWriter(llm model.LLM) (*Writer, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "DMDraftWriter",
		Model:       llm,
		Description: "Writes short first-contact Instagram DMs for fitness coaches.",
		Instruction: systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dm draft agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        writerAppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dm draft runner: %w", err)
	}

	return &Writer{runner: r, sessionService: sessionService}, nil
}

// Compose returns the raw model reply for lead.
func (w *Writer) Compose(ctx context.Context, lead domain.Lead) (string, error) {
	userID := fmt.Sprintf("lead-%d", lead.ID)
	sessionID := uuid.New().String()

	_, err := w.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   writerAppName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("dm draft: create session: %w", err)
	}
	defer func() {
		_ = w.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   writerAppName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: BuildPrompt(lead)}},
	}

	var out strings.Builder
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}
	for event, err := range w.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("dm draft: run failed: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			out.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}
