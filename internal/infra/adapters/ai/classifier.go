package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/adapter"
)

var _ adapter.Classifier = (*LLMClassifier)(nil)

const classifierMarker = "Classify the following student question"

const classifierPrompt = classifierMarker + ` for a CBSE NCERT tutor (classes 6 to 10).
Reply with a single JSON object and nothing else:
{"subject": "<Mathematics|Science|Other>", "topic": "<short topic name>", "isEducational": <true|false>}
isEducational is true only when the question belongs to the CBSE NCERT Mathematics or Science curriculum for classes 6 to 10.

Question: %s`

// LLMClassifier asks the completion provider to tag a question. Each call is bounded by timeout
// when it is positive.
type LLMClassifier struct {
	ai      adapter.AIServiceAdapter
	model   string
	timeout time.Duration
}

func NewLLMClassifier(ai adapter.AIServiceAdapter, model string, timeout time.Duration) *LLMClassifier {
	return &LLMClassifier{ai: ai, model: model, timeout: timeout}
}

func (c *LLMClassifier) Classify(ctx context.Context, question string) (model.Classification, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	reply, err := c.ai.Chat(ctx, c.model, []adapter.Message{
		{Role: "user", Content: fmt.Sprintf(classifierPrompt, question)},
	})
	if err != nil {
		return model.Classification{}, err
	}
	return ParseClassification(reply)
}

type classificationReply struct {
	Subject       string `json:"subject"`
	Topic         string `json:"topic"`
	IsEducational *bool  `json:"isEducational"`
}

// ParseClassification accepts a bare object, a fenced code block, or an object embedded in prose.
// A missing isEducational counts as true; blank subject or topic become "General".
func ParseClassification(reply string) (model.Classification, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return model.Classification{}, errors.New("classifier: no json object in reply")
	}

	var r classificationReply
	if err := json.Unmarshal([]byte(s[start:end+1]), &r); err != nil {
		return model.Classification{}, fmt.Errorf("classifier: %w", err)
	}

	out := model.DefaultClassification()
	if v := strings.TrimSpace(r.Subject); v != "" {
		out.Subject = v
	}
	if v := strings.TrimSpace(r.Topic); v != "" {
		out.Topic = v
	}
	if r.IsEducational != nil {
		out.IsEducational = *r.IsEducational
	}
	return out, nil
}
