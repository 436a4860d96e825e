package adapter

import (
	"context"

	"edu-tutor/internal/domain/model"
)

// Classifier tags a single question with subject/topic and whether it is on-curriculum.
type Classifier interface {
	Classify(ctx context.Context, question string) (model.Classification, error)
}
