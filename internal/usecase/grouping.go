// File: internal/usecase/grouping.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"edu-tutor/internal/config"
	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/adapter"
	"edu-tutor/internal/domain/ports/repository"
	"edu-tutor/internal/infra/metrics"
)

// Assignment is how a new session will be grouped.
type Assignment struct {
	Grouping model.Grouping
	// Rejected marks an off-curriculum question that must be answered with Refusal.
	Rejected bool
	// Persist tells the orchestrator to store a rejected turn anyway.
	Persist bool
}

// GroupingStrategy decides the grouping of new sessions and how lists are filtered.
type GroupingStrategy interface {
	Mode() string
	Assign(ctx context.Context, ownerID, projectID model.ID, question string) (Assignment, error)
	Filter(projectID model.ID) repository.SessionFilter
}

// ---- explicit projects ----

var _ GroupingStrategy = (*ProjectGrouping)(nil)

type ProjectGrouping struct {
	projects ProjectUseCase
}

func NewProjectGrouping(projects ProjectUseCase) *ProjectGrouping {
	return &ProjectGrouping{projects: projects}
}

func (g *ProjectGrouping) Mode() string { return config.GroupingProject }

func (g *ProjectGrouping) Assign(ctx context.Context, ownerID, projectID model.ID, _ string) (Assignment, error) {
	if projectID.IsZero() {
		return Assignment{}, nil
	}
	if _, err := g.projects.Reference(ctx, ownerID, projectID); err != nil {
		return Assignment{}, err
	}
	return Assignment{Grouping: model.Grouping{ProjectID: projectID}}, nil
}

// Filter lists one project's sessions, or the ungrouped ones when no project is given.
func (g *ProjectGrouping) Filter(projectID model.ID) repository.SessionFilter {
	if projectID.IsZero() {
		return repository.SessionFilter{Mode: repository.FilterUngrouped}
	}
	return repository.SessionFilter{Mode: repository.FilterProject, ProjectID: projectID}
}

// ---- subject/topic classification ----

var _ GroupingStrategy = (*ClassificationGrouping)(nil)

type ClassificationGrouping struct {
	classifier adapter.Classifier
	cfg        config.ClassificationConfig
	log        *zerolog.Logger
}

func NewClassificationGrouping(classifier adapter.Classifier, cfg config.ClassificationConfig, logger *zerolog.Logger) *ClassificationGrouping {
	return &ClassificationGrouping{classifier: classifier, cfg: cfg, log: logger}
}

func (g *ClassificationGrouping) Mode() string { return config.GroupingClassification }

// Assign tags the first question of a session. Tags are never revised by later turns.
func (g *ClassificationGrouping) Assign(ctx context.Context, _, _ model.ID, question string) (Assignment, error) {
	c, err := g.classifier.Classify(ctx, question)
	if err != nil {
		if !g.cfg.FailOpen {
			metrics.IncClassification("error")
			g.log.Error().Err(err).Msg("classification failed")
			return Assignment{}, domain.NewError(domain.ErrUpstream, "Error classifying question")
		}
		metrics.IncClassification("fallback")
		g.log.Warn().Err(err).Msg("classification failed, using default tags")
		c = model.DefaultClassification()
	}

	if !c.IsEducational {
		metrics.IncClassification("non_educational")
		if g.cfg.Gate {
			def := model.DefaultClassification()
			return Assignment{
				Grouping: model.Grouping{Subject: def.Subject, Topic: def.Topic},
				Rejected: true,
				Persist:  g.cfg.PersistRejected,
			}, nil
		}
	} else if err == nil {
		metrics.IncClassification("educational")
	}
	return Assignment{Grouping: model.Grouping{Subject: c.Subject, Topic: c.Topic}}, nil
}

func (g *ClassificationGrouping) Filter(model.ID) repository.SessionFilter {
	return repository.SessionFilter{Mode: repository.FilterAll}
}
