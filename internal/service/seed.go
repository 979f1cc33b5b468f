package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/notenpfad-api/internal/models"
)

type seedSubjectStore interface {
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type seedTopicStore interface {
	Create(ctx context.Context, topic *models.Topic) error
}

type defaultSubject struct {
	name   string
	topics []string
}

var defaultCatalog = []defaultSubject{
	{name: "Mathematik", topics: []string{"Grundoperationen", "Geometrie", "Textaufgaben"}},
	{name: "Deutsch", topics: []string{"Grammatik", "Rechtschreibung", "Textverständnis"}},
}

// SeedDefaults creates the default subjects and their topics. Subjects that
// already exist by name are left untouched, so running it twice is harmless.
func SeedDefaults(ctx context.Context, subjects seedSubjectStore, topics seedTopicStore, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	created := 0
	for _, entry := range defaultCatalog {
		exists, err := subjects.ExistsByName(ctx, entry.name, "")
		if err != nil {
			return created, fmt.Errorf("seed subject %s: %w", entry.name, err)
		}
		if exists {
			continue
		}

		subject := &models.Subject{Name: entry.name, Weight: models.DefaultSubjectWeight}
		if err := subjects.Create(ctx, subject); err != nil {
			return created, fmt.Errorf("seed subject %s: %w", entry.name, err)
		}
		for _, name := range entry.topics {
			if err := topics.Create(ctx, &models.Topic{SubjectID: subject.ID, Name: name}); err != nil {
				return created, fmt.Errorf("seed topic %s: %w", name, err)
			}
		}
		created++
		logger.Info("seeded subject", zap.String("subject_id", subject.ID), zap.String("name", subject.Name), zap.Int("topics", len(entry.topics)))
	}
	return created, nil
}
