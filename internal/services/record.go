// Package services layers application use cases over the repositories. The
// REPL talks to services only; repositories stay behind them.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/models"
	"github.com/dmitrijs2005/daybook/internal/repositories/records"
)

// Notifier receives a signal after every successful local mutation. The
// sync debouncer satisfies this.
type Notifier interface {
	Notify()
}

type RecordService interface {
	Add(ctx context.Context, kind models.Kind, content string, prov models.Provenance) (*models.Record, error)
	AddDiaryEntry(ctx context.Context, title, content string) (*models.Record, error)
	List(ctx context.Context, f records.Filter) ([]*models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	Complete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Tag(ctx context.Context, id string, tags []string) error
	SetQuadrant(ctx context.Context, id string, q models.Quadrant) error
	Matrix(ctx context.Context) (map[models.Quadrant][]*models.Record, error)
}

type recordService struct {
	repo     records.Repository
	notifier Notifier
}

func NewRecordService(repo records.Repository, notifier Notifier) RecordService {
	return &recordService{repo: repo, notifier: notifier}
}

func (s *recordService) notify() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func (s *recordService) Add(ctx context.Context, kind models.Kind, content string, prov models.Provenance) (*models.Record, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("content must not be empty")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	rec := models.New(kind, content, prov)
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	s.notify()
	return rec, nil
}

func (s *recordService) AddDiaryEntry(ctx context.Context, title, content string) (*models.Record, error) {
	rec, err := s.Add(ctx, models.KindDiary, content, models.ProvenanceDiary)
	if err != nil {
		return nil, err
	}

	rec.Title = strings.TrimSpace(title)
	rec.Touch()
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	s.notify()
	return rec, nil
}

func (s *recordService) List(ctx context.Context, f records.Filter) ([]*models.Record, error) {
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error retrieving records: %w", err)
	}
	return rows, nil
}

// Get accepts a full id or the unique prefix listings display.
func (s *recordService) Get(ctx context.Context, id string) (*models.Record, error) {
	rec, err := s.repo.GetByIDPrefix(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving record: %w", err)
	}
	return rec, nil
}

// mutate loads the record by id or unique prefix, applies fn, stamps
// UpdatedAt and saves.
func (s *recordService) mutate(ctx context.Context, id string, fn func(*models.Record)) error {
	rec, err := s.repo.GetByIDPrefix(ctx, id)
	if err != nil {
		return fmt.Errorf("error retrieving record: %w", err)
	}

	fn(rec)
	rec.Touch()

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	s.notify()
	return nil
}

func (s *recordService) Complete(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(r *models.Record) { r.Done = true })
}

func (s *recordService) Archive(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(r *models.Record) { r.Archived = true })
}

// Delete removes the record locally and schedules an upload. Snapshots carry
// no tombstones, so the deletion propagates only while the local side stays
// the newer one.
func (s *recordService) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.GetByIDPrefix(ctx, id)
	if err != nil {
		return fmt.Errorf("error retrieving record: %w", err)
	}
	if err := s.repo.DeleteByID(ctx, rec.ID); err != nil {
		return fmt.Errorf("deleting error: %w", err)
	}
	s.notify()
	return nil
}

func (s *recordService) Tag(ctx context.Context, id string, tags []string) error {
	return s.mutate(ctx, id, func(r *models.Record) {
		r.Tags = models.NormalizeTags(append(r.Tags, tags...))
	})
}

func (s *recordService) SetQuadrant(ctx context.Context, id string, q models.Quadrant) error {
	if q < 0 || q > 4 {
		return fmt.Errorf("quadrant must be 0 (unset) or 1..4")
	}
	return s.mutate(ctx, id, func(r *models.Record) { r.Quadrant = q })
}

// Matrix groups non-archived, non-done tasks and reminders by Eisenhower
// quadrant. Quadrant 0 collects the unclassified.
func (s *recordService) Matrix(ctx context.Context) (map[models.Quadrant][]*models.Record, error) {
	result := map[models.Quadrant][]*models.Record{}

	for _, kind := range []models.Kind{models.KindTask, models.KindReminder} {
		rows, err := s.repo.List(ctx, records.Filter{Kind: kind})
		if err != nil {
			return nil, fmt.Errorf("error retrieving records: %w", err)
		}
		for _, r := range rows {
			result[r.Quadrant] = append(result[r.Quadrant], r)
		}
	}
	return result, nil
}
