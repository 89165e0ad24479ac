package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/events"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"
)

// TaskInput carries the writable fields of a task.
type TaskInput struct {
	Title       string
	Description *string
}

// TaskService handles task operations on behalf of an owner.
type TaskService interface {
	Create(ctx context.Context, ownerID uint, input TaskInput) (*model.Task, error)
	List(ctx context.Context, ownerID uint) ([]model.Task, error)
	Get(ctx context.Context, ownerID, id uint) (*model.Task, error)
	Update(ctx context.Context, ownerID, id uint, input TaskInput) (*model.Task, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type taskService struct {
	repo      repository.TaskRepository
	publisher events.Publisher
	logger    echo.Logger
	now       func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(repo repository.TaskRepository, publisher events.Publisher, logger echo.Logger) TaskService {
	return &taskService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *taskService) Create(ctx context.Context, ownerID uint, input TaskInput) (*model.Task, error) {
	task := &model.Task{
		Title:       input.Title,
		Description: input.Description,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.publish(ctx, events.TaskCreated, task)
	return task, nil
}

func (s *taskService) List(ctx context.Context, ownerID uint) ([]model.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskService) Get(ctx context.Context, ownerID, id uint) (*model.Task, error) {
	task, err := s.repo.FindByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, ownerID, id uint, input TaskInput) (*model.Task, error) {
	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	task.Title = input.Title
	task.Description = input.Description
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	s.publish(ctx, events.TaskUpdated, task)
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, ownerID, id uint) error {
	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteForOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTaskNotFound
		}
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	s.publish(ctx, events.TaskDeleted, task)
	return nil
}

// publish never fails the request; the task change is already committed.
func (s *taskService) publish(ctx context.Context, eventType string, task *model.Task) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:    eventType,
		TaskID:  task.ID,
		OwnerID: task.OwnerID,
		Title:   task.Title,
		At:      s.now().UTC(),
	})
	if err != nil {
		s.logger.Warnf("publish %s for task %d: %v", eventType, task.ID, err)
	}
}
