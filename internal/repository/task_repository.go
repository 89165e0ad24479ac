package repository

import (
	"context"

	"gorm.io/gorm"

	"taskmanager/internal/model"
)

// TaskRepository defines task persistence operations.
// Every lookup is scoped to the owning user; a task owned by someone else
// behaves exactly like a missing one (gorm.ErrRecordNotFound).
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error)
	FindByIDForOwner(ctx context.Context, id, ownerID uint) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	DeleteForOwner(ctx context.Context, id, ownerID uint) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// ListByOwner lists the owner's tasks ordered by id.
func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindByIDForOwner finds a task by ID among the owner's tasks.
func (r *taskRepository) FindByIDForOwner(ctx context.Context, id, ownerID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update writes title and description of an existing task.
func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Model(task).
		Where("owner_id = ?", task.OwnerID).
		Select("title", "description", "updated_at").
		Updates(task).Error
}

// DeleteForOwner removes a task if it belongs to the owner.
func (r *taskRepository) DeleteForOwner(ctx context.Context, id, ownerID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
