package service

import (
	"context"
	"errors"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/events"
	"taskmanager/internal/model"
)

func newTestTaskService(repo *MockTaskRepository, publisher *MockPublisher) TaskService {
	return NewTaskService(repo, publisher, log.New("test"))
}

func eventOfType(eventType string, taskID uint) interface{} {
	return mock.MatchedBy(func(e events.Event) bool {
		return e.Type == eventType && e.TaskID == taskID && !e.At.IsZero()
	})
}

func TestTaskService_Create(t *testing.T) {
	repo := new(MockTaskRepository)
	publisher := new(MockPublisher)
	desc := "details"

	repo.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.OwnerID == 1 && task.Title == "write tests" && task.Description == &desc
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Task).ID = 10
	}).Return(nil)
	publisher.On("Publish", mock.Anything, eventOfType(events.TaskCreated, 10)).Return(nil)

	task, err := newTestTaskService(repo, publisher).Create(context.Background(), 1, TaskInput{Title: "write tests", Description: &desc})

	require.NoError(t, err)
	assert.Equal(t, uint(10), task.ID)
	assert.Equal(t, uint(1), task.OwnerID)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestTaskService_Create_PublishFailureIsNotFatal(t *testing.T) {
	repo := new(MockTaskRepository)
	publisher := new(MockPublisher)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	task, err := newTestTaskService(repo, publisher).Create(context.Background(), 1, TaskInput{Title: "t"})

	require.NoError(t, err)
	assert.NotNil(t, task)
}

func TestTaskService_Create_RepositoryError(t *testing.T) {
	repo := new(MockTaskRepository)
	publisher := new(MockPublisher)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := newTestTaskService(repo, publisher).Create(context.Background(), 1, TaskInput{Title: "t"})

	assert.Error(t, err)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestTaskService_List(t *testing.T) {
	repo := new(MockTaskRepository)
	repo.On("ListByOwner", mock.Anything, uint(1)).Return([]model.Task{{ID: 1, OwnerID: 1}, {ID: 2, OwnerID: 1}}, nil)
	repo.On("ListByOwner", mock.Anything, uint(2)).Return([]model.Task{}, nil)

	svc := newTestTaskService(repo, new(MockPublisher))

	tasks, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = svc.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskService_Get(t *testing.T) {
	tests := []struct {
		name          string
		repoTask      *model.Task
		repoErr       error
		expectedError error
		wantInternal  bool
	}{
		{name: "owned task", repoTask: &model.Task{ID: 4, OwnerID: 1, Title: "mine"}},
		{name: "missing or foreign task", repoErr: gorm.ErrRecordNotFound, expectedError: apperrors.ErrTaskNotFound},
		{name: "database error", repoErr: errors.New("timeout"), wantInternal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTaskRepository)
			if tt.repoTask != nil {
				repo.On("FindByIDForOwner", mock.Anything, uint(4), uint(1)).Return(tt.repoTask, nil)
			} else {
				repo.On("FindByIDForOwner", mock.Anything, uint(4), uint(1)).Return(nil, tt.repoErr)
			}

			task, err := newTestTaskService(repo, new(MockPublisher)).Get(context.Background(), 1, 4)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, task)
			case tt.wantInternal:
				require.Error(t, err)
				assert.NotErrorIs(t, err, apperrors.ErrTaskNotFound)
			default:
				require.NoError(t, err)
				assert.Equal(t, "mine", task.Title)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	repo := new(MockTaskRepository)
	publisher := new(MockPublisher)
	old := "old"

	repo.On("FindByIDForOwner", mock.Anything, uint(4), uint(1)).
		Return(&model.Task{ID: 4, OwnerID: 1, Title: "draft", Description: &old}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.ID == 4 && task.Title == "final" && task.Description == nil
	})).Return(nil)
	publisher.On("Publish", mock.Anything, eventOfType(events.TaskUpdated, 4)).Return(nil)

	task, err := newTestTaskService(repo, publisher).Update(context.Background(), 1, 4, TaskInput{Title: "final"})

	require.NoError(t, err)
	assert.Equal(t, "final", task.Title)
	assert.Nil(t, task.Description)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestTaskService_Update_NotOwned(t *testing.T) {
	repo := new(MockTaskRepository)
	repo.On("FindByIDForOwner", mock.Anything, uint(4), uint(2)).Return(nil, gorm.ErrRecordNotFound)

	_, err := newTestTaskService(repo, new(MockPublisher)).Update(context.Background(), 2, 4, TaskInput{Title: "hijack"})

	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTaskService_Delete(t *testing.T) {
	repo := new(MockTaskRepository)
	publisher := new(MockPublisher)

	repo.On("FindByIDForOwner", mock.Anything, uint(4), uint(1)).Return(&model.Task{ID: 4, OwnerID: 1}, nil)
	repo.On("DeleteForOwner", mock.Anything, uint(4), uint(1)).Return(nil)
	publisher.On("Publish", mock.Anything, eventOfType(events.TaskDeleted, 4)).Return(nil)

	require.NoError(t, newTestTaskService(repo, publisher).Delete(context.Background(), 1, 4))
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestTaskService_Delete_NotOwned(t *testing.T) {
	repo := new(MockTaskRepository)
	repo.On("FindByIDForOwner", mock.Anything, uint(4), uint(2)).Return(nil, gorm.ErrRecordNotFound)

	err := newTestTaskService(repo, new(MockPublisher)).Delete(context.Background(), 2, 4)

	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	repo.AssertNotCalled(t, "DeleteForOwner", mock.Anything, mock.Anything, mock.Anything)
}
