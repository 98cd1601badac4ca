// Package board holds the category and task rules that sit above the store:
// input validation, the archive lifecycle, lifecycle events and data transfer.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	contracts "taskvault/contracts/mq"
	"taskvault/internal/events"
	"taskvault/internal/model"
	"taskvault/internal/store"
)

const maxCategoryName = 100

// ValidationError is returned for input the caller must fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// CategoryInput is the body of a create request.
type CategoryInput struct {
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Description *string `json:"description"`
}

// TaskInput is the body of a create request. Text is the legacy name of Title.
type TaskInput struct {
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Notes      *string `json:"notes"`
	DueDate    *string `json:"dueDate"`
	DueTime    *string `json:"dueTime"`
	AssignedTo *string `json:"assignedTo"`
	Priority   *string `json:"priority"`
}

type Service struct {
	events events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

func NewService(pub events.Publisher, logger *zap.Logger) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{events: pub, logger: logger, now: time.Now}
}

func (s *Service) ListCategories(ctx context.Context, st store.Store, owner string, opts store.ListOptions) ([]model.Category, error) {
	return st.ListCategories(ctx, owner, opts)
}

func (s *Service) GetCategory(ctx context.Context, st store.Store, owner, id string, opts store.ListOptions) (*model.Category, error) {
	c, err := st.GetCategory(ctx, owner, id, opts)
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (s *Service) CreateCategory(ctx context.Context, st store.Store, owner string, in CategoryInput) (*model.Category, error) {
	name, err := categoryName(in.Name)
	if err != nil {
		return nil, err
	}
	icon := strings.TrimSpace(in.Icon)
	if icon == "" {
		icon = model.DefaultIcon
	}

	c, err := st.CreateCategory(ctx, owner, model.Category{
		Name:        name,
		Icon:        icon,
		Description: in.Description,
		Color:       model.CategoryColor,
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.events.Publish(ctx, contracts.CategoryCreated, contracts.CategoryPayload{Owner: owner, CategoryID: c.ID, Name: c.Name})
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, st store.Store, owner, id string, patch store.CategoryPatch) (*model.Category, error) {
	if patch.Empty() {
		return nil, invalid("no fields to update")
	}
	if patch.Name != nil {
		name, err := categoryName(*patch.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.Icon != nil && strings.TrimSpace(*patch.Icon) == "" {
		icon := model.DefaultIcon
		patch.Icon = &icon
	}

	c, err := st.UpdateCategory(ctx, owner, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update category %s: %w", id, err)
	}
	s.events.Publish(ctx, contracts.CategoryUpdated, contracts.CategoryPayload{Owner: owner, CategoryID: id, Name: c.Name})
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, st store.Store, owner, id string) error {
	if id == "" {
		return invalid("category id is required")
	}
	if err := st.DeleteCategory(ctx, owner, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.events.Publish(ctx, contracts.CategoryDeleted, contracts.CategoryPayload{Owner: owner, CategoryID: id})
	return nil
}

func (s *Service) ListTasks(ctx context.Context, st store.Store, owner, categoryID string, opts store.ListOptions) ([]model.Task, error) {
	return st.ListTasks(ctx, owner, categoryID, opts)
}

func (s *Service) CreateTask(ctx context.Context, st store.Store, owner, categoryID string, in TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSpace(in.Text)
	}
	if title == "" {
		return nil, invalid("title is required")
	}
	if err := validateSchedule(in.DueDate, in.DueTime); err != nil {
		return nil, err
	}

	t, err := st.CreateTask(ctx, owner, categoryID, model.Task{
		Title:      title,
		Notes:      in.Notes,
		DueDate:    blankToNil(in.DueDate),
		DueTime:    blankToNil(in.DueTime),
		AssignedTo: in.AssignedTo,
		Priority:   in.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.events.Publish(ctx, contracts.TaskCreated, taskPayload(owner, t))
	return t, nil
}

func (s *Service) UpdateTask(ctx context.Context, st store.Store, owner, categoryID, taskID string, patch store.TaskPatch) (*model.Task, error) {
	if taskID == "" {
		return nil, invalid("todo id is required")
	}
	if patch.Empty() {
		return nil, invalid("no fields to update")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid("title cannot be empty")
		}
		patch.Title = &title
	}
	if err := validateSchedule(patch.DueDate.Value, patch.DueTime.Value); err != nil {
		return nil, err
	}
	// 空字符串与 null 一样清空
	for _, f := range []*store.Nullable[string]{&patch.DueDate, &patch.DueTime} {
		if f.Set {
			f.Value = blankToNil(f.Value)
		}
	}

	t, err := st.UpdateTask(ctx, owner, categoryID, taskID, patch)
	if errors.Is(err, store.ErrUnarchive) {
		return nil, invalid("archived todos cannot be restored")
	}
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", taskID, err)
	}

	event := contracts.TaskUpdated
	if patch.Archived != nil && *patch.Archived {
		event = contracts.TaskArchived
	}
	s.events.Publish(ctx, event, taskPayload(owner, t))
	return t, nil
}

// ArchiveTask hides a task from active views. Archiving twice is not an error.
func (s *Service) ArchiveTask(ctx context.Context, st store.Store, owner, categoryID, taskID string) (*model.Task, error) {
	archived := true
	return s.UpdateTask(ctx, st, owner, categoryID, taskID, store.TaskPatch{Archived: &archived})
}

func (s *Service) DeleteTask(ctx context.Context, st store.Store, owner, categoryID, taskID string) error {
	if taskID == "" {
		return invalid("todo id is required")
	}
	if err := st.DeleteTask(ctx, owner, categoryID, taskID); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	s.events.Publish(ctx, contracts.TaskDeleted, contracts.TaskPayload{Owner: owner, CategoryID: categoryID, TaskID: taskID})
	return nil
}

func categoryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", invalid("category name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return "", invalid("category name must be at most %d characters", maxCategoryName)
	}
	return name, nil
}

func validateSchedule(date, clock *string) error {
	if date != nil && *date != "" {
		if _, err := time.Parse("2006-01-02", *date); err != nil {
			return invalid("dueDate must be YYYY-MM-DD")
		}
	}
	if clock != nil && *clock != "" {
		if _, err := time.Parse("15:04", *clock); err != nil {
			return invalid("dueTime must be HH:MM")
		}
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func taskPayload(owner string, t *model.Task) contracts.TaskPayload {
	return contracts.TaskPayload{
		Owner:      owner,
		CategoryID: t.CategoryID,
		TaskID:     t.ID,
		Title:      t.Title,
		Completed:  t.Completed,
		Archived:   t.Archived,
	}
}
