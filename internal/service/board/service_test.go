package board

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contracts "taskvault/contracts/mq"
	"taskvault/internal/model"
	"taskvault/internal/store"
	"taskvault/internal/store/filestore"
	"taskvault/pkg/encrypt"
)

const owner = "owner@example.com"

type capturedEvents struct {
	mu    sync.Mutex
	types []string
}

func (c *capturedEvents) Publish(_ context.Context, eventType string, _ any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, eventType)
}

func setup(t *testing.T) (*Service, store.Store, *capturedEvents) {
	t.Helper()
	codec, err := encrypt.NewCodec("board-test")
	require.NoError(t, err)
	st := filestore.New(filepath.Join(t.TempDir(), "vault.enc"), codec, zap.NewNop())
	require.NoError(t, st.Init(context.Background()))
	ev := &capturedEvents{}
	return NewService(ev, zap.NewNop()), st, ev
}

func ptr[T any](v T) *T { return &v }

func TestCreateCategoryValidation(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()

	var verr *ValidationError
	_, err := svc.CreateCategory(ctx, st, owner, CategoryInput{Name: "   "})
	require.ErrorAs(t, err, &verr)

	long := make([]rune, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.CreateCategory(ctx, st, owner, CategoryInput{Name: string(long)})
	require.ErrorAs(t, err, &verr)

	c, err := svc.CreateCategory(ctx, st, owner, CategoryInput{Name: "  Work "})
	require.NoError(t, err)
	assert.Equal(t, "Work", c.Name)
	assert.Equal(t, model.DefaultIcon, c.Icon)
	assert.Equal(t, model.CategoryColor, c.Color)
}

func TestTaskFlowPublishesEvents(t *testing.T) {
	svc, st, ev := setup(t)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, st, owner, CategoryInput{Name: "Errands", Icon: "cart"})
	require.NoError(t, err)
	task, err := svc.CreateTask(ctx, st, owner, c.ID, TaskInput{Text: "Buy milk", DueDate: ptr("2024-06-01"), DueTime: ptr("09:30")})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)

	_, err = svc.UpdateTask(ctx, st, owner, c.ID, task.ID, store.TaskPatch{Completed: ptr(true)})
	require.NoError(t, err)
	_, err = svc.ArchiveTask(ctx, st, owner, c.ID, task.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTask(ctx, st, owner, c.ID, task.ID))
	require.NoError(t, svc.DeleteCategory(ctx, st, owner, c.ID))

	assert.Equal(t, []string{
		contracts.CategoryCreated,
		contracts.TaskCreated,
		contracts.TaskUpdated,
		contracts.TaskArchived,
		contracts.TaskDeleted,
		contracts.CategoryDeleted,
	}, ev.types)
}

func TestTaskValidation(t *testing.T) {
	svc, st, ev := setup(t)
	ctx := context.Background()
	c, err := svc.CreateCategory(ctx, st, owner, CategoryInput{Name: "Home"})
	require.NoError(t, err)

	var verr *ValidationError
	for name, in := range map[string]TaskInput{
		"no title": {},
		"bad date": {Title: "x", DueDate: ptr("01/06/2024")},
		"bad time": {Title: "x", DueTime: ptr("9pm")},
	} {
		_, err := svc.CreateTask(ctx, st, owner, c.ID, in)
		assert.ErrorAs(t, err, &verr, name)
	}

	task, err := svc.CreateTask(ctx, st, owner, c.ID, TaskInput{Title: "Vacuum"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, st, owner, c.ID, task.ID, store.TaskPatch{})
	assert.ErrorAs(t, err, &verr)
	_, err = svc.UpdateTask(ctx, st, owner, c.ID, task.ID, store.TaskPatch{Title: ptr(" ")})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.ArchiveTask(ctx, st, owner, c.ID, task.ID)
	require.NoError(t, err)
	_, err = svc.UpdateTask(ctx, st, owner, c.ID, task.ID, store.TaskPatch{Archived: ptr(false)})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "archived")

	_, err = svc.CreateTask(ctx, st, owner, "missing", TaskInput{Title: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	// failures publish nothing
	assert.Equal(t, []string{contracts.CategoryCreated, contracts.TaskCreated, contracts.TaskArchived}, ev.types)
}

func TestExportCounts(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()
	c, err := svc.CreateCategory(ctx, st, owner, CategoryInput{Name: "Work", Icon: "briefcase"})
	require.NoError(t, err)
	a, err := svc.CreateTask(ctx, st, owner, c.ID, TaskInput{Title: "open"})
	require.NoError(t, err)
	b, err := svc.CreateTask(ctx, st, owner, c.ID, TaskInput{Title: "done"})
	require.NoError(t, err)
	old, err := svc.CreateTask(ctx, st, owner, c.ID, TaskInput{Title: "old"})
	require.NoError(t, err)
	_ = a
	_, err = svc.UpdateTask(ctx, st, owner, c.ID, b.ID, store.TaskPatch{Completed: ptr(true)})
	require.NoError(t, err)
	_, err = svc.ArchiveTask(ctx, st, owner, c.ID, old.ID)
	require.NoError(t, err)

	out, err := svc.Export(ctx, st, owner)
	require.NoError(t, err)
	assert.Equal(t, model.ExportVersion, out.Version)
	assert.Equal(t, model.ExportMetadata{TotalCategories: 1, TotalTodos: 3, ActiveTodos: 1, CompletedTodos: 1}, out.Metadata)
}

func TestImportValidationReportsEveryProblem(t *testing.T) {
	svc, st, _ := setup(t)
	raw := []byte(`{"categories":[{"id":"c1","name":"","icon":"x","todos":[{"id":"","text":"a"}]},{"id":"c2","name":"n","icon":"i"}]}`)

	res, err := svc.Import(context.Background(), st, owner, raw, model.MergeCombine)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid data format", res.Message)
	assert.ElementsMatch(t, []string{
		"Missing version field",
		"Category 0: missing name",
		"Category 0, Todo 0: missing id",
		"Category 0, Todo 0: invalid completed field",
		"Category 1: invalid todos array",
	}, res.Errors)

	dup := []byte(`{"version":"1.0.0","categories":[
		{"id":"c1","name":"A","icon":"a","todos":[{"id":"t1","text":"x","completed":false}]},
		{"id":"c1","name":"B","icon":"b","todos":[{"id":"t1","text":"y","completed":true}]},
		{"id":"c3","name":"C","icon":"c","todos":[{"id":"t1","text":"z","completed":false}]}]}`)
	res, err = svc.Import(context.Background(), st, owner, dup, model.MergeCombine)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Imported)
	assert.Equal(t, "Invalid data format", res.Message)
	assert.ElementsMatch(t, []string{
		"Category 1: duplicate id c1",
		"Category 1, Todo 0: duplicate id t1",
		"Category 2, Todo 0: duplicate id t1",
	}, res.Errors)
	cats, err := st.ListCategories(context.Background(), owner, store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, cats)

	res, err = svc.Import(context.Background(), st, owner, []byte("{"), model.MergeCombine)
	require.NoError(t, err)
	assert.Equal(t, "Failed to parse JSON", res.Message)

	var verr *ValidationError
	_, err = svc.Import(context.Background(), st, owner, []byte("{}"), "overwrite")
	assert.ErrorAs(t, err, &verr)
}

func TestImportStrategies(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()

	existing, err := svc.CreateCategory(ctx, st, owner, CategoryInput{Name: "Existing", Icon: "e"})
	require.NoError(t, err)
	kept, err := svc.CreateTask(ctx, st, owner, existing.ID, TaskInput{Title: "kept"})
	require.NoError(t, err)

	doc := map[string]any{
		"version": "1.0.0",
		"categories": []map[string]any{
			{
				"id": existing.ID, "name": "Existing", "icon": "e",
				"todos": []map[string]any{
					{"id": kept.ID, "text": "kept", "completed": false},
					{"id": "new-task", "text": "added", "completed": true},
				},
			},
			{"id": "imported-cat", "name": "Imported", "icon": "i", "todos": []map[string]any{}},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	res, err := svc.Import(ctx, st, owner, raw, model.MergeKeepExisting)
	require.NoError(t, err)
	assert.True(t, res.Success)
	cats, err := st.ListCategories(ctx, owner, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	res, err = svc.Import(ctx, st, owner, raw, model.MergeCombine)
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)
	assert.Equal(t, &model.ImportCounts{Categories: 1, Todos: 1}, res.Imported)
	cats, err = st.ListCategories(ctx, owner, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Len(t, cats[0].Tasks, 2)
	assert.True(t, cats[0].Tasks[1].Completed)

	res, err = svc.Import(ctx, st, owner, raw, model.MergeReplace)
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)
	assert.Equal(t, &model.ImportCounts{Categories: 2, Todos: 2}, res.Imported)
	cats, err = st.ListCategories(ctx, owner, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}
