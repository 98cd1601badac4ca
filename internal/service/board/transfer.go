package board

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	contracts "taskvault/contracts/mq"
	"taskvault/internal/model"
	"taskvault/internal/store"
)

// Export returns every category and task of owner, archived ones included.
func (s *Service) Export(ctx context.Context, st store.Store, owner string) (*model.DataExport, error) {
	cats, err := st.ListCategories(ctx, owner, store.ListOptions{IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return BuildExport(cats, s.now().UTC()), nil
}

// BuildExport wraps categories in the export envelope and counts them.
func BuildExport(cats []model.Category, at time.Time) *model.DataExport {
	out := &model.DataExport{
		Version:    model.ExportVersion,
		ExportDate: at,
		Categories: cats,
	}
	out.Metadata.TotalCategories = len(cats)
	for _, c := range cats {
		for _, t := range c.Tasks {
			out.Metadata.TotalTodos++
			switch {
			case t.Completed:
				out.Metadata.CompletedTodos++
			case !t.Archived:
				out.Metadata.ActiveTodos++
			}
		}
	}
	return out
}

// import 文件结构；指针字段用于区分"缺失"与"零值"
type importTask struct {
	model.Task
	Completed *bool `json:"completed"`
}

type importCategory struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Icon        string        `json:"icon"`
	Description *string       `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	Todos       *[]importTask `json:"todos"`
}

type importDoc struct {
	Version    string            `json:"version"`
	Categories *[]importCategory `json:"categories"`
}

func (t *importTask) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &t.Task); err != nil {
		return err
	}
	var flag struct {
		Completed *bool `json:"completed"`
	}
	if err := json.Unmarshal(data, &flag); err != nil {
		return err
	}
	t.Completed = flag.Completed
	return nil
}

func validateImport(doc importDoc) []string {
	var problems []string
	if doc.Version == "" {
		problems = append(problems, "Missing version field")
	}
	if doc.Categories == nil {
		return append(problems, "Missing or invalid categories array")
	}
	seenCategories := map[string]bool{}
	seenTodos := map[string]bool{}
	for i, c := range *doc.Categories {
		if c.ID == "" {
			problems = append(problems, fmt.Sprintf("Category %d: missing id", i))
		} else if seenCategories[c.ID] {
			problems = append(problems, fmt.Sprintf("Category %d: duplicate id %s", i, c.ID))
		}
		seenCategories[c.ID] = true
		if c.Name == "" {
			problems = append(problems, fmt.Sprintf("Category %d: missing name", i))
		}
		if c.Icon == "" {
			problems = append(problems, fmt.Sprintf("Category %d: missing icon", i))
		}
		if c.Todos == nil {
			problems = append(problems, fmt.Sprintf("Category %d: invalid todos array", i))
			continue
		}
		for j, t := range *c.Todos {
			if t.ID == "" {
				problems = append(problems, fmt.Sprintf("Category %d, Todo %d: missing id", i, j))
			} else if seenTodos[t.ID] {
				problems = append(problems, fmt.Sprintf("Category %d, Todo %d: duplicate id %s", i, j, t.ID))
			}
			seenTodos[t.ID] = true
			if t.Title == "" {
				problems = append(problems, fmt.Sprintf("Category %d, Todo %d: missing text", i, j))
			}
			if t.Completed == nil {
				problems = append(problems, fmt.Sprintf("Category %d, Todo %d: invalid completed field", i, j))
			}
		}
	}
	return problems
}

// Import loads an export document for owner. Malformed input is reported in
// the result; a store failure on the existing data is returned as an error.
func (s *Service) Import(ctx context.Context, st store.Store, owner string, raw []byte, strategy model.MergeStrategy) (*model.ImportResult, error) {
	if strategy == "" {
		strategy = model.MergeCombine
	}
	switch strategy {
	case model.MergeReplace, model.MergeCombine, model.MergeKeepExisting:
	default:
		return nil, invalid("unknown import strategy %q", strategy)
	}

	var doc importDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &model.ImportResult{
			Success: false,
			Message: "Failed to parse JSON",
			Errors:  []string{err.Error()},
		}, nil
	}
	if problems := validateImport(doc); len(problems) > 0 {
		return &model.ImportResult{
			Success: false,
			Message: "Invalid data format",
			Errors:  problems,
		}, nil
	}

	if strategy == model.MergeKeepExisting {
		return &model.ImportResult{
			Success:  true,
			Message:  "Existing data kept",
			Imported: &model.ImportCounts{},
		}, nil
	}

	existing, err := st.ListCategories(ctx, owner, store.ListOptions{IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("import: load existing: %w", err)
	}
	if strategy == model.MergeReplace {
		for _, c := range existing {
			if err := st.DeleteCategory(ctx, owner, c.ID); err != nil {
				return nil, fmt.Errorf("import: replace %s: %w", c.ID, err)
			}
		}
		existing = nil
	}

	known := make(map[string]map[string]bool, len(existing))
	for _, c := range existing {
		ids := make(map[string]bool, len(c.Tasks))
		for _, t := range c.Tasks {
			ids[t.ID] = true
		}
		known[c.ID] = ids
	}

	counts := &model.ImportCounts{}
	var failures []string
	for _, ic := range *doc.Categories {
		taskIDs, exists := known[ic.ID]
		if !exists {
			_, err := st.CreateCategory(ctx, owner, model.Category{
				ID:          ic.ID,
				Name:        ic.Name,
				Icon:        ic.Icon,
				Description: ic.Description,
				CreatedAt:   ic.CreatedAt,
			})
			if err != nil {
				s.logger.Warn("import category failed", zap.String("category_id", ic.ID), zap.Error(err))
				failures = append(failures, fmt.Sprintf("Category %s: %v", ic.ID, err))
				continue
			}
			counts.Categories++
			taskIDs = map[string]bool{}
		}

		for _, it := range *ic.Todos {
			if taskIDs[it.ID] {
				continue
			}
			t := it.Task
			t.Completed = *it.Completed
			if _, err := st.CreateTask(ctx, owner, ic.ID, t); err != nil {
				s.logger.Warn("import todo failed", zap.String("todo_id", it.ID), zap.Error(err))
				failures = append(failures, fmt.Sprintf("Todo %s: %v", it.ID, err))
				continue
			}
			taskIDs[it.ID] = true
			counts.Todos++
		}
	}

	s.events.Publish(ctx, contracts.DataImported, contracts.ImportPayload{
		Owner:      owner,
		Strategy:   string(strategy),
		Categories: counts.Categories,
		Todos:      counts.Todos,
	})

	res := &model.ImportResult{
		Success:  len(failures) == 0,
		Message:  "Data imported successfully",
		Imported: counts,
		Errors:   failures,
	}
	if len(failures) > 0 {
		res.Message = "Data imported with errors"
	}
	return res, nil
}
