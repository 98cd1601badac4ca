// Package mongostore implements store.Store with the collections users, categories and todos.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"taskvault/internal/model"
	"taskvault/internal/store"
	"taskvault/pkg/metrics"
)

const (
	usersCollection      = "users"
	categoriesCollection = "categories"
	todosCollection      = "todos"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to uri and verifies the connection.
func Open(ctx context.Context, uri, database string, logger *zap.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(database),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Init creates the indexes used by owner-scoped lookups.
func (s *Store) Init(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_email", Value: 1}}},
		},
		todosCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "category_id", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating %s indexes: %w", coll, err)
		}
		s.logger.Info("ensured indexes", zap.String("collection", coll), zap.Int("count", len(models)))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) EnsureUser(ctx context.Context, email string) error {
	defer observe("upsert", usersCollection, time.Now())

	_, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": bson.M{"email": email, "created_at": s.now()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context, owner string, opts store.ListOptions) ([]model.Category, error) {
	defer observe("find", categoriesCollection, time.Now())

	cur, err := s.db.Collection(categoriesCollection).Find(ctx,
		bson.M{"user_email": owner},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	cats := []model.Category{}
	if err := cur.All(ctx, &cats); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}

	tasks, err := s.findTasks(ctx, bson.M{"user_email": owner}, opts)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string][]model.Task, len(cats))
	for _, t := range tasks {
		byCategory[t.CategoryID] = append(byCategory[t.CategoryID], t)
	}
	for i := range cats {
		cats[i].Tasks = byCategory[cats[i].ID]
		if cats[i].Tasks == nil {
			cats[i].Tasks = []model.Task{}
		}
	}
	return cats, nil
}

func (s *Store) GetCategory(ctx context.Context, owner, id string, opts store.ListOptions) (*model.Category, error) {
	c, err := s.getCategory(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	c.Tasks, err = s.findTasks(ctx, bson.M{"user_email": owner, "category_id": id}, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, owner string, c model.Category) (*model.Category, error) {
	defer observe("insert", categoriesCollection, time.Now())

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.Owner = owner
	c.Color = model.CategoryColor

	if _, err := s.db.Collection(categoriesCollection).InsertOne(ctx, c); err != nil {
		return nil, fmt.Errorf("creating category: %w", conflict(err))
	}
	c.Tasks = []model.Task{}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, owner, id string, patch store.CategoryPatch) (*model.Category, error) {
	defer observe("update", categoriesCollection, time.Now())

	c, err := s.getCategory(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(c, s.now())

	res, err := s.db.Collection(categoriesCollection).UpdateOne(ctx,
		bson.M{"id": id, "user_email": owner},
		bson.M{"$set": bson.M{
			"name":        c.Name,
			"description": c.Description,
			"icon":        c.Icon,
			"updated_at":  c.UpdatedAt,
		}})
	if err != nil {
		return nil, fmt.Errorf("updating category %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return nil, store.ErrNotFound
	}
	c.Tasks, err = s.findTasks(ctx, bson.M{"user_email": owner, "category_id": id}, store.ListOptions{})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes the category, then its todos. There is no transaction;
// a failure between the two leaves orphan todos that no query can reach.
func (s *Store) DeleteCategory(ctx context.Context, owner, id string) error {
	defer observe("delete", categoriesCollection, time.Now())

	res, err := s.db.Collection(categoriesCollection).DeleteOne(ctx, bson.M{"id": id, "user_email": owner})
	if err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	if _, err := s.db.Collection(todosCollection).DeleteMany(ctx, bson.M{"category_id": id, "user_email": owner}); err != nil {
		return fmt.Errorf("deleting todos of category %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, owner, categoryID string, opts store.ListOptions) ([]model.Task, error) {
	if _, err := s.getCategory(ctx, owner, categoryID); err != nil {
		return nil, err
	}
	return s.findTasks(ctx, bson.M{"user_email": owner, "category_id": categoryID}, opts)
}

func (s *Store) CreateTask(ctx context.Context, owner, categoryID string, t model.Task) (*model.Task, error) {
	defer observe("insert", todosCollection, time.Now())

	if _, err := s.getCategory(ctx, owner, categoryID); err != nil {
		return nil, err
	}
	order, err := s.nextOrder(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.CategoryID = categoryID
	t.Owner = owner
	t.Order = order

	if _, err := s.db.Collection(todosCollection).InsertOne(ctx, t); err != nil {
		return nil, fmt.Errorf("creating todo: %w", conflict(err))
	}
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, owner, categoryID, taskID string, patch store.TaskPatch) (*model.Task, error) {
	defer observe("update", todosCollection, time.Now())

	filter := bson.M{"id": taskID, "category_id": categoryID, "user_email": owner}
	var t model.Task
	if err := s.db.Collection(todosCollection).FindOne(ctx, filter).Decode(&t); err != nil {
		return nil, notFound(fmt.Errorf("getting todo %s: %w", taskID, err))
	}
	if err := patch.Apply(&t, s.now()); err != nil {
		return nil, err
	}

	res, err := s.db.Collection(todosCollection).ReplaceOne(ctx, filter, t)
	if err != nil {
		return nil, fmt.Errorf("updating todo %s: %w", taskID, err)
	}
	if res.MatchedCount == 0 {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *Store) DeleteTask(ctx context.Context, owner, categoryID, taskID string) error {
	defer observe("delete", todosCollection, time.Now())

	res, err := s.db.Collection(todosCollection).DeleteOne(ctx,
		bson.M{"id": taskID, "category_id": categoryID, "user_email": owner})
	if err != nil {
		return fmt.Errorf("deleting todo %s: %w", taskID, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) getCategory(ctx context.Context, owner, id string) (*model.Category, error) {
	var c model.Category
	err := s.db.Collection(categoriesCollection).FindOne(ctx, bson.M{"id": id, "user_email": owner}).Decode(&c)
	if err != nil {
		return nil, notFound(fmt.Errorf("getting category %s: %w", id, err))
	}
	return &c, nil
}

func (s *Store) findTasks(ctx context.Context, filter bson.M, opts store.ListOptions) ([]model.Task, error) {
	defer observe("find", todosCollection, time.Now())

	if !opts.IncludeArchived {
		filter["archived"] = false
	}
	cur, err := s.db.Collection(todosCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	tasks := []model.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decoding todos: %w", err)
	}
	return tasks, nil
}

// nextOrder is one past the highest sort_order in the category.
func (s *Store) nextOrder(ctx context.Context, categoryID string) (int, error) {
	var last model.Task
	err := s.db.Collection(todosCollection).FindOne(ctx,
		bson.M{"category_id": categoryID},
		options.FindOne().SetSort(bson.D{{Key: "sort_order", Value: -1}}),
	).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading next order: %w", err)
	}
	return last.Order + 1, nil
}

func conflict(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func observe(operation, collection string, start time.Time) {
	metrics.RecordDBQueryDuration(operation, collection, time.Since(start))
}
