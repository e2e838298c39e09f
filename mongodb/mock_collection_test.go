package mongodb_test

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/civicpulse/mayoralert/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
)

// mockCollection is an in-memory implementation of mongodb.Collection.
type mockCollection struct {
	mu    sync.Mutex
	docs  []mongodb.AlertDocument
	roles []string

	findErr    error
	findOneErr error
	countErr   error
	insertErr  error
	deleteErr  error
	dropErr    error

	lastFindOpts    *mongooptions.FindOptions
	lastCountFilter any
	dropped         bool
}

func (m *mockCollection) Find(_ context.Context, _ any, opts ...*mongooptions.FindOptions) (*mongo.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}

	sorted := slices.Clone(m.docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	skip, limit := 0, len(sorted)

	if len(opts) > 0 {
		m.lastFindOpts = opts[0]

		if opts[0].Skip != nil {
			skip = int(*opts[0].Skip)
		}

		if opts[0].Limit != nil {
			limit = int(*opts[0].Limit)
		}
	}

	start := min(skip, len(sorted))
	end := min(start+limit, len(sorted))

	page := make([]any, 0, end-start)
	for _, d := range sorted[start:end] {
		page = append(page, d)
	}

	return mongo.NewCursorFromDocuments(page, nil, nil)
}

func (m *mockCollection) FindOne(_ context.Context, filter any, _ ...*mongooptions.FindOneOptions) *mongo.SingleResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findOneErr != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, m.findOneErr, nil)
	}

	if i := m.indexOf(filter); i >= 0 {
		return mongo.NewSingleResultFromDocument(m.docs[i], nil, nil)
	}

	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (m *mockCollection) CountDocuments(_ context.Context, filter any, _ ...*mongooptions.CountOptions) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastCountFilter = filter

	if m.countErr != nil {
		return 0, m.countErr
	}

	f, ok := filter.(bson.M)
	if !ok {
		return int64(len(m.docs)), nil
	}

	roleFilter, _ := f["role"].(bson.M)
	in, _ := roleFilter["$in"].([]string)

	var n int64

	for _, r := range m.roles {
		if slices.Contains(in, r) {
			n++
		}
	}

	return n, nil
}

func (m *mockCollection) InsertOne(_ context.Context, document any, _ ...*mongooptions.InsertOneOptions) (*mongo.InsertOneResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return nil, m.insertErr
	}

	doc, ok := document.(*mongodb.AlertDocument)
	if !ok {
		return nil, errors.New("unexpected document type")
	}

	m.docs = append(m.docs, *doc)

	return &mongo.InsertOneResult{InsertedID: doc.ID}, nil
}

func (m *mockCollection) DeleteOne(_ context.Context, filter any, _ ...*mongooptions.DeleteOptions) (*mongo.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return nil, m.deleteErr
	}

	i := m.indexOf(filter)
	if i < 0 {
		return &mongo.DeleteResult{DeletedCount: 0}, nil
	}

	m.docs = slices.Delete(m.docs, i, i+1)

	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (m *mockCollection) Drop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dropErr != nil {
		return m.dropErr
	}

	m.docs = nil
	m.roles = nil
	m.dropped = true

	return nil
}

func (m *mockCollection) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.docs)
}

func (m *mockCollection) indexOf(filter any) int {
	f, ok := filter.(bson.M)
	if !ok {
		return -1
	}

	oid, ok := f["_id"].(primitive.ObjectID)
	if !ok {
		return -1
	}

	for i, d := range m.docs {
		if d.ID == oid {
			return i
		}
	}

	return -1
}

// mockIndexView records the index models passed to CreateOne.
type mockIndexView struct {
	mu     sync.Mutex
	models []mongo.IndexModel
	err    error
}

func (m *mockIndexView) CreateOne(_ context.Context, model mongo.IndexModel, _ ...*mongooptions.CreateIndexesOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	m.models = append(m.models, model)

	return "idx", nil
}
