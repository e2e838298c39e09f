package handler_test

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/civicpulse/mayoralert/types"
)

// memStore is an in-memory types.AlertStore and types.UserDirectory.
type memStore struct {
	mu     sync.Mutex
	alerts []*types.Alert
	roles  []types.Role
	nextID int

	findErr   error
	countErr  error
	createErr error
	getErr    error
	deleteErr error
	usersErr  error

	lastSkip, lastLimit int
	findCalls           atomic.Int32
	countCalls          atomic.Int32
}

func (s *memStore) CreateAlert(_ context.Context, alert *types.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}

	s.nextID++
	alert.ID = "alert-" + strconv.Itoa(s.nextID)

	stored := *alert
	s.alerts = append(s.alerts, &stored)

	return nil
}

func (s *memStore) FindAlerts(_ context.Context, skip, limit int) ([]*types.Alert, error) {
	s.findCalls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSkip, s.lastLimit = skip, limit

	if s.findErr != nil {
		return nil, s.findErr
	}

	sorted := slices.Clone(s.alerts)
	slices.SortFunc(sorted, func(a, b *types.Alert) int { return b.CreatedAt.Compare(a.CreatedAt) })

	if skip >= len(sorted) {
		return []*types.Alert{}, nil
	}

	return sorted[skip : skip+min(limit, len(sorted)-skip)], nil
}

func (s *memStore) CountAlerts(context.Context) (int64, error) {
	s.countCalls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.countErr != nil {
		return 0, s.countErr
	}

	return int64(len(s.alerts)), nil
}

func (s *memStore) FindAlertByID(_ context.Context, id string) (*types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}

	for _, a := range s.alerts {
		if a.ID == id {
			return a, nil
		}
	}

	return nil, types.ErrAlertNotFound
}

func (s *memStore) DeleteAlert(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}

	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = slices.Delete(s.alerts, i, i+1)
			return nil
		}
	}

	return types.ErrAlertNotFound
}

func (s *memStore) CountUsersByRole(_ context.Context, roles ...types.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usersErr != nil {
		return 0, s.usersErr
	}

	var n int64

	for _, r := range s.roles {
		if slices.Contains(roles, r) {
			n++
		}
	}

	return n, nil
}

func (s *memStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.alerts)
}
