package handler

import (
	"context"
	"sort"
	"sync"

	"github.com/hitoshi/dailydiet/internal/model"
	"github.com/hitoshi/dailydiet/internal/repository"
)

// memStore はルーター結合テスト用のインメモリリポジトリ。
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	sessions []*model.Session
	meals    map[string]*model.Meal
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*model.User),
		meals: make(map[string]*model.Meal),
	}
}

type memUserRepo struct{ s *memStore }
type memSessionRepo struct{ s *memStore }
type memMealRepo struct{ s *memStore }

var _ repository.UserRepository = memUserRepo{}
var _ repository.SessionRepository = memSessionRepo{}
var _ repository.MealRepository = memMealRepo{}

func (r memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *session
	r.s.sessions = append(r.s.sessions, &cp)
	return nil
}

func (r memSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, s := range r.s.sessions {
		if s.Token == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memSessionRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.sessions) - 1; i >= 0; i-- {
		if s := r.s.sessions[i]; s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memMealRepo) Create(ctx context.Context, meal *model.Meal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *meal
	r.s.meals[meal.ID] = &cp
	return nil
}

func (r memMealRepo) FindByID(ctx context.Context, id string) (*model.Meal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.meals[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r memMealRepo) Update(ctx context.Context, meal *model.Meal) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.meals[meal.ID]; !ok {
		return false, nil
	}
	cp := *meal
	r.s.meals[meal.ID] = &cp
	return true, nil
}

func (r memMealRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.meals[id]; !ok {
		return false, nil
	}
	delete(r.s.meals, id)
	return true, nil
}

func (r memMealRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.Meal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	meals := []*model.Meal{}
	for _, m := range r.s.meals {
		if m.AuthorID == authorID {
			cp := *m
			meals = append(meals, &cp)
		}
	}
	sort.SliceStable(meals, func(i, j int) bool {
		if meals[i].MealTime.Equal(meals[j].MealTime) {
			return meals[i].CreatedAt.Before(meals[j].CreatedAt)
		}
		return meals[i].MealTime.Before(meals[j].MealTime)
	})
	return meals, nil
}

func (r memMealRepo) Count(ctx context.Context, filter repository.MealFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, m := range r.s.meals {
		if m.AuthorID != filter.AuthorID {
			continue
		}
		if filter.IsWithinDiet != nil && m.IsWithinDiet != *filter.IsWithinDiet {
			continue
		}
		n++
	}
	return n, nil
}
