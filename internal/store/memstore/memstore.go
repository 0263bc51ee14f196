// Package memstore implements store.Store entirely in memory. It
// backs the "memory" backend used for local development and is the
// store under test in the handler suites. Data lives for the
// process lifetime only.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

// Store keeps all records under one mutex. Contention is not a
// concern at dev/test scale and a single lock keeps the
// check-then-insert of CreateUser trivially atomic.
type Store struct {
	mu      sync.Mutex
	users   map[string]*model.User   // keyed by user id
	animals map[string]*model.Animal // keyed by animal id
	litters map[string]*model.Litter // keyed by litter id

	userSeq   int
	animalSeq int
	litterSeq int
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[string]*model.User),
		animals: make(map[string]*model.Animal),
		litters: make(map[string]*model.Litter),
	}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func cloneAnimal(a *model.Animal) *model.Animal {
	c := *a
	return &c
}

func cloneLitter(l *model.Litter) *model.Litter {
	c := *l
	c.ParentIDs = append([]string(nil), l.ParentIDs...)
	return &c
}

// CreateUser stores the user, rejecting duplicate emails. The
// single mutex makes the uniqueness check and the insert atomic.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == email {
			return store.ErrEmailExists
		}
	}
	u.Email = email
	s.userSeq++
	u.SequentialID = s.userSeq
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd model.UserUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return 0, nil
	}
	if upd.PersonalName != nil {
		u.PersonalName = upd.PersonalName
	}
	if upd.BreederName != nil {
		u.BreederName = upd.BreederName
	}
	if upd.ProfilePictureURL != nil {
		u.ProfilePictureURL = upd.ProfilePictureURL
	}
	if upd.IsBreederProfile != nil {
		u.IsBreederProfile = *upd.IsBreederProfile
	}
	return 1, nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// SearchUsers matches term case-insensitively on personal or
// breeder name; nil names behave like empty strings.
func (s *Store) SearchUsers(ctx context.Context, term string) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(term)
	var out []*model.User
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(strOrEmpty(u.PersonalName)), needle) ||
			strings.Contains(strings.ToLower(strOrEmpty(u.BreederName)), needle) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequentialID < out[j].SequentialID })
	return out, nil
}

func (s *Store) CreateAnimal(ctx context.Context, a *model.Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animalSeq++
	a.SequentialID = s.animalSeq
	s.animals[a.ID] = cloneAnimal(a)
	return nil
}

func (s *Store) ListAnimals(ctx context.Context, ownerID, species string) ([]*model.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(species)
	var out []*model.Animal
	for _, a := range s.animals {
		if a.UserID != ownerID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(a.Species), needle) {
			continue
		}
		out = append(out, cloneAnimal(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequentialID < out[j].SequentialID })
	return out, nil
}

func (s *Store) GetAnimal(ctx context.Context, ownerID, id string) (*model.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animals[id]
	if !ok || a.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return cloneAnimal(a), nil
}

func (s *Store) UpdateAnimal(ctx context.Context, ownerID, id string, upd model.AnimalUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animals[id]
	if !ok || a.UserID != ownerID {
		return 0, nil
	}
	if upd.Name != nil {
		a.Name = upd.Name
	}
	if upd.Species != nil {
		a.Species = *upd.Species
	}
	if upd.Breeder != nil {
		a.Breeder = upd.Breeder
	}
	if upd.BirthDate != nil {
		a.BirthDate = upd.BirthDate
	}
	if upd.Gender != nil {
		a.Gender = upd.Gender
	}
	if upd.ColorVariety != nil {
		a.ColorVariety = upd.ColorVariety
	}
	if upd.CoatVariety != nil {
		a.CoatVariety = upd.CoatVariety
	}
	if upd.RegistryCode != nil {
		a.RegistryCode = upd.RegistryCode
	}
	if upd.Owner != nil {
		a.Owner = upd.Owner
	}
	if upd.Remarks != nil {
		a.Remarks = upd.Remarks
	}
	if upd.FatherID != nil {
		a.FatherID = upd.FatherID
	}
	if upd.MotherID != nil {
		a.MotherID = upd.MotherID
	}
	if upd.ShowOnProfile != nil {
		a.ShowOnProfile = *upd.ShowOnProfile
	}
	if upd.ShowRegistryCode != nil {
		a.ShowRegistryCode = *upd.ShowRegistryCode
	}
	if upd.ShowOwner != nil {
		a.ShowOwner = *upd.ShowOwner
	}
	if upd.ShowRemarks != nil {
		a.ShowRemarks = *upd.ShowRemarks
	}
	if upd.ShowParents != nil {
		a.ShowParents = *upd.ShowParents
	}
	if upd.GeneticsCode != nil {
		a.GeneticsCode = upd.GeneticsCode
	}
	return 1, nil
}

func (s *Store) DeleteAnimal(ctx context.Context, ownerID, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animals[id]
	if !ok || a.UserID != ownerID {
		return 0, nil
	}
	delete(s.animals, id)
	return 1, nil
}

func (s *Store) ListPublicAnimals(ctx context.Context, ownerID string) ([]*model.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Animal
	for _, a := range s.animals {
		if a.UserID == ownerID && a.ShowOnProfile {
			out = append(out, cloneAnimal(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequentialID < out[j].SequentialID })
	return out, nil
}

func (s *Store) GetPublicAnimal(ctx context.Context, ownerID, id string) (*model.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animals[id]
	if !ok || a.UserID != ownerID || !a.ShowOnProfile {
		return nil, store.ErrNotFound
	}
	return cloneAnimal(a), nil
}

func (s *Store) CreateLitter(ctx context.Context, l *model.Litter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.litterSeq++
	l.SequentialID = s.litterSeq
	s.litters[l.ID] = cloneLitter(l)
	return nil
}

func (s *Store) ListLitters(ctx context.Context, ownerID string) ([]*model.Litter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Litter
	for _, l := range s.litters {
		if l.UserID == ownerID {
			out = append(out, cloneLitter(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequentialID < out[j].SequentialID })
	return out, nil
}

func (s *Store) GetLitter(ctx context.Context, ownerID, id string) (*model.Litter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.litters[id]
	if !ok || l.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return cloneLitter(l), nil
}

func (s *Store) UpdateLitter(ctx context.Context, ownerID, id string, upd model.LitterUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.litters[id]
	if !ok || l.UserID != ownerID {
		return 0, nil
	}
	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Date != nil {
		l.Date = *upd.Date
	}
	if upd.Count != nil {
		l.Count = *upd.Count
	}
	if upd.ParentIDs != nil {
		l.ParentIDs = append([]string(nil), (*upd.ParentIDs)...)
	}
	return 1, nil
}

func (s *Store) DeleteLitter(ctx context.Context, ownerID, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.litters[id]
	if !ok || l.UserID != ownerID {
		return 0, nil
	}
	delete(s.litters, id)
	return 1, nil
}
