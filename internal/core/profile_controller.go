package core

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"healthsync.ai/companion/internal/logger"
	"healthsync.ai/companion/internal/observe"
	"healthsync.ai/companion/internal/store"
)

// ProfileStore persists the single user profile. Get returns nil, nil when no
// complete profile exists.
type ProfileStore interface {
	Get(ctx context.Context) (*store.UserProfile, error)
	Put(ctx context.Context, profile store.UserProfile) error
	Clear(ctx context.Context) error
}

type ProfileStatus string

const (
	ProfileIdle    ProfileStatus = "idle"
	ProfileLoading ProfileStatus = "loading"
	ProfileLoaded  ProfileStatus = "loaded"
	ProfileError   ProfileStatus = "error"
)

type ProfileState struct {
	Status  ProfileStatus      `json:"status"`
	Profile *store.UserProfile `json:"profile"`
	Loading bool               `json:"loading"`
	Error   string             `json:"error,omitempty"`
}

// ProfileForm is the raw profile input. Age arrives as text.
type ProfileForm struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Age       string  `json:"age"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Gender    *string `json:"gender,omitempty"`
}

// Record converts the form; an age that is not a positive integer is dropped.
func (f ProfileForm) Record() store.UserProfile {
	record := store.UserProfile{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
		Address:   f.Address,
		Gender:    f.Gender,
	}
	if age, err := strconv.Atoi(strings.TrimSpace(f.Age)); err == nil && age > 0 {
		record.Age = &age
	}
	return record
}

// ProfileController loads, saves and clears the profile through a
// ProfileStore. Failures land in the state's Error field; methods never
// return them. When operations overlap, only the most recently started one
// may commit its result.
type ProfileController struct {
	store ProfileStore

	mu         sync.Mutex
	generation uint64

	state *observe.Value[ProfileState]
}

func NewProfileController(s ProfileStore) *ProfileController {
	return &ProfileController{
		store: s,
		state: observe.NewValue(ProfileState{Status: ProfileIdle}),
	}
}

func (c *ProfileController) State() *observe.Value[ProfileState] {
	return c.state
}

func (c *ProfileController) Snapshot() ProfileState {
	return c.state.Get()
}

func (c *ProfileController) Load(ctx context.Context) ProfileState {
	gen := c.begin()
	profile, err := c.store.Get(ctx)
	if err != nil {
		return c.fail(gen, "Failed to load profile: ", err)
	}
	return c.commit(gen, profile)
}

func (c *ProfileController) Save(ctx context.Context, form ProfileForm) ProfileState {
	gen := c.begin()
	record := form.Record()
	if err := c.store.Put(ctx, record); err != nil {
		return c.fail(gen, "Failed to save profile: ", err)
	}
	return c.commit(gen, &record)
}

func (c *ProfileController) Update(ctx context.Context, record store.UserProfile) ProfileState {
	gen := c.begin()
	if err := c.store.Put(ctx, record); err != nil {
		return c.fail(gen, "Failed to update profile: ", err)
	}
	return c.commit(gen, &record)
}

func (c *ProfileController) Clear(ctx context.Context) ProfileState {
	gen := c.begin()
	if err := c.store.Clear(ctx); err != nil {
		return c.fail(gen, "Failed to clear profile: ", err)
	}
	return c.commit(gen, nil)
}

func (c *ProfileController) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state.Update(func(s ProfileState) ProfileState {
		s.Status = ProfileLoading
		s.Loading = true
		return s
	})
	return c.generation
}

func (c *ProfileController) commit(gen uint64, profile *store.UserProfile) ProfileState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		logger.Debug("Discarding stale profile result", "generation", gen, "current", c.generation)
		return c.state.Get()
	}
	return c.state.Update(func(ProfileState) ProfileState {
		return ProfileState{Status: ProfileLoaded, Profile: profile}
	})
}

func (c *ProfileController) fail(gen uint64, prefix string, err error) ProfileState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		logger.Debug("Discarding stale profile error", "generation", gen, "error", err)
		return c.state.Get()
	}
	logger.Error("Profile operation failed", "error", err)
	return c.state.Update(func(s ProfileState) ProfileState {
		s.Status = ProfileError
		s.Loading = false
		s.Error = prefix + err.Error()
		return s
	})
}
