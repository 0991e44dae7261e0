package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"healthsync.ai/companion/internal/store"
)

type memoryProfileStore struct {
	mu       sync.Mutex
	profile  *store.UserProfile
	getErr   error
	putErr   error
	clearErr error

	// getGate, when set, blocks Get until closed
	getGate chan struct{}
	getHits int
}

func (m *memoryProfileStore) Get(context.Context) (*store.UserProfile, error) {
	m.mu.Lock()
	m.getHits++
	gate := m.getGate
	profile, err := m.profile, m.getErr
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	p := *profile
	return &p, nil
}

func (m *memoryProfileStore) Put(_ context.Context, p store.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.profile = &p
	return nil
}

func (m *memoryProfileStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.profile = nil
	return nil
}

func (m *memoryProfileStore) hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getHits
}

func TestProfileController_InitialState(t *testing.T) {
	c := NewProfileController(&memoryProfileStore{})
	assert.Equal(t, ProfileState{Status: ProfileIdle}, c.Snapshot())
}

func TestProfileController_LoadEmpty(t *testing.T) {
	c := NewProfileController(&memoryProfileStore{})

	st := c.Load(context.Background())
	assert.Equal(t, ProfileLoaded, st.Status)
	assert.Nil(t, st.Profile)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestProfileController_LoadFailure(t *testing.T) {
	ms := &memoryProfileStore{getErr: errors.New("disk on fire")}
	c := NewProfileController(ms)

	st := c.Load(context.Background())
	assert.Equal(t, ProfileError, st.Status)
	assert.Equal(t, "Failed to load profile: disk on fire", st.Error)
	assert.False(t, st.Loading)

	// a successful retry clears the error
	ms.getErr = nil
	st = c.Load(context.Background())
	assert.Equal(t, ProfileLoaded, st.Status)
	assert.Empty(t, st.Error)
}

func TestProfileController_LoadPublishesLoading(t *testing.T) {
	gate := make(chan struct{})
	c := NewProfileController(&memoryProfileStore{getGate: gate})

	done := make(chan ProfileState)
	go func() { done <- c.Load(context.Background()) }()

	require.Eventually(t, func() bool { return c.Snapshot().Loading }, timeout, tick)
	assert.Equal(t, ProfileLoading, c.Snapshot().Status)

	close(gate)
	st := <-done
	assert.False(t, st.Loading)
}

func TestProfileController_Save(t *testing.T) {
	ms := &memoryProfileStore{}
	c := NewProfileController(ms)

	st := c.Save(context.Background(), ProfileForm{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       "36",
		Phone:     strPtr("555"),
	})
	require.Equal(t, ProfileLoaded, st.Status)
	require.NotNil(t, st.Profile)
	require.NotNil(t, st.Profile.Age)
	assert.Equal(t, 36, *st.Profile.Age)
	assert.Equal(t, "555", *st.Profile.Phone)
	assert.Equal(t, *st.Profile, *ms.profile)
}

func TestProfileController_SaveFailure(t *testing.T) {
	c := NewProfileController(&memoryProfileStore{putErr: errors.New("read-only")})
	st := c.Save(context.Background(), ProfileForm{FirstName: "A", LastName: "B", Email: "c"})
	assert.Equal(t, ProfileError, st.Status)
	assert.Equal(t, "Failed to save profile: read-only", st.Error)
	assert.False(t, st.Loading)
}

func TestProfileController_UpdateAndClear(t *testing.T) {
	ms := &memoryProfileStore{}
	c := NewProfileController(ms)
	ctx := context.Background()

	st := c.Update(ctx, store.UserProfile{FirstName: "A", LastName: "B", Email: "c@d"})
	require.Equal(t, ProfileLoaded, st.Status)
	assert.Equal(t, "A", st.Profile.FirstName)

	st = c.Clear(ctx)
	assert.Equal(t, ProfileLoaded, st.Status)
	assert.Nil(t, st.Profile)
	assert.Nil(t, ms.profile)
}

func TestProfileController_UpdateAndClearFailures(t *testing.T) {
	ms := &memoryProfileStore{putErr: errors.New("nope"), clearErr: errors.New("locked")}
	c := NewProfileController(ms)
	ctx := context.Background()

	st := c.Update(ctx, store.UserProfile{FirstName: "A", LastName: "B", Email: "c@d"})
	assert.Equal(t, "Failed to update profile: nope", st.Error)

	st = c.Clear(ctx)
	assert.Equal(t, "Failed to clear profile: locked", st.Error)
	assert.False(t, st.Loading)
}

func TestProfileController_StaleLoadIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	ms := &memoryProfileStore{
		profile: &store.UserProfile{FirstName: "Old", LastName: "B", Email: "c@d"},
		getGate: gate,
	}
	c := NewProfileController(ms)
	ctx := context.Background()

	done := make(chan ProfileState)
	go func() { done <- c.Load(ctx) }()
	require.Eventually(t, func() bool { return ms.hits() == 1 }, timeout, tick)

	saved := c.Save(ctx, ProfileForm{FirstName: "New", LastName: "B", Email: "c@d"})
	require.Equal(t, "New", saved.Profile.FirstName)

	close(gate)
	<-done

	st := c.Snapshot()
	assert.Equal(t, "New", st.Profile.FirstName, "stale load must not overwrite newer save")
	assert.False(t, st.Loading)
}

func TestProfileForm_Record(t *testing.T) {
	tests := []struct {
		age  string
		want *int
	}{
		{"42", func() *int { n := 42; return &n }()},
		{" 7 ", func() *int { n := 7; return &n }()},
		{"", nil},
		{"abc", nil},
		{"0", nil},
		{"-3", nil},
	}
	for _, tt := range tests {
		got := ProfileForm{FirstName: "A", LastName: "B", Email: "c", Age: tt.age}.Record()
		assert.Equal(t, tt.want, got.Age, "age %q", tt.age)
	}
}
