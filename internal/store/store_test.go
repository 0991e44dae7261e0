package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestPreferences_EditAndGet(t *testing.T) {
	ctx := context.Background()
	p := newTestStore(t).Preferences("test")

	_, ok, err := p.GetString(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Edit(ctx, func(e *Editor) {
		e.PutString("name", "alice")
		e.PutInt("count", 3)
		e.PutBool("flag", true)
	}))

	name, ok, err := p.GetString(ctx, "name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", name)

	count, ok, err := p.GetInt(ctx, "count")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, count)

	flag, err := p.GetBool(ctx, "flag", false)
	require.NoError(t, err)
	assert.True(t, flag)

	// overwrite and remove in one edit
	require.NoError(t, p.Edit(ctx, func(e *Editor) {
		e.PutString("name", "bob")
		e.Remove("count")
	}))
	name, _, _ = p.GetString(ctx, "name")
	assert.Equal(t, "bob", name)
	_, ok, _ = p.GetInt(ctx, "count")
	assert.False(t, ok)
}

func TestPreferences_TypedGettersIgnoreBadValues(t *testing.T) {
	ctx := context.Background()
	p := newTestStore(t).Preferences("test")
	require.NoError(t, p.Edit(ctx, func(e *Editor) {
		e.PutString("n", "abc")
		e.PutString("b", "maybe")
	}))

	_, ok, err := p.GetInt(ctx, "n")
	require.NoError(t, err)
	assert.False(t, ok)

	b, err := p.GetBool(ctx, "b", true)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestPreferences_ClearIsScopedToNamespace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := s.Preferences("a")
	b := s.Preferences("b")

	require.NoError(t, a.Edit(ctx, func(e *Editor) { e.PutString("k", "1") }))
	require.NoError(t, b.Edit(ctx, func(e *Editor) { e.PutString("k", "2") }))

	require.NoError(t, a.Clear(ctx))

	_, ok, _ := a.GetString(ctx, "k")
	assert.False(t, ok)
	v, ok, _ := b.GetString(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestProfileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ps := NewProfileStore(newTestStore(t))

	got, err := ps.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	profile := UserProfile{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       intPtr(36),
		Phone:     strPtr("555-0100"),
		Gender:    strPtr("female"),
	}
	require.NoError(t, ps.Put(ctx, profile))

	got, err = ps.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, profile, *got)
	assert.Nil(t, got.Address)
}

func TestProfileStore_NilOptionalsRemoveKeys(t *testing.T) {
	ctx := context.Background()
	ps := NewProfileStore(newTestStore(t))

	require.NoError(t, ps.Put(ctx, UserProfile{
		FirstName: "A", LastName: "B", Email: "c@d", Age: intPtr(20), Phone: strPtr("1"),
	}))
	require.NoError(t, ps.Put(ctx, UserProfile{FirstName: "A", LastName: "B", Email: "c@d"}))

	got, err := ps.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Age)
	assert.Nil(t, got.Phone)
}

func TestProfileStore_PartialRecordReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ps := NewProfileStore(s)

	require.NoError(t, s.Preferences(ProfileNamespace).Edit(ctx, func(e *Editor) {
		e.PutString(keyFirstName, "Ada")
		e.PutString(keyEmail, "ada@example.com")
	}))

	got, err := ps.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfileStore_PutRejectsMissingRequired(t *testing.T) {
	ps := NewProfileStore(newTestStore(t))
	err := ps.Put(context.Background(), UserProfile{FirstName: "A"})
	assert.Error(t, err)
}

func TestProfileStore_Clear(t *testing.T) {
	ctx := context.Background()
	ps := NewProfileStore(newTestStore(t))
	require.NoError(t, ps.Put(ctx, UserProfile{FirstName: "A", LastName: "B", Email: "c@d"}))

	require.NoError(t, ps.Clear(ctx))

	got, err := ps.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOnboardingPrefs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	o := NewOnboardingPrefs(s)

	flags, err := o.Flags(ctx)
	require.NoError(t, err)
	assert.Equal(t, OnboardingFlags{}, flags)

	require.NoError(t, o.SetOnboardingCompleted(ctx))
	completed, err := o.OnboardingCompleted(ctx)
	require.NoError(t, err)
	assert.True(t, completed)
	signedIn, err := o.UserSignedIn(ctx)
	require.NoError(t, err)
	assert.False(t, signedIn)

	require.NoError(t, o.SetUserSignedIn(ctx, true))

	flags, err = o.Flags(ctx)
	require.NoError(t, err)
	assert.Equal(t, OnboardingFlags{OnboardingCompleted: true, UserSignedIn: true}, flags)

	// clearing onboarding must not touch the profile namespace
	ps := NewProfileStore(s)
	require.NoError(t, ps.Put(ctx, UserProfile{FirstName: "A", LastName: "B", Email: "c@d"}))

	require.NoError(t, o.ClearAll(ctx))
	flags, err = o.Flags(ctx)
	require.NoError(t, err)
	assert.Equal(t, OnboardingFlags{}, flags)

	profile, err := ps.Get(ctx)
	require.NoError(t, err)
	assert.NotNil(t, profile)
}
