package store

import (
	"context"
	"fmt"
)

const (
	ProfileNamespace    = "user_profile_prefs"
	OnboardingNamespace = "onboarding_prefs"

	keyFirstName = "first_name"
	keyLastName  = "last_name"
	keyEmail     = "email"
	keyAge       = "age"
	keyPhone     = "phone"
	keyAddress   = "address"
	keyGender    = "gender"

	keyOnboardingCompleted = "onboarding_completed"
	keyUserSignedIn        = "user_signed_in"
)

// ProfileStore persists a single UserProfile as seven keys in its namespace.
type ProfileStore struct {
	prefs *Preferences
}

func NewProfileStore(s *SQLiteStore) *ProfileStore {
	return &ProfileStore{prefs: s.Preferences(ProfileNamespace)}
}

// Get returns nil, nil when no complete profile is stored.
func (ps *ProfileStore) Get(ctx context.Context) (*UserProfile, error) {
	required := make([]string, 3)
	for i, key := range []string{keyFirstName, keyLastName, keyEmail} {
		v, ok, err := ps.prefs.GetString(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		required[i] = v
	}

	profile := &UserProfile{
		FirstName: required[0],
		LastName:  required[1],
		Email:     required[2],
	}

	age, ok, err := ps.prefs.GetInt(ctx, keyAge)
	if err != nil {
		return nil, err
	}
	if ok {
		profile.Age = &age
	}

	for key, dst := range map[string]**string{
		keyPhone:   &profile.Phone,
		keyAddress: &profile.Address,
		keyGender:  &profile.Gender,
	} {
		v, ok, err := ps.prefs.GetString(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			*dst = &v
		}
	}
	return profile, nil
}

func (ps *ProfileStore) Put(ctx context.Context, profile UserProfile) error {
	if profile.FirstName == "" || profile.LastName == "" || profile.Email == "" {
		return fmt.Errorf("profile requires first name, last name and email")
	}
	return ps.prefs.Edit(ctx, func(e *Editor) {
		e.PutString(keyFirstName, profile.FirstName)
		e.PutString(keyLastName, profile.LastName)
		e.PutString(keyEmail, profile.Email)
		if profile.Age != nil {
			e.PutInt(keyAge, *profile.Age)
		} else {
			e.Remove(keyAge)
		}
		e.PutOptional(keyPhone, profile.Phone)
		e.PutOptional(keyAddress, profile.Address)
		e.PutOptional(keyGender, profile.Gender)
	})
}

func (ps *ProfileStore) Clear(ctx context.Context) error {
	return ps.prefs.Clear(ctx)
}

// OnboardingPrefs holds the navigation flags in their own namespace.
type OnboardingPrefs struct {
	prefs *Preferences
}

func NewOnboardingPrefs(s *SQLiteStore) *OnboardingPrefs {
	return &OnboardingPrefs{prefs: s.Preferences(OnboardingNamespace)}
}

func (o *OnboardingPrefs) OnboardingCompleted(ctx context.Context) (bool, error) {
	return o.prefs.GetBool(ctx, keyOnboardingCompleted, false)
}

func (o *OnboardingPrefs) UserSignedIn(ctx context.Context) (bool, error) {
	return o.prefs.GetBool(ctx, keyUserSignedIn, false)
}

func (o *OnboardingPrefs) Flags(ctx context.Context) (OnboardingFlags, error) {
	completed, err := o.OnboardingCompleted(ctx)
	if err != nil {
		return OnboardingFlags{}, err
	}
	signedIn, err := o.UserSignedIn(ctx)
	if err != nil {
		return OnboardingFlags{}, err
	}
	return OnboardingFlags{OnboardingCompleted: completed, UserSignedIn: signedIn}, nil
}

func (o *OnboardingPrefs) SetOnboardingCompleted(ctx context.Context) error {
	return o.prefs.Edit(ctx, func(e *Editor) {
		e.PutBool(keyOnboardingCompleted, true)
	})
}

func (o *OnboardingPrefs) SetUserSignedIn(ctx context.Context, signedIn bool) error {
	return o.prefs.Edit(ctx, func(e *Editor) {
		e.PutBool(keyUserSignedIn, signedIn)
	})
}

// ClearAll wipes the onboarding namespace.
func (o *OnboardingPrefs) ClearAll(ctx context.Context) error {
	return o.prefs.Clear(ctx)
}
