package store

// UserProfile is the persisted user identity record. FirstName, LastName and
// Email are required; a stored record missing any of them reads back as absent.
type UserProfile struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Age       *int    `json:"age,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Gender    *string `json:"gender,omitempty"`
}

// OnboardingFlags is a snapshot of the onboarding namespace.
type OnboardingFlags struct {
	OnboardingCompleted bool `json:"onboarding_completed"`
	UserSignedIn        bool `json:"user_signed_in"`
}
