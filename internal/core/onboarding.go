package core

import "healthsync.ai/companion/internal/store"

type Screen string

const (
	ScreenOnboarding Screen = "onboarding"
	ScreenSignUp     Screen = "signup"
	ScreenMain       Screen = "main"
)

// StartScreen picks where the app opens: a signed-in user goes straight to
// the main screen, someone who finished onboarding but never signed in goes
// to sign-up, and everyone else starts onboarding.
func StartScreen(flags store.OnboardingFlags) Screen {
	switch {
	case flags.UserSignedIn:
		return ScreenMain
	case flags.OnboardingCompleted:
		return ScreenSignUp
	default:
		return ScreenOnboarding
	}
}
