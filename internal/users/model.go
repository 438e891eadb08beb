package users

import (
	"regexp"
	"time"
)

// IDPrefix namespaces user IDs derived from Google subjects.
const IDPrefix = "google:"

type User struct {
	ID                  string     `json:"id"`
	GoogleID            string     `json:"googleId"`
	Email               string     `json:"email"`
	DisplayName         string     `json:"displayName"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	ProfilePicture      string     `json:"profilePicture"`
	HasAcceptedTerms    bool       `json:"hasAcceptedTerms"`
	AcceptedTermsAt     *time.Time `json:"acceptedTermsAt,omitempty"`
	GradYear            int        `json:"gradYear,omitempty"`
	Major               string     `json:"major"`
	InterestedPositions []string   `json:"interestedPositions"`
	OnboardingCompleted bool       `json:"onboardingCompleted"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// GoogleProfile is the identity returned by the Google userinfo endpoint.
type GoogleProfile struct {
	Sub        string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
	Picture    string
}

// ProfileUpdate carries PUT /api/user fields. Empty values are ignored and
// onboarding can only be switched on.
type ProfileUpdate struct {
	FirstName           string   `json:"firstName" validate:"max=100"`
	LastName            string   `json:"lastName" validate:"max=100"`
	GradYear            *int     `json:"gradYear" validate:"omitempty,gradyear"`
	Major               string   `json:"major" validate:"max=100"`
	InterestedPositions []string `json:"interestedPositions" validate:"omitempty,max=20,dive,max=100"`
	OnboardingCompleted bool     `json:"onboardingCompleted"`
}

var pictureSize = regexp.MustCompile(`=s\d+-c`)

// LargePicture rewrites Google's avatar size suffix to 400px.
func LargePicture(url string) string {
	return pictureSize.ReplaceAllString(url, "=s400-c")
}
