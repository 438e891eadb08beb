package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"ramresume-backend/internal/shared/server/middleware"
)

type Service struct {
	Repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// LoginFromGoogle creates the user on first sign-in. Later sign-ins refresh
// the picture and fill names that are still empty.
func (s *Service) LoginFromGoogle(ctx context.Context, p GoogleProfile) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(p.Sub) == "" || strings.TrimSpace(p.Email) == "" {
		return User{}, errors.New("google subject and email are required")
	}
	now := s.now()
	id := IDPrefix + p.Sub
	picture := LargePicture(p.Picture)

	existing, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		user := User{
			ID:                  id,
			GoogleID:            p.Sub,
			Email:               strings.ToLower(p.Email),
			DisplayName:         p.Name,
			FirstName:           p.GivenName,
			LastName:            p.FamilyName,
			ProfilePicture:      picture,
			InterestedPositions: []string{},
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		err = s.Repo.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrExists) {
			return User{}, err
		}
		// A concurrent first sign-in won the insert.
		existing, err = s.Repo.GetByID(ctx, id)
	}
	if err != nil {
		return User{}, err
	}

	existing.ProfilePicture = picture
	if existing.FirstName == "" {
		existing.FirstName = p.GivenName
	}
	if existing.LastName == "" {
		existing.LastName = p.FamilyName
	}
	existing.UpdatedAt = now
	if err := s.Repo.Update(ctx, existing); err != nil {
		return User{}, err
	}
	return existing, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateProfile applies the non-empty fields of upd.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if v := strings.TrimSpace(upd.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(upd.LastName); v != "" {
		user.LastName = v
	}
	if upd.GradYear != nil && *upd.GradYear != 0 {
		user.GradYear = *upd.GradYear
	}
	if v := strings.TrimSpace(upd.Major); v != "" {
		user.Major = v
	}
	if upd.InterestedPositions != nil {
		user.InterestedPositions = upd.InterestedPositions
	}
	if upd.OnboardingCompleted {
		user.OnboardingCompleted = true
	}
	user.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// AcceptTerms records terms acceptance. Accepting twice keeps the first timestamp.
func (s *Service) AcceptTerms(ctx context.Context, userID string) (User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if user.HasAcceptedTerms {
		return user, nil
	}
	now := s.now()
	user.HasAcceptedTerms = true
	user.AcceptedTermsAt = &now
	user.UpdatedAt = now
	if err := s.Repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.Repo.Delete(ctx, userID)
}

// LookupIdentity resolves a token subject for the auth middleware.
func (s *Service) LookupIdentity(ctx context.Context, userID string) (middleware.Identity, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return middleware.Identity{}, middleware.ErrIdentityNotFound
		}
		return middleware.Identity{}, err
	}
	return middleware.Identity{
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.DisplayName,
		Picture:       user.ProfilePicture,
		TermsAccepted: user.HasAcceptedTerms,
	}, nil
}
