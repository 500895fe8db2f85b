package history

import "context"

// Repository provides access to the social_histories table. FindByPatient
// returns nil when the patient has no history row yet.
type Repository interface {
	Create(ctx context.Context, h *SocialHistory) error
	Update(ctx context.Context, h *SocialHistory) error
	FindByPatient(ctx context.Context, patientID string) (*SocialHistory, error)
}
