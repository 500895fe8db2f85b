package referral

import "context"

// Repository provides access to the referrals table.
type Repository interface {
	Create(ctx context.Context, r *Referral) error
	FindByBody(ctx context.Context, patientID, body string) (*Referral, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Referral, error)
}
