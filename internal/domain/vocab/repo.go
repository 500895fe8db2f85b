package vocab

import "context"

// Repository provides access to the controlled-vocabulary option table.
// Find methods return nil (not an error) when no option matches.
type Repository interface {
	FindByTitle(ctx context.Context, listID, title string) (*Option, error)
	FindByCodes(ctx context.Context, listID, codes string) (*Option, error)
	FindByNotes(ctx context.Context, listID, notes string) (*Option, error)
	// Insert allocates the next sequential option id within the list and
	// stores the option. The generated id is written back to opt.OptionID.
	Insert(ctx context.Context, opt *Option) error
	Activate(ctx context.Context, listID, optionID string) error
	List(ctx context.Context, listID string) ([]*Option, error)
}
