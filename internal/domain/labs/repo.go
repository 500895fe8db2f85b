package labs

import "context"

// Repository provides access to the lab order fan-out tables. Find methods
// return nil when nothing matches.
type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	FindOrderByExternalID(ctx context.Context, patientID, externalID string) (*Order, error)
	// ClearOrder removes an order's codes, reports and results so a
	// re-import can rebuild the fan-out from the document.
	ClearOrder(ctx context.Context, orderID string) error
	CreateOrderCode(ctx context.Context, c *OrderCode) error
	CreateReport(ctx context.Context, rep *Report) error
	CreateResult(ctx context.Context, res *Result) error
	GetOrder(ctx context.Context, orderID string) (*OrderView, error)
	ListOrdersByPatient(ctx context.Context, patientID string) ([]*Order, error)
}
