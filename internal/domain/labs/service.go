package labs

import (
	"context"
	"fmt"
	"strings"

	"github.com/ccdbridge/ccdbridge/internal/domain/vocab"
	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

// OptionResolver resolves display texts to vocabulary option ids.
type OptionResolver interface {
	EnsureOption(ctx context.Context, listID, title, codes string) (string, error)
}

// LabResolver resolves the performing laboratory to a directory entry.
type LabResolver interface {
	EnsureLab(ctx context.Context, name string, qrda bool) (string, error)
}

// Charting resolves the encounter a record charts under and records the
// form link.
type Charting interface {
	ResolveEncounter(ctx context.Context, patientID, date string) (string, error)
	LinkForm(ctx context.Context, patientID, encounterID, name, table, recordID, date string) error
}

type Service struct {
	repo     Repository
	options  OptionResolver
	labsDir  LabResolver
	charting Charting
}

func NewService(repo Repository, options OptionResolver, labsDir LabResolver, charting Charting) *Service {
	return &Service{repo: repo, options: options, labsDir: labsDir, charting: charting}
}

// UpsertAll stores a document's flat result rows. Rows sharing an extension
// form one order; each order fans out into its code, one report and the
// result rows. Re-importing an order rebuilds its fan-out in place.
func (s *Service) UpsertAll(ctx context.Context, patientID string, rows []ccda.LabResultFields, qrda bool) ([]*Order, error) {
	var orders []*Order
	for _, group := range groupByExtension(rows) {
		o, err := s.upsertGroup(ctx, patientID, group, qrda)
		if err != nil {
			return nil, err
		}
		if o != nil {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (s *Service) upsertGroup(ctx context.Context, patientID string, group []ccda.LabResultFields, qrda bool) (*Order, error) {
	head := group[0]
	date := ccda.StorageDate(head.Date)

	labID, err := s.labsDir.EnsureLab(ctx, "", qrda)
	if err != nil {
		return nil, err
	}

	encounterID, err := s.charting.ResolveEncounter(ctx, patientID, date)
	if err != nil {
		return nil, err
	}

	order := &Order{
		PatientID:   patientID,
		EncounterID: encounterID,
		ExternalID:  head.Extension,
		Date:        date,
		LabID:       labID,
	}

	created := true
	if head.Extension != "" {
		existing, err := s.repo.FindOrderByExternalID(ctx, patientID, head.Extension)
		if err != nil {
			return nil, fmt.Errorf("lookup lab order by external id: %w", err)
		}
		if existing != nil {
			order = existing
			created = false
			if err := s.repo.ClearOrder(ctx, order.ID); err != nil {
				return nil, fmt.Errorf("clear lab order %s: %w", order.ID, err)
			}
		}
	}
	if created {
		if err := s.repo.CreateOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("create lab order: %w", err)
		}
	}

	if err := s.repo.CreateOrderCode(ctx, &OrderCode{
		OrderID: order.ID,
		Code:    head.ProcCode,
		Text:    head.ProcText,
	}); err != nil {
		return nil, fmt.Errorf("create lab order code: %w", err)
	}

	report := &Report{OrderID: order.ID, Date: date, Status: head.Status}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create lab report: %w", err)
	}

	for _, row := range group {
		unit, err := s.options.EnsureOption(ctx, vocab.ListProcUnit, row.ResultUnit, "")
		if err != nil {
			return nil, err
		}
		low, high := splitRange(row.ResultRange)
		res := &Result{
			ReportID:  report.ID,
			Code:      row.ResultCode,
			Text:      row.ResultText,
			Value:     row.ResultValue,
			Unit:      unit,
			RangeText: row.ResultRange,
			RangeLow:  low,
			RangeHigh: high,
			Date:      ccda.StorageDate(row.ResultDate),
			Status:    row.Status,
		}
		if err := s.repo.CreateResult(ctx, res); err != nil {
			return nil, fmt.Errorf("create lab result: %w", err)
		}
	}

	if created {
		if err := s.charting.LinkForm(ctx, patientID, encounterID, "Lab Results", "procedure_orders", order.ID, date); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// groupByExtension batches rows that share a source order id, keeping the
// document's row order within and across groups.
func groupByExtension(rows []ccda.LabResultFields) [][]ccda.LabResultFields {
	var keys []string
	byKey := map[string][]ccda.LabResultFields{}
	for _, row := range rows {
		if _, ok := byKey[row.Extension]; !ok {
			keys = append(keys, row.Extension)
		}
		byKey[row.Extension] = append(byKey[row.Extension], row)
	}
	out := make([][]ccda.LabResultFields, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// splitRange breaks a "low-high" reference range into its bounds. Anything
// else, including ranges with units appended, stays in the raw text only.
func splitRange(r string) (low, high string) {
	parts := strings.SplitN(strings.TrimSpace(r), "-", 2)
	if len(parts) != 2 {
		return "", ""
	}
	low = strings.TrimSpace(parts[0])
	rest := strings.Fields(strings.TrimSpace(parts[1]))
	if low == "" || len(rest) == 0 {
		return "", ""
	}
	return low, rest[0]
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *Service) ListOrdersByPatient(ctx context.Context, patientID string) ([]*Order, error) {
	return s.repo.ListOrdersByPatient(ctx, patientID)
}
