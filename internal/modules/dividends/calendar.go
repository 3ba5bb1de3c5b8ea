package dividends

import (
	"fmt"
	"sort"
)

// BuildCalendar merges three sources into one date-ordered event list for
// [startDate, endDate]:
//
//  1. Dividend transactions in range. These are actual cash received, so
//     the total uses the quantity recorded on the transaction.
//  2. Raw feed rows in range, but only for held stocks with no dividend
//     transaction of any date. Once a stock has a recorded payment the
//     ledger is authoritative for it and the feed is ignored. Totals here
//     use the current held quantity since no transaction-time quantity
//     exists.
//  3. Cadence projections for every held position, with totals at current
//     quantity.
//
// Positions whose stock row is gone contribute nothing. A stock can appear
// with both a historical and a later projected event in the same window.
func (s *Service) BuildCalendar(startDate, endDate string) (*Calendar, error) {
	payments, err := s.transactions.DividendPaymentsInRange(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load dividend transactions: %w", err)
	}

	covered, err := s.transactions.StockIDsWithDividends()
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded dividend stocks: %w", err)
	}

	positions, err := s.positions.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	events := make([]CalendarEvent, 0, len(payments))
	for _, p := range payments {
		events = append(events, CalendarEvent{
			Date:           p.Date,
			Symbol:         p.Symbol,
			Name:           p.Name,
			AmountPerShare: round(p.Amount, 4),
			TotalAmount:    round(p.Amount*float64(p.Quantity), 2),
			Type:           EventTypeHistorical,
		})
	}

	for _, pos := range positions {
		history, err := s.feedRepo.GetByStockID(pos.StockID)
		if err != nil {
			return nil, fmt.Errorf("failed to load dividend feed for %s: %w", pos.Symbol, err)
		}

		if !covered[pos.StockID] {
			for _, rec := range history {
				if rec.Date < startDate || rec.Date > endDate {
					continue
				}
				events = append(events, CalendarEvent{
					Date:           rec.Date,
					Symbol:         pos.Symbol,
					Name:           pos.Name,
					AmountPerShare: round(rec.Amount, 4),
					TotalAmount:    round(rec.Amount*float64(pos.Quantity), 2),
					Type:           EventTypeHistorical,
				})
			}
		}

		for _, proj := range Project(history, startDate, endDate) {
			events = append(events, CalendarEvent{
				Date:           proj.Date,
				Symbol:         pos.Symbol,
				Name:           pos.Name,
				AmountPerShare: round(proj.Amount, 4),
				TotalAmount:    round(proj.Amount*float64(pos.Quantity), 2),
				Type:           EventTypeProjected,
			})
		}
	}

	// ISO date strings sort lexicographically in date order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})

	var historical, projected float64
	for _, ev := range events {
		if ev.Type == EventTypeProjected {
			projected += ev.TotalAmount
		} else {
			historical += ev.TotalAmount
		}
	}

	return &Calendar{
		Events:          events,
		StartDate:       startDate,
		EndDate:         endDate,
		TotalHistorical: round(historical, 2),
		TotalProjected:  round(projected, 2),
	}, nil
}
