package order

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"Order ID", "Date", "Total", "Status", "Items", "Area"}

// ExportCSV streams order history as CSV, oldest order first, matching the
// admin dashboard's download format. Items counts distinct lines, not units.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	orders, err := s.load(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{
			o.ID,
			o.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(int64(o.Total), 10),
			string(o.Status),
			strconv.Itoa(len(o.Lines)),
			o.Address.Area,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
