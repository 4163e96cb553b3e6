//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/db"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
)

const dimDateTable = "dw.dim_date"

const insertDimDateSQL = `
INSERT INTO dw.dim_date (date_key, date, year, quarter, month, day, day_of_week, is_weekend)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (date_key) DO NOTHING`

// DimDate is one row of the date dimension.
type DimDate struct {
	Key       int
	Date      time.Time
	Year      int
	Quarter   int
	Month     int
	Day       int
	DayOfWeek int // 1=Monday .. 7=Sunday
	IsWeekend bool
}

// NewDimDate derives the date dimension attributes of t's calendar day.
func NewDimDate(t time.Time) DimDate {
	y, m, d := t.Date()
	dow := (int(t.Weekday())+6)%7 + 1
	return DimDate{
		Key:       y*10000 + int(m)*100 + d,
		Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Year:      y,
		Quarter:   (int(m)-1)/3 + 1,
		Month:     int(m),
		Day:       d,
		DayOfWeek: dow,
		IsWeekend: dow >= 6,
	}
}

func (d DimDate) args() []any {
	return []any{d.Key, d.Date, d.Year, d.Quarter, d.Month, d.Day, d.DayOfWeek, d.IsWeekend}
}

// DateRange returns the dimension rows for every day from start to end
// inclusive.
func DateRange(start, end time.Time) ([]DimDate, error) {
	first, last := NewDimDate(start).Date, NewDimDate(end).Date
	if last.Before(first) {
		return nil, errors.Errorf("date range end %s is before start %s",
			last.Format(time.DateOnly), first.Format(time.DateOnly))
	}
	var days []DimDate
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, NewDimDate(d))
	}
	return days, nil
}

// BackfillDates inserts a dim_date row for every day from start to end
// inclusive that is not yet present, in one transaction. Overlapping
// ranges across calls never duplicate a date_key.
func BackfillDates(ctx context.Context, conn db.DB, start, end time.Time) (LoadResult, error) {
	res := LoadResult{Dimension: "date"}

	days, err := DateRange(start, end)
	if err != nil {
		return res, err
	}
	res.Extracted = int64(len(days))

	rows := make([][]any, len(days))
	for i, d := range days {
		rows[i] = d.args()
	}

	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		inserted, err := insertRows(ctx, tx, dimDateTable, insertDimDateSQL, rows)
		if err != nil {
			return err
		}
		res.Inserted = inserted

		res.Total, err = CountRows(ctx, tx, dimDateTable)
		return err
	})
	if err != nil {
		return LoadResult{Dimension: "date", Extracted: res.Extracted},
			errors.WithMessage(err, "backfilling dates")
	}

	logging.Info().
		Str("start", days[0].Date.Format(time.DateOnly)).
		Str("end", days[len(days)-1].Date.Format(time.DateOnly)).
		Str("inserted", humanize.Comma(res.Inserted)).
		Str("total", humanize.Comma(res.Total)).
		Msg("Date dimension backfilled")

	return res, nil
}
