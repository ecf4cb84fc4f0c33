package iot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

const (
	DateFilterAll   = "all"
	DateFilterToday = "today"
	DateFilterWeek  = "week"
	DateFilterMonth = "month"

	StatusFilterAll   = "all"
	StatusFilterFalla = "falla"

	dateLayout = "2006-01-02"
)

// QueryParams are the raw, transport independent query arguments.
type QueryParams struct {
	DeviceID string
	Date     string
	Status   string
	Limit    string
	Offset   string
}

// ReadingFilter is the single place where reading selection is expressed.
// From is inclusive, To exclusive. Zero Limit means no limit.
type ReadingFilter struct {
	DeviceID string
	From     *time.Time
	To       *time.Time
	Statuses []string
	Limit    int
	Offset   int
}

func (f ReadingFilter) apply(q *gorm.DB) *gorm.DB {
	if f.DeviceID != "" {
		q = q.Where("device_id = ?", f.DeviceID).Order("id desc")
	} else {
		q = q.Order("id asc")
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at < ?", f.To.UTC())
	}
	if len(f.Statuses) > 0 {
		q = q.Where("estatus IN ?", f.Statuses)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q
}

func parseNonNegative(name, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrBadRequest, name, raw)
	}
	return v, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseDateFilter turns today/week/month or a YYYY-MM-DD day into a UTC range.
func parseDateFilter(raw string, now time.Time) (*time.Time, *time.Time, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	now = now.UTC()
	today := startOfDay(now)

	var from, to time.Time
	switch raw {
	case "", DateFilterAll:
		return nil, nil, nil
	case DateFilterToday:
		from, to = today, today.AddDate(0, 0, 1)
	case DateFilterWeek:
		// weeks start on monday
		offset := (int(today.Weekday()) + 6) % 7
		from = today.AddDate(0, 0, -offset)
		to = from.AddDate(0, 0, 7)
	case DateFilterMonth:
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	default:
		day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: date must be YYYY-MM-DD, today, week, month or all, got %q", ErrBadRequest, raw)
		}
		from, to = day, day.AddDate(0, 0, 1)
	}
	return &from, &to, nil
}

func parseStatusFilter(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", StatusFilterAll:
		return nil, nil
	case StatusFilterFalla:
		return []string{models.StatusMuyBaja.String(), models.StatusMuyAlta.String()}, nil
	}

	status, ok := models.ParseStatus(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, raw)
	}
	return []string{status.String()}, nil
}

// ParseReadingFilter validates raw query parameters against the clock now.
func ParseReadingFilter(params QueryParams, now time.Time) (ReadingFilter, error) {
	filter := ReadingFilter{DeviceID: strings.TrimSpace(params.DeviceID)}

	var err error
	if filter.Limit, err = parseNonNegative("limit", params.Limit, 0); err != nil {
		return ReadingFilter{}, err
	}
	if filter.Offset, err = parseNonNegative("offset", params.Offset, 0); err != nil {
		return ReadingFilter{}, err
	}
	if filter.From, filter.To, err = parseDateFilter(params.Date, now); err != nil {
		return ReadingFilter{}, err
	}
	if filter.Statuses, err = parseStatusFilter(params.Status); err != nil {
		return ReadingFilter{}, err
	}
	return filter, nil
}
