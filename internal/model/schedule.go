package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScheduleType discriminates PaymentSchedule variants on the wire.
type ScheduleType string

const (
	ScheduleDayOfWeek    ScheduleType = "dayOfWeek"
	ScheduleDayOfMonth   ScheduleType = "dayOfMonth"
	ScheduleTwiceMonthly ScheduleType = "twiceMonthly"
)

// PaymentSchedule is a closed sum over DayOfWeek, DayOfMonth and TwiceMonthly.
// The unexported method keeps other packages from adding variants.
type PaymentSchedule interface {
	Type() ScheduleType
	isPaymentSchedule()
}

// DayOfWeek fires on an ISO weekday (1 = Monday .. 7 = Sunday). Biweekly
// projects fire every second matching week counted from AnchorDate.
type DayOfWeek struct {
	Day        int
	AnchorDate *time.Time
}

// DayOfMonth fires once a month, clamped to the month's last day.
type DayOfMonth struct {
	Day int
}

// TwiceMonthly fires on two days a month. Amount overrides are all or nothing.
type TwiceMonthly struct {
	FirstDay     int
	SecondDay    int
	FirstAmount  *int64
	SecondAmount *int64
}

func (DayOfWeek) Type() ScheduleType    { return ScheduleDayOfWeek }
func (DayOfMonth) Type() ScheduleType   { return ScheduleDayOfMonth }
func (TwiceMonthly) Type() ScheduleType { return ScheduleTwiceMonthly }

func (DayOfWeek) isPaymentSchedule()    {}
func (DayOfMonth) isPaymentSchedule()   {}
func (TwiceMonthly) isPaymentSchedule() {}

// HasOverrides reports whether both days carry their own amount.
func (s TwiceMonthly) HasOverrides() bool {
	return s.FirstAmount != nil && s.SecondAmount != nil
}

// ScheduleTypeFor returns the schedule variant a frequency requires.
func ScheduleTypeFor(frequency Frequency) (ScheduleType, error) {
	switch frequency {
	case FrequencyWeekly, FrequencyBiweekly:
		return ScheduleDayOfWeek, nil
	case FrequencyMonthly:
		return ScheduleDayOfMonth, nil
	case FrequencyTwiceMonthly:
		return ScheduleTwiceMonthly, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", frequency)
	}
}

type scheduleWire struct {
	Type         ScheduleType `json:"type"`
	DayOfWeek    int          `json:"dayOfWeek,omitempty"`
	AnchorDate   *time.Time   `json:"anchorDate,omitempty"`
	DayOfMonth   int          `json:"dayOfMonth,omitempty"`
	FirstDay     int          `json:"firstDay,omitempty"`
	SecondDay    int          `json:"secondDay,omitempty"`
	FirstAmount  *int64       `json:"firstAmount,omitempty"`
	SecondAmount *int64       `json:"secondAmount,omitempty"`
}

// MarshalSchedule encodes a schedule with its type discriminator.
func MarshalSchedule(schedule PaymentSchedule) ([]byte, error) {
	if schedule == nil {
		return []byte("null"), nil
	}
	var wire scheduleWire
	switch s := schedule.(type) {
	case DayOfWeek:
		wire = scheduleWire{Type: ScheduleDayOfWeek, DayOfWeek: s.Day, AnchorDate: s.AnchorDate}
	case DayOfMonth:
		wire = scheduleWire{Type: ScheduleDayOfMonth, DayOfMonth: s.Day}
	case TwiceMonthly:
		wire = scheduleWire{
			Type:         ScheduleTwiceMonthly,
			FirstDay:     s.FirstDay,
			SecondDay:    s.SecondDay,
			FirstAmount:  s.FirstAmount,
			SecondAmount: s.SecondAmount,
		}
	default:
		return nil, fmt.Errorf("unsupported schedule %T", schedule)
	}
	return json.Marshal(wire)
}

// UnmarshalSchedule decodes a discriminated schedule document.
func UnmarshalSchedule(data []byte) (PaymentSchedule, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var wire scheduleWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	switch wire.Type {
	case ScheduleDayOfWeek:
		return DayOfWeek{Day: wire.DayOfWeek, AnchorDate: wire.AnchorDate}, nil
	case ScheduleDayOfMonth:
		return DayOfMonth{Day: wire.DayOfMonth}, nil
	case ScheduleTwiceMonthly:
		return TwiceMonthly{
			FirstDay:     wire.FirstDay,
			SecondDay:    wire.SecondDay,
			FirstAmount:  wire.FirstAmount,
			SecondAmount: wire.SecondAmount,
		}, nil
	default:
		return nil, fmt.Errorf("unknown schedule type %q", wire.Type)
	}
}

type recurringProjectWire struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    int64           `json:"amount"`
	Frequency Frequency       `json:"frequency"`
	Schedule  json.RawMessage `json:"schedule"`
	Certainty Certainty       `json:"certainty"`
	Active    bool            `json:"active"`
}

// MarshalJSON encodes the project with a discriminated schedule.
func (p RecurringProject) MarshalJSON() ([]byte, error) {
	schedule, err := MarshalSchedule(p.Schedule)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.ID, err)
	}
	return json.Marshal(recurringProjectWire{
		ID:        p.ID,
		Name:      p.Name,
		Amount:    p.Amount,
		Frequency: p.Frequency,
		Schedule:  schedule,
		Certainty: p.Certainty,
		Active:    p.Active,
	})
}

// UnmarshalJSON decodes the project and its discriminated schedule.
func (p *RecurringProject) UnmarshalJSON(data []byte) error {
	var wire recurringProjectWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	schedule, err := UnmarshalSchedule(wire.Schedule)
	if err != nil {
		return fmt.Errorf("project %s: %w", wire.ID, err)
	}
	*p = RecurringProject{
		ID:        wire.ID,
		Name:      wire.Name,
		Amount:    wire.Amount,
		Frequency: wire.Frequency,
		Schedule:  schedule,
		Certainty: wire.Certainty,
		Active:    wire.Active,
	}
	return nil
}
