package models

import "time"

// TimestampLayout is how lastUpdatedAt is written to the errand log (local time)
const TimestampLayout = "2006-01-02 15:04"

// DateLayout is the date component used by the daily summary
const DateLayout = "2006-01-02"

// ErrandRecord is one row of the errand log
type ErrandRecord struct {
	ID              string `json:"id"`
	RequesterName   string `json:"requester_name"`
	ReceiverName    string `json:"receiver_name"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
	Status          Status `json:"status"`
	OTP             string `json:"-"` // Only given to the receiver, never echoed by the API
	Driver          string `json:"driver,omitempty"`
	LastUpdatedAt   string `json:"last_updated_at"` // TimestampLayout in the operating time zone
	Paid            bool   `json:"paid"`
}

// UpdatedOn reports whether the record was last stamped on the given YYYY-MM-DD date
func (r *ErrandRecord) UpdatedOn(date string) bool {
	return len(r.LastUpdatedAt) >= len(date) && r.LastUpdatedAt[:len(date)] == date
}

// FormatTimestamp renders t in the operating location using TimestampLayout
func FormatTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimestampLayout)
}

// Field names one column of the errand log
type Field string

const (
	FieldID        Field = "id"
	FieldRequester Field = "requester"
	FieldReceiver  Field = "receiver"
	FieldPickup    Field = "pickup"
	FieldDropoff   Field = "dropoff"
	FieldStatus    Field = "status"
	FieldOTP       Field = "otp"
	FieldDriver    Field = "driver"
	FieldTimestamp Field = "timestamp"
	FieldPaid      Field = "paid"
)

// Mutable reports whether operations may rewrite the field after creation
func (f Field) Mutable() bool {
	switch f {
	case FieldStatus, FieldDriver, FieldTimestamp, FieldPaid:
		return true
	}
	return false
}

// SummaryReport holds the daily counts, no row-level detail
type SummaryReport struct {
	Date       string `json:"date"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"in_progress"`
	Delivered  int    `json:"delivered"`
	Canceled   int    `json:"canceled"`
	Paid       int    `json:"paid"`
	Unpaid     int    `json:"unpaid"`
}

// Total is the number of errands counted on the day (paid and unpaid)
func (s *SummaryReport) Total() int {
	return s.Paid + s.Unpaid
}
