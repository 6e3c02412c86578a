package types

import "time"

// Outcome is the fine-grained result of one check-in attempt.
type Outcome string

const (
	OutcomeActive          Outcome = "active"
	OutcomeExpiringSoon    Outcome = "expiring_soon"
	OutcomeExpired         Outcome = "expired"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeInvalidStatus   Outcome = "invalid_status"
	OutcomeConnectionError Outcome = "connection_error"
	OutcomeUnparsable      Outcome = "unparsable"
)

// ValidationStatus is the tri-state recorded on every EntranceLog.
type ValidationStatus string

const (
	ValidationValid        ValidationStatus = "valid"
	ValidationInvalid      ValidationStatus = "invalid"
	ValidationExpiringSoon ValidationStatus = "expiring_soon"
)

// ParseValidationStatus returns the status named by s.
func ParseValidationStatus(s string) (ValidationStatus, bool) {
	switch v := ValidationStatus(s); v {
	case ValidationValid, ValidationInvalid, ValidationExpiringSoon:
		return v, true
	}
	return "", false
}

// ValidationStatusFor maps an outcome onto the audit tri-state.
func ValidationStatusFor(o Outcome) ValidationStatus {
	switch o {
	case OutcomeActive:
		return ValidationValid
	case OutcomeExpiringSoon:
		return ValidationExpiringSoon
	default:
		return ValidationInvalid
	}
}

// EntranceType records how the attempt entered the pipeline.
type EntranceType string

const (
	EntranceQRScan EntranceType = "qr_scan"
	EntranceManual EntranceType = "manual"
)

// ParseEntranceType returns the entrance type named by s.
func ParseEntranceType(s string) (EntranceType, bool) {
	switch v := EntranceType(s); v {
	case EntranceQRScan, EntranceManual:
		return v, true
	}
	return "", false
}

// ValidationResult is computed fresh per attempt and never stored directly.
type ValidationResult struct {
	Valid   bool    `json:"valid"`
	Member  *Member `json:"member"`
	Message string  `json:"message"`
	Reason  string  `json:"reason,omitempty"`
	Outcome Outcome `json:"outcome"`
}

// EntranceLogInput is everything the audit logger needs to append one record.
// Timestamp is the creation time; a zero value is filled in by the store.
type EntranceLogInput struct {
	ScanID            string           `json:"scan_id,omitempty"`
	MemberID          *int64           `json:"member_id"`
	MemberName        string           `json:"member_name,omitempty"`
	MemberPhone       string           `json:"member_phone,omitempty"`
	MemberStatus      string           `json:"member_status,omitempty"`
	ValidationStatus  ValidationStatus `json:"validation_status"`
	ValidationMessage string           `json:"validation_message"`
	Outcome           Outcome          `json:"outcome"`
	EntranceType      EntranceType     `json:"entrance_type"`
	Timestamp         time.Time        `json:"timestamp"`
	Notes             string           `json:"notes,omitempty"`
}

// EntranceLog is the append-only audit record of one check-in attempt.
type EntranceLog struct {
	ID int64 `json:"id"`
	EntranceLogInput
	// Pending marks a record held in process until the durable store
	// accepts it.  Its ID is negative until then.
	Pending bool `json:"pending,omitempty"`
}

// ScanRequest carries one scan token from a capture source.
type ScanRequest struct {
	Token  string `json:"token"`
	ScanID string `json:"scan_id,omitempty"`
	Source string `json:"source,omitempty"` // "keyboard" | "camera"
}

// ManualRequest is an operator-typed member id.
type ManualRequest struct {
	MemberID int64 `json:"member_id"`
}

// CheckInResponse is returned for every accepted attempt, valid or not.
type CheckInResponse struct {
	Result ValidationResult `json:"result"`
	Log    EntranceLog      `json:"log"`
}
