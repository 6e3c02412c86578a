package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/payload"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
	"github.com/frontdesk-gym/frontdesk/internal/metrics"
)

var (
	ErrEmptyToken      = errors.New("token is required")
	ErrInvalidMemberID = errors.New("member_id must be a positive integer")
)

// CheckInService runs one attempt through normalize, evaluate and audit.
// Every accepted attempt produces exactly one EntranceLog.
type CheckInService struct {
	parser    *payload.Parser
	evaluator *Evaluator
	audit     *AuditLogger
	log       *zap.SugaredLogger
}

func NewCheckInService(p *payload.Parser, e *Evaluator, a *AuditLogger, log *zap.SugaredLogger) *CheckInService {
	if p == nil {
		p = payload.NewParser()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CheckInService{parser: p, evaluator: e, audit: a, log: log}
}

// Scan handles a token from either capture path.
func (s *CheckInService) Scan(ctx context.Context, req types.ScanRequest) (types.CheckInResponse, error) {
	if strings.TrimSpace(req.Token) == "" {
		return types.CheckInResponse{}, ErrEmptyToken
	}

	var (
		result   types.ValidationResult
		memberID *int64
	)

	parsed, err := s.parser.Parse(req.Token)
	if err != nil {
		result = types.ValidationResult{
			Message: MsgUnrecognizedCode,
			Reason:  "could not parse a member id from the scanned code",
			Outcome: types.OutcomeUnparsable,
		}
	} else {
		metrics.ParseStrategy.WithLabelValues(parsed.Strategy).Inc()
		id := parsed.MemberID
		memberID = &id
		result = s.evaluator.Evaluate(ctx, id)
	}

	return s.finish(ctx, req.ScanID, types.EntranceQRScan, memberID, result), nil
}

// Manual handles an operator-typed member id.  It skips the normalizer.
func (s *CheckInService) Manual(ctx context.Context, req types.ManualRequest) (types.CheckInResponse, error) {
	if req.MemberID <= 0 {
		return types.CheckInResponse{}, ErrInvalidMemberID
	}

	id := req.MemberID
	result := s.evaluator.Evaluate(ctx, id)
	return s.finish(ctx, "", types.EntranceManual, &id, result), nil
}

func (s *CheckInService) finish(
	ctx context.Context,
	scanID string,
	entranceType types.EntranceType,
	memberID *int64,
	result types.ValidationResult,
) types.CheckInResponse {
	if scanID == "" {
		scanID = uuid.NewString()
	}

	in := types.EntranceLogInput{
		ScanID:            scanID,
		MemberID:          memberID,
		ValidationStatus:  types.ValidationStatusFor(result.Outcome),
		ValidationMessage: result.Message,
		Outcome:           result.Outcome,
		EntranceType:      entranceType,
		Timestamp:         time.Now().UTC(),
		Notes:             result.Reason,
	}
	if m := result.Member; m != nil {
		id := m.ID
		in.MemberID = &id
		in.MemberName = m.Name
		in.MemberPhone = m.Phone
		in.MemberStatus = string(m.Status)
	}

	rec := s.audit.Record(ctx, in)

	metrics.CheckInAttempts.WithLabelValues(string(result.Outcome), string(entranceType)).Inc()
	s.log.Infow("check-in",
		"scan_id", scanID,
		"entrance_type", entranceType,
		"outcome", result.Outcome,
		"valid", result.Valid,
		"log_id", rec.ID,
	)

	return types.CheckInResponse{Result: result, Log: rec}
}
