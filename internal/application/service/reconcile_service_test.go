package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restobooks/vendor-recon/internal/application/port"
	"github.com/restobooks/vendor-recon/internal/domain/entity"
	"github.com/restobooks/vendor-recon/internal/matching"
	"github.com/restobooks/vendor-recon/pkg/apperrors"
)

func newReconcileService(
	statementRepo *mockStatementRepo,
	lineRepo *mockLineRepo,
	resultRepo *mockResultRepo,
	invoiceRepo *mockInvoiceRepo,
	engine *mockEngine,
	semantic *mockSemanticMatcher,
) ReconcileService {
	return NewReconcileService(
		&mockTxManager{},
		statementRepo,
		lineRepo,
		resultRepo,
		invoiceRepo,
		engine,
		matching.NewPolicy(matching.DefaultParams()),
		semantic,
		5,
		&mockLogger{},
	)
}

func TestIgnoreLine(t *testing.T) {
	lineRepo := &mockLineRepo{}
	resultRepo := &mockResultRepo{}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.IgnoreLine(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, resultRepo.created, 1)
	assert.Equal(t, entity.DecisionIgnored, resultRepo.created[0].Decision)
	assert.Equal(t, entity.DecidedByHuman, resultRepo.created[0].DecidedBy)
	assert.Equal(t, []int64{5}, resultRepo.superseded)
}

func TestIgnoreLine_AlreadyIgnoredIsIdempotent(t *testing.T) {
	lineRepo := &mockLineRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.StatementLine, error) {
			return &entity.StatementLine{ID: id, IsIgnored: true, MatchStatus: entity.MatchStatusIgnored}, nil
		},
	}
	resultRepo := &mockResultRepo{}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.IgnoreLine(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, resultRepo.created, "repeat ignore writes no new audit record")
}

func TestIgnoreLine_NotFound(t *testing.T) {
	lineRepo := &mockLineRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.StatementLine, error) {
			return nil, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, &mockResultRepo{}, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.IgnoreLine(context.Background(), 5)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestAssistedMatch_HighConfidenceCommits(t *testing.T) {
	lineRepo := &mockLineRepo{}
	resultRepo := &mockResultRepo{}
	invoiceID := int64(42)

	semantic := &mockSemanticMatcher{
		matchLineFunc: func(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
			return &port.SemanticMatchResult{
				Matched:    true,
				InvoiceID:  &invoiceID,
				Confidence: 0.93,
				Rationale:  "same item, seasonal label variant",
			}, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, semantic)

	outcome, err := svc.AssistedMatch(context.Background(), 5)
	require.NoError(t, err)

	assert.True(t, outcome.Matched)
	assert.Equal(t, entity.DecisionAssistedAutoMatched, outcome.Decision)
	assert.False(t, outcome.RequiresReview)

	require.Len(t, resultRepo.created, 1)
	assert.Equal(t, entity.DecidedByAssisted, resultRepo.created[0].DecidedBy)
	assert.InDelta(t, 0.93, resultRepo.created[0].CombinedScore, 0.001)
	assert.Equal(t, []string{entity.MatchStatusAutoMatched}, lineRepo.statusUpdates)
	// Pending marker set before the call, cleared inside the commit.
	assert.Equal(t, []bool{true, false}, lineRepo.pendingUpdates)
}

func TestAssistedMatch_LowConfidenceStaysFlagged(t *testing.T) {
	lineRepo := &mockLineRepo{}
	resultRepo := &mockResultRepo{}
	invoiceID := int64(42)

	semantic := &mockSemanticMatcher{
		matchLineFunc: func(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
			return &port.SemanticMatchResult{
				Matched:    true,
				InvoiceID:  &invoiceID,
				Confidence: 0.55,
				Rationale:  "plausible but uncertain",
			}, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, semantic)

	outcome, err := svc.AssistedMatch(context.Background(), 5)
	require.NoError(t, err)

	assert.False(t, outcome.Matched)
	assert.True(t, outcome.RequiresReview)
	assert.Equal(t, entity.DecisionFlaggedForReview, outcome.Decision)

	// The suggestion is still recorded for the reviewer.
	require.Len(t, resultRepo.created, 1)
	require.NotNil(t, resultRepo.created[0].InvoiceID)
	assert.Equal(t, invoiceID, *resultRepo.created[0].InvoiceID)
	assert.Equal(t, []string{entity.MatchStatusSuggested}, lineRepo.statusUpdates)
}

func TestAssistedMatch_CollaboratorFailureLeavesStateUnchanged(t *testing.T) {
	lineRepo := &mockLineRepo{}
	resultRepo := &mockResultRepo{}

	semantic := &mockSemanticMatcher{
		matchLineFunc: func(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
			return nil, errors.New("request timed out")
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, semantic)

	_, err := svc.AssistedMatch(context.Background(), 5)
	require.Error(t, err)

	assert.Equal(t, apperrors.KindCollaboratorUnavailable, apperrors.KindOf(err))
	assert.Empty(t, resultRepo.created)
	assert.Empty(t, lineRepo.statusUpdates)
	// Pending marker set, then rolled back.
	assert.Equal(t, []bool{true, false}, lineRepo.pendingUpdates)
}

func TestAssistedMatch_NoSuggestionClearsPending(t *testing.T) {
	lineRepo := &mockLineRepo{}
	resultRepo := &mockResultRepo{}

	semantic := &mockSemanticMatcher{
		matchLineFunc: func(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
			return &port.SemanticMatchResult{Matched: false, Confidence: 0.2, Rationale: "no plausible candidate"}, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, semantic)

	outcome, err := svc.AssistedMatch(context.Background(), 5)
	require.NoError(t, err)

	assert.False(t, outcome.Matched)
	assert.True(t, outcome.RequiresReview)
	assert.Empty(t, resultRepo.created)
	assert.Equal(t, []bool{true, false}, lineRepo.pendingUpdates)
}

func TestAssistedMatch_SuggestedInvoiceLookupFailureClearsPending(t *testing.T) {
	lineRepo := &mockLineRepo{}
	resultRepo := &mockResultRepo{}
	invoiceID := int64(42)

	invoiceRepo := &mockInvoiceRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Invoice, error) {
			return nil, errors.New("disk I/O error")
		},
	}
	semantic := &mockSemanticMatcher{
		matchLineFunc: func(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
			return &port.SemanticMatchResult{Matched: true, InvoiceID: &invoiceID, Confidence: 0.93}, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, invoiceRepo, &mockEngine{}, semantic)

	_, err := svc.AssistedMatch(context.Background(), 5)
	require.Error(t, err)

	assert.Equal(t, apperrors.KindPersistence, apperrors.KindOf(err))
	assert.Empty(t, resultRepo.created)
	// Marker cleared so the line stays retryable after the failure.
	assert.Equal(t, []bool{true, false}, lineRepo.pendingUpdates)
}

func TestAssistedMatch_CommitFailureClearsPending(t *testing.T) {
	lineRepo := &mockLineRepo{}
	resultRepo := &mockResultRepo{
		supersedeByLineIDFunc: func(ctx context.Context, lineID int64) error {
			return errors.New("database is locked")
		},
	}
	invoiceID := int64(42)

	semantic := &mockSemanticMatcher{
		matchLineFunc: func(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
			return &port.SemanticMatchResult{Matched: true, InvoiceID: &invoiceID, Confidence: 0.93}, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, semantic)

	_, err := svc.AssistedMatch(context.Background(), 5)
	require.Error(t, err)

	assert.Equal(t, apperrors.KindPersistence, apperrors.KindOf(err))
	assert.Empty(t, resultRepo.created)
	assert.Equal(t, []bool{true, false}, lineRepo.pendingUpdates)
}

func TestAssistedMatch_Eligibility(t *testing.T) {
	tests := []struct {
		name string
		line *entity.StatementLine
		code string
	}{
		{
			name: "ignored line",
			line: &entity.StatementLine{ID: 5, IsIgnored: true},
			code: "LINE_IGNORED",
		},
		{
			name: "assist already pending",
			line: &entity.StatementLine{ID: 5, AssistPending: true},
			code: "ASSIST_PENDING",
		},
		{
			name: "already auto matched",
			line: &entity.StatementLine{ID: 5, MatchStatus: entity.MatchStatusAutoMatched},
			code: "LINE_ALREADY_MATCHED",
		},
		{
			name: "already manually matched",
			line: &entity.StatementLine{ID: 5, MatchStatus: entity.MatchStatusManualMatched},
			code: "LINE_ALREADY_MATCHED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lineRepo := &mockLineRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.StatementLine, error) {
					return tt.line, nil
				},
			}

			svc := newReconcileService(&mockStatementRepo{}, lineRepo, &mockResultRepo{}, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

			_, err := svc.AssistedMatch(context.Background(), 5)
			require.Error(t, err)

			ae, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.KindValidation, ae.Kind)
			assert.Equal(t, tt.code, ae.Code)
		})
	}
}

func TestAssistedMatch_ForeignInvoiceSuggestionRejected(t *testing.T) {
	resultRepo := &mockResultRepo{}
	invoiceID := int64(42)

	invoiceRepo := &mockInvoiceRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, VendorID: 99}, nil
		},
	}
	semantic := &mockSemanticMatcher{
		matchLineFunc: func(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
			return &port.SemanticMatchResult{Matched: true, InvoiceID: &invoiceID, Confidence: 0.95}, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, &mockLineRepo{}, resultRepo, invoiceRepo, &mockEngine{}, semantic)

	outcome, err := svc.AssistedMatch(context.Background(), 5)
	require.NoError(t, err)

	assert.False(t, outcome.Matched)
	assert.True(t, outcome.RequiresReview)
	assert.Empty(t, resultRepo.created, "a cross-vendor suggestion must not be committed")
}

func TestManualConfirm(t *testing.T) {
	invoiceID := int64(42)
	lineRepo := &mockLineRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.StatementLine, error) {
			return &entity.StatementLine{ID: id, StatementID: 1, MatchStatus: entity.MatchStatusSuggested}, nil
		},
	}
	resultRepo := &mockResultRepo{
		getCurrentByLineIDFunc: func(ctx context.Context, lineID int64) (*entity.MatchResult, error) {
			return &entity.MatchResult{
				LineID:        lineID,
				InvoiceID:     &invoiceID,
				CombinedScore: 0.75,
				Decision:      entity.DecisionFlaggedForReview,
			}, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.ManualConfirm(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, resultRepo.created, 1)
	assert.Equal(t, entity.DecisionManuallyConfirmed, resultRepo.created[0].Decision)
	assert.Equal(t, entity.DecidedByHuman, resultRepo.created[0].DecidedBy)
	require.NotNil(t, resultRepo.created[0].InvoiceID)
	assert.Equal(t, invoiceID, *resultRepo.created[0].InvoiceID)
	assert.Equal(t, []string{entity.MatchStatusManualMatched}, lineRepo.statusUpdates)
}

func TestManualConfirm_NoSuggestion(t *testing.T) {
	svc := newReconcileService(&mockStatementRepo{}, &mockLineRepo{}, &mockResultRepo{}, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.ManualConfirm(context.Background(), 5)
	require.Error(t, err)

	ae, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "NO_SUGGESTION", ae.Code)
}

func TestManualReassign(t *testing.T) {
	lineRepo := &mockLineRepo{}
	resultRepo := &mockResultRepo{}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.ManualReassign(context.Background(), 5, 42)
	require.NoError(t, err)

	require.Len(t, resultRepo.created, 1)
	assert.Equal(t, entity.DecisionManuallyReassigned, resultRepo.created[0].Decision)
	require.NotNil(t, resultRepo.created[0].InvoiceID)
	assert.Equal(t, int64(42), *resultRepo.created[0].InvoiceID)
	assert.Equal(t, []string{entity.MatchStatusManualMatched}, lineRepo.statusUpdates)
}

func TestManualReassign_IgnoredLineAllowed(t *testing.T) {
	lineRepo := &mockLineRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.StatementLine, error) {
			return &entity.StatementLine{ID: id, StatementID: 1, IsIgnored: true, MatchStatus: entity.MatchStatusIgnored}, nil
		},
	}
	resultRepo := &mockResultRepo{}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.ManualReassign(context.Background(), 5, 42)
	require.NoError(t, err)
	require.Len(t, resultRepo.created, 1)
}

func TestManualReassign_VendorMismatch(t *testing.T) {
	invoiceRepo := &mockInvoiceRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, VendorID: 99}, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, &mockLineRepo{}, &mockResultRepo{}, invoiceRepo, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.ManualReassign(context.Background(), 5, 42)
	require.Error(t, err)

	ae, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "VENDOR_MISMATCH", ae.Code)
}

func TestManualReassign_InvoiceNotFound(t *testing.T) {
	invoiceRepo := &mockInvoiceRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Invoice, error) {
			return nil, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, &mockLineRepo{}, &mockResultRepo{}, invoiceRepo, &mockEngine{}, &mockSemanticMatcher{})

	err := svc.ManualReassign(context.Background(), 5, 42)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestListLines(t *testing.T) {
	lineRepo := &mockLineRepo{
		listByStatementIDFunc: func(ctx context.Context, statementID int64) ([]*entity.StatementLine, error) {
			return []*entity.StatementLine{
				{ID: 1, StatementID: statementID, MatchStatus: entity.MatchStatusAutoMatched},
				{ID: 2, StatementID: statementID, MatchStatus: entity.MatchStatusUnmatched},
			}, nil
		},
	}
	resultRepo := &mockResultRepo{
		getCurrentByLineIDFunc: func(ctx context.Context, lineID int64) (*entity.MatchResult, error) {
			if lineID == 1 {
				return &entity.MatchResult{LineID: 1, Decision: entity.DecisionAutoMatched}, nil
			}
			return nil, nil
		},
	}

	svc := newReconcileService(&mockStatementRepo{}, lineRepo, resultRepo, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	views, err := svc.ListLines(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, views, 2)
	require.NotNil(t, views[0].Current)
	assert.Equal(t, entity.DecisionAutoMatched, views[0].Current.Decision)
	assert.Nil(t, views[1].Current)
}

func TestGetStatement_NotFound(t *testing.T) {
	statementRepo := &mockStatementRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.VendorStatement, error) {
			return nil, nil
		},
	}

	svc := newReconcileService(statementRepo, &mockLineRepo{}, &mockResultRepo{}, &mockInvoiceRepo{}, &mockEngine{}, &mockSemanticMatcher{})

	_, err := svc.GetStatement(context.Background(), 1)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
