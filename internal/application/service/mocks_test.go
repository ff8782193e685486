package service

import (
	"context"
	"time"

	"github.com/restobooks/vendor-recon/internal/application/port"
	"github.com/restobooks/vendor-recon/internal/domain/entity"
	"github.com/restobooks/vendor-recon/internal/matching"
)

// Mock repositories

type mockStatementRepo struct {
	createFunc            func(ctx context.Context, statement *entity.VendorStatement) error
	getByIDFunc           func(ctx context.Context, id int64) (*entity.VendorStatement, error)
	getByVendorPeriodFunc func(ctx context.Context, vendorID int64, periodStart, periodEnd time.Time) (*entity.VendorStatement, error)
}

func (m *mockStatementRepo) Create(ctx context.Context, statement *entity.VendorStatement) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, statement)
	}
	statement.ID = 1
	return nil
}

func (m *mockStatementRepo) GetByID(ctx context.Context, id int64) (*entity.VendorStatement, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.VendorStatement{ID: id, UID: "uid-1", VendorID: 7}, nil
}

func (m *mockStatementRepo) GetByVendorPeriod(ctx context.Context, vendorID int64, periodStart, periodEnd time.Time) (*entity.VendorStatement, error) {
	if m.getByVendorPeriodFunc != nil {
		return m.getByVendorPeriodFunc(ctx, vendorID, periodStart, periodEnd)
	}
	return nil, nil
}

type mockLineRepo struct {
	createFunc            func(ctx context.Context, line *entity.StatementLine) error
	getByIDFunc           func(ctx context.Context, id int64) (*entity.StatementLine, error)
	listByStatementIDFunc func(ctx context.Context, statementID int64) ([]*entity.StatementLine, error)
	updateMatchStatusFunc func(ctx context.Context, id int64, status string) error
	setIgnoredFunc        func(ctx context.Context, id int64) error
	setAssistPendingFunc  func(ctx context.Context, id int64, pending bool) error

	statusUpdates  []string
	pendingUpdates []bool
}

func (m *mockLineRepo) Create(ctx context.Context, line *entity.StatementLine) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, line)
	}
	line.ID = int64(line.LineNumber)
	return nil
}

func (m *mockLineRepo) GetByID(ctx context.Context, id int64) (*entity.StatementLine, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.StatementLine{ID: id, StatementID: 1, MatchStatus: entity.MatchStatusUnmatched}, nil
}

func (m *mockLineRepo) ListByStatementID(ctx context.Context, statementID int64) ([]*entity.StatementLine, error) {
	if m.listByStatementIDFunc != nil {
		return m.listByStatementIDFunc(ctx, statementID)
	}
	return []*entity.StatementLine{}, nil
}

func (m *mockLineRepo) UpdateMatchStatus(ctx context.Context, id int64, status string) error {
	m.statusUpdates = append(m.statusUpdates, status)
	if m.updateMatchStatusFunc != nil {
		return m.updateMatchStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockLineRepo) SetIgnored(ctx context.Context, id int64) error {
	if m.setIgnoredFunc != nil {
		return m.setIgnoredFunc(ctx, id)
	}
	return nil
}

func (m *mockLineRepo) SetAssistPending(ctx context.Context, id int64, pending bool) error {
	m.pendingUpdates = append(m.pendingUpdates, pending)
	if m.setAssistPendingFunc != nil {
		return m.setAssistPendingFunc(ctx, id, pending)
	}
	return nil
}

type mockResultRepo struct {
	createFunc             func(ctx context.Context, result *entity.MatchResult) error
	getCurrentByLineIDFunc func(ctx context.Context, lineID int64) (*entity.MatchResult, error)
	supersedeByLineIDFunc  func(ctx context.Context, lineID int64) error
	listByLineIDFunc       func(ctx context.Context, lineID int64) ([]*entity.MatchResult, error)

	created    []*entity.MatchResult
	superseded []int64
}

func (m *mockResultRepo) Create(ctx context.Context, result *entity.MatchResult) error {
	m.created = append(m.created, result)
	if m.createFunc != nil {
		return m.createFunc(ctx, result)
	}
	result.ID = int64(len(m.created))
	return nil
}

func (m *mockResultRepo) GetCurrentByLineID(ctx context.Context, lineID int64) (*entity.MatchResult, error) {
	if m.getCurrentByLineIDFunc != nil {
		return m.getCurrentByLineIDFunc(ctx, lineID)
	}
	return nil, nil
}

func (m *mockResultRepo) SupersedeByLineID(ctx context.Context, lineID int64) error {
	m.superseded = append(m.superseded, lineID)
	if m.supersedeByLineIDFunc != nil {
		return m.supersedeByLineIDFunc(ctx, lineID)
	}
	return nil
}

func (m *mockResultRepo) ListByLineID(ctx context.Context, lineID int64) ([]*entity.MatchResult, error) {
	if m.listByLineIDFunc != nil {
		return m.listByLineIDFunc(ctx, lineID)
	}
	return []*entity.MatchResult{}, nil
}

type mockInvoiceRepo struct {
	getByIDFunc func(ctx context.Context, id int64) (*entity.Invoice, error)
	listFunc    func(ctx context.Context, vendorID int64, from, to time.Time, limit int) ([]*entity.Invoice, error)
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Invoice{ID: id, VendorID: 7}, nil
}

func (m *mockInvoiceRepo) ListByVendorAndDateRange(ctx context.Context, vendorID int64, from, to time.Time, limit int) ([]*entity.Invoice, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, vendorID, from, to, limit)
	}
	return []*entity.Invoice{}, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockEngine struct {
	matchLineFunc func(ctx context.Context, vendorID int64, line *entity.StatementLine, claimed map[int64]bool) (*matching.Outcome, error)
}

func (m *mockEngine) MatchLine(ctx context.Context, vendorID int64, line *entity.StatementLine, claimed map[int64]bool) (*matching.Outcome, error) {
	if m.matchLineFunc != nil {
		return m.matchLineFunc(ctx, vendorID, line, claimed)
	}
	return &matching.Outcome{
		Routing: matching.Routing{
			Decision:  entity.DecisionNoMatchFound,
			Rationale: "no candidate invoices within the matching window",
		},
	}, nil
}

type mockSemanticMatcher struct {
	matchLineFunc func(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error)
}

func (m *mockSemanticMatcher) MatchLine(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
	if m.matchLineFunc != nil {
		return m.matchLineFunc(ctx, req)
	}
	return &port.SemanticMatchResult{}, nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
