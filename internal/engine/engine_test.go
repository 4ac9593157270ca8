package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/model"
	"github.com/gustavohm/granabot/internal/service"
	"github.com/gustavohm/granabot/internal/storage"
)

const testChatID int64 = 4242

type stubParser struct {
	responses     map[string]model.AIResponse
	transcript    string
	transcribeErr error
}

func (s *stubParser) Parse(_ context.Context, message string, _ *model.UserContext) model.AIResponse {
	if resp, ok := s.responses[message]; ok {
		return resp
	}
	return model.AIResponse{Intent: model.IntentUnknown, RequiresConfirmation: true}
}

func (s *stubParser) Transcribe(_ context.Context, _ []byte, _ string, _ time.Duration) (string, error) {
	if s.transcribeErr != nil {
		return "", s.transcribeErr
	}
	return s.transcript, nil
}

type sentMessage struct {
	kind    string // "message", "choices", "confirm", "newcat"
	text    string
	choices []service.Choice
}

type recordingTransport struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	deleted [][]int
	acked   []string
}

func (r *recordingTransport) record(kind, text string, choices []service.Choice) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.sent = append(r.sent, sentMessage{kind: kind, text: text, choices: choices})
	return r.nextID
}

func (r *recordingTransport) SendMessage(_ context.Context, _ int64, text string) (int, error) {
	return r.record("message", text, nil), nil
}

func (r *recordingTransport) SendChoiceList(_ context.Context, _ int64, text string, choices []service.Choice) (int, error) {
	return r.record("choices", text, choices), nil
}

func (r *recordingTransport) SendConfirmation(_ context.Context, _ int64, text string) (int, error) {
	return r.record("confirm", text, nil), nil
}

func (r *recordingTransport) SendNewCategoryPrompt(_ context.Context, _ int64, text, _ string) (int, error) {
	return r.record("newcat", text, nil), nil
}

func (r *recordingTransport) DeleteMessages(_ context.Context, _ int64, ids []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, ids)
	return nil
}

func (r *recordingTransport) AcknowledgeInteraction(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acked = append(r.acked, id)
	return nil
}

func (r *recordingTransport) last(t *testing.T) sentMessage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent)
	return r.sent[len(r.sent)-1]
}

type engineFixture struct {
	engine    *Engine
	store     *storage.SQLiteStorage
	transport *recordingTransport
	parser    *stubParser
	budgetID  string
	now       time.Time

	categoryID map[string]string
	accountID  map[string]string
	sourceID   map[string]string
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	budget, err := store.CreateBudget(ctx, "Casa")
	require.NoError(t, err)
	_, err = store.CreateMember(ctx, budget.ID, testChatID, "Ana")
	require.NoError(t, err)

	f := &engineFixture{
		store:      store,
		transport:  &recordingTransport{},
		parser:     &stubParser{responses: map[string]model.AIResponse{}},
		budgetID:   budget.ID,
		now:        time.Date(2025, time.May, 20, 12, 0, 0, 0, time.UTC),
		categoryID: map[string]string{},
		accountID:  map[string]string{},
		sourceID:   map[string]string{},
	}

	for _, c := range []struct{ name, group string }{
		{"Mercado", "Alimentação"},
		{"Energia", "Moradia"},
	} {
		cat, err := store.CreateCategory(ctx, budget.ID, c.name, c.group)
		require.NoError(t, err)
		f.categoryID[c.name] = cat.ID
	}

	closing := 15
	for _, a := range []*model.Account{
		{BudgetID: budget.ID, Name: "Carteira", Type: model.AccountTypeCash, IsDefault: true},
		{BudgetID: budget.ID, Name: "Nubank", Type: model.AccountTypeCredit, ClosingDay: &closing},
	} {
		require.NoError(t, store.CreateAccount(ctx, a))
		f.accountID[a.Name] = a.ID
	}

	salary := &model.IncomeSource{BudgetID: budget.ID, Name: "Salário", IsActive: true}
	require.NoError(t, store.CreateIncomeSource(ctx, salary))
	f.sourceID[salary.Name] = salary.ID

	f.engine = New(store, f.transport, f.parser)
	f.engine.clock = func() time.Time { return f.now }
	return f
}

func (f *engineFixture) lastTransactionID(t *testing.T) string {
	t.Helper()
	state, err := f.store.GetConversationState(context.Background(), testChatID)
	require.NoError(t, err)
	return state.Context.LastTransactionID
}

func ptrInt64(v int64) *int64 { return &v }

func expenseResponse(confidence float64, amountCents *int64, hint, description string) model.AIResponse {
	return model.AIResponse{
		Intent:     model.IntentRegisterExpense,
		Confidence: confidence,
		Data: model.ExpenseData{
			AmountCents:  amountCents,
			CategoryHint: hint,
			Description:  description,
		},
	}
}

func TestHighConfidenceAutoCommit(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["gastei 50 no mercado"] = expenseResponse(0.95, ptrInt64(5000), "mercado", "mercado")
	f.engine.HandleText(ctx, testChatID, "gastei 50 no mercado")

	last := f.transport.last(t)
	assert.Equal(t, "message", last.kind)
	assert.Contains(t, last.text, "Registrado")
	assert.Contains(t, last.text, "R$ 50,00")
	assert.Contains(t, last.text, "Mercado")

	txnID := f.lastTransactionID(t)
	require.NotEmpty(t, txnID)
	txn, err := f.store.GetTransactionByID(ctx, txnID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), txn.AmountCents)
	assert.Equal(t, f.categoryID["Mercado"], txn.CategoryID)
	assert.Equal(t, f.accountID["Carteira"], txn.AccountID)
	assert.Equal(t, model.StatusCleared, txn.Status)
}

func TestScheduledMatchAlwaysConfirms(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	pending := &model.Transaction{
		ID:          uuid.NewString(),
		BudgetID:    f.budgetID,
		CategoryID:  f.categoryID["Energia"],
		Kind:        model.KindExpense,
		Status:      model.StatusPending,
		AmountCents: 18000,
		Description: "Conta de luz",
		Date:        time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.store.InsertTransaction(ctx, pending))

	// High intent confidence, yet the pending-row match forces a question.
	f.parser.responses["paguei a luz, 185,50"] = expenseResponse(0.95, ptrInt64(18550), "luz", "conta de luz")
	f.engine.HandleText(ctx, testChatID, "paguei a luz, 185,50")

	last := f.transport.last(t)
	assert.Equal(t, "confirm", last.kind)
	assert.Contains(t, last.text, "Energia")

	f.engine.HandleCallback(ctx, testChatID, "cb-1", choiceConfirmYes)

	got, err := f.store.GetTransactionByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCleared, got.Status)
	assert.Equal(t, int64(18550), got.AmountCents)
	assert.Equal(t, []string{"cb-1"}, f.transport.acked)
}

func TestMediumConfidenceConfirmAndCancel(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["acho que gastei 80 no mercado"] = expenseResponse(0.7, ptrInt64(8000), "mercado", "mercado")
	f.engine.HandleText(ctx, testChatID, "acho que gastei 80 no mercado")

	assert.Equal(t, "confirm", f.transport.last(t).kind)

	f.engine.HandleCallback(ctx, testChatID, "cb-1", choiceConfirmNo)
	assert.Equal(t, replyCancelled, f.transport.last(t).text)
	assert.Empty(t, f.lastTransactionID(t))

	state, err := f.store.GetConversationState(ctx, testChatID)
	require.NoError(t, err)
	assert.Equal(t, model.StepIdle, state.Step)
}

func TestInstallmentPurchaseCommits(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["comprei uma tv em 10x de 200 no nubank"] = model.AIResponse{
		Intent:     model.IntentRegisterExpense,
		Confidence: 0.95,
		Data: model.ExpenseData{
			AmountCents:      ptrInt64(200000),
			CategoryHint:     "mercado",
			AccountHint:      "nubank",
			Description:      "tv",
			InstallmentCount: 10,
		},
	}
	f.engine.HandleText(ctx, testChatID, "comprei uma tv em 10x de 200 no nubank")

	assert.Contains(t, f.transport.last(t).text, "em 10x")

	parentID := f.lastTransactionID(t)
	require.NotEmpty(t, parentID)
	parent, err := f.store.GetTransactionByID(ctx, parentID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), parent.AmountCents)
	// Purchased on the 20th, card closes on the 15th: first charge next month.
	assert.Equal(t, time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC), parent.Date.UTC())

	children, err := f.store.GetInstallmentChildren(ctx, parentID)
	require.NoError(t, err)
	assert.Len(t, children, 9)
}

func TestUnknownHintOffersNewCategory(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["gastei 120 com ração"] = expenseResponse(0.9, ptrInt64(12000), "ração", "ração")
	f.engine.HandleText(ctx, testChatID, "gastei 120 com ração")

	last := f.transport.last(t)
	assert.Equal(t, "newcat", last.kind)
	assert.Contains(t, last.text, "Ração")

	f.engine.HandleCallback(ctx, testChatID, "cb-1", choiceNewCatYes)

	categories, err := f.store.GetCategories(ctx, f.budgetID)
	require.NoError(t, err)
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Ração")

	txn, err := f.store.GetTransactionByID(ctx, f.lastTransactionID(t))
	require.NoError(t, err)
	assert.Equal(t, int64(12000), txn.AmountCents)
	assert.NotEmpty(t, txn.CategoryID)
}

func TestLowConfidenceAsksEntityThenCommitsChoice(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["50 naquele lugar"] = expenseResponse(0.5, ptrInt64(5000), "", "naquele lugar")
	f.engine.HandleText(ctx, testChatID, "50 naquele lugar")

	last := f.transport.last(t)
	require.Equal(t, "choices", last.kind)
	// Every active category plus the create-new entry.
	require.Len(t, last.choices, 3)
	assert.Equal(t, choiceNewCategory, last.choices[2].ID)

	f.engine.HandleCallback(ctx, testChatID, "cb-1", choiceCategory+f.categoryID["Mercado"])

	txn, err := f.store.GetTransactionByID(ctx, f.lastTransactionID(t))
	require.NoError(t, err)
	assert.Equal(t, f.categoryID["Mercado"], txn.CategoryID)
}

func TestFreeTextAbandonsPendingQuestion(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["acho que gastei 80 no mercado"] = expenseResponse(0.7, ptrInt64(8000), "mercado", "mercado")
	f.parser.responses["gastei 50 no mercado"] = expenseResponse(0.95, ptrInt64(5000), "mercado", "mercado")

	f.engine.HandleText(ctx, testChatID, "acho que gastei 80 no mercado")
	require.Equal(t, "confirm", f.transport.last(t).kind)

	// A fresh message instead of a button press abandons the question and is
	// processed on its own.
	f.engine.HandleText(ctx, testChatID, "gastei 50 no mercado")

	assert.NotEmpty(t, f.transport.deleted)
	assert.Contains(t, f.transport.last(t).text, "Registrado")

	txn, err := f.store.GetTransactionByID(ctx, f.lastTransactionID(t))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), txn.AmountCents)
}

func TestUndoLastTransaction(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["gastei 50 no mercado"] = expenseResponse(0.95, ptrInt64(5000), "mercado", "mercado")
	f.engine.HandleText(ctx, testChatID, "gastei 50 no mercado")
	txnID := f.lastTransactionID(t)
	require.NotEmpty(t, txnID)

	f.engine.HandleUndo(ctx, testChatID)
	assert.Equal(t, replyUndone, f.transport.last(t).text)

	_, err := f.store.GetTransactionByID(ctx, txnID)
	assert.Error(t, err)

	f.engine.HandleUndo(ctx, testChatID)
	assert.Equal(t, replyNothingToUndo, f.transport.last(t).text)
}

func TestIncomeWithoutAmountAsksForIt(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["recebi um dinheiro"] = model.AIResponse{
		Intent:     model.IntentRegisterIncome,
		Confidence: 0.9,
		Data:       model.IncomeData{Description: "um dinheiro"},
	}
	f.engine.HandleText(ctx, testChatID, "recebi um dinheiro")
	assert.Equal(t, replyAskAmount, f.transport.last(t).text)

	// A typed value answers the question; the source is then picked from
	// the choice list.
	f.engine.HandleText(ctx, testChatID, "500")
	last := f.transport.last(t)
	require.Equal(t, "choices", last.kind)
	require.Len(t, last.choices, 1)

	f.engine.HandleCallback(ctx, testChatID, "cb-1", last.choices[0].ID)

	txn, err := f.store.GetTransactionByID(ctx, f.lastTransactionID(t))
	require.NoError(t, err)
	assert.Equal(t, model.KindIncome, txn.Kind)
	assert.Equal(t, int64(50000), txn.AmountCents)
	assert.Equal(t, f.sourceID["Salário"], txn.IncomeSourceID)
}

func TestIncomeHintMatchesScheduledRow(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	pending := &model.Transaction{
		ID:             uuid.NewString(),
		BudgetID:       f.budgetID,
		IncomeSourceID: f.sourceID["Salário"],
		Kind:           model.KindIncome,
		Status:         model.StatusPending,
		AmountCents:    500000,
		Description:    "Salário mensal",
		Date:           time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.store.InsertTransaction(ctx, pending))

	// No amount stated, but the source link plus month recency clears the
	// acceptance floor, so the row is offered instead of asking for a value.
	f.parser.responses["o salário caiu"] = model.AIResponse{
		Intent:     model.IntentRegisterIncome,
		Confidence: 0.9,
		Data:       model.IncomeData{SourceHint: "salário", Description: "salário caiu"},
	}
	f.engine.HandleText(ctx, testChatID, "o salário caiu")

	require.Equal(t, "confirm", f.transport.last(t).kind)

	f.engine.HandleCallback(ctx, testChatID, "cb-1", choiceConfirmYes)

	got, err := f.store.GetTransactionByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCleared, got.Status)
	// Confirming without a stated amount keeps the scheduled value.
	assert.Equal(t, int64(500000), got.AmountCents)
}

func TestTransferToGoalConfirms(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	goal := &model.Goal{BudgetID: f.budgetID, Name: "Viagem", TargetCents: 500000}
	require.NoError(t, f.store.CreateGoal(ctx, goal))

	f.parser.responses["guarda 300 pra viagem"] = model.AIResponse{
		Intent:     model.IntentTransfer,
		Confidence: 0.9,
		Data: model.TransferData{
			AmountCents: ptrInt64(30000),
			GoalHint:    "viagem",
		},
	}
	f.engine.HandleText(ctx, testChatID, "guarda 300 pra viagem")

	require.Equal(t, "confirm", f.transport.last(t).kind)
	f.engine.HandleCallback(ctx, testChatID, "cb-1", choiceConfirmYes)

	goals, err := f.store.GetGoals(ctx, f.budgetID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, int64(30000), goals[0].CurrentCents)

	txn, err := f.store.GetTransactionByID(ctx, f.lastTransactionID(t))
	require.NoError(t, err)
	assert.Equal(t, model.KindTransfer, txn.Kind)
	assert.Equal(t, goal.ID, txn.GoalID)
}

func TestTransferDestinationHintResolvesGoal(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	goal := &model.Goal{BudgetID: f.budgetID, Name: "Reserva", TargetCents: 1000000}
	require.NoError(t, f.store.CreateGoal(ctx, goal))

	// The destination landed in the to-account slot, not the goal slot.
	f.parser.responses["passa 200 pra reserva"] = model.AIResponse{
		Intent:     model.IntentTransfer,
		Confidence: 0.9,
		Data: model.TransferData{
			AmountCents:   ptrInt64(20000),
			ToAccountHint: "reserva",
		},
	}
	f.engine.HandleText(ctx, testChatID, "passa 200 pra reserva")

	require.Equal(t, "confirm", f.transport.last(t).kind)
	f.engine.HandleCallback(ctx, testChatID, "cb-1", choiceConfirmYes)

	txn, err := f.store.GetTransactionByID(ctx, f.lastTransactionID(t))
	require.NoError(t, err)
	assert.Equal(t, goal.ID, txn.GoalID)
}

func TestAuditEntryRecordsContextDigest(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["acho que gastei 80 no mercado"] = expenseResponse(0.7, ptrInt64(8000), "mercado", "mercado")
	f.engine.HandleText(ctx, testChatID, "acho que gastei 80 no mercado")

	state, err := f.store.GetConversationState(ctx, testChatID)
	require.NoError(t, err)
	require.NotEmpty(t, state.Context.AuditID)

	entry, err := f.store.GetAuditEntry(ctx, state.Context.AuditID)
	require.NoError(t, err)
	assert.Equal(t, contextDigest(&model.UserContext{
		BudgetID:      f.budgetID,
		Categories:    make([]model.Category, 2),
		IncomeSources: make([]model.IncomeSource, 1),
		Accounts:      make([]model.Account, 2),
	}), entry.ContextDigest)
	assert.Contains(t, entry.ContextDigest, "cats=2")
}

// resolutionCountingStore records every audit-resolution write so tests can
// assert how often a row was touched, not just its final value.
type resolutionCountingStore struct {
	*storage.SQLiteStorage
	mu          sync.Mutex
	resolutions []model.Resolution
}

func (s *resolutionCountingStore) UpdateAuditResolution(ctx context.Context, id string, r model.Resolution) error {
	s.mu.Lock()
	s.resolutions = append(s.resolutions, r)
	s.mu.Unlock()
	return s.SQLiteStorage.UpdateAuditResolution(ctx, id, r)
}

func TestEntityChoiceResolvesAuditOnce(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	counting := &resolutionCountingStore{SQLiteStorage: f.store}
	eng := New(counting, f.transport, f.parser)
	eng.clock = f.engine.clock

	f.parser.responses["50 naquele lugar"] = expenseResponse(0.5, ptrInt64(5000), "", "naquele lugar")
	eng.HandleText(ctx, testChatID, "50 naquele lugar")
	require.Equal(t, "choices", f.transport.last(t).kind)

	state, err := f.store.GetConversationState(ctx, testChatID)
	require.NoError(t, err)
	auditID := state.Context.AuditID
	require.NotEmpty(t, auditID)

	eng.HandleCallback(ctx, testChatID, "cb-1", choiceCategory+f.categoryID["Mercado"])

	// Created pending, then exactly one resolution update, tagged corrected.
	assert.Equal(t, []model.Resolution{model.ResolutionCorrected}, counting.resolutions)

	entry, err := f.store.GetAuditEntry(ctx, auditID)
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionCorrected, entry.Resolution)
}

func TestBalanceQuery(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	for _, row := range []struct {
		kind  model.TransactionKind
		cents int64
	}{
		{model.KindIncome, 300000},
		{model.KindExpense, 120000},
	} {
		require.NoError(t, f.store.InsertTransaction(ctx, &model.Transaction{
			ID:          uuid.NewString(),
			BudgetID:    f.budgetID,
			Kind:        row.kind,
			Status:      model.StatusCleared,
			AmountCents: row.cents,
			Date:        time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
		}))
	}

	f.parser.responses["como estamos esse mês?"] = model.AIResponse{
		Intent:     model.IntentQueryBalance,
		Confidence: 0.9,
		Data:       model.QueryData{},
	}
	f.engine.HandleText(ctx, testChatID, "como estamos esse mês?")

	text := f.transport.last(t).text
	assert.Contains(t, text, "R$ 3.000,00")
	assert.Contains(t, text, "R$ 1.200,00")
	assert.Contains(t, text, "R$ 1.800,00")
}

func TestCategoryQuery(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.InsertTransaction(ctx, &model.Transaction{
		ID:          uuid.NewString(),
		BudgetID:    f.budgetID,
		CategoryID:  f.categoryID["Mercado"],
		Kind:        model.KindExpense,
		Status:      model.StatusCleared,
		AmountCents: 45000,
		Date:        time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
	}))

	f.parser.responses["quanto gastei no mercado?"] = model.AIResponse{
		Intent:     model.IntentQueryCategory,
		Confidence: 0.9,
		Data:       model.QueryData{CategoryHint: "mercado"},
	}
	f.engine.HandleText(ctx, testChatID, "quanto gastei no mercado?")

	text := f.transport.last(t).text
	assert.Contains(t, text, "Mercado")
	assert.Contains(t, text, "R$ 450,00")
}

func TestUnparsedMessageEntersManualEntry(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	// The stub returns intent unknown for anything unmapped, the same shape
	// the gateway produces when the inference call itself fails.
	f.engine.HandleText(ctx, testChatID, "bom dia!")
	last := f.transport.last(t)
	require.Equal(t, "message", last.kind)
	assert.Equal(t, replyManualEntry, last.text)

	f.engine.HandleText(ctx, testChatID, "185,50")
	last = f.transport.last(t)
	require.Equal(t, "choices", last.kind)
	require.Len(t, last.choices, 3)

	f.engine.HandleCallback(ctx, testChatID, "cb-1", choiceCategory+f.categoryID["Mercado"])

	txn, err := f.store.GetTransactionByID(ctx, f.lastTransactionID(t))
	require.NoError(t, err)
	assert.Equal(t, int64(18550), txn.AmountCents)
	assert.Equal(t, f.categoryID["Mercado"], txn.CategoryID)
}

func TestManualEntryAbandonedByFreshMessage(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.responses["gastei 50 no mercado"] = expenseResponse(0.95, ptrInt64(5000), "mercado", "mercado")

	f.engine.HandleText(ctx, testChatID, "bom dia!")
	require.Equal(t, replyManualEntry, f.transport.last(t).text)

	// A full sentence instead of a value drops the manual flow and is
	// processed on its own.
	f.engine.HandleText(ctx, testChatID, "gastei 50 no mercado")
	assert.Contains(t, f.transport.last(t).text, "Registrado")

	txn, err := f.store.GetTransactionByID(ctx, f.lastTransactionID(t))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), txn.AmountCents)
}

func TestParseAmountCents(t *testing.T) {
	for _, tc := range []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"50", 5000, true},
		{"185,50", 18550, true},
		{"R$ 1.234,56", 123456, true},
		{"35 reais", 3500, true},
		{"0", 0, false},
		{"-20", 0, false},
		{"gastei 50 no mercado", 0, false},
	} {
		cents, ok := parseAmountCents(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.cents, cents, "input %q", tc.in)
		}
	}
}

func TestUnknownChatGetsProvisioningHint(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.HandleText(context.Background(), 999, "oi")
	assert.Equal(t, replyNoBudget, f.transport.last(t).text)
}

func TestVoicePath(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.parser.transcript = "gastei 50 no mercado"
	f.parser.responses["gastei 50 no mercado"] = expenseResponse(0.95, ptrInt64(5000), "mercado", "mercado")

	f.engine.HandleVoice(ctx, testChatID, []byte("ogg"), "audio/ogg", 12*time.Second)
	assert.Contains(t, f.transport.last(t).text, "Registrado")
}

func TestVoiceTooLong(t *testing.T) {
	f := newEngineFixture(t)
	f.parser.transcribeErr = common.ErrAudioTooLong
	f.engine.HandleVoice(context.Background(), testChatID, []byte("ogg"), "audio/ogg", 2*time.Minute)
	assert.Equal(t, replyAudioTooLong, f.transport.last(t).text)
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 0,05", FormatBRL(5))
	assert.Equal(t, "R$ 185,50", FormatBRL(18550))
	assert.Equal(t, "R$ 1.234,56", FormatBRL(123456))
	assert.Equal(t, "R$ 1.000.000,00", FormatBRL(100000000))
	assert.Equal(t, "-R$ 12,34", FormatBRL(-1234))
}
