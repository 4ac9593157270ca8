package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gustavohm/granabot/internal/match"
	"github.com/gustavohm/granabot/internal/model"
	"github.com/gustavohm/granabot/internal/router"
	"github.com/gustavohm/granabot/internal/service"
)

// Callback data prefixes. The transport round-trips these opaque strings
// through the chat platform's inline buttons.
const (
	choiceCategory    = "cat:"
	choiceSource      = "src:"
	choiceAccount     = "acct:"
	choiceNewCategory = "cat:new"

	choiceConfirmYes = service.CallbackConfirmYes
	choiceConfirmNo  = service.CallbackConfirmNo
	choiceNewCatYes  = service.CallbackNewCategoryYes
	choiceNewCatNo   = service.CallbackNewCategoryNo
)

// processMessage runs the full resolution pipeline for one idle-state message.
func (e *Engine) processMessage(ctx context.Context, uc *model.UserContext, state *model.ConversationState, text string) {
	resp := e.parser.Parse(ctx, text, uc)
	auditID := e.newAuditEntry(ctx, uc, state.ChatID, text, resp)

	switch {
	case resp.Intent.IsQuery():
		e.handleQuery(ctx, uc, state.ChatID, resp, auditID)
	case resp.Intent == model.IntentRegisterExpense || resp.Intent == model.IntentRegisterIncome:
		e.handleRegister(ctx, uc, state, resp, auditID)
	case resp.Intent == model.IntentTransfer:
		e.handleTransfer(ctx, uc, state, resp, auditID)
	default:
		// Unknown intent covers both gibberish and a degraded inference
		// call; either way the message is not dropped, it enters the
		// manual flow.
		e.startManualEntry(ctx, uc, state, text, auditID)
	}
}

// startManualEntry begins the degraded path used when inference could not
// classify the message: ask for the amount, then for the category via an
// explicit choice list.
func (e *Engine) startManualEntry(ctx context.Context, uc *model.UserContext, state *model.ConversationState, text, auditID string) {
	draft := &model.Draft{
		Kind:        model.KindExpense,
		Description: text,
		Date:        uc.Now,
		AccountID:   uc.DefaultAccountID,
	}
	e.askAmount(ctx, state, draft, auditID, replyManualEntry)
}

// askAmount parks the draft and waits for the user to type a value.
func (e *Engine) askAmount(ctx context.Context, state *model.ConversationState, draft *model.Draft, auditID, prompt string) {
	msgID, err := e.transport.SendMessage(ctx, state.ChatID, prompt)
	if err != nil {
		slog.Error("asking for amount", "chat_id", state.ChatID, "error", err)
		return
	}
	state.Step = model.StepAwaitingAmount
	state.Context = model.ConversationContext{
		Draft:             draft,
		MessagesToDelete:  []int{msgID},
		AuditID:           auditID,
		LastTransactionID: state.Context.LastTransactionID,
	}
	e.saveState(ctx, state)
	e.auditReply(ctx, auditID, prompt)
}

// handleRegister resolves a register-expense or register-income message into
// a routed outcome and acts on it.
func (e *Engine) handleRegister(ctx context.Context, uc *model.UserContext, state *model.ConversationState, resp model.AIResponse, auditID string) {
	var (
		kind         model.TransactionKind
		amount       *int64
		date         *time.Time
		hint         string
		accountHint  string
		description  string
		installments int
		candidates   []match.Candidate
	)

	switch data := resp.Data.(type) {
	case model.ExpenseData:
		kind = model.KindExpense
		amount = data.AmountCents
		date = data.Date
		hint = data.CategoryHint
		accountHint = data.AccountHint
		description = data.Description
		installments = data.InstallmentCount
		candidates = match.CategoryCandidates(uc.Categories)
	case model.IncomeData:
		kind = model.KindIncome
		amount = data.AmountCents
		date = data.Date
		hint = data.SourceHint
		accountHint = data.AccountHint
		description = data.Description
		candidates = match.IncomeSourceCandidates(uc.IncomeSources)
	default:
		e.send(ctx, state.ChatID, replyFallback)
		e.auditResolve(ctx, auditID, model.ResolutionFallback)
		return
	}

	entity := match.Entity(hint, candidates)
	linkID := ""
	if entity != nil {
		linkID = entity.EntityID
	}

	// Installment purchases are always fresh rows; only plain registrations
	// are checked against the scheduled ledger.
	var scheduled *model.ScheduledMatch
	if installments == 0 {
		year, month := uc.Now.Year(), int(uc.Now.Month())
		if amount != nil {
			scheduled = match.ByAmount(uc.PendingThisMonth, kind, linkID, *amount, year, month)
		} else {
			hintText := hint
			if hintText == "" {
				hintText = description
			}
			allPending, err := e.store.GetAllPendingTransactions(ctx, uc.BudgetID)
			if err != nil {
				slog.Warn("loading pending rows for hint match", "error", err)
			} else {
				scheduled = match.ByHint(allPending, kind, linkID, hintText, year, month)
			}
		}
	}

	decision := router.Route(resp, hint != "", entity, scheduled, amount != nil)

	draft := &model.Draft{
		Kind:             kind,
		Description:      description,
		InstallmentCount: installments,
		Date:             uc.Now,
	}
	if amount != nil {
		draft.AmountCents = *amount
	}
	if date != nil {
		draft.Date = *date
	}
	if accountHint != "" {
		if am := match.Entity(accountHint, match.AccountCandidates(uc.Accounts)); am != nil {
			draft.AccountID = am.EntityID
		}
	}
	if draft.AccountID == "" {
		draft.AccountID = uc.DefaultAccountID
	}
	if entity != nil {
		e.linkEntity(draft, entity.EntityID)
	}

	switch decision.Outcome {
	case router.OutcomeAutoCommit:
		if draft.AccountID == "" {
			e.askAccount(ctx, uc, state, draft, auditID)
			return
		}
		e.commitDraft(ctx, uc, state, draft, auditID, model.ResolutionConfirmed)

	case router.OutcomeConfirm:
		e.askConfirmation(ctx, uc, state, draft, auditID, confirmPrompt(uc, draft))

	case router.OutcomeConfirmScheduled:
		row := decision.Scheduled.Scheduled
		draft.ScheduledID = row.ID
		if amount == nil {
			draft.AmountCents = row.AmountCents
		}
		e.askConfirmation(ctx, uc, state, draft, auditID, confirmScheduledPrompt(row))

	case router.OutcomeOfferNewCategory:
		name, group := router.SuggestCategory(hint)
		e.offerNewCategory(ctx, state, draft, auditID, name, group)

	case router.OutcomeAskEntity:
		e.askEntity(ctx, uc, state, draft, auditID)

	case router.OutcomeAskAmount:
		e.askAmount(ctx, state, draft, auditID, replyAskAmount)
	}
}

// handleTransfer resolves a transfer message. Transfers always confirm; they
// move money between two places and a wrong guess is costly to unwind.
func (e *Engine) handleTransfer(ctx context.Context, uc *model.UserContext, state *model.ConversationState, resp model.AIResponse, auditID string) {
	data, ok := resp.Data.(model.TransferData)
	if !ok {
		e.send(ctx, state.ChatID, replyFallback)
		e.auditResolve(ctx, auditID, model.ResolutionFallback)
		return
	}
	draft := &model.Draft{
		Kind: model.KindTransfer,
		Date: uc.Now,
	}
	if data.AmountCents != nil {
		draft.AmountCents = *data.AmountCents
	}
	if from := match.Entity(data.FromAccountHint, match.AccountCandidates(uc.Accounts)); from != nil {
		draft.AccountID = from.EntityID
	}
	if draft.AccountID == "" {
		draft.AccountID = uc.DefaultAccountID
	}
	goal := match.Entity(data.GoalHint, match.GoalCandidates(uc.Goals))
	if goal == nil && data.ToAccountHint != "" {
		// Spoken destinations often land in the to-account slot even when
		// they name a goal ("passa 300 pra poupança da viagem").
		goal = match.Entity(data.ToAccountHint, match.GoalCandidates(uc.Goals))
	}
	if goal != nil {
		draft.GoalID = goal.EntityID
	}

	if data.AmountCents == nil {
		e.askAmount(ctx, state, draft, auditID, replyAskAmount)
		return
	}
	if draft.GoalID == "" || draft.AccountID == "" {
		e.askEntity(ctx, uc, state, draft, auditID)
		return
	}
	e.askConfirmation(ctx, uc, state, draft, auditID, confirmPrompt(uc, draft))
}

// handleQuery answers the read-only intents directly; no state machine and
// no confirmations are involved.
func (e *Engine) handleQuery(ctx context.Context, uc *model.UserContext, chatID int64, resp model.AIResponse, auditID string) {
	data, _ := resp.Data.(model.QueryData)

	month := uc.Now
	if data.Month != nil {
		month = *data.Month
	}
	year, m := month.Year(), int(month.Month())

	var reply string
	switch resp.Intent {
	case model.IntentQueryBalance:
		income, err := e.store.SumByKind(ctx, uc.BudgetID, model.KindIncome, year, m)
		if err == nil {
			var expense int64
			expense, err = e.store.SumByKind(ctx, uc.BudgetID, model.KindExpense, year, m)
			if err == nil {
				reply = fmt.Sprintf("Em %02d/%d: receitas %s, gastos %s, saldo %s.",
					m, year, FormatBRL(income), FormatBRL(expense), FormatBRL(income-expense))
			}
		}
		if err != nil {
			slog.Error("balance query", "error", err)
			reply = replyOops
		}

	case model.IntentQueryCategory:
		cat := match.Entity(data.CategoryHint, match.CategoryCandidates(uc.Categories))
		if cat == nil {
			reply = fmt.Sprintf("Não achei uma categoria parecida com \"%s\".", data.CategoryHint)
			break
		}
		total, err := e.store.SumByCategory(ctx, uc.BudgetID, cat.EntityID, year, m)
		if err != nil {
			slog.Error("category query", "error", err)
			reply = replyOops
			break
		}
		reply = fmt.Sprintf("Gastos em %s em %02d/%d: %s.", cat.Name, m, year, FormatBRL(total))

	case model.IntentQueryGoal:
		goalMatch := match.Entity(data.GoalHint, match.GoalCandidates(uc.Goals))
		if goalMatch == nil {
			reply = fmt.Sprintf("Não achei uma meta parecida com \"%s\".", data.GoalHint)
			break
		}
		for _, g := range uc.Goals {
			if g.ID == goalMatch.EntityID {
				reply = fmt.Sprintf("Meta %s: %s de %s guardados.",
					g.Name, FormatBRL(g.CurrentCents), FormatBRL(g.TargetCents))
			}
		}

	case model.IntentQueryAccount:
		account := match.Entity(data.AccountHint, match.AccountCandidates(uc.Accounts))
		if account == nil {
			reply = fmt.Sprintf("Não achei uma conta parecida com \"%s\".", data.AccountHint)
			break
		}
		total, err := e.store.SumByAccount(ctx, uc.BudgetID, account.EntityID)
		if err != nil {
			slog.Error("account query", "error", err)
			reply = replyOops
			break
		}
		reply = fmt.Sprintf("Saldo da conta %s: %s.", account.Name, FormatBRL(total))
	}

	if reply == "" {
		reply = replyFallback
	}
	e.send(ctx, chatID, reply)
	e.auditReply(ctx, auditID, reply)
	e.auditResolve(ctx, auditID, model.ResolutionConfirmed)
}

func (e *Engine) linkEntity(draft *model.Draft, entityID string) {
	switch draft.Kind {
	case model.KindIncome:
		draft.IncomeSourceID = entityID
	case model.KindTransfer:
		draft.GoalID = entityID
	default:
		draft.CategoryID = entityID
	}
}

// commitDraft writes the draft and closes out the exchange. resolution is
// the final audit tag for the success path; it is written exactly once here
// so the audit row never sees more than its two allowed updates.
func (e *Engine) commitDraft(ctx context.Context, uc *model.UserContext, state *model.ConversationState, draft *model.Draft, auditID string, resolution model.Resolution) {
	e.deleteQueued(ctx, state)

	result, err := e.committer.Commit(ctx, uc, draft)
	if err != nil {
		slog.Error("committing draft", "chat_id", state.ChatID, "error", err)
		state.Reset()
		e.saveState(ctx, state)
		e.send(ctx, state.ChatID, replyOops)
		e.auditResolve(ctx, auditID, model.ResolutionFallback)
		return
	}

	state.Reset()
	state.Context.LastTransactionID = result.TransactionID
	e.saveState(ctx, state)

	reply := committedReply(uc, draft)
	e.send(ctx, state.ChatID, reply)
	e.auditReply(ctx, auditID, reply)
	e.auditResolve(ctx, auditID, resolution)
}

func (e *Engine) askConfirmation(ctx context.Context, uc *model.UserContext, state *model.ConversationState, draft *model.Draft, auditID, prompt string) {
	msgID, err := e.transport.SendConfirmation(ctx, state.ChatID, prompt)
	if err != nil {
		slog.Error("sending confirmation", "chat_id", state.ChatID, "error", err)
		return
	}
	state.Step = model.StepAwaitingConfirmation
	state.Context = model.ConversationContext{
		Draft:             draft,
		MessagesToDelete:  []int{msgID},
		AuditID:           auditID,
		LastTransactionID: state.Context.LastTransactionID,
	}
	e.saveState(ctx, state)
	e.auditReply(ctx, auditID, prompt)
}

func (e *Engine) offerNewCategory(ctx context.Context, state *model.ConversationState, draft *model.Draft, auditID, name, group string) {
	prompt := newCategoryPrompt(name, group)
	msgID, err := e.transport.SendNewCategoryPrompt(ctx, state.ChatID, prompt, name)
	if err != nil {
		slog.Error("sending new category prompt", "chat_id", state.ChatID, "error", err)
		return
	}
	state.Step = model.StepAwaitingNewCategoryOK
	state.Context = model.ConversationContext{
		Draft:             draft,
		NewCategory:       &model.NewCategoryDraft{Name: name, GroupName: group},
		MessagesToDelete:  []int{msgID},
		AuditID:           auditID,
		LastTransactionID: state.Context.LastTransactionID,
	}
	e.saveState(ctx, state)
	e.auditReply(ctx, auditID, prompt)
}

// askEntity sends the choice list matching what the draft is missing: the
// paying account for transfers lacking one, otherwise the category or income
// source.
func (e *Engine) askEntity(ctx context.Context, uc *model.UserContext, state *model.ConversationState, draft *model.Draft, auditID string) {
	if draft.Kind == model.KindTransfer && draft.AccountID == "" {
		e.askAccount(ctx, uc, state, draft, auditID)
		return
	}

	var (
		prompt  string
		choices []service.Choice
	)
	switch draft.Kind {
	case model.KindIncome:
		prompt = "De onde veio essa receita?"
		for _, s := range uc.IncomeSources {
			if !s.IsActive {
				continue
			}
			choices = append(choices, service.Choice{ID: choiceSource + s.ID, Label: s.Name})
		}
	case model.KindTransfer:
		prompt = "Para qual meta?"
		for _, g := range uc.Goals {
			choices = append(choices, service.Choice{ID: choiceCategory + g.ID, Label: g.Name})
		}
	default:
		prompt = "Em qual categoria entra esse gasto?"
		for _, c := range uc.Categories {
			if !c.IsActive {
				continue
			}
			choices = append(choices, service.Choice{ID: choiceCategory + c.ID, Label: c.Name})
		}
		choices = append(choices, service.Choice{ID: choiceNewCategory, Label: "➕ Criar nova"})
	}

	msgID, err := e.transport.SendChoiceList(ctx, state.ChatID, prompt, choices)
	if err != nil {
		slog.Error("sending choice list", "chat_id", state.ChatID, "error", err)
		return
	}
	state.Step = model.StepAwaitingCategory
	state.Context = model.ConversationContext{
		Draft:             draft,
		MessagesToDelete:  []int{msgID},
		AuditID:           auditID,
		LastTransactionID: state.Context.LastTransactionID,
	}
	e.saveState(ctx, state)
	e.auditReply(ctx, auditID, prompt)
}

func (e *Engine) askAccount(ctx context.Context, uc *model.UserContext, state *model.ConversationState, draft *model.Draft, auditID string) {
	if len(uc.Accounts) == 0 {
		e.send(ctx, state.ChatID, replyNoAccount)
		e.auditResolve(ctx, auditID, model.ResolutionFallback)
		return
	}

	choices := make([]service.Choice, 0, len(uc.Accounts))
	for _, a := range uc.Accounts {
		choices = append(choices, service.Choice{ID: choiceAccount + a.ID, Label: a.Name})
	}
	msgID, err := e.transport.SendChoiceList(ctx, state.ChatID, "Por qual conta?", choices)
	if err != nil {
		slog.Error("sending account list", "chat_id", state.ChatID, "error", err)
		return
	}
	state.Step = model.StepAwaitingAccount
	state.Context = model.ConversationContext{
		Draft:             draft,
		MessagesToDelete:  []int{msgID},
		AuditID:           auditID,
		LastTransactionID: state.Context.LastTransactionID,
	}
	e.saveState(ctx, state)
}

// HandleCallback processes one inline-button press.
func (e *Engine) HandleCallback(ctx context.Context, chatID int64, interactionID, data string) {
	unlock := e.locks.lock(chatID)
	defer unlock()

	if err := e.transport.AcknowledgeInteraction(ctx, interactionID); err != nil {
		slog.Warn("acknowledging interaction", "error", err)
	}

	uc, err := e.buildUserContext(ctx, chatID)
	if err != nil {
		e.replyConfigError(ctx, chatID, err)
		return
	}
	state, err := e.store.GetConversationState(ctx, chatID)
	if err != nil {
		slog.Error("loading conversation state", "chat_id", chatID, "error", err)
		return
	}
	if state.Step == model.StepIdle || state.Context.Draft == nil {
		// A press on a stale button from an already-closed exchange.
		return
	}

	switch state.Step {
	case model.StepAwaitingConfirmation:
		e.resolveConfirmation(ctx, uc, state, data)
	case model.StepAwaitingCategory:
		e.resolveEntityChoice(ctx, uc, state, data)
	case model.StepAwaitingAccount:
		e.resolveAccountChoice(ctx, uc, state, data)
	case model.StepAwaitingNewCategoryOK:
		e.resolveNewCategoryOffer(ctx, uc, state, data)
	}
}

func (e *Engine) resolveConfirmation(ctx context.Context, uc *model.UserContext, state *model.ConversationState, data string) {
	switch data {
	case choiceConfirmYes:
		e.commitDraft(ctx, uc, state, state.Context.Draft, state.Context.AuditID, model.ResolutionConfirmed)
	case choiceConfirmNo:
		e.cancelExchange(ctx, state)
	}
}

func (e *Engine) resolveEntityChoice(ctx context.Context, uc *model.UserContext, state *model.ConversationState, data string) {
	if data == choiceNewCategory {
		e.deleteQueued(ctx, state)
		msgID, err := e.transport.SendMessage(ctx, state.ChatID, replyAskNewCatName)
		if err != nil {
			slog.Error("asking category name", "error", err)
			return
		}
		state.Step = model.StepAwaitingNewCategoryName
		state.Context.NewCategory = &model.NewCategoryDraft{}
		state.Context.MessagesToDelete = []int{msgID}
		e.saveState(ctx, state)
		return
	}

	draft := state.Context.Draft
	switch {
	case strings.HasPrefix(data, choiceCategory):
		id := strings.TrimPrefix(data, choiceCategory)
		if draft.Kind == model.KindTransfer {
			draft.GoalID = id
		} else {
			draft.CategoryID = id
		}
	case strings.HasPrefix(data, choiceSource):
		draft.IncomeSourceID = strings.TrimPrefix(data, choiceSource)
	default:
		return
	}

	// An explicit pick is an answer, not a guess; no further confirmation,
	// and the audit row closes as corrected rather than confirmed.
	e.commitDraft(ctx, uc, state, draft, state.Context.AuditID, model.ResolutionCorrected)
}

func (e *Engine) resolveAccountChoice(ctx context.Context, uc *model.UserContext, state *model.ConversationState, data string) {
	if !strings.HasPrefix(data, choiceAccount) {
		return
	}
	draft := state.Context.Draft
	draft.AccountID = strings.TrimPrefix(data, choiceAccount)

	if draft.Kind == model.KindTransfer && draft.GoalID == "" {
		e.deleteQueued(ctx, state)
		e.askEntity(ctx, uc, state, draft, state.Context.AuditID)
		return
	}
	e.commitDraft(ctx, uc, state, draft, state.Context.AuditID, model.ResolutionConfirmed)
}

func (e *Engine) resolveNewCategoryOffer(ctx context.Context, uc *model.UserContext, state *model.ConversationState, data string) {
	switch data {
	case choiceNewCatYes:
		nc := state.Context.NewCategory
		if nc == nil {
			e.cancelExchange(ctx, state)
			return
		}
		e.createCategoryAndCommit(ctx, uc, state, nc.Name, nc.GroupName)
	case choiceNewCatNo:
		e.deleteQueued(ctx, state)
		msgID, err := e.transport.SendMessage(ctx, state.ChatID, replyAskNewCatName)
		if err != nil {
			slog.Error("asking category name", "error", err)
			return
		}
		state.Step = model.StepAwaitingNewCategoryName
		state.Context.NewCategory = &model.NewCategoryDraft{}
		state.Context.MessagesToDelete = []int{msgID}
		e.saveState(ctx, state)
	}
}

// handleFreeTextAnswer consumes a text message as the answer to the pending
// amount, new-category name, or new-category group question.
func (e *Engine) handleFreeTextAnswer(ctx context.Context, uc *model.UserContext, state *model.ConversationState, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if state.Step == model.StepAwaitingAmount {
		amount, ok := parseAmountCents(text)
		if !ok || state.Context.Draft == nil {
			// Not an amount: the user moved on, start over with this text.
			e.abandonExchange(ctx, state)
			e.processMessage(ctx, uc, state, text)
			return
		}
		draft := state.Context.Draft
		draft.AmountCents = amount
		e.deleteQueued(ctx, state)
		if draft.CategoryID != "" || draft.IncomeSourceID != "" || draft.GoalID != "" {
			e.askConfirmation(ctx, uc, state, draft, state.Context.AuditID, confirmPrompt(uc, draft))
			return
		}
		e.askEntity(ctx, uc, state, draft, state.Context.AuditID)
		return
	}

	if state.Context.NewCategory == nil {
		state.Context.NewCategory = &model.NewCategoryDraft{}
	}

	switch state.Step {
	case model.StepAwaitingNewCategoryName:
		state.Context.NewCategory.Name = text
		state.Step = model.StepAwaitingNewCategoryGrp
		msgID, err := e.transport.SendMessage(ctx, state.ChatID, replyAskNewCatGroup)
		if err != nil {
			slog.Error("asking category group", "error", err)
			return
		}
		state.Context.MessagesToDelete = append(state.Context.MessagesToDelete, msgID)
		e.saveState(ctx, state)

	case model.StepAwaitingNewCategoryGrp:
		state.Context.NewCategory.GroupName = text
		e.createCategoryAndCommit(ctx, uc, state, state.Context.NewCategory.Name, text)
	}
}

func (e *Engine) createCategoryAndCommit(ctx context.Context, uc *model.UserContext, state *model.ConversationState, name, group string) {
	cat, err := e.store.CreateCategory(ctx, uc.BudgetID, name, group)
	if err != nil {
		slog.Error("creating category", "chat_id", state.ChatID, "error", err)
		state.Reset()
		e.saveState(ctx, state)
		e.send(ctx, state.ChatID, replyOops)
		return
	}
	// Make the fresh category visible to the receipt formatting.
	uc.Categories = append(uc.Categories, *cat)

	draft := state.Context.Draft
	draft.CategoryID = cat.ID
	e.commitDraft(ctx, uc, state, draft, state.Context.AuditID, model.ResolutionConfirmed)
}

func (e *Engine) cancelExchange(ctx context.Context, state *model.ConversationState) {
	e.deleteQueued(ctx, state)
	auditID := state.Context.AuditID
	state.Reset()
	e.saveState(ctx, state)
	e.send(ctx, state.ChatID, replyCancelled)
	e.auditResolve(ctx, auditID, model.ResolutionCancelled)
}
