package usecase

import (
	"context"
	"fmt"
	"strings"

	"talk-support/internal/model"
)

const summarySeparator = "\n---\n"

// needsMaintenance reports whether the recent window overflowed.
func (uc *implUseCase) needsMaintenance(state *model.SessionState) bool {
	return len(state.Recent) > uc.cfg.HistoryThreshold
}

// compressContext folds the oldest recent-window entries into the
// running summary and keeps the newest HistoryKeep entries. Calling it
// again without new input changes nothing.
func (uc *implUseCase) compressContext(ctx context.Context, state *model.SessionState) error {
	if !uc.needsMaintenance(state) {
		return nil
	}

	keep := uc.cfg.HistoryKeep
	overflow := state.Recent[:len(state.Recent)-keep]

	genCtx, cancel := context.WithTimeout(ctx, uc.cfg.GenerateTimeout)
	defer cancel()

	chunk, err := uc.llm.Generate(genCtx, summarySystemInstruction, buildSummaryPrompt(overflow, state.Summary))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Degrade to a verbatim digest rather than dropping history.
		uc.l.Warnf(ctx, "context compression fell back to verbatim digest: session=%s error=%v", state.ID, err)
		chunk = verbatimDigest(overflow)
	}

	merged := chunk
	if state.Summary != "" {
		merged = state.Summary + summarySeparator + chunk
	}
	state.Summary = truncateHead(merged, uc.cfg.SummaryMaxChars)
	state.Recent = append([]model.ConversationTurn(nil), state.Recent[len(state.Recent)-keep:]...)
	return nil
}

// verbatimDigest renders overflow turns as plain speaker-tagged lines.
func verbatimDigest(turns []model.ConversationTurn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(fmt.Sprintf("%s: %s\n", t.UserID, t.Text))
	}
	return strings.TrimSpace(sb.String())
}
