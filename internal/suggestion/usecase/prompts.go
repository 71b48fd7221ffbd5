package usecase

import (
	"fmt"
	"strings"

	"talk-support/internal/model"
)

const summarySystemInstruction = `あなたは会話ログの要約者です。与えられた発言を、話題と流れが分かる簡潔な日本語の要約にまとめてください。要約本文のみを出力してください。`

const deepenSystemInstruction = `あなたは二人の会話を支援するアシスタントです。現在の話題を深掘りする、自然で具体的な質問を日本語で提案してください。出力はJSONの文字列配列のみ（例: ["質問1","質問2"]）。`

const shiftSystemInstruction = `あなたは二人の会話を支援するアシスタントです。指定された新しい話題へ自然に移るための話しかけ方を日本語で提案してください。出力はJSONの文字列配列のみ（例: ["提案1","提案2"]）。`

func buildSummaryPrompt(overflow []model.ConversationTurn, existingSummary string) string {
	var sb strings.Builder
	if existingSummary != "" {
		sb.WriteString("これまでの要約:\n")
		sb.WriteString(existingSummary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("新しく要約する発言:\n")
	for _, t := range overflow {
		fmt.Fprintf(&sb, "%s: %s\n", t.UserID, t.Text)
	}
	return sb.String()
}

func buildDeepenPrompt(state *model.SessionState) string {
	var sb strings.Builder
	if state.Summary != "" {
		sb.WriteString("会話の要約:\n")
		sb.WriteString(state.Summary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("直近の会話:\n")
	for _, t := range state.Recent {
		fmt.Fprintf(&sb, "%s: %s\n", t.UserID, t.Text)
	}
	sb.WriteString("\n現在の話題を深掘りする質問を2つ提案してください。")
	return sb.String()
}

func buildShiftPrompt(state *model.SessionState, category string, keywords []string, targetUserID string) string {
	var sb strings.Builder
	if state.Summary != "" {
		sb.WriteString("会話の要約:\n")
		sb.WriteString(state.Summary)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "新しい話題のカテゴリ: %s\n", category)
	if len(keywords) > 0 {
		fmt.Fprintf(&sb, "関連キーワード: %s\n", strings.Join(keywords, "、"))
	}
	fmt.Fprintf(&sb, "この話題は %s さんの興味に合っています。\n", targetUserID)
	sb.WriteString("\nこの話題へ自然に移るための話しかけ方を2つ提案してください。")
	return sb.String()
}
