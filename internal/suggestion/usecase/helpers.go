package usecase

import (
	"encoding/json"
	"math"
	"math/rand"
	"regexp"
	"strings"

	"talk-support/internal/model"
)

const normEpsilon = 1e-9

// cosine computes cosine similarity between two vectors, accumulating
// in float64. Mismatched or empty inputs score zero.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA < normEpsilon || normB < normEpsilon {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalize scales v to unit length in place. A near-zero vector is
// returned as nil so the unit-or-zero invariant holds.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm < normEpsilon {
		return nil
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// emaUpdate blends the new embedding into the previous topic vector:
// v' = alpha*embed + (1-alpha)*prev, renormalized. An empty previous
// vector yields the normalized embedding directly.
func emaUpdate(prev, embed []float32, alpha float64) []float32 {
	if len(embed) == 0 {
		return prev
	}
	if len(prev) != len(embed) {
		out := make([]float32, len(embed))
		copy(out, embed)
		return normalize(out)
	}
	out := make([]float32, len(embed))
	for i := range embed {
		out[i] = float32(alpha*float64(embed[i]) + (1-alpha)*float64(prev[i]))
	}
	return normalize(out)
}

// truncateHead trims s from the oldest (leading) end to at most max
// runes. Rune-based so multibyte text never splits mid-character.
func truncateHead(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[len(runes)-max:])
}

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// sanitizeJSONResponse removes markdown code fences and surrounding
// prose that LLMs often add around JSON output.
func sanitizeJSONResponse(text string) string {
	matches := codeFenceRe.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return text
	}
	end := strings.LastIndexAny(text, "]}")
	if end == -1 || end < start {
		return text
	}
	return strings.TrimSpace(text[start : end+1])
}

// parseSuggestionTexts extracts suggestion strings from an LLM
// response. Accepts a JSON string array; falls back to non-empty lines
// when the response is not valid JSON.
func parseSuggestionTexts(raw string) []string {
	cleaned := sanitizeJSONResponse(raw)

	var texts []string
	if err := json.Unmarshal([]byte(cleaned), &texts); err == nil {
		var out []string
		for _, t := range texts {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line != "" && !strings.HasPrefix(line, "```") {
			out = append(out, line)
		}
	}
	return out
}

// weightedPick selects one cluster index with probability proportional
// to salience. Uniform when all saliences are zero.
func weightedPick(clusters []model.InterestCluster) int {
	if len(clusters) == 0 {
		return -1
	}
	var total float64
	for _, c := range clusters {
		if c.Salience > 0 {
			total += c.Salience
		}
	}
	if total <= 0 {
		return rand.Intn(len(clusters))
	}
	target := rand.Float64() * total
	for i, c := range clusters {
		if c.Salience <= 0 {
			continue
		}
		target -= c.Salience
		if target <= 0 {
			return i
		}
	}
	return len(clusters) - 1
}

// latestText joins the texts of the newest transcript entries in a
// signal, most recent last.
func latestText(turns []model.ConversationTurn) string {
	var parts []string
	for _, t := range turns {
		if s := strings.TrimSpace(t.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
