package drafting

import (
	"fmt"
	"strings"

	"outreach_backend/internal/leads/domain"
)

const systemPrompt = `You write the first Instagram DM to a fitness coach on behalf of a small team that builds client management dashboards for coaches.

The first message opens a conversation. It is never a pitch.

Rules:
1. At most three sentences.
2. Talk about them: their coaching, their content, their niche.
3. End with a casual question.
4. No links, no emojis, no exclamation marks.
5. Use their first name once, naturally.
6. It must read as typed by hand, never templated.
7. Never mention a dashboard, a product, a tool, software, or what we sell.

Never use these openers: "I noticed", "I saw", "I came across", "I checked out", "Love your", "Love how", "Impressive", "Amazing", "Incredible", "Quick question", "Reaching out because".

Pick one angle per lead from what the data supports:
A. Curiosity: mention their coaching, ask how they manage clients today.
B. Observation: mention a topic from their niche, ask how they track client progress.
C. Scaling: mention a growth signal, ask whether admin work is eating their time.
D. Results: compliment their client results, ask how clients see their own progress.

Output only the message text. No quotes, no JSON, no commentary.`

// BuildPrompt renders the per-lead user prompt. Empty profile fields are omitted.
func BuildPrompt(lead domain.Lead) string {
	facts := []string{
		"First name: " + lead.FirstName(),
		"Instagram: @" + strings.TrimPrefix(lead.InstagramHandle, "@"),
	}
	if bio := strings.TrimSpace(lead.Bio); bio != "" {
		facts = append(facts, "Bio: "+bio)
	}
	if lead.FollowerCount > 0 {
		facts = append(facts, "Followers: "+groupThousands(lead.FollowerCount))
	}
	if website := strings.TrimSpace(lead.Website); website != "" {
		facts = append(facts, "Website: "+website)
	}
	if category := strings.TrimSpace(lead.BusinessCategory); category != "" {
		facts = append(facts, "Business category: "+category)
	}
	business := "no"
	if lead.IsBusinessAccount {
		business = "yes"
	}
	facts = append(facts,
		"Business account: "+business,
		fmt.Sprintf("Lead score: %d/10", lead.Score),
	)

	var b strings.Builder
	b.WriteString("Write the first DM for this fitness coach.\n\nLead data:\n")
	for _, f := range facts {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("\nChoose the angle (A, B, C or D) that fits the data. A rich bio allows a specific message; a sparse one calls for a general but personal one.\n\nReturn only the DM text.")
	return b.String()
}

// CleanDraft strips wrapping quotes and code fences a model sometimes adds.
func CleanDraft(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.Trim(text, "`")
		// Drop a language tag on the opening fence.
		if i := strings.IndexByte(text, '\n'); i >= 0 && !strings.Contains(text[:i], " ") {
			text = text[i+1:]
		}
		text = strings.TrimSpace(text)
	}
	for _, q := range []string{`"`, "“", "'"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(text) >= len(q)+len(closing) && strings.HasPrefix(text, q) && strings.HasSuffix(text, closing) {
			text = strings.TrimSpace(text[len(q) : len(text)-len(closing)])
			break
		}
	}
	return text
}

func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
