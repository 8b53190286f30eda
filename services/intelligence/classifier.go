package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"meetwise/utils"

	"go.uber.org/zap"
)

const intentAnalysisPrompt = `You are a scheduling assistant analyzing user intent for a meeting-booking conversation.

Current state:
- Duration: %s
- Date: %s
- Time preference: %s
- Title: %s
- Ready to book: %t
- Confirmed: %t
- Cancelled: %t
- Cancelled parameters: %s

User's calendar (upcoming events):
%s

Conversation history:
%s

User's latest message: "%s"

Decide the user's intent and what should change. Intent is one of:
new_request (fresh booking), modify (change some fields, keep others),
confirm (agreeing to a suggested slot), reject (wants alternatives),
cancel (abort the current request).

Rules:
- Broad availability phrases ("I'm free next week") mean a multi-day search:
  set constraints.multi_day_search=true and constraints.date_range, and do
  NOT list "date" in missing_info.
- Narrow but vague phrases ("late next week") need clarification: set
  date.new_value="AMBIGUOUS" and include "date" in missing_info.
- "N hours after my last meeting" sets buffer_after_last_meeting in minutes;
  "N minutes before my first meeting" sets buffer_before_next_meeting.
- After a cancellation, "actually let's do it" means restore: use
  action="restore" for fields the user wants back.
- Never ask for information already collected.

Respond with ONLY this JSON, no prose:
{"intent":"...","reasoning":"...","modifications":{"duration":{"action":"change|keep|restore","new_value":"...","mentioned_text":"..."},"date":{...},"time":{...},"title":{...}},"missing_info":["duration"|"date"|"time"],"constraints":{"negative_days":["wednesday"],"earliest_time":"10:00","latest_time":"","multi_day_search":false,"date_range":""},"buffer_after_last_meeting":null,"buffer_before_next_meeting":null}`

// GeminiClassifier asks Gemini to classify the message and parses its JSON
// verdict.
type GeminiClassifier struct {
	client *GeminiClient
}

func NewGeminiClassifier(client *GeminiClient) *GeminiClassifier {
	return &GeminiClassifier{client: client}
}

func (c *GeminiClassifier) Analyze(ctx context.Context, snap Snapshot) (*IntentAnalysis, error) {
	prompt := fmt.Sprintf(intentAnalysisPrompt,
		orNotSet(snap.Duration),
		orNotSet(snap.Date),
		orNotSet(snap.TimePreference),
		orNotSet(snap.Title),
		snap.ReadyToBook,
		snap.Confirmed,
		snap.Cancelled,
		orNotSet(snap.CancelledParams),
		orNotSet(snap.CalendarContext),
		orNotSet(snap.ConversationHistory),
		snap.Message,
	)

	raw, err := c.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("intent analysis failed: %w", err)
	}

	analysis, err := parseIntentJSON(raw)
	if err != nil {
		utils.GetLogger().Warn("Failed to parse intent analysis response",
			zap.Error(err), zap.String("response", raw))
		return nil, err
	}
	return analysis, nil
}

// parseIntentJSON decodes the model's reply, tolerating markdown code fences.
func parseIntentJSON(raw string) (*IntentAnalysis, error) {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var analysis IntentAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode intent JSON: %w", err)
	}
	if analysis.Intent == "" {
		return nil, fmt.Errorf("intent analysis missing intent field")
	}
	return &analysis, nil
}

func orNotSet(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

// FallbackClassifier tries the primary classifier and falls back to a
// deterministic one when it errors, so the flow keeps working without the
// model.
type FallbackClassifier struct {
	Primary  Classifier
	Fallback Classifier
}

func (f *FallbackClassifier) Analyze(ctx context.Context, snap Snapshot) (*IntentAnalysis, error) {
	analysis, err := f.Primary.Analyze(ctx, snap)
	if err == nil {
		return analysis, nil
	}
	utils.GetLogger().Warn("Primary classifier failed, using local fallback", zap.Error(err))
	return f.Fallback.Analyze(ctx, snap)
}
