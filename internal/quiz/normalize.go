package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ambis/miniquiz/internal/countdown"
)

// ErrMalformed is returned when a payload has the wrong shape.
var ErrMalformed = errors.New("malformed quiz payload")

// object is a decoded JSON object with lookups that accept alternate keys.
type object map[string]json.RawMessage

func decodeObject(raw json.RawMessage) (object, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, false
	}
	return o, true
}

// isEmpty reports payloads that mean "nothing here".
func isEmpty(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]", `""`, "false":
		return true
	}
	return false
}

func (o object) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := o[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

// str returns the first present key as a string. Numbers are returned as
// their literal text, so numeric ids survive.
func (o object) str(keys ...string) string {
	v, ok := o.raw(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func (o object) number(keys ...string) *float64 {
	v, ok := o.raw(keys...)
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}

func (o object) integer(keys ...string) *int {
	f := o.number(keys...)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func (o object) instant(keys ...string) *time.Time {
	v, ok := o.raw(keys...)
	if !ok {
		return nil
	}
	t, err := countdown.ParseInstant(v)
	if err != nil {
		return nil
	}
	return &t
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// sessionObject finds the session document, which some deployments nest
// one level deeper under "session" or a second "data".
func sessionObject(raw json.RawMessage) (object, bool) {
	o, ok := decodeObject(raw)
	if !ok {
		return nil, false
	}
	for _, k := range []string{"session", "data"} {
		if inner, ok := o.raw(k); ok {
			if nested, ok := decodeObject(inner); ok {
				return nested, true
			}
		}
	}
	return o, true
}

// parseSession normalises a session payload. It returns (nil, nil) for an
// empty payload.
func parseSession(raw json.RawMessage) (*Session, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	o, ok := sessionObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: session is not an object", ErrMalformed)
	}
	if len(o) == 0 {
		return nil, nil
	}
	if err := checkSessionShape(o); err != nil {
		return nil, err
	}

	s := &Session{
		ID:          o.str("session_id", "sessionId", "id"),
		SubtestName: o.str("subtest_name", "subtestName", "name"),
		ExpiresAt:   o.instant("expires_at", "expiresAt", "expiresat"),
	}

	if qs, ok := o.raw("questions"); ok {
		var items []json.RawMessage
		if err := json.Unmarshal(qs, &items); err != nil {
			return nil, fmt.Errorf("%w: questions: %v", ErrMalformed, err)
		}
		for i, item := range items {
			q, err := parseQuestion(item, i)
			if err != nil {
				return nil, err
			}
			s.Questions = append(s.Questions, q)
		}
		if err := numberQuestions(s.Questions); err != nil {
			return nil, err
		}
		sort.SliceStable(s.Questions, func(i, j int) bool {
			return s.Questions[i].Number < s.Questions[j].Number
		})
	}

	if s.ID == "" && len(s.Questions) == 0 && s.ExpiresAt == nil {
		return nil, nil
	}
	return s, nil
}

func parseQuestion(raw json.RawMessage, index int) (Question, error) {
	o, ok := decodeObject(raw)
	if !ok {
		return Question{}, fmt.Errorf("%w: question %d is not an object", ErrMalformed, index)
	}

	q := Question{
		Text: o.str("question_text", "questionText", "text"),
	}
	// Zero means unnumbered; numberQuestions fills it in.
	if n := o.integer("question_number", "questionNumber", "number"); n != nil && *n > 0 {
		q.Number = *n
	}

	if opts, ok := o.raw("options"); ok {
		var items []json.RawMessage
		if err := json.Unmarshal(opts, &items); err != nil {
			return Question{}, fmt.Errorf("%w: question %d options: %v", ErrMalformed, index, err)
		}
		for _, it := range items {
			q.Options = append(q.Options, optionText(it))
		}
	}
	return q, nil
}

// numberQuestions makes question numbers unique. Two questions claiming the
// same number is malformed. An unnumbered question takes its 1-based
// position, or the next number above every number in use when its position
// is already claimed.
func numberQuestions(qs []Question) error {
	used := make(map[int]bool, len(qs))
	highest := 0
	for _, q := range qs {
		if q.Number == 0 {
			continue
		}
		if used[q.Number] {
			return fmt.Errorf("%w: duplicate question number %d", ErrMalformed, q.Number)
		}
		used[q.Number] = true
		highest = max(highest, q.Number)
	}
	for i := range qs {
		if qs[i].Number != 0 {
			continue
		}
		n := i + 1
		if used[n] {
			n = highest + 1
		}
		qs[i].Number = n
		used[n] = true
		highest = max(highest, n)
	}
	return nil
}

// optionText accepts a bare string or an object carrying the label.
func optionText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if o, ok := decodeObject(raw); ok {
		if t := o.str("text", "label", "value", "option"); t != "" {
			return t
		}
	}
	return strings.TrimSpace(string(raw))
}

// listItems accepts a bare array or an object holding one under "items",
// "results" or "data".
func listItems(raw json.RawMessage) ([]json.RawMessage, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return items, nil
	}
	o, ok := decodeObject(trimmed)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list", ErrMalformed)
	}
	for _, k := range []string{"items", "results", "data", "subtests", "history"} {
		if v, ok := o.raw(k); ok {
			return listItems(v)
		}
	}
	return nil, nil
}

func parseSubtest(raw json.RawMessage) (Subtest, bool) {
	o, ok := decodeObject(raw)
	if !ok {
		return Subtest{}, false
	}
	st := Subtest{
		ID:          o.str("subtest_id", "subtestId", "id"),
		Name:        o.str("name", "subtest_name", "subtestName", "title"),
		Description: o.str("description", "desc"),
	}
	if st.ID == "" {
		return Subtest{}, false
	}
	if st.Name == "" {
		st.Name = "Subtest " + st.ID
	}
	return st, true
}

func parseHistoryItem(raw json.RawMessage) (HistoryItem, bool) {
	o, ok := decodeObject(raw)
	if !ok {
		return HistoryItem{}, false
	}
	return HistoryItem{
		SessionID:   o.str("session_id", "sessionId", "id"),
		SubtestName: o.str("subtest_name", "subtestName", "name"),
		Score:       o.number("score", "result_score", "resultScore"),
		Timestamp:   o.instant("timestamp", "created_at", "createdAt", "completed_at", "completedAt"),
	}, true
}

func parseResult(raw json.RawMessage) (*Result, error) {
	if isEmpty(raw) {
		return nil, fmt.Errorf("%w: empty result", ErrMalformed)
	}
	o, ok := decodeObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: result is not an object", ErrMalformed)
	}
	doc := raw
	if inner, ok := o.raw("result"); ok {
		if nested, ok := decodeObject(inner); ok {
			o, doc = nested, inner
		}
	}

	return &Result{
		SessionID:              o.str("session_id", "sessionId", "id"),
		SubtestName:            o.str("subtest_name", "subtestName"),
		Score:                  o.number("score"),
		Percentage:             o.number("percentage"),
		TotalQuestions:         o.integer("total_questions", "totalQuestions"),
		CorrectAnswers:         o.integer("correct_answers", "correctAnswers"),
		TotalTimeSeconds:       o.number("total_time_seconds", "totalTimeSeconds"),
		AverageTimePerQuestion: o.number("average_time_per_question", "averageTimePerQuestion"),
		CompletedAt:            o.instant("completed_at", "completedAt"),
		CreatedAt:              o.instant("created_at", "createdAt"),
		Raw:                    append(json.RawMessage(nil), doc...),
	}, nil
}
