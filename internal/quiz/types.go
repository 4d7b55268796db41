// Package quiz talks to the quiz endpoints and normalises their loosely
// shaped payloads into the types below.
package quiz

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Question is one item of a session. Number is unique within the session
// and orders both rendering and answer keys.
type Question struct {
	Number  int
	Text    string
	Options []string
}

// Session is a server-issued quiz attempt. The client never mutates it.
type Session struct {
	ID          string
	SubtestName string
	// ExpiresAt is nil when the server sent no parseable expiry.
	ExpiresAt *time.Time
	Questions []Question
}

// Question returns the question with the given number.
func (s *Session) Question(number int) (Question, bool) {
	for _, q := range s.Questions {
		if q.Number == number {
			return q, true
		}
	}
	return Question{}, false
}

// HasOption reports whether number is a question of s offering option.
func (s *Session) HasOption(number int, option string) bool {
	q, ok := s.Question(number)
	if !ok {
		return false
	}
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// AnswerSet maps question number to the chosen option. It is local to the
// client until submitted.
type AnswerSet map[int]string

// Select records option for question number, replacing any earlier choice.
func (a AnswerSet) Select(number int, option string) {
	a[number] = option
}

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Numbers returns the answered question numbers in ascending order.
func (a AnswerSet) Numbers() []int {
	nums := make([]int, 0, len(a))
	for n := range a {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// MarshalJSON encodes the set with decimal string keys, {"3":"C"}.
func (a AnswerSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(a))
	for k, v := range a {
		m[strconv.Itoa(k)] = v
	}
	return json.Marshal(m)
}

// Subtest is a quiz topic the user can start.
type Subtest struct {
	ID          string
	Name        string
	Description string
}

// HistoryItem is one completed attempt in the history list.
type HistoryItem struct {
	SessionID   string
	SubtestName string
	Score       *float64
	Timestamp   *time.Time
}

// Result is the scored outcome of one attempt. Every field but SessionID
// is optional on the wire.
type Result struct {
	SessionID              string
	SubtestName            string
	Score                  *float64
	Percentage             *float64
	TotalQuestions         *int
	CorrectAnswers         *int
	TotalTimeSeconds       *float64
	AverageTimePerQuestion *float64
	CompletedAt            *time.Time
	CreatedAt              *time.Time

	// Raw is the result document as received.
	Raw json.RawMessage
}
