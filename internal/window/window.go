// Package window translates summarization requests into concrete selections
// of records from the message ledger.
package window

import (
	"errors"
	"time"

	"github.com/avolkov/digestbot/internal/store"
)

// Kind identifies the operation a command or the scheduler resolved to.
type Kind int

const (
	// KindSummary covers both the daily digest and the on-demand /summary.
	KindSummary Kind = iota
	// KindUserSummary is /summary issued as a reply, scoped to that sender.
	KindUserSummary
	// KindComment asks for commentary on the recent discussion.
	KindComment
	// KindProof fact-checks a single replied-to message.
	KindProof
	// KindGpt answers the question in a single replied-to message.
	KindGpt
	// KindAnalyze analyzes the image in a single replied-to message.
	KindAnalyze
)

// String returns the command-facing name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSummary:
		return "summary"
	case KindUserSummary:
		return "user_summary"
	case KindComment:
		return "comment"
	case KindProof:
		return "proof"
	case KindGpt:
		return "gpt"
	case KindAnalyze:
		return "analyze"
	default:
		return "unknown"
	}
}

// IsReplyScoped reports whether the kind operates on a single replied-to
// record instead of a time range.
func (k Kind) IsReplyScoped() bool {
	return k == KindProof || k == KindGpt || k == KindAnalyze
}

var (
	// ErrEmptyWindow signals a range query with zero matching records. It is
	// a distinct successful outcome, not a failure: callers reply "nothing to
	// report" instead of invoking the inference API with an empty prompt.
	ErrEmptyWindow = errors.New("no messages in the requested window")

	// ErrUnknownReplyTarget signals a reply-triggered command whose referenced
	// message is not in the ledger, typically because it predates the bot's
	// visibility or aged out of the retention window.
	ErrUnknownReplyTarget = errors.New("replied-to message is not in the observed history")
)

// Request is a normalized summarization request from the command dispatcher
// or the scheduler.
type Request struct {
	Kind     Kind
	ChatID   int64
	SenderID int64 // target user for KindUserSummary, 0 otherwise
	ReplyTo  int   // referenced message ID for reply-scoped kinds
}

// Selection is the resolved record subset handed to the prompt assembler.
type Selection struct {
	Kind    Kind
	Records []store.Message
	Since   time.Time
	Until   time.Time
}

// Evaluator resolves requests against the message ledger.
type Evaluator struct {
	log         *store.MessageLog
	summarySpan time.Duration
	commentSpan time.Duration
}

// NewEvaluator creates an evaluator. summarySpan defaults to the ledger's
// retention window and commentSpan to one hour when non-positive.
func NewEvaluator(log *store.MessageLog, summarySpan, commentSpan time.Duration) *Evaluator {
	if summarySpan <= 0 {
		summarySpan = log.Retention()
	}
	if commentSpan <= 0 {
		commentSpan = time.Hour
	}
	return &Evaluator{log: log, summarySpan: summarySpan, commentSpan: commentSpan}
}

// Resolve turns a request into a selection evaluated at the given instant.
// Range kinds query [now-span, now]; reply-scoped kinds bypass the window and
// fetch the single referenced record.
func (e *Evaluator) Resolve(req Request, now time.Time) (*Selection, error) {
	if req.Kind.IsReplyScoped() {
		msg, ok := e.log.FindByMessageID(req.ChatID, req.ReplyTo)
		if !ok {
			return nil, ErrUnknownReplyTarget
		}
		return &Selection{
			Kind:    req.Kind,
			Records: []store.Message{msg},
			Since:   msg.Timestamp,
			Until:   msg.Timestamp,
		}, nil
	}

	span := e.summarySpan
	if req.Kind == KindComment {
		span = e.commentSpan
	}
	since := now.Add(-span)

	records := e.log.Query(req.ChatID, since, now, req.SenderID)
	if len(records) == 0 {
		return nil, ErrEmptyWindow
	}

	return &Selection{Kind: req.Kind, Records: records, Since: since, Until: now}, nil
}
