package ledger

import (
	"fmt"
	"io"
	"strings"
)

const (
	bannerCharacterConstant       = "="
	bannerWidthConstant           = 80
	successesHeadingConstant      = "SUCCESSES"
	failuresHeadingConstant       = "FAILURES"
	successLinePrefixConstant     = "SUCCESS "
	failureLinePrefixConstant     = "FAILURE "
	summaryWriteErrorTemplate     = "unable to write migration summary: %w"
	summaryLineTerminatorConstant = "\n"
)

// Outcome distinguishes ledger entry categories.
type Outcome string

// Supported outcomes.
const (
	OutcomeSuccess Outcome = Outcome("success")
	OutcomeFailure Outcome = Outcome("failure")
)

// Entry is a single recorded message.
type Entry struct {
	Outcome Outcome
	Message string
}

// Ledger holds ordered success and failure messages.
// The zero value is ready to use.
type Ledger struct {
	entries []Entry
}

// Succeed returns a ledger extended with a success message.
func (ledger Ledger) Succeed(format string, arguments ...any) Ledger {
	return ledger.append(OutcomeSuccess, format, arguments...)
}

// Fail returns a ledger extended with a failure message.
func (ledger Ledger) Fail(format string, arguments ...any) Ledger {
	return ledger.append(OutcomeFailure, format, arguments...)
}

// Merge returns a ledger containing the receiver's entries followed by other's entries.
func (ledger Ledger) Merge(other Ledger) Ledger {
	merged := make([]Entry, 0, len(ledger.entries)+len(other.entries))
	merged = append(merged, ledger.entries...)
	merged = append(merged, other.entries...)
	return Ledger{entries: merged}
}

// Entries returns a copy of every recorded entry in insertion order.
func (ledger Ledger) Entries() []Entry {
	return append([]Entry(nil), ledger.entries...)
}

// Successes returns success messages in insertion order.
func (ledger Ledger) Successes() []string {
	return ledger.messages(OutcomeSuccess)
}

// Failures returns failure messages in insertion order.
func (ledger Ledger) Failures() []string {
	return ledger.messages(OutcomeFailure)
}

// HasFailures reports whether any failure was recorded.
func (ledger Ledger) HasFailures() bool {
	for _, entry := range ledger.entries {
		if entry.Outcome == OutcomeFailure {
			return true
		}
	}
	return false
}

// WriteSummary prints every success, then every failure, each section under a banner.
func (ledger Ledger) WriteSummary(writer io.Writer) error {
	banner := strings.Repeat(bannerCharacterConstant, bannerWidthConstant)

	var builder strings.Builder
	writeSection := func(heading string, prefix string, messages []string) {
		builder.WriteString(banner + summaryLineTerminatorConstant)
		builder.WriteString(heading + summaryLineTerminatorConstant)
		builder.WriteString(banner + summaryLineTerminatorConstant)
		for _, message := range messages {
			builder.WriteString(prefix + message + summaryLineTerminatorConstant)
		}
	}

	writeSection(successesHeadingConstant, successLinePrefixConstant, ledger.Successes())
	writeSection(failuresHeadingConstant, failureLinePrefixConstant, ledger.Failures())

	if _, writeError := io.WriteString(writer, builder.String()); writeError != nil {
		return fmt.Errorf(summaryWriteErrorTemplate, writeError)
	}
	return nil
}

func (ledger Ledger) append(outcome Outcome, format string, arguments ...any) Ledger {
	message := format
	if len(arguments) > 0 {
		message = fmt.Sprintf(format, arguments...)
	}
	extended := make([]Entry, len(ledger.entries), len(ledger.entries)+1)
	copy(extended, ledger.entries)
	extended = append(extended, Entry{Outcome: outcome, Message: message})
	return Ledger{entries: extended}
}

func (ledger Ledger) messages(outcome Outcome) []string {
	messages := make([]string, 0, len(ledger.entries))
	for _, entry := range ledger.entries {
		if entry.Outcome == outcome {
			messages = append(messages, entry.Message)
		}
	}
	return messages
}
