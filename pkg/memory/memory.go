// Package memory is the durable document store behind the agent.
//
// Five named markdown documents hold long-term memory and a journal directory
// holds one markdown file per UTC date. Every write, including journal
// appends, goes through an atomic replace: the new content is written to a
// temporary file in the target's directory and renamed over the target, so a
// reader never sees a torn document and a crash mid-write leaves the previous
// version in place.
//
// On disk:
//
//	<root>/memory/identity.md
//	<root>/memory/user_context.md
//	<root>/memory/conversation_summary.md
//	<root>/memory/active_threads.md
//	<root>/memory/queue.md
//	<root>/workspace/journal/2006-01-02.md
//	<root>/workspace/drafts/
package memory

import "errors"

// Document names one of the fixed memory documents. The value is also the
// file name under <root>/memory.
type Document string

const (
	Identity            Document = "identity.md"
	UserContext         Document = "user_context.md"
	ConversationSummary Document = "conversation_summary.md"
	ActiveThreads       Document = "active_threads.md"
	Queue               Document = "queue.md"
)

// Documents lists every memory document in context order.
var Documents = []Document{
	Identity,
	UserContext,
	ConversationSummary,
	ActiveThreads,
	Queue,
}

// lightweightDocuments is the subset loaded for frequent, cheap model calls.
var lightweightDocuments = []Document{
	Identity,
	ActiveThreads,
	Queue,
}

// ContextSeparator joins documents in loaded context.
const ContextSeparator = "\n\n---\n\n"

// NoJournalEntries is returned by RecentJournal when the window is empty.
const NoJournalEntries = "*No recent journal entries.*"

var (
	// ErrUnknownDocument is returned for names outside the fixed document set.
	ErrUnknownDocument = errors.New("unknown memory document")

	// ErrLocked is returned when another process holds the data directory.
	ErrLocked = errors.New("data directory is locked by another process")
)

// ParseDocument validates name against the fixed document set.
func ParseDocument(name string) (Document, error) {
	for _, d := range Documents {
		if string(d) == name {
			return d, nil
		}
	}
	return "", ErrUnknownDocument
}

var templates = map[Document]string{
	Identity: `# Identity

I am an ambient companion. My memory documents carry me from one conversation
to the next. I try to be useful, thoughtful and honest, I remember what matters
to the person I talk with, and I use quiet periods to think on my own. Now and
then I reach out when I have something worth saying.

## Values
- Be direct and genuine rather than performatively cheerful
- Build on earlier conversations without making a show of it
- Reach out unprompted only when it adds real value
- Respect quiet time and boundaries
`,
	UserContext: `# User Context

*Nothing learned yet. Details about the user will collect here over time.*
`,
	ConversationSummary: `# Conversation Summaries

*No conversations yet. Recent conversations will be summarized here.*
`,
	ActiveThreads: `# Active Threads

*No active threads yet. Ongoing projects and topics will be tracked here.*
`,
	Queue: `# Queue

## Follow-ups

*Nothing queued yet.*

## Reminders

*No reminders set.*

## Ideas

*No ideas captured yet.*
`,
}

// Template returns the seed content for d.
func Template(d Document) string {
	return templates[d]
}
