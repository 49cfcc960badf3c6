package mcp

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
)

var _ = Describe("MCP Server", func() {
	var (
		store  *memory.Store
		server *Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore(GinkgoT().TempDir())
		Expect(store.Initialize()).To(Succeed())

		var err error
		server, err = NewServer(Config{Store: store, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the store is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("memory store is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Store: store})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates an empty server in noop mode", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("memory_read", func() {
		It("reads every document by default", func() {
			result, output, err := server.handleMemoryRead(ctx, &mcp.CallToolRequest{}, MemoryReadInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Documents).To(HaveLen(len(memory.Documents)))
			Expect(output.Documents[0].Name).To(Equal("identity.md"))
		})

		It("reads one document", func() {
			Expect(store.WriteDocument("queue.md", "- call the bank")).To(Succeed())

			_, output, err := server.handleMemoryRead(ctx, &mcp.CallToolRequest{}, MemoryReadInput{Document: "queue.md"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Documents).To(Equal([]MemoryDocument{{Name: "queue.md", Content: "- call the bank"}}))
		})

		It("reports unknown documents as tool errors", func() {
			result, _, err := server.handleMemoryRead(ctx, &mcp.CallToolRequest{}, MemoryReadInput{Document: "passwords.md"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("journal_recent", func() {
		It("returns the sentinel for an empty journal", func() {
			_, output, err := server.handleJournalRecent(ctx, &mcp.CallToolRequest{}, JournalRecentInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Days).To(Equal(defaultJournalDays))
			Expect(output.Journal).To(Equal(memory.NoJournalEntries))
		})

		It("returns recent entries", func() {
			_, err := store.AppendJournal("Thinking about the week.")
			Expect(err).NotTo(HaveOccurred())

			_, output, err := server.handleJournalRecent(ctx, &mcp.CallToolRequest{}, JournalRecentInput{Days: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Journal).To(ContainSubstring("Thinking about the week."))
		})
	})
})
