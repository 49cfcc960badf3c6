package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/telegram"
)

type recordingHandler struct {
	mu      sync.Mutex
	updates []telegram.Update
	err     error
}

func (r *recordingHandler) HandleUpdate(_ context.Context, u telegram.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return r.err
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}

var _ = Describe("Server", func() {
	var (
		store   *memory.Store
		updates *recordingHandler
		server  *Server
	)

	BeforeEach(func() {
		store = memory.NewStore(GinkgoT().TempDir())
		Expect(store.Initialize()).To(Succeed())
		updates = &recordingHandler{}

		var err error
		server, err = NewServer(Config{ListenAddr: ":0"}, store, updates, nil, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a store and a logger", func() {
		_, err := NewServer(Config{}, nil, nil, nil, logger.Nop())
		Expect(err).To(HaveOccurred())

		_, err = NewServer(Config{}, store, nil, nil, nil)
		Expect(err).To(HaveOccurred())
	})

	Describe("GET /health", func() {
		It("reports ok in webhook mode", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(readBody(resp)).To(MatchJSON(`{"status":"ok","mode":"webhook"}`))
		})
	})

	Describe("POST /telegram", func() {
		It("hands the update to the bot", func() {
			body := `{"update_id":9,"message":{"message_id":1,"from":{"id":42,"is_bot":false,"first_name":"Sam"},"chat":{"id":42,"type":"private"},"date":1,"text":"hi"}}`
			req := httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(readBody(resp)).To(Equal("ok"))

			Expect(updates.updates).To(HaveLen(1))
			Expect(updates.updates[0].Message.Text).To(Equal("hi"))
		})

		It("acknowledges an update whose handling failed so it is not redelivered", func() {
			updates.err = errors.New("sending reply: telegram down")
			req := httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader(`{"update_id":1}`))

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(readBody(resp)).To(Equal("ok"))
			Expect(updates.updates).To(HaveLen(1))
		})

		It("answers 500 for malformed bodies", func() {
			req := httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader(`not json`))

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(updates.updates).To(BeEmpty())
		})

		It("is not registered without an update handler", func() {
			s, err := NewServer(Config{Mode: "poll"}, store, nil, nil, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			resp, err := s.app.Test(httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader(`{}`)))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /memory", func() {
		It("lists every document", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/memory", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count     int                `json:"count"`
				Documents []DocumentResponse `json:"documents"`
			}
			Expect(json.Unmarshal([]byte(readBody(resp)), &body)).To(Succeed())
			Expect(body.Count).To(Equal(len(memory.Documents)))
			Expect(body.Documents[0].Name).To(Equal("identity.md"))
		})

		It("returns one document", func() {
			Expect(store.WriteDocument("queue.md", "- water the plants")).To(Succeed())

			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/memory/queue.md", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(readBody(resp)).To(MatchJSON(`{"name":"queue.md","content":"- water the plants"}`))
		})

		It("answers 404 for unknown documents", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/memory/secrets.md", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /journal", func() {
		It("defaults to a week", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/journal", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(readBody(resp)).To(MatchJSON(`{"days":7,"journal":"*No recent journal entries.*"}`))
		})

		It("returns appended entries", func() {
			_, err := store.AppendJournal("A calm day.")
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/journal?days=1", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(readBody(resp)).To(ContainSubstring("A calm day."))
		})

		It("rejects a bad day count", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/journal?days=zero", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /metrics", func() {
		It("serves prometheus metrics", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(readBody(resp)).To(ContainSubstring("go_goroutines"))
		})
	})
})
