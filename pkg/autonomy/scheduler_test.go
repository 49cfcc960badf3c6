package autonomy_test

import (
	"context"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/emilwagman/Ambient-AI/pkg/autonomy"
	"github.com/emilwagman/Ambient-AI/pkg/eventstream"
	"github.com/emilwagman/Ambient-AI/pkg/llm"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
	testutils "github.com/emilwagman/Ambient-AI/pkg/utils/test"
)

const (
	messageDecision  = `{"should_message": true, "message_reason": "the demo is tomorrow", "journal_entry": null, "queue_updates": null, "reasoning": "time-sensitive"}`
	silentDecision   = `{"should_message": false, "journal_entry": "Quiet afternoon.", "queue_updates": "- check on the demo", "reasoning": "nothing urgent"}`
	composedOutreach = "Good luck with the demo tomorrow!"
)

var _ = Describe("Scheduler", func() {
	var (
		ctx       context.Context
		now       time.Time
		clock     func() time.Time
		store     *memory.Store
		completer *testutils.MockCompleter
		deliverer *testutils.MockDeliverer
		publisher *testutils.MockPublisher
		state     *autonomy.State
		cfg       autonomy.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
		clock = func() time.Time { return now }

		store = memory.NewStore(GinkgoT().TempDir())
		Expect(store.Initialize()).To(Succeed())

		completer = testutils.NewMockCompleter().
			Respond(llm.TierThinking, messageDecision).
			Respond(llm.TierChat, composedOutreach)
		deliverer = testutils.NewMockDeliverer()
		publisher = testutils.NewMockPublisher()
		state = autonomy.NewState(clock)

		cfg = autonomy.Config{
			Store:           store,
			Completer:       completer,
			Deliverer:       deliverer,
			State:           state,
			Recipients:      []int64{101, 202},
			Interval:        time.Hour,
			QuietHoursStart: 23,
			QuietHoursEnd:   8,
			Cooldown:        2 * time.Hour,
			MaxPerDay:       3,
			Publisher:       publisher,
			Now:             clock,
		}
	})

	newScheduler := func() *autonomy.Scheduler {
		s, err := autonomy.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	It("validates its config", func() {
		cfg.Store = nil
		_, err := autonomy.New(cfg)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-positive interval", func() {
		cfg.Interval = 0
		_, err := autonomy.New(cfg)
		Expect(err).To(HaveOccurred())
	})

	Context("during quiet hours", func() {
		It("makes no model calls at all", func() {
			now = time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)

			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeQuietHours))
			Expect(completer.Calls()).To(BeEmpty())
			Expect(deliverer.Attempts()).To(BeZero())
		})
	})

	Context("when the model wants to message", func() {
		It("composes and delivers to every recipient", func() {
			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeSent))

			Expect(completer.CallsFor(llm.TierThinking)).To(Equal(1))
			Expect(completer.CallsFor(llm.TierChat)).To(Equal(1))
			Expect(deliverer.TextsFor(101)).To(Equal([]string{composedOutreach}))
			Expect(deliverer.TextsFor(202)).To(Equal([]string{composedOutreach}))

			Expect(state.LastSend()).To(Equal(now))
			count, date := state.Quota()
			Expect(count).To(Equal(1))
			Expect(date).To(Equal("2026-10-16"))

			events := publisher.Events(eventstream.EventTypeOutreachSent)
			Expect(events).To(HaveLen(1))
			Expect(events[0].Outreach.Delivered).To(Equal(2))
		})

		It("passes the stated reason to the compose call", func() {
			newScheduler().RunCycle(ctx)

			var compose llm.Request
			for _, c := range completer.Calls() {
				if c.Tier == llm.TierChat {
					compose = c
				}
			}
			Expect(compose.System).To(ContainSubstring("the demo is tomorrow"))
			Expect(compose.MaxTokens).To(Equal(llm.OutreachMaxTokens))
		})

		It("reports the never-sent sentinel to the thinking call", func() {
			newScheduler().RunCycle(ctx)

			calls := completer.Calls()
			Expect(calls[0].Tier).To(Equal(llm.TierThinking))
			Expect(calls[0].Messages[0].Content).To(ContainSubstring("999.0"))
		})

		It("suppresses outreach during the cooldown", func() {
			now = now.Add(-30 * time.Minute)
			state.RecordReply()
			now = now.Add(30 * time.Minute)

			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeCooldown))
			Expect(completer.CallsFor(llm.TierThinking)).To(Equal(1))
			Expect(completer.CallsFor(llm.TierChat)).To(BeZero())
			Expect(deliverer.Attempts()).To(BeZero())
		})

		It("suppresses outreach once the daily quota is used", func() {
			cfg.MaxPerDay = 2
			cfg.Cooldown = 0
			s := newScheduler()

			Expect(s.RunCycle(ctx)).To(Equal(autonomy.OutcomeSent))
			Expect(s.RunCycle(ctx)).To(Equal(autonomy.OutcomeSent))
			Expect(s.RunCycle(ctx)).To(Equal(autonomy.OutcomeQuota))
			Expect(completer.CallsFor(llm.TierChat)).To(Equal(2))
		})

		It("sends again after the date rolls over", func() {
			cfg.MaxPerDay = 1
			cfg.Cooldown = 0
			s := newScheduler()

			Expect(s.RunCycle(ctx)).To(Equal(autonomy.OutcomeSent))
			Expect(s.RunCycle(ctx)).To(Equal(autonomy.OutcomeQuota))

			now = now.Add(20 * time.Hour)
			Expect(s.RunCycle(ctx)).To(Equal(autonomy.OutcomeSent))
		})

		It("isolates a failing recipient", func() {
			deliverer.FailFor[101] = true

			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeSent))
			Expect(deliverer.TextsFor(202)).To(Equal([]string{composedOutreach}))

			count, _ := state.Quota()
			Expect(count).To(Equal(1))
		})

		It("leaves the state untouched when every delivery fails", func() {
			deliverer.FailFor[101] = true
			deliverer.FailFor[202] = true

			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeDeliveryFailed))
			Expect(state.LastSend().IsZero()).To(BeTrue())
			count, _ := state.Quota()
			Expect(count).To(BeZero())
		})

		It("does not compose without recipients", func() {
			cfg.Recipients = nil

			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeNoRecipients))
			Expect(completer.CallsFor(llm.TierChat)).To(BeZero())
		})

		It("ends the cycle when composition fails", func() {
			completer.Fail(llm.TierChat, llm.ErrModelUnavailable)

			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeError))
			Expect(deliverer.Attempts()).To(BeZero())
			Expect(state.LastSend().IsZero()).To(BeTrue())
		})
	})

	Context("when the model does not want to message", func() {
		BeforeEach(func() {
			completer.Respond(llm.TierThinking, silentDecision)
		})

		It("still applies the journal and queue side effects", func() {
			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeNoMessage))

			queue, err := store.ReadDocument("queue.md")
			Expect(err).NotTo(HaveOccurred())
			Expect(queue).To(Equal("- check on the demo"))

			journal, err := store.RecentJournal(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(journal).To(ContainSubstring("Quiet afternoon."))

			Expect(publisher.Events(eventstream.EventTypeJournalAppended)).To(HaveLen(1))
			Expect(completer.CallsFor(llm.TierChat)).To(BeZero())
		})
	})

	Context("when the thinking step fails", func() {
		It("treats an unparseable decision as a no-op", func() {
			completer.Respond(llm.TierThinking, "maybe later")

			before, err := store.Snapshot()
			Expect(err).NotTo(HaveOccurred())

			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeParseFailure))
			Expect(completer.CallsFor(llm.TierChat)).To(BeZero())

			after, err := store.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
		})

		It("ends the cycle on a model error", func() {
			completer.Fail(llm.TierThinking, llm.ErrRateLimited)
			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeError))
		})

		It("recovers from a panic", func() {
			completer.PanicOn = llm.TierThinking

			var outcome autonomy.Outcome
			Expect(func() { outcome = newScheduler().RunCycle(ctx) }).NotTo(Panic())
			Expect(outcome).To(Equal(autonomy.OutcomeError))
		})

		It("ends the cycle when the journal cannot be written", func() {
			completer.Respond(llm.TierThinking, silentDecision)
			Expect(os.RemoveAll(store.JournalDir())).To(Succeed())
			Expect(os.WriteFile(store.JournalDir(), []byte("not a dir"), 0o600)).To(Succeed())

			Expect(newScheduler().RunCycle(ctx)).To(Equal(autonomy.OutcomeError))

			queue, err := store.ReadDocument("queue.md")
			Expect(err).NotTo(HaveOccurred())
			Expect(queue).To(Equal(memory.Template(memory.Queue)))
		})
	})

	Describe("Run", func() {
		It("fires cycles on the interval until cancelled", func() {
			cfg.Interval = 20 * time.Millisecond
			completer.Respond(llm.TierThinking, `{"should_message": false}`)
			s := newScheduler()

			runCtx, cancel := context.WithCancel(ctx)
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				Expect(s.Run(runCtx)).To(Succeed())
			}()

			Eventually(func() int { return completer.CallsFor(llm.TierThinking) }).Should(BeNumerically(">=", 2))
			cancel()
			wg.Wait()
		})

		It("waits one interval before the first cycle", func() {
			cfg.Interval = time.Hour
			s := newScheduler()

			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				_ = s.Run(runCtx)
			}()

			Consistently(func() int { return len(completer.Calls()) }, 100*time.Millisecond).Should(BeZero())
			cancel()
			Eventually(done).Should(BeClosed())
		})
	})
})
