package bot_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/emilwagman/Ambient-AI/pkg/autonomy"
	"github.com/emilwagman/Ambient-AI/pkg/bot"
	"github.com/emilwagman/Ambient-AI/pkg/consolidate"
	"github.com/emilwagman/Ambient-AI/pkg/llm"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/session"
	"github.com/emilwagman/Ambient-AI/pkg/telegram"
	testutils "github.com/emilwagman/Ambient-AI/pkg/utils/test"
)

const userID int64 = 42

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func textUpdate(from int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 1,
			From:      &telegram.User{ID: from, FirstName: "Sam"},
			Chat:      telegram.Chat{ID: from, Type: "private"},
			Text:      text,
		},
	}
}

var _ = Describe("Bot", func() {
	var (
		ctx       context.Context
		clk       *clock
		store     *memory.Store
		completer *testutils.MockCompleter
		deliverer *testutils.MockDeliverer
		engine    *consolidate.Engine
		state     *autonomy.State
		tracker   *session.Tracker
		cfg       bot.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		clk = &clock{now: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)}

		store = memory.NewStore(GinkgoT().TempDir())
		Expect(store.Initialize()).To(Succeed())

		completer = testutils.NewMockCompleter().
			Respond(llm.TierChat, "Nice to hear from you.").
			Respond(llm.TierSynthesis, `{"updates":{"active_threads.md":"- chatting"},"reasoning":"r"}`)
		deliverer = testutils.NewMockDeliverer()

		var err error
		engine, err = consolidate.New(consolidate.Config{Store: store, Completer: completer})
		Expect(err).NotTo(HaveOccurred())

		state = autonomy.NewState(clk.Now)
		tracker = session.NewTracker(clk.Now)

		cfg = bot.Config{
			Store:              store,
			Completer:          completer,
			Consolidator:       engine,
			Deliverer:          deliverer,
			State:              state,
			Sessions:           tracker,
			AllowedUserIDs:     []int64{userID},
			SessionTimeout:     30 * time.Minute,
			SynthesisThreshold: 10,
		}
	})

	newBot := func() *bot.Bot {
		b, err := bot.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		return b
	}

	It("requires its collaborators", func() {
		cfg.Consolidator = nil
		_, err := bot.New(cfg)
		Expect(err).To(HaveOccurred())
	})

	Describe("authorization", func() {
		It("ignores users outside the allow-list", func() {
			Expect(newBot().HandleUpdate(ctx, textUpdate(7, "hello"))).To(Succeed())
			Expect(completer.Calls()).To(BeEmpty())
			Expect(deliverer.Attempts()).To(BeZero())
		})

		It("admits everyone with an empty allow-list", func() {
			cfg.AllowedUserIDs = nil
			b := newBot()
			Expect(b.IsAuthorized(7)).To(BeTrue())
			Expect(b.HandleUpdate(ctx, textUpdate(7, "hello"))).To(Succeed())
			Expect(deliverer.TextsFor(7)).To(Equal([]string{"Nice to hear from you."}))
		})

		It("ignores updates without text", func() {
			Expect(newBot().HandleUpdate(ctx, telegram.Update{UpdateID: 3})).To(Succeed())
			Expect(deliverer.Attempts()).To(BeZero())
		})
	})

	Describe("commands", func() {
		It("welcomes on /start", func() {
			Expect(newBot().HandleUpdate(ctx, textUpdate(userID, "/start"))).To(Succeed())
			Expect(deliverer.TextsFor(userID)).To(Equal([]string{bot.WelcomeText}))
		})

		It("previews memory on /memory", func() {
			Expect(newBot().HandleUpdate(ctx, textUpdate(userID, "/memory@ambientbot"))).To(Succeed())
			texts := deliverer.TextsFor(userID)
			Expect(texts).NotTo(BeEmpty())
			Expect(texts[0]).To(ContainSubstring("identity.md"))
			Expect(completer.Calls()).To(BeEmpty())
		})

		It("clears the session on /forget", func() {
			b := newBot()
			Expect(b.HandleUpdate(ctx, textUpdate(userID, "remember this"))).To(Succeed())
			Expect(tracker.Get(userID).Len()).To(Equal(2))

			Expect(b.HandleUpdate(ctx, textUpdate(userID, "/forget"))).To(Succeed())
			Expect(tracker.Get(userID).Len()).To(BeZero())
			Expect(deliverer.TextsFor(userID)).To(ContainElement(bot.ForgetReply))
		})

		It("ignores unknown commands", func() {
			Expect(newBot().HandleUpdate(ctx, textUpdate(userID, "/dance"))).To(Succeed())
			Expect(deliverer.Attempts()).To(BeZero())
		})
	})

	Describe("chat", func() {
		It("replies with the model's answer and records the turns", func() {
			Expect(newBot().HandleUpdate(ctx, textUpdate(userID, "hi there"))).To(Succeed())

			Expect(deliverer.TextsFor(userID)).To(Equal([]string{"Nice to hear from you."}))
			Expect(tracker.Get(userID).Turns()).To(Equal([]session.Turn{
				{Role: session.RoleUser, Text: "hi there"},
				{Role: session.RoleAssistant, Text: "Nice to hear from you."},
			}))
			Expect(state.LastSend()).To(Equal(clk.Now()))
		})

		It("sends memory and history to the chat tier", func() {
			Expect(newBot().HandleUpdate(ctx, textUpdate(userID, "hi there"))).To(Succeed())

			calls := completer.Calls()
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Tier).To(Equal(llm.TierChat))
			Expect(calls[0].MaxTokens).To(Equal(llm.ChatMaxTokens))
			Expect(calls[0].System).To(ContainSubstring(memory.Template(memory.Identity)))
			Expect(calls[0].Messages).To(Equal([]llm.Message{{Role: llm.RoleUser, Content: "hi there"}}))
		})

		It("falls back to a fixed apology when the model fails", func() {
			completer.Fail(llm.TierChat, llm.ErrModelUnavailable)

			Expect(newBot().HandleUpdate(ctx, textUpdate(userID, "hi"))).To(Succeed())
			Expect(deliverer.TextsFor(userID)).To(Equal([]string{bot.FallbackReply}))
		})

		It("returns delivery failures without touching the cooldown", func() {
			deliverer.FailFor[userID] = true

			Expect(newBot().HandleUpdate(ctx, textUpdate(userID, "hi"))).NotTo(Succeed())
			Expect(state.LastSend().IsZero()).To(BeTrue())
		})
	})

	Describe("consolidation", func() {
		It("consolidates and clears an expired session before the new message", func() {
			b := newBot()
			Expect(b.HandleUpdate(ctx, textUpdate(userID, "first visit"))).To(Succeed())

			clk.Advance(31 * time.Minute)
			Expect(b.HandleUpdate(ctx, textUpdate(userID, "back again"))).To(Succeed())

			calls := completer.Calls()
			Expect(calls).To(HaveLen(3))
			Expect(calls[1].Tier).To(Equal(llm.TierSynthesis))
			Expect(calls[1].Messages[0].Content).To(ContainSubstring("first visit"))
			Expect(calls[1].Messages[0].Content).NotTo(ContainSubstring("back again"))

			turns := tracker.Get(userID).Turns()
			Expect(turns).To(HaveLen(2))
			Expect(turns[0].Text).To(Equal("back again"))

			content, err := store.ReadDocument("active_threads.md")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("- chatting"))
		})

		It("does not consolidate a session that is still fresh", func() {
			b := newBot()
			Expect(b.HandleUpdate(ctx, textUpdate(userID, "one"))).To(Succeed())
			clk.Advance(29 * time.Minute)
			Expect(b.HandleUpdate(ctx, textUpdate(userID, "two"))).To(Succeed())

			Expect(completer.CallsFor(llm.TierSynthesis)).To(BeZero())
		})

		It("consolidates in the background at the turn threshold and keeps history", func() {
			cfg.SynthesisThreshold = 4
			b := newBot()

			Expect(b.HandleUpdate(ctx, textUpdate(userID, "one"))).To(Succeed())
			Expect(completer.CallsFor(llm.TierSynthesis)).To(BeZero())

			Expect(b.HandleUpdate(ctx, textUpdate(userID, "two"))).To(Succeed())
			engine.Wait()

			Expect(completer.CallsFor(llm.TierSynthesis)).To(Equal(1))
			sess := tracker.Get(userID)
			Expect(sess.Len()).To(Equal(4))
			Expect(sess.Counter()).To(BeZero())
		})
	})

	Describe("Greet", func() {
		It("greets every allowed user and isolates failures", func() {
			cfg.AllowedUserIDs = []int64{1, 2}
			deliverer.FailFor[1] = true

			Expect(newBot().Greet(ctx)).To(Equal(1))
			Expect(deliverer.TextsFor(2)).To(Equal([]string{bot.StartupGreeting}))
		})
	})
})
