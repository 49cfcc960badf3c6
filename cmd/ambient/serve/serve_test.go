package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/emilwagman/Ambient-AI/cmd/ambient/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("registers the shared run flags and the webhook url", func() {
		cmd := servecmder.NewServeCmd()
		for _, name := range []string{"webhook-url", "data-dir", "listen", "allowed-users", "interval", "max-per-day", "eventstream", "kafka-brokers"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("takes its defaults from the config registry", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8080"))
		Expect(cmd.Flags().Lookup("interval").DefValue).To(Equal("60"))
		Expect(cmd.Flags().Lookup("max-per-day").DefValue).To(Equal("3"))
	})

	It("mirrors logs to a file only on request", func() {
		cmd := servecmder.NewServeCmd()
		f := cmd.Flags().Lookup("log-file")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(BeEmpty())
	})

	It("rejects arguments", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = Describe("WebhookEndpoint", func() {
	It("appends the update route to the public base url", func() {
		Expect(servecmder.WebhookEndpoint("https://agent.example.com")).To(Equal("https://agent.example.com/telegram"))
	})

	It("tolerates a trailing slash and surrounding space", func() {
		Expect(servecmder.WebhookEndpoint(" https://agent.example.com/ ")).To(Equal("https://agent.example.com/telegram"))
	})

	It("requires a url", func() {
		_, err := servecmder.WebhookEndpoint("")
		Expect(err).To(MatchError(ContainSubstring("ambient poll")))
	})

	It("requires an http scheme", func() {
		_, err := servecmder.WebhookEndpoint("agent.example.com")
		Expect(err).To(HaveOccurred())
	})
})
