package pollcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	pollcmder "github.com/emilwagman/Ambient-AI/cmd/ambient/poll"
)

var _ = Describe("NewPollCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := pollcmder.NewPollCmd()
		Expect(cmd.Use).To(Equal("poll"))
	})

	It("does not take a webhook url", func() {
		cmd := pollcmder.NewPollCmd()
		Expect(cmd.Flags().Lookup("webhook-url")).To(BeNil())
		Expect(cmd.Flags().Lookup("data-dir")).NotTo(BeNil())
	})

	It("serves the api only on request", func() {
		cmd := pollcmder.NewPollCmd()
		f := cmd.Flags().Lookup("api")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("false"))
	})

	It("mirrors logs to a file only on request", func() {
		cmd := pollcmder.NewPollCmd()
		f := cmd.Flags().Lookup("log-file")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(BeEmpty())
	})
})
