package ambientcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	ambientcmder "github.com/emilwagman/Ambient-AI/cmd/ambient"
)

var _ = Describe("NewAmbientCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := ambientcmder.NewAmbientCmd()
		Expect(cmd.Use).To(Equal("ambient"))
	})

	It("registers every subcommand", func() {
		cmd := ambientcmder.NewAmbientCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "poll", "init", "memory", "config", "version"))
	})

	It("has global debug and config-dir flags", func() {
		cmd := ambientcmder.NewAmbientCmd()

		debug := cmd.PersistentFlags().Lookup("debug")
		Expect(debug).NotTo(BeNil())
		Expect(debug.Shorthand).To(Equal("d"))

		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version", func() {
		var out bytes.Buffer
		cmd := ambientcmder.NewAmbientCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: dev"))
		Expect(out.String()).To(ContainSubstring("Sha: HEAD"))
	})
})
