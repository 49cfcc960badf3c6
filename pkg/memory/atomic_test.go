package memory

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("atomic replace", func() {
	var store *Store

	BeforeEach(func() {
		store = NewStore(GinkgoT().TempDir())
		Expect(store.Initialize()).To(Succeed())
		Expect(store.WriteDocument("user_context.md", "before")).To(Succeed())
	})

	AfterEach(func() {
		rename = os.Rename
	})

	It("keeps the previous version when the process dies before rename", func() {
		crash := errors.New("killed")
		rename = func(string, string) error { return crash }

		err := store.WriteDocument("user_context.md", "after, but much longer than before")
		Expect(errors.Is(err, crash)).To(BeTrue())

		got, err := store.ReadDocument("user_context.md")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("before"))
	})

	It("cleans up the temp file after a failed rename", func() {
		rename = func(string, string) error { return errors.New("killed") }

		Expect(store.WriteDocument("user_context.md", "after")).NotTo(Succeed())

		matches, err := filepath.Glob(filepath.Join(store.MemoryDir(), "*.tmp"))
		Expect(err).NotTo(HaveOccurred())
		hidden, err := filepath.Glob(filepath.Join(store.MemoryDir(), ".*.tmp"))
		Expect(err).NotTo(HaveOccurred())
		Expect(append(matches, hidden...)).To(BeEmpty())
	})

	It("recovers from a temp file orphaned by a hard kill", func() {
		orphan := filepath.Join(store.MemoryDir(), ".user_context.md.999.tmp")
		Expect(os.WriteFile(orphan, []byte("aft"), 0o600)).To(Succeed())

		Expect(store.Initialize()).To(Succeed())

		got, err := store.ReadDocument("user_context.md")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("before"))
		Expect(orphan).NotTo(BeAnExistingFile())
	})

	It("treats leading-dot tmp files as temp", func() {
		Expect(isTempName(".queue.md.123.tmp")).To(BeTrue())
		Expect(isTempName("queue.md")).To(BeFalse())
	})
})
