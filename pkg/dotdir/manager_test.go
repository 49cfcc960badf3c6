package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/emilwagman/Ambient-AI/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewManager", func() {
		It("creates a new manager", func() {
			Expect(m).ToNot(BeNil())
		})
	})

	Describe("Resolve", func() {
		chdir := func(dir string) {
			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(dir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })
		}

		It("reports an override and makes it absolute", func() {
			chdir(tmpDir)

			res, err := m.Resolve("custom")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Source).To(Equal(dotdir.SourceOverride))
			Expect(res.Dir).To(Equal(filepath.Join(tmpDir, "custom")))
			Expect(res.Dir).NotTo(BeADirectory())
		})

		It("reports a local directory", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, dotdir.Name), 0o755)).To(Succeed())
			chdir(tmpDir)

			res, err := m.Resolve("")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Source).To(Equal(dotdir.SourceLocal))
		})

		It("ignores a local .ambient file that is not a directory", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, dotdir.Name), nil, 0o644)).To(Succeed())
			chdir(tmpDir)
			origHome := os.Getenv("HOME")
			Expect(os.Setenv("HOME", filepath.Join(tmpDir, "home"))).To(Succeed())
			DeferCleanup(func() { os.Setenv("HOME", origHome) })

			res, err := m.Resolve("")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Source).To(Equal(dotdir.SourceHome))
			Expect(res.Dir).To(Equal(filepath.Join(tmpDir, "home", dotdir.Name)))
		})
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns existing directory without error", func() {
			result, err := m.Target(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(tmpDir))
		})

		It("returns the override dir even when a local .ambient dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".ambient"), 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .ambient dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".ambient")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("creates ~/.ambient when neither an override nor a local dir exists", func() {
			emptyDir := filepath.Join(tmpDir, "empty")
			Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(emptyDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			origHome := os.Getenv("HOME")
			Expect(os.Setenv("HOME", emptyDir)).To(Succeed())
			DeferCleanup(func() { os.Setenv("HOME", origHome) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(emptyDir, ".ambient")))
			Expect(filepath.Join(emptyDir, ".ambient")).To(BeADirectory())
		})
	})
})
