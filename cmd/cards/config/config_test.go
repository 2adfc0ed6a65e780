package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/cards/cmd/cards/config"
	"github.com/papercomputeco/cards/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has init, set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		subcommands := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("init", "set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}

		// keep a developer's ~/.cards out of the picture
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	Context("without a .cards directory", func() {
		It("refuses to set values", func() {
			err := run("set", "api.listen", ":9090")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("cards config init"))
		})

		It("lists defaults", func() {
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("No config file found"))
			Expect(out.String()).To(ContainSubstring(`vector_store.provider`))
			Expect(out.String()).To(ContainSubstring(`"memory"`))
		})

		It("initializes a preset config", func() {
			Expect(run("init", "--preset", "qdrant")).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, ".cards", "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			cfg, err := config.ParseConfigTOML(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))
		})

		It("rejects unknown presets", func() {
			Expect(run("init", "--preset", "mainframe")).NotTo(Succeed())
		})
	})

	Context("with a local .cards directory", func() {
		BeforeEach(func() {
			Expect(os.MkdirAll(filepath.Join(tmpDir, ".cards"), 0o755)).To(Succeed())
		})

		It("sets a config value", func() {
			Expect(run("set", "api.listen", ":9090")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, ".cards", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("gets a value that was set", func() {
			Expect(run("set", "embedding.model", "mxbai-embed-large")).To(Succeed())
			out.Reset()

			Expect(run("get", "embedding.model")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("mxbai-embed-large"))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).NotTo(Succeed())
			Expect(run("get", "invalid_key")).NotTo(Succeed())
		})

		It("requires exactly two arguments for set", func() {
			Expect(run("set", "api.listen")).NotTo(Succeed())
		})

		It("rejects non-numeric dimensions", func() {
			Expect(run("set", "embedding.dimensions", "wide")).NotTo(Succeed())
		})

		It("masks secrets in list and set output", func() {
			Expect(run("set", "auth.jwt_secret", "supersecretvalue")).To(Succeed())
			Expect(out.String()).NotTo(ContainSubstring("supersecretvalue"))

			out.Reset()
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("alue"))
			Expect(out.String()).NotTo(ContainSubstring("supersecretvalue"))
		})

		It("does not overwrite an existing config without --force", func() {
			Expect(run("set", "api.listen", ":9090")).To(Succeed())
			Expect(run("init")).NotTo(Succeed())
			Expect(run("init", "--force")).To(Succeed())

			out.Reset()
			Expect(run("get", "api.listen")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(":8080"))
		})
	})
})
