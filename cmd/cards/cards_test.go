package cardscmder_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	cardscmder "github.com/papercomputeco/cards/cmd/cards"
	"github.com/papercomputeco/cards/pkg/auth"
	"github.com/papercomputeco/cards/pkg/utils"
)

var _ = Describe("NewCardsCmd", func() {
	It("wires every subcommand", func() {
		cmd := cardscmder.NewCardsCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"serve", "create", "search", "get", "vote", "token", "config", "version",
		))
	})

	It("registers the global flags", func() {
		cmd := cardscmder.NewCardsCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().ShorthandLookup("d")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version", func() {
		out := &bytes.Buffer{}
		cmd := cardscmder.NewCardsCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{"version"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: " + utils.Version))
	})

	It("passes --config-dir through to config subcommands", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "custom")
		out := &bytes.Buffer{}

		cmd := cardscmder.NewCardsCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{"config", "init", "--config-dir", dir, "--preset", "local"})
		Expect(cmd.Execute()).To(Succeed())

		_, err := os.Stat(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires topic and side when creating", func() {
		cmd := cardscmder.NewCardsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"create", "some evidence"})
		Expect(cmd.Execute()).NotTo(Succeed())
	})

	It("issues tokens the API accepts", func() {
		GinkgoT().Setenv("CARDS_AUTH_JWT_SECRET", "s3cret")
		out := &bytes.Buffer{}

		cmd := cardscmder.NewCardsCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{"token", "alice", "--config-dir", GinkgoT().TempDir()})
		Expect(cmd.Execute()).To(Succeed())

		owner, err := auth.NewValidator("s3cret").OwnerFromHeader("Bearer " + strings.TrimSpace(out.String()))
		Expect(err).NotTo(HaveOccurred())
		Expect(owner).To(Equal("alice"))
	})

	It("refuses to issue tokens without a secret", func() {
		GinkgoT().Setenv("CARDS_AUTH_JWT_SECRET", "")

		cmd := cardscmder.NewCardsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"token", "alice", "--config-dir", GinkgoT().TempDir()})
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("auth.jwt_secret")))
	})
})
