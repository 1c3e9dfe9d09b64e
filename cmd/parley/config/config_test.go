package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/parley/cmd/parley/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "parley-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .parley dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".parley"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "llm.provider", "gemini"})
			err := cmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			// Verify the config file was created
			_, err = os.Stat(filepath.Join(tmpDir, ".parley", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "invalid_key", "value"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "llm.provider"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})

		It("rejects zero arguments", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "embedding.dimensions", "not-a-number"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			// First set a value
			setCmd := configcmder.NewConfigCmd()
			setCmd.SetArgs([]string{"set", "llm.provider", "gemini"})
			err := setCmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			// Then get it
			getCmd := configcmder.NewConfigCmd()
			getCmd.SetArgs([]string{"get", "llm.provider"})
			err = getCmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})

		It("runs without error for unset key", func() {
			getCmd := configcmder.NewConfigCmd()
			getCmd.SetArgs([]string{"get", "llm.provider"})
			err := getCmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"get", "invalid_key"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})

		It("prints every requested key", func() {
			setCmd := configcmder.NewConfigCmd()
			setCmd.SetArgs([]string{"set", "llm.model", "gemma3"})
			Expect(setCmd.Execute()).To(Succeed())

			out := &bytes.Buffer{}
			getCmd := configcmder.NewConfigCmd()
			getCmd.SetOut(out)
			getCmd.SetArgs([]string{"get", "llm.model", "agent.max_tool_rounds"})
			Expect(getCmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("gemma3"))
			Expect(out.String()).To(ContainSubstring("agent.max_tool_rounds"))
		})

		It("masks credentials unless asked", func() {
			setCmd := configcmder.NewConfigCmd()
			setCmd.SetOut(&bytes.Buffer{})
			setCmd.SetArgs([]string{"set", "llm.api_key", "sk-secret-value"})
			Expect(setCmd.Execute()).To(Succeed())

			out := &bytes.Buffer{}
			getCmd := configcmder.NewConfigCmd()
			getCmd.SetOut(out)
			getCmd.SetArgs([]string{"get", "llm.api_key"})
			Expect(getCmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("sk-s********"))
			Expect(out.String()).NotTo(ContainSubstring("sk-secret-value"))

			out.Reset()
			getCmd = configcmder.NewConfigCmd()
			getCmd.SetOut(out)
			getCmd.SetArgs([]string{"get", "llm.api_key", "--show-secrets"})
			Expect(getCmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("sk-secret-value"))
		})

		It("applies the environment with --resolved", func() {
			Expect(os.Setenv("PARLEY_LLM_PROVIDER", "ollama")).To(Succeed())
			DeferCleanup(os.Unsetenv, "PARLEY_LLM_PROVIDER")

			setCmd := configcmder.NewConfigCmd()
			setCmd.SetOut(&bytes.Buffer{})
			setCmd.SetArgs([]string{"set", "llm.provider", "gemini"})
			Expect(setCmd.Execute()).To(Succeed())

			out := &bytes.Buffer{}
			getCmd := configcmder.NewConfigCmd()
			getCmd.SetOut(out)
			getCmd.SetArgs([]string{"get", "llm.provider"})
			Expect(getCmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("gemini"))

			out.Reset()
			getCmd = configcmder.NewConfigCmd()
			getCmd.SetOut(out)
			getCmd.SetArgs([]string{"get", "llm.provider", "--resolved"})
			Expect(getCmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("ollama"))
			Expect(out.String()).NotTo(ContainSubstring("gemini"))
		})

		It("requires exactly one argument", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"get"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("runs without error when no config exists", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list"})
			err := cmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})

		It("runs without error when config has values", func() {
			// Set some values first
			setCmd := configcmder.NewConfigCmd()
			setCmd.SetArgs([]string{"set", "llm.provider", "gemini"})
			err := setCmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list"})
			err = cmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})

		It("groups keys under section headers", func() {
			out := &bytes.Buffer{}
			cmd := configcmder.NewConfigCmd()
			cmd.SetOut(out)
			cmd.SetArgs([]string{"list"})
			Expect(cmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("[storage]"))
			Expect(out.String()).To(ContainSubstring("[agent]"))
			Expect(out.String()).To(ContainSubstring("eventstream.topic"))
		})

		It("limits output to one section", func() {
			out := &bytes.Buffer{}
			cmd := configcmder.NewConfigCmd()
			cmd.SetOut(out)
			cmd.SetArgs([]string{"list", "--section", "agent"})
			Expect(cmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("agent.turn_timeout"))
			Expect(out.String()).NotTo(ContainSubstring("storage.provider"))
		})

		It("rejects an unknown section", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs([]string{"list", "--section", "nope"})
			Expect(cmd.Execute()).To(HaveOccurred())
		})

		It("rejects any arguments", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list", "extra"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})
})
