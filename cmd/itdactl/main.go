package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/parksyoung/It-Da-sub000/internal/client"
	"github.com/parksyoung/It-Da-sub000/internal/model"
)

var (
	apiFlag     string
	ownerFlag   string
	adminFlag   string
	langFlag    string
	debugFlag   bool
	timeoutFlag time.Duration
	rootCmd     = &cobra.Command{
		Use:          "itdactl",
		Short:        "CLI client for the It-Da relationship analysis API",
		SilenceUsage: true,
	}
)

func newClient() (*client.Client, error) {
	return client.New(apiFlag,
		client.WithOwner(ownerFlag),
		client.WithAdminToken(adminFlag),
		client.WithLanguage(model.ParseLanguage(langFlag, model.LangKorean)),
		client.WithTimeout(timeoutFlag),
		client.WithDebugLogging(debugFlag),
	)
}

// withClient adapts a run function to cobra's RunE.
func withClient(run func(cmd *cobra.Command, c *client.Client, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return run(cmd, c, args)
	}
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "It-Da service base URL")
	rootCmd.PersistentFlags().StringVarP(&ownerFlag, "owner", "o", os.Getenv("ITDA_OWNER"), "Owner ID sent as X-Owner-ID")
	rootCmd.PersistentFlags().StringVarP(&langFlag, "lang", "l", "ko", "Response language (ko|en)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 3*time.Minute, "Request timeout")

	submitCmd := &cobra.Command{
		Use:   "submit NAME",
		Short: "Submit a transcript for a person and print the analysis",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(cmd *cobra.Command, c *client.Client, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			mode, _ := cmd.Flags().GetString("mode")
			isNew, _ := cmd.Flags().GetBool("new")
			transcript, err := readTranscript(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runSubmit(cmd.Context(), c, args[0], transcript, mode, isNew, cmd.OutOrStdout())
		}),
	}
	submitCmd.Flags().StringP("file", "f", "-", "Transcript file, - for stdin")
	submitCmd.Flags().StringP("mode", "m", "OTHER", "Relationship mode (WORK|ROMANCE|FRIEND|OTHER)")
	submitCmd.Flags().Bool("new", false, "Create a new person; fails if the name exists")
	rootCmd.AddCommand(submitCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: withClient(func(cmd *cobra.Command, c *client.Client, _ []string) error {
			return runList(cmd.Context(), c, cmd.OutOrStdout())
		}),
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Show a person record",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(cmd *cobra.Command, c *client.Client, args []string) error {
			return runShow(cmd.Context(), c, args[0], cmd.OutOrStdout())
		}),
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a person with history, analysis and counsel messages",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(cmd *cobra.Command, c *client.Client, args []string) error {
			return runDelete(cmd.Context(), c, args[0], cmd.OutOrStdout())
		}),
	})

	askCmd := &cobra.Command{
		Use:   "ask NAME",
		Short: "Ask for relationship counsel about a person",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(cmd *cobra.Command, c *client.Client, args []string) error {
			q, _ := cmd.Flags().GetString("question")
			return runAsk(cmd.Context(), c, args[0], q, cmd.OutOrStdout())
		}),
	}
	askCmd.Flags().StringP("question", "q", "", "Question text (required)")
	_ = askCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(askCmd)

	chatCmd := &cobra.Command{
		Use:   "chat MESSAGE",
		Short: "Ask a one-off question through /api/chat",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(cmd *cobra.Command, c *client.Client, args []string) error {
			file, _ := cmd.Flags().GetString("context-file")
			var convo string
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				convo = string(b)
			}
			return runChat(cmd.Context(), c, args[0], convo, cmd.OutOrStdout())
		}),
	}
	chatCmd.Flags().StringP("context-file", "c", "", "File with conversation context")
	rootCmd.AddCommand(chatCmd)

	ingestCmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Upload knowledge passages from a JSON array of {text, source}",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(cmd *cobra.Command, c *client.Client, args []string) error {
			return runIngest(cmd.Context(), c, args[0], cmd.OutOrStdout())
		}),
	}
	ingestCmd.Flags().StringVar(&adminFlag, "admin-token", os.Getenv("ITDA_ADMIN_TOKEN"), "Operator token for knowledge ingest")
	rootCmd.AddCommand(ingestCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "shell",
		Short: "Interactive session over the person map",
		Args:  cobra.NoArgs,
		RunE: withClient(func(cmd *cobra.Command, c *client.Client, _ []string) error {
			if c.Owner() == "" {
				return fmt.Errorf("--owner required")
			}
			return runShell(cmd.Context(), c, cmd.InOrStdin(), cmd.OutOrStdout())
		}),
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readTranscript(file string, stdin io.Reader) (string, error) {
	if file == "" || file == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(file)
	return string(b), err
}
