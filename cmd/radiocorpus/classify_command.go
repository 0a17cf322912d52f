package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"radiocorpus/internal/classify"
	"radiocorpus/internal/textutil"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var strictness string
	var vocabulary string

	cmd := &cobra.Command{
		Use:   "classify [text]...",
		Short: "Show the filter verdict for messages",
		Long: `Classify prints the verdict the corpus filter would reach for each
argument. With no arguments it reads one message per line from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, err := ctx.classifier(strictness, vocabulary)
			if err != nil {
				return err
			}

			messages := args
			if len(messages) == 0 {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				for scanner.Scan() {
					if line := strings.TrimSpace(scanner.Text()); line != "" {
						messages = append(messages, line)
					}
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(messages))
			for _, msg := range messages {
				verdict := classifier.Classify(msg)
				rows = append(rows, []string{renderVerdict(verdict, colorize), textutil.Ellipsize(msg, 60)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tableView{
				columns: []column{textColumn("Verdict"), textColumn("Message")},
				rows:    rows,
			}.render())
			return nil
		},
	}

	cmd.Flags().StringVar(&strictness, "strictness", "", "Conversational matching: substring or anchored")
	cmd.Flags().StringVar(&vocabulary, "vocabulary", "", "YAML vocabulary override file")
	return cmd
}

func renderVerdict(v classify.Verdict, colorize bool) string {
	label := string(v)
	if !colorize {
		return label
	}
	if v.Removed() {
		return ansiYellow + label + ansiReset
	}
	return ansiGreen + label + ansiReset
}
