package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reviewly/reviewly/internal/services/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Chat with the review assistant",
	Long: `Without arguments, starts an interactive conversation; type "exit" to leave.
With a prompt, asks a single question and prints the answer.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&direct, "direct", false, "stream answers from OpenRouter instead of the backend")
	chatCmd.Flags().BoolVar(&greeting, "greeting", false, "open the conversation with a greeting")
	chatCmd.Flags().StringVar(&productID, "product", "", "scope the conversation to a product id")
}

func runChat(cmd *cobra.Command, args []string) error {
	svcs, err := loadServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	session := svcs.GetChatSession()
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		return converse(cmd, session, strings.NewReader(strings.Join(args, " ")+"\n"), out, false)
	}
	return converse(cmd, session, cmd.InOrStdin(), out, true)
}

// converse feeds each input line to the session and streams answers to out
func converse(cmd *cobra.Command, session *chat.Session, in io.Reader, out io.Writer, interactive bool) error {
	printer := newStreamPrinter(out)
	session.OnChange(printer.Update)

	var pending []chat.AdditionalData
	session.OnAdditionalData(func(data chat.AdditionalData) {
		pending = append(pending, data)
	})

	for _, m := range session.Messages() {
		fmt.Fprintln(out, speakerLabel(m)+m.Text)
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, userStyle.Render("> "))
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}

		err := session.Submit(cmd.Context(), line, productID)
		if errors.Is(err, chat.ErrEmptyPrompt) {
			continue
		}
		if err != nil {
			return err
		}
		printer.Finish()

		for _, data := range pending {
			printAdditional(out, data)
		}
		pending = nil
	}

	return scanner.Err()
}
