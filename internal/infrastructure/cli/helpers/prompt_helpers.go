package helpers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptForYesNo prompts the user for a yes/no question
// Returns the default value on empty input or a closed reader
func PromptForYesNo(out io.Writer, in io.Reader, promptText string, defaultValue bool) bool {
	fmt.Fprintf(out, "%s [%s]: ", promptText, buildYesNoLabel(defaultValue))

	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	if line == "" {
		return defaultValue
	}
	return isAffirmativeResponse(line)
}

// PromptForConfirmation asks the user to confirm a destructive action
func PromptForConfirmation(out io.Writer, in io.Reader, question string) bool {
	return PromptForYesNo(out, in, question, false)
}

func buildYesNoLabel(defaultIsYes bool) string {
	if defaultIsYes {
		return "Y/n"
	}
	return "y/N"
}

func isAffirmativeResponse(response string) bool {
	return response == "y" || response == "yes"
}
