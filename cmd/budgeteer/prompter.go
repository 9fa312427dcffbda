package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mvano/budgeteer/internal/resolve"
)

// terminalPrompter asks the operator to classify a description on the
// terminal. The resolver serializes calls, so reads and writes here never
// interleave between files.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *terminalPrompter) Ask(description string, choices []string) (string, error) {
	fmt.Fprintf(p.out, "\nTransaction: %s\n", description)
	fmt.Fprintln(p.out, "Choose a category:")
	for i, c := range choices {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, c)
	}

	for {
		fmt.Fprint(p.out, "Enter the number of your choice: ")
		line, err := p.in.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read choice: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(choices) {
			fmt.Fprintln(p.out, "Invalid choice. Please try again.")
			continue
		}
		answer := choices[n-1]
		if answer != resolve.NewCategoryOption {
			return answer, nil
		}
		fmt.Fprint(p.out, "Enter the new category: ")
		line, err = p.in.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read category: %w", err)
		}
		if name := strings.TrimSpace(line); name != "" {
			return name, nil
		}
		fmt.Fprintln(p.out, "Category name cannot be empty.")
	}
}
