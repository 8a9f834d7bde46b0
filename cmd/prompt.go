package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pmdbsync/pkg/media"
)

// prompter handles all console input. Every method prints its prompt and
// reads one line; an io.EOF from the reader is returned as-is so the
// session can treat a closed stdin as "stop".
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	text, err := p.in.ReadString('\n')
	if err != nil && text == "" {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// yesNo asks a yes/no question. Blank input selects the default.
func (p *prompter) yesNo(label string, def bool) (bool, error) {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	answer, err := p.line(label + " " + hint + ": ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid answer %q, expected y or n", answer)
	}
}

func (p *prompter) mediaKind() (media.Kind, error) {
	answer, err := p.line("Select media type (1=movie, 2=series): ")
	if err != nil {
		return "", err
	}
	switch answer {
	case "1":
		return media.Movie, nil
	case "2":
		return media.Series, nil
	default:
		return "", fmt.Errorf("invalid media type %q, expected 1 or 2", answer)
	}
}

// selection reads a numeric pick from 1 to max; 0 cancels.
func (p *prompter) selection(max int) (int, error) {
	answer, err := p.line(fmt.Sprintf("Select title number (1-%d, or 0 to cancel): ", max))
	if err != nil {
		return 0, err
	}
	choice, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q, expected a number", answer)
	}
	if choice < 0 || choice > max {
		return 0, fmt.Errorf("selection %d out of range", choice)
	}
	return choice, nil
}
