package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fgeck/profsync/internal/services/profiles"
	"golang.org/x/term"
)

// StdinChooser returns a profile chooser that presents an indexed list on
// out and reads a numeric choice from in.
func StdinChooser(in io.Reader, out io.Writer) profiles.Chooser {
	return func(options []string) (int, error) {
		fmt.Fprintln(out, "select a profile:")
		for i, opt := range options {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, opt)
		}
		fmt.Fprintf(out, "choice [1-%d]: ", len(options))

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return 0, fmt.Errorf("invalid choice %q", strings.TrimSpace(line))
		}
		return n - 1, nil
	}
}

// StdinConfirm returns a ConfirmFunc that asks a y/N question on out and
// reads the answer from in. When stdin is not a terminal the question is
// never asked and the answer is no.
func StdinConfirm(in io.Reader, out io.Writer) ConfirmFunc {
	return func(question string) bool {
		if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			return false
		}

		fmt.Fprintf(out, "%s [y/N]: ", question)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return false
		}
		ans := strings.ToLower(strings.TrimSpace(line))
		return ans == "y" || ans == "yes"
	}
}
