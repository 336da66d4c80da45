package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/zeu5/dodge-rl/agent"
	"github.com/zeu5/dodge-rl/config"
)

var errInvalidInput = errors.New("invalid input")

// Menu is the interactive loop over the session
type Menu struct {
	session *session
	in      *bufio.Scanner
	out     io.Writer

	// observers of the menu runs
	trainOptions runOptions
	testOptions  runOptions
}

func newMenu(s *session, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		session:      s,
		in:           bufio.NewScanner(in),
		out:          out,
		trainOptions: runOptions{progress: true},
		testOptions:  runOptions{render: true},
	}
}

func (m *Menu) display() {
	fmt.Fprintln(m.out, "\n=== Q-Learning Game Menu ===")
	fmt.Fprintln(m.out, "1. Train Agent")
	fmt.Fprintln(m.out, "2. Test Agent")
	fmt.Fprintln(m.out, "3. Save Agent State")
	fmt.Fprintln(m.out, "4. Load Agent State")
	fmt.Fprintln(m.out, "5. Save Configuration")
	fmt.Fprintln(m.out, "6. Exit")
}

// prompt returns the trimmed answer, def when it is empty and false on end of input
func (m *Menu) prompt(question, def string) (string, bool) {
	fmt.Fprint(m.out, question)
	if !m.in.Scan() {
		return "", false
	}
	answer := strings.TrimSpace(m.in.Text())
	if answer == "" {
		answer = def
	}
	return answer, true
}

func parseEpisodes(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errInvalidInput, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: episodes must be positive", errInvalidInput)
	}
	return n, nil
}

// Run loops until the user exits, the input ends or ctx is cancelled
func (m *Menu) Run(ctx context.Context) {
	for ctx.Err() == nil {
		m.display()
		choice, ok := m.prompt("Select an option (1-6): ", "")
		if !ok {
			break
		}
		exit, err := m.handle(ctx, choice)
		if err != nil {
			m.report(err)
		}
		if exit {
			fmt.Fprintln(m.out, "Exiting program.")
			break
		}
	}
	fmt.Fprintln(m.out, "Program terminated.")
}

func (m *Menu) report(err error) {
	switch {
	case errors.Is(err, errInvalidInput), errors.Is(err, config.ErrInvalidConfig):
		fmt.Fprintf(m.out, "Invalid input: %s\n", err)
	case errors.Is(err, agent.ErrStateNotFound):
		fmt.Fprintf(m.out, "File error: %s\n", err)
	case errors.Is(err, agent.ErrMalformedState):
		fmt.Fprintf(m.out, "Game error: %s\n", err)
	default:
		fmt.Fprintf(m.out, "Unexpected error: %s\n", err)
		level.Error(m.session.logger).Log("msg", "unexpected error", "err", err)
	}
}

func (m *Menu) handle(ctx context.Context, choice string) (bool, error) {
	switch choice {
	case "1":
		answer, ok := m.prompt(fmt.Sprintf("Enter number of episodes to train (default: %d): ", m.session.config.Episodes), strconv.Itoa(m.session.config.Episodes))
		if !ok {
			return true, nil
		}
		episodes, err := parseEpisodes(answer)
		if err != nil {
			return false, err
		}
		_, err = m.session.train(ctx, episodes, m.trainOptions)
		return false, err
	case "2":
		answer, ok := m.prompt("Enter number of test episodes (default: 1): ", "1")
		if !ok {
			return true, nil
		}
		episodes, err := parseEpisodes(answer)
		if err != nil {
			return false, err
		}
		_, err = m.session.test(ctx, episodes, m.testOptions)
		return false, err
	case "3":
		name, ok := m.prompt(fmt.Sprintf("Enter filename to save state (default: %s): ", m.session.stateKey), m.session.stateKey)
		if !ok {
			return true, nil
		}
		if err := m.session.saveState(ctx, name); err != nil {
			return false, err
		}
		fmt.Fprintf(m.out, "Agent state saved to %s\n", name)
	case "4":
		name, ok := m.prompt(fmt.Sprintf("Enter filename to load state (default: %s): ", m.session.stateKey), m.session.stateKey)
		if !ok {
			return true, nil
		}
		if err := m.session.loadState(ctx, name); err != nil {
			return false, err
		}
		fmt.Fprintf(m.out, "Agent state loaded from %s\n", name)
	case "5":
		name, ok := m.prompt(fmt.Sprintf("Enter filename to save config (default: %s): ", configPath), configPath)
		if !ok {
			return true, nil
		}
		if err := m.session.saveConfig(name); err != nil {
			return false, err
		}
		fmt.Fprintf(m.out, "Configuration saved to %s\n", name)
	case "6":
		return true, nil
	default:
		fmt.Fprintln(m.out, "Invalid option. Please select 1-6.")
	}
	return false, nil
}

func runMenu(cmd *cobra.Command) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, done := signalContext(s.logger)
	defer done()

	newMenu(s, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	return nil
}

func MenuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu (the default without a subcommand)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd)
		},
	}
}
