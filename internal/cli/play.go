package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quizroom/internal/client/api"
	"quizroom/internal/client/lobby"
	"quizroom/internal/client/nav"
	"quizroom/internal/client/play"
	"quizroom/internal/client/realtime"
	"quizroom/internal/client/results"
	"quizroom/internal/domain"
	"quizroom/internal/protocol"
)

const defaultTimeLimit = 300

var (
	errQuit        = errors.New("left the quiz")
	errInputClosed = errors.New("input closed")
)

func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		creds  credentials
		quizID int64
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join a quiz lobby, play when the creator starts it and see your results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if quizID <= 0 {
				return errors.New("--quiz is required")
			}
			env, err := newClientEnv(*configPath)
			if err != nil {
				return err
			}
			if err := env.ensureSignedIn(cmd.Context(), creds); err != nil {
				return err
			}
			err = runPlay(cmd.Context(), env, quizID, readLines(cmd.InOrStdin()), cmd.OutOrStdout())
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		},
	}
	creds.bind(cmd)
	cmd.Flags().Int64VarP(&quizID, "quiz", "q", 0, "quiz id to join")
	return cmd
}

// readLines feeds trimmed input lines to a channel closed at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return lines
}

func runPlay(ctx context.Context, env *clientEnv, quizID int64, lines <-chan string, out io.Writer) error {
	navigator := nav.NewNavigator()
	navigator.Go("/quiz/" + strconv.FormatInt(quizID, 10))

	quiz, err := env.api.GetQuiz(ctx, quizID)
	if err != nil {
		return errors.New(api.UserMessage(err))
	}
	if err := waitInLobby(ctx, env, quiz, lines, out); err != nil {
		return err
	}

	navigator.ToPlay(quizID)
	outcome, err := playQuiz(ctx, quiz, lines, out)
	if err != nil {
		return err
	}
	navigator.ToResults(outcome)

	summary, err := results.FromOutcome(navigator.Outcome())
	if err != nil {
		navigator.Go(string(nav.Home))
		return err
	}
	printSummary(out, summary)
	return nil
}

// waitInLobby returns once the quiz has started.
func waitInLobby(ctx context.Context, env *clientEnv, quiz domain.Quiz, lines <-chan string, out io.Writer) error {
	me := env.session.Current()
	ch, err := realtime.Dial(ctx, env.cfg.Client.WSURL, me.Token)
	if err != nil {
		return err
	}
	defer ch.Close()

	m := lobby.New(ch, env.api, quiz.ID, me.User(), quiz.CreatorID)
	changed := make(chan struct{}, 1)
	m.OnChange(func(lobby.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	go func() {
		<-ch.Done()
		m.Dropped(ch.Err())
	}()

	if err := m.Enter(); err != nil {
		return err
	}
	defer m.Leave()

	fmt.Fprintf(out, "Lobby for %q (%d questions)\n", quiz.Title, len(quiz.Questions))
	if m.IsAdmin() {
		fmt.Fprintln(out, "You created this quiz. Type 'start' when everyone is in.")
	} else {
		fmt.Fprintln(out, "Waiting for the quiz creator to start.")
	}
	fmt.Fprintln(out, "Anything else you type is sent to the room; 'quit' leaves.")

	var (
		lastMembers string
		lastMsg     protocol.RoomMessagePayload
		lastErr     string
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			snap := m.Snapshot()
			if members := memberList(snap.Members); members != lastMembers {
				lastMembers = members
				fmt.Fprintf(out, "players (%d): %s\n", len(snap.Members), members)
			}
			if n := len(snap.Messages); n > 0 && snap.Messages[n-1] != lastMsg {
				lastMsg = snap.Messages[n-1]
				fmt.Fprintf(out, "<%s> %s\n", lastMsg.Username, lastMsg.Message)
			}
			if snap.LastError != "" && snap.LastError != lastErr {
				lastErr = snap.LastError
				fmt.Fprintf(out, "! %s\n", lastErr)
			}
			switch snap.State {
			case lobby.Started:
				fmt.Fprintln(out, "The quiz is starting!")
				return nil
			case lobby.Closed:
				if !snap.Joined {
					return fmt.Errorf("%w: %s", lobby.ErrJoinRefused, snap.LastError)
				}
				return errors.New("the lobby was closed")
			case lobby.Disconnected:
				return fmt.Errorf("connection lost: %s", snap.LastError)
			}
		case line, ok := <-lines:
			if !ok {
				return errInputClosed
			}
			switch line {
			case "":
			case "quit":
				return errQuit
			case "start":
				if _, err := m.RequestStart(ctx); err != nil {
					fmt.Fprintf(out, "! %s\n", startError(err))
				}
			default:
				if err := ch.Emit(protocol.RoomMessage, protocol.RoomMessagePayload{
					RoomID:  protocol.ID(quiz.ID),
					Message: line,
				}); err != nil {
					fmt.Fprintf(out, "! %v\n", err)
				}
			}
		}
	}
}

func startError(err error) string {
	if errors.Is(err, lobby.ErrNotAdmin) || errors.Is(err, lobby.ErrNotJoined) {
		return err.Error()
	}
	return api.UserMessage(err)
}

func memberList(members []domain.LobbyMember) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Username
	}
	return strings.Join(names, ", ")
}

// playQuiz drives the engine from input lines until the quiz ends.
func playQuiz(ctx context.Context, quiz domain.Quiz, lines <-chan string, out io.Writer) (play.Outcome, error) {
	done := make(chan play.Outcome, 1)
	engine := play.NewEngine(quiz, play.OnFinish(func(o play.Outcome) { done <- o }))

	limit := quiz.TimeLimit
	if limit <= 0 {
		limit = defaultTimeLimit
	}
	ticks := make(chan int, 1)
	countdown := play.NewCountdown(limit, func(left int) {
		select {
		case ticks <- left:
		default:
		}
	}, engine.TimeUp)
	countdown.Start(ctx)
	defer countdown.Stop()

	fmt.Fprintf(out, "You have %s. Answer with 1-%d, 'r' reveals, 'n' next, 'b' back, 'g N' jumps, 'q' quits.\n",
		play.FormatClock(limit), domain.MaxOptions)
	showQuestion(out, engine)

	for {
		select {
		case <-ctx.Done():
			return play.Outcome{}, ctx.Err()
		case o := <-done:
			if o.TimeUp {
				fmt.Fprintln(out, "Time is up!")
			}
			return o, nil
		case left := <-ticks:
			if left == 60 || left == 30 || (left <= 10 && left > 0) {
				fmt.Fprintf(out, "time left %s\n", play.FormatClock(left))
			}
		case line, ok := <-lines:
			if !ok {
				return play.Outcome{}, errInputClosed
			}
			if err := playCommand(engine, line, out); err != nil {
				return play.Outcome{}, err
			}
		}
	}
}

func playCommand(e *play.Engine, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch cmd := fields[0]; cmd {
	case "q", "quit":
		return errQuit
	case "r":
		correct, err := e.Reveal()
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			return nil
		}
		q := e.State().Question
		if correct {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Wrong, the answer is %q\n", q.Options[q.CorrectAnswerIndex])
		}
	case "n":
		finished, err := e.Advance()
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			return nil
		}
		if !finished {
			showQuestion(out, e)
		}
	case "b":
		e.GoBack()
		showQuestion(out, e)
	case "g":
		n := 0
		if len(fields) > 1 {
			n, _ = strconv.Atoi(fields[1])
		}
		if err := e.GoTo(n - 1); err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			return nil
		}
		showQuestion(out, e)
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			fmt.Fprintf(out, "! unknown command %q\n", cmd)
			return nil
		}
		if err := e.SelectAnswer(n - 1); err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			return nil
		}
		fmt.Fprintf(out, "selected %d\n", n)
	}
	return nil
}

func showQuestion(out io.Writer, e *play.Engine) {
	st := e.State()
	var dots strings.Builder
	for i := 0; i < st.Total; i++ {
		switch {
		case i == st.Index:
			dots.WriteString("[>]")
		case e.Answered(i):
			dots.WriteString("[x]")
		default:
			dots.WriteString("[ ]")
		}
	}
	fmt.Fprintf(out, "\n%s\nQuestion %d/%d: %s\n", dots.String(), st.Index+1, st.Total, st.Question.Text)
	for i, opt := range st.Question.Options {
		mark := " "
		if i == st.Selected {
			mark = "*"
		}
		fmt.Fprintf(out, " %s %d) %s\n", mark, i+1, opt)
	}
}

func printSummary(out io.Writer, s results.Summary) {
	fmt.Fprintf(out, "\nResults for %q\n", s.Title)
	if s.TimeUp {
		fmt.Fprintln(out, "(time expired)")
	}
	fmt.Fprintf(out, "Score: %d/%d (%d%%) in %s\n%s\n\n", s.Score, s.Total, s.Percentage, results.FormatDuration(s.TimeSpent), s.Message)
	for i, r := range s.Review {
		status := "unanswered"
		switch {
		case r.Correct:
			status = "correct"
		case r.Answered:
			status = "wrong"
		}
		fmt.Fprintf(out, "%d. %s [%s]\n   answer: %s\n", i+1, r.Question.Text, status, r.CorrectOption())
		if pick := r.WrongPick(); pick != "" {
			fmt.Fprintf(out, "   you picked: %s\n", pick)
		}
	}
}
