package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/parksyoung/It-Da-sub000/internal/appstate"
	"github.com/parksyoung/It-Da-sub000/internal/client"
	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// clientBackend runs state machine effects against the HTTP API.
type clientBackend struct{ c *client.Client }

func (b clientBackend) ListAnalyses(ctx context.Context) ([]model.StoredAnalysis, error) {
	return b.c.ListAnalyses(ctx)
}

func (b clientBackend) Submit(ctx context.Context, req appstate.SubmitTranscript) (model.StoredAnalysis, string, error) {
	res, err := b.c.SubmitTranscript(ctx, req.Name, client.SubmitRequest{
		Transcript:  req.Transcript,
		Mode:        req.Mode,
		IsNewPerson: req.IsNewPerson,
	})
	if err != nil {
		return model.StoredAnalysis{}, "", err
	}
	var warning string
	if res.Warning != nil {
		warning = res.Warning.Message
	}
	return res.StoredAnalysis, warning, nil
}

func (b clientBackend) DeletePerson(ctx context.Context, name string) error {
	return b.c.DeletePerson(ctx, name)
}

const shellHelp = `commands:
  list                        show the person map
  open NAME                   open a person's dashboard
  add MODE new|append NAME    enter a transcript, end with a line "."
  delete NAME                 delete a person
  ask QUESTION                counsel about the open person
  self                        self analysis across everyone
  back                        return to the map
  quit`

func runShell(ctx context.Context, c *client.Client, in io.Reader, out io.Writer) error {
	b := clientBackend{c: c}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	s := appstate.Dispatch(ctx, b, appstate.Initial(), appstate.Started{})
	render(out, s)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		cmd, rest, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		rest = strings.TrimSpace(rest)
		switch cmd {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, shellHelp)
			continue
		case "list":
			s = appstate.Dispatch(ctx, b, s, appstate.Back{})
		case "open":
			s = appstate.Dispatch(ctx, b, s, appstate.Back{})
			s = appstate.Dispatch(ctx, b, s, appstate.SelectPerson{Name: rest})
		case "back":
			s = appstate.Dispatch(ctx, b, s, appstate.Back{})
		case "self":
			s = appstate.Dispatch(ctx, b, s, appstate.OpenSelfAnalysis{})
		case "delete":
			s = appstate.Dispatch(ctx, b, s, appstate.DeleteRequested{Name: rest})
		case "add":
			ev, err := readSubmission(rest, sc, out)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			s = appstate.Dispatch(ctx, b, s, appstate.Back{})
			s = appstate.Dispatch(ctx, b, s, appstate.OpenInput{})
			s = appstate.Dispatch(ctx, b, s, ev)
		case "ask":
			if s.View != appstate.ViewDashboard {
				fmt.Fprintln(out, "open a person first")
				continue
			}
			if err := runAsk(ctx, c, s.Selected, rest, out); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			continue
		default:
			fmt.Fprintln(out, shellHelp)
			continue
		}
		render(out, s)
	}
}

func readSubmission(args string, sc *bufio.Scanner, out io.Writer) (appstate.SubmitRequested, error) {
	parts := strings.SplitN(args, " ", 3)
	if len(parts) < 3 {
		return appstate.SubmitRequested{}, fmt.Errorf("usage: add MODE new|append NAME")
	}
	mode, err := model.ParseMode(parts[0])
	if err != nil {
		return appstate.SubmitRequested{}, err
	}
	var lines []string
	fmt.Fprintln(out, "transcript (end with \".\"):")
	for sc.Scan() {
		if sc.Text() == "." {
			break
		}
		lines = append(lines, sc.Text())
	}
	return appstate.SubmitRequested{
		Name:        strings.TrimSpace(parts[2]),
		Transcript:  strings.Join(lines, "\n"),
		Mode:        mode,
		IsNewPerson: parts[1] == "new",
	}, nil
}

func render(out io.Writer, s appstate.State) {
	if s.Err != nil {
		fmt.Fprintln(out, "error:", s.Err)
	}
	if s.Notice != "" {
		fmt.Fprintln(out, "warning:", s.Notice)
	}
	switch s.View {
	case appstate.ViewMap, appstate.ViewInput:
		if len(s.Persons) == 0 {
			fmt.Fprintln(out, "(no people yet)")
		}
		for _, p := range s.Persons {
			score := "-"
			if p.Result != nil {
				score = fmt.Sprintf("%d", p.Result.IntimacyScore)
			}
			fmt.Fprintf(out, "  %-24s %-8s %4s\n", p.Speaker2Name, p.Mode, score)
		}
	case appstate.ViewDashboard:
		a, ok := s.SelectedAnalysis()
		if !ok || a.Result == nil {
			fmt.Fprintln(out, "(no analysis)")
			return
		}
		r := a.Result
		fmt.Fprintf(out, "%s [%s] intimacy %d\n", a.Speaker2Name, a.Mode, r.IntimacyScore)
		fmt.Fprintf(out, "balance me %.0f / partner %.0f\n", r.BalanceRatio.Me, r.BalanceRatio.Partner)
		fmt.Fprintln(out, r.Summary)
		fmt.Fprintln(out, "->", r.Recommendation)
	case appstate.ViewSelfAnalysis:
		sum := appstate.Summarize(s.Persons)
		fmt.Fprintf(out, "people %d, avg intimacy %.1f, my share %.1f%%\n", sum.People, sum.AvgIntimacy, sum.AvgMyShare)
		if sum.AvgResponseMins != nil {
			fmt.Fprintf(out, "avg reply time %.1f min\n", *sum.AvgResponseMins)
		}
		if sum.PeakHour >= 0 {
			fmt.Fprintf(out, "most active hour %02d:00\n", sum.PeakHour)
		}
	}
}
