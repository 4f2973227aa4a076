package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parksyoung/It-Da-sub000/internal/client"
	"github.com/parksyoung/It-Da-sub000/internal/model"
)

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarning(out io.Writer, w *client.Warning) {
	if w != nil {
		fmt.Fprintf(out, "warning (%s): %s\n", w.Kind, w.Message)
	}
}

func runSubmit(ctx context.Context, c *client.Client, name, transcript, mode string, isNew bool, out io.Writer) error {
	if strings.TrimSpace(transcript) == "" {
		return fmt.Errorf("transcript cannot be empty")
	}
	m, err := model.ParseMode(mode)
	if err != nil {
		return err
	}
	res, err := c.SubmitTranscript(ctx, name, client.SubmitRequest{Transcript: transcript, Mode: m, IsNewPerson: isNew})
	if err != nil {
		return err
	}
	printWarning(out, res.Warning)
	return printJSON(out, res.StoredAnalysis)
}

func runList(ctx context.Context, c *client.Client, out io.Writer) error {
	list, err := c.ListAnalyses(ctx)
	if err != nil {
		return err
	}
	for _, a := range list {
		score := "-"
		if a.Result != nil {
			score = fmt.Sprintf("%d", a.Result.IntimacyScore)
		}
		fmt.Fprintf(out, "%-24s %-8s %4s  %s\n", a.Speaker2Name, a.Mode, score, a.Date.Format("2006-01-02 15:04"))
	}
	return nil
}

func runShow(ctx context.Context, c *client.Client, name string, out io.Writer) error {
	p, err := c.GetPerson(ctx, name)
	if err != nil {
		return err
	}
	return printJSON(out, p)
}

func runDelete(ctx context.Context, c *client.Client, name string, out io.Writer) error {
	if err := c.DeletePerson(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", name)
	return nil
}

func runAsk(ctx context.Context, c *client.Client, name, question string, out io.Writer) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question cannot be empty")
	}
	reply, err := c.AskCounsel(ctx, name, question)
	if err != nil {
		return err
	}
	printWarning(out, reply.Warning)
	_, err = fmt.Fprintln(out, reply.Reply)
	return err
}

func runChat(ctx context.Context, c *client.Client, message, convo string, out io.Writer) error {
	reply, err := c.Chat(ctx, message, convo)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, reply.Reply)
	return err
}

func runIngest(ctx context.Context, c *client.Client, file string, out io.Writer) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var passages []client.Passage
	if err := json.Unmarshal(b, &passages); err != nil {
		return fmt.Errorf("passages must be a JSON array: %w", err)
	}
	ids, err := c.IngestKnowledge(ctx, passages)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ingested %d passages\n", len(ids))
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}
