package setup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/faqbot/pkg/chat"
	"github.com/papercomputeco/faqbot/pkg/cliui"
	"github.com/papercomputeco/faqbot/pkg/client"
	"github.com/papercomputeco/faqbot/pkg/history"
)

// Streamer prints streamed answers and records them.
type Streamer struct {
	Env     *Env
	Client  *client.Client
	History history.Driver

	Out    io.Writer
	ErrOut io.Writer

	// Prefix is written before the first token, e.g. a chat prompt.
	Prefix string
}

// Stream asks req and writes tokens to Out as they arrive. With rendering
// on and Out a terminal, the finished answer is rendered as markdown
// instead. The exchange is recorded whether or not the stream failed.
//
// The returned error is non-nil only when the stream never started.
func (s *Streamer) Stream(ctx context.Context, req client.AskRequest) (*chat.Answer, error) {
	answer := &chat.Answer{}
	render := s.Env.Config.Chat.Render && cliui.IsTerminal(s.Out)

	var err error
	if render {
		err = cliui.Step(s.ErrOut, "Waiting for answer", func() error {
			return s.Client.AskStream(ctx, req, answer.Apply)
		})
	} else {
		started := false
		err = s.Client.AskStream(ctx, req, answer.Callback(func(c chat.Chunk) {
			if c.Type != chat.TypeToken || answer.Failed() {
				return
			}
			if !started {
				fmt.Fprint(s.Out, s.Prefix)
				started = true
			}
			fmt.Fprint(s.Out, c.Content)
		}))
		if started {
			fmt.Fprintln(s.Out)
		}
	}
	if err != nil {
		return nil, err
	}

	if render && answer.Text() != "" {
		s.printRendered(answer.Text())
	}
	s.printFooter(answer)
	s.record(ctx, req, answer)

	return answer, nil
}

// PrintBlocking writes a non-streamed answer the same way Stream does.
func (s *Streamer) PrintBlocking(ctx context.Context, req client.AskRequest, resp *client.AskResponse) {
	answer := &chat.Answer{}
	answer.Apply(chat.Chunk{Type: chat.TypeMeta, Sources: resp.Sources, Debug: resp.DebugInfo})
	answer.Apply(chat.Chunk{Type: chat.TypeToken, Content: resp.Answer})

	if s.Env.Config.Chat.Render && cliui.IsTerminal(s.Out) {
		s.printRendered(resp.Answer)
	} else {
		fmt.Fprintln(s.Out, s.Prefix+resp.Answer)
	}
	s.printFooter(answer)

	if s.Env.Debug {
		fmt.Fprintln(s.ErrOut, cliui.DimStyle.Render(fmt.Sprintf("(%s, cached: %t, language: %s)",
			cliui.FormatDuration(resp.Elapsed()), resp.Cached, resp.DetectedLanguage)))
	}

	s.record(ctx, req, answer)
}

func (s *Streamer) printRendered(text string) {
	rendered, err := cliui.RenderMarkdown(text, cliui.TerminalWidth(s.Out, 80))
	if err != nil {
		s.Env.Logger.Warn("rendering answer as markdown", "error", err)
	}
	fmt.Fprint(s.Out, s.Prefix+rendered)
}

func (s *Streamer) printFooter(answer *chat.Answer) {
	if answer.Failed() {
		fmt.Fprintf(s.ErrOut, "%s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(answer.Err))
	}

	if sources := cliui.FormatSources(answer.Sources); sources != "" {
		fmt.Fprintf(s.Out, "\n%s\n", sources)
	}

	if s.Env.Debug && answer.Debug != "" {
		fmt.Fprintf(s.ErrOut, "%s %s\n", cliui.KeyStyle.Render("Debug:"), cliui.DimStyle.Render(answer.Debug))
	}
}

// record stores the exchange. Failures are logged and never fail the
// command: the answer was already shown. The save outlives a cancelled ctx
// so an interrupted answer is still recorded.
func (s *Streamer) record(ctx context.Context, req client.AskRequest, answer *chat.Answer) {
	if s.History == nil {
		return
	}

	ex := &history.Exchange{
		SessionID: req.SessionID,
		ProductID: req.ProductID,
		Question:  strings.TrimSpace(req.Question),
		Answer:    answer.Text(),
		Sources:   answer.Sources,
		Debug:     answer.Debug,
		Failed:    answer.Failed(),
		Error:     answer.Err,
	}
	if err := s.History.Save(context.WithoutCancel(ctx), ex); err != nil {
		s.Env.Logger.Warn("recording exchange", "error", err, "session_id", req.SessionID)
	}
}
