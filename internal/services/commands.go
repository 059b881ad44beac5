package services

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
)

// Command is one parsed chat instruction
type Command struct {
	Name string
	Args []string
}

// ID returns the errand id argument, if the command takes one
func (c Command) ID() string {
	if c.Name == "newerrand" || c.Name == "summary" || len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

type arity struct {
	min, max int
	usage    string
}

var commandArity = map[string]arity{
	"start":     {0, 0, "/start"},
	"help":      {0, 0, "/help"},
	"newerrand": {4, 4, UsageNewErrand},
	"assign":    {2, 2, UsageAssign},
	"update":    {2, 2, UsageUpdate},
	"complete":  {1, 1, UsageComplete},
	"cancel":    {1, 1, UsageCancel},
	"pay":       {1, 1, UsagePay},
	"unpay":     {1, 1, UsageUnpay},
	"status":    {1, 1, UsageStatus},
	"summary":   {0, 1, UsageSummary},
	"verify":    {2, 2, UsageVerify},
}

// handoverPattern matches the driver's confirmation, e.g. "Errand #MEG-20251102-6199 OTP 1234"
var handoverPattern = regexp.MustCompile(`(?i)^errand\s+(\S+)\s+otp\s+(\d[\d\s]*)$`)

// ParseCommand reads a chat message. ok is false for text that is neither a
// slash command nor a handover confirmation.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, false
	}

	if m := handoverPattern.FindStringSubmatch(text); m != nil {
		return Command{Name: "verify", Args: []string{stripHash(m[1]), strings.TrimSpace(m[2])}}, true
	}

	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	fields := strings.Fields(text)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	// "/assign@MyErrandGuyBot" style suffixes
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}

	cmd := Command{Name: name, Args: fields[1:]}
	if cmd.ID() != "" {
		cmd.Args[0] = stripHash(cmd.Args[0])
	}
	return cmd, true
}

// stripHash drops one leading '#', which chat users type out of habit
func stripHash(id string) string {
	return strings.TrimPrefix(id, "#")
}

// spaced restores spaces written as underscores in chat arguments
func spaced(arg string) string {
	return strings.ReplaceAll(arg, "_", " ")
}

// Bot is the chat front end over the lifecycle engine. Commands are handled
// one at a time.
type Bot struct {
	mu      sync.Mutex
	errands *ErrandService
	summary *SummaryService
	log     *logger.Logger
}

// NewBot creates the chat front end
func NewBot(errands *ErrandService, summary *SummaryService, log *logger.Logger) *Bot {
	return &Bot{
		errands: errands,
		summary: summary,
		log:     log.Named("bot"),
	}
}

// ProcessMessage handles one chat message and returns the reply. A reply is
// always produced; the error is set only for failures the operator cannot
// correct from chat, so the caller can log them.
func (b *Bot) ProcessMessage(ctx context.Context, from, message string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cmd, ok := ParseCommand(message)
	if !ok {
		b.log.Debug("Ignoring non-command text", logger.String("from", from))
		return b.getUnknownMessage(), nil
	}

	b.log.Info("Processing command", logger.String("command", cmd.Name), logger.String("from", from))

	reply, err := b.dispatch(ctx, cmd)
	if err == nil {
		return reply, nil
	}

	reply = renderError(err, cmd.ID())
	appErr := apperrors.GetAppError(err)
	switch appErr.Code {
	case apperrors.CodeStoreUnavailable, apperrors.CodeSchemaMismatch, apperrors.CodeInternal, apperrors.CodeIDExhausted:
		b.log.Error("Command failed",
			logger.String("command", cmd.Name), logger.String("errand_id", cmd.ID()), logger.Err(err))
		return reply, err
	}
	b.log.Info("Command rejected",
		logger.String("command", cmd.Name), logger.String("code", appErr.Code))
	return reply, nil
}

func (b *Bot) dispatch(ctx context.Context, cmd Command) (string, error) {
	a, known := commandArity[cmd.Name]
	if !known {
		return b.getUnknownMessage(), nil
	}
	if len(cmd.Args) < a.min || len(cmd.Args) > a.max {
		return "", apperrors.InvalidArgument("Usage: " + a.usage)
	}

	args := cmd.Args
	switch cmd.Name {
	case "start":
		return b.getStartMessage(), nil

	case "help":
		return b.getHelpMessage(), nil

	case "newerrand":
		rec, err := b.errands.Create(ctx, CreateErrandInput{
			RequesterName:   spaced(args[0]),
			ReceiverName:    spaced(args[1]),
			PickupLocation:  spaced(args[2]),
			DropoffLocation: spaced(args[3]),
		})
		if err != nil {
			return "", err
		}
		return renderCreated(rec), nil

	case "assign":
		out, err := b.errands.Assign(ctx, args[0], spaced(args[1]))
		if err != nil {
			return "", err
		}
		return renderAssigned(out), nil

	case "update":
		out, err := b.errands.UpdateStatus(ctx, args[0], args[1])
		if err != nil {
			return "", err
		}
		return renderStatusUpdate(out), nil

	case "complete":
		out, err := b.errands.Complete(ctx, args[0])
		if err != nil {
			return "", err
		}
		return renderCompleted(out), nil

	case "cancel":
		out, err := b.errands.Cancel(ctx, args[0])
		if err != nil {
			return "", err
		}
		return renderCanceled(out), nil

	case "pay", "unpay":
		paid := cmd.Name == "pay"
		out, err := b.errands.SetPaid(ctx, args[0], paid)
		if err != nil {
			return "", err
		}
		if paid {
			return renderPaid(out), nil
		}
		return renderUnpaid(out), nil

	case "status":
		rec, err := b.errands.Get(ctx, args[0])
		if err != nil {
			return "", err
		}
		return renderRecord(rec), nil

	case "summary":
		date := b.summary.Today()
		if len(args) == 1 {
			date = args[0]
		}
		report, err := b.summary.Summarize(ctx, date)
		if err != nil {
			return "", err
		}
		return RenderSummary(report), nil

	case "verify":
		out, err := b.errands.VerifyOTP(ctx, args[0], args[1])
		if err != nil {
			return "", err
		}
		return renderVerified(out), nil
	}
	return b.getUnknownMessage(), nil
}
