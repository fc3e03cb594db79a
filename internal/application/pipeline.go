package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

type State string

const (
	StateReceived      State = "received"
	StateMediaChecked  State = "media_checked"
	StateDownloaded    State = "downloaded"
	StateTranscribed   State = "transcribed"
	StateExtracted     State = "extracted"
	StateAuthenticated State = "authenticated"
	StateCreated       State = "created"
	StateReplied       State = "replied"
	StateFailed        State = "failed"
)

type Stage string

const (
	StageDownload      Stage = "download"
	StageTranscription Stage = "transcription"
	StageExtraction    Stage = "extraction"
	StageAuth          Stage = "auth"
	StageCreate        Stage = "create"
	StageInternal      Stage = "internal"
)

const UsageInstructions = "Welcome to the D365 F&O Customer Creator!\n\n" +
	"Send a *voice message* describing the customer you want to create.\n\n" +
	"Include:\n" +
	"- Customer account ID (e.g. AK001)\n" +
	"- Organization name (e.g. Abdo Khoury)\n" +
	"- Customer group number (e.g. 80)\n\n" +
	"Example: " + domain.ExampleRequest

const (
	DownloadFailedReply      = "Failed to download your voice message. Please try again."
	TranscriptionFailedReply = "Could not transcribe your voice message. Please try again with a clearer recording."
	AuthFailedReply          = "Could not authenticate with D365 F&O. Please try again later or contact an administrator."
	CreateFailedReply        = "Failed to create customer in D365 F&O. Please try again later or contact an administrator."
	GenericErrorReply        = "Something went wrong while processing your message. Please try again. If the problem persists, contact an administrator."
)

func confirmationReply(f domain.CustomerFields) string {
	return fmt.Sprintf("Customer created successfully in D365 F&O!\n\nAccount: %s\nName: %s\nGroup: %s", f.Account, f.Name, f.Group)
}

// InboundMessage is one message received from the messaging channel.
type InboundMessage struct {
	From             string
	Body             string
	NumMedia         int
	MediaURL         string
	MediaContentType string
}

func (m InboundMessage) HasMedia() bool {
	return m.NumMedia > 0 && m.MediaURL != ""
}

// Outcome describes how one message was handled. Reply is never empty.
type Outcome struct {
	State       State
	FailedStage Stage
	// Trail lists every state the message passed through, in order.
	Trail      []State
	Reply      string
	Transcript string
	Fields     domain.CustomerFields
	Record     domain.Record
}

func (o *Outcome) advance(s State) {
	o.State = s
	o.Trail = append(o.Trail, s)
}

func (o *Outcome) fail(stage Stage, reply string) {
	o.FailedStage = stage
	o.Reply = reply
	o.advance(StateFailed)
}

type Pipeline struct {
	media     MediaFetcher
	stt       SpeechToText
	extractor FieldExtractor
	customers *CustomerService
	notifier  Notifier
	logger    *slog.Logger
}

func NewPipeline(
	media MediaFetcher,
	stt SpeechToText,
	extractor FieldExtractor,
	customers *CustomerService,
	notifier Notifier,
	logger *slog.Logger,
) *Pipeline {
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	return &Pipeline{
		media:     media,
		stt:       stt,
		extractor: extractor,
		customers: customers,
		notifier:  notifier,
		logger:    logger,
	}
}

// Handle runs one message through the pipeline and always produces exactly
// one reply. It never returns an error and recovers from panics.
func (p *Pipeline) Handle(ctx context.Context, msg InboundMessage) (out Outcome) {
	logger := p.logger.With("from", msg.From)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("unhandled panic processing message", "panic", r, "state", out.State)
			out.fail(StageInternal, GenericErrorReply)
		}
		if out.Reply == "" {
			logger.Error("pipeline finished without a reply", "state", out.State)
			out.fail(StageInternal, GenericErrorReply)
		}
	}()

	out.advance(StateReceived)
	p.run(ctx, msg, &out, logger)
	return out
}

func (p *Pipeline) run(ctx context.Context, msg InboundMessage, out *Outcome, logger *slog.Logger) {
	if !msg.HasMedia() {
		logger.Info("text-only message, sending usage instructions")
		out.Reply = UsageInstructions
		out.advance(StateReplied)
		return
	}
	out.advance(StateMediaChecked)
	logger.Info("media received", "content_type", msg.MediaContentType, "url", msg.MediaURL)

	audio, err := p.media.Fetch(ctx, msg.MediaURL)
	if err != nil {
		logger.Error("audio download failed", "error", err)
		out.fail(StageDownload, DownloadFailedReply)
		return
	}
	out.advance(StateDownloaded)
	logger.Info("audio downloaded", "bytes", len(audio))

	text, err := p.stt.Transcribe(ctx, audio, msg.MediaContentType)
	if err != nil {
		logger.Error("transcription failed", "error", err)
		out.fail(StageTranscription, TranscriptionFailedReply)
		return
	}
	out.Transcript = text
	out.advance(StateTranscribed)
	logger.Info("transcribed", "text", text)

	fields, err := p.extractor.Extract(ctx, text)
	if err != nil {
		var extErr *domain.ExtractionError
		if errors.As(err, &extErr) && extErr.Message != "" {
			logger.Warn("field extraction failed", "error", err, "missing", extErr.Missing)
			out.fail(StageExtraction, extErr.Message)
			return
		}
		logger.Error("field extraction failed unexpectedly", "error", err)
		out.fail(StageInternal, GenericErrorReply)
		return
	}
	out.Fields = fields
	out.advance(StateExtracted)
	logger.Info("fields extracted", "account", fields.Account, "name", fields.Name, "group", fields.Group)

	store, err := p.customers.Connect(ctx)
	if err != nil {
		logger.Error("ERP authentication failed", "error", err)
		out.fail(StageAuth, AuthFailedReply)
		p.notify(ctx, logger, fmt.Sprintf("Customer %s not created: authentication failed: %v", fields.Account, err))
		return
	}
	out.advance(StateAuthenticated)

	rec, err := p.customers.Create(ctx, store, fields)
	if err != nil {
		logger.Error("customer creation failed", "error", err)
		out.fail(StageCreate, CreateFailedReply)
		p.notify(ctx, logger, fmt.Sprintf("Customer %s not created: %v", fields.Account, err))
		return
	}
	out.Record = rec
	out.advance(StateCreated)

	confirmed := Confirmed(fields, rec)
	logger.Info("customer created", "account", confirmed.Account, "name", confirmed.Name, "group", confirmed.Group)
	p.notify(ctx, logger, fmt.Sprintf("Customer %s (%s) created in group %s by %s", confirmed.Account, confirmed.Name, confirmed.Group, msg.From))

	out.Reply = confirmationReply(confirmed)
	out.advance(StateReplied)
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, message string) {
	if err := p.notifier.Notify(ctx, message); err != nil {
		logger.Error("notifying operator", "error", err)
	}
}
