// Command interview runs one complete proctored interview session from the
// terminal: eligibility check, resume intake, question generation, timed
// recording per question, then evaluation and persistence. Answer clips come
// from a prerecorded media file; pressing Enter stops the current answer
// early.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/hireloop/interviewd/internal/common"
	"github.com/hireloop/interviewd/internal/entity"
	"github.com/hireloop/interviewd/internal/interview"
	"github.com/hireloop/interviewd/internal/llm/gemini"
	"github.com/hireloop/interviewd/internal/media"
	"github.com/hireloop/interviewd/internal/raster"
	repo "github.com/hireloop/interviewd/internal/repository"
	"github.com/hireloop/interviewd/internal/speech"
	"github.com/hireloop/interviewd/internal/storage"
	"github.com/hireloop/interviewd/internal/transcription"
)

func main() {
	var (
		jobID      = flag.String("job", "", "job id to interview for (required)")
		uid        = flag.String("uid", "", "candidate uid (required)")
		name       = flag.String("name", "", "candidate full name (required)")
		email      = flag.String("email", "", "candidate email (required)")
		experience = flag.String("experience", "", "candidate experience, e.g. '2 years'")
		resumePath = flag.String("resume", "", "path to resume file, PDF or image (required)")
		videoPath  = flag.String("video", "", "path to prerecorded answer clip (required)")
		seedTitle  = flag.String("seed-title", "", "upsert the job with this title before starting (local runs)")
		seedDesc   = flag.String("seed-desc", "", "job description used with --seed-title")
	)
	flag.Parse()

	if *jobID == "" || *uid == "" || *name == "" || *email == "" || *resumePath == "" || *videoPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --job, --uid, --name, --email, --resume and --video are required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := repo.OpenStore(ctx, cfg.Database.Driver, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *seedTitle != "" {
		if err := store.UpsertJob(ctx, &entity.Job{ID: *jobID, Title: *seedTitle, Description: *seedDesc}); err != nil {
			logger.Error("failed to seed job", "error", err)
			os.Exit(1)
		}
	}

	llmClient := gemini.NewClient(gemini.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	blobs := storage.NewClient(storage.Config{
		BaseURL:      cfg.Storage.BaseURL,
		CloudName:    cfg.Storage.CloudName,
		UploadPreset: cfg.Storage.UploadPreset,
		Timeout:      cfg.Storage.Timeout,
	}, logger)

	transcriber := transcription.NewClient(transcription.Config{
		BaseURL: cfg.Transcription.BaseURL,
		APIKey:  cfg.Transcription.APIKey,
		Timeout: cfg.Transcription.Timeout,
	}, logger)
	poller := transcription.NewPoller(transcriber, cfg.Transcription.PollInterval, cfg.Transcription.PollAttempts, logger)

	var narrator speech.Narrator = speech.Noop{}
	if cfg.Speech.Binary != "" {
		narrator = speech.NewCommandNarrator(cfg.Speech.Binary, logger)
	}

	candidate := entity.Candidate{
		UID:        *uid,
		FullName:   *name,
		Email:      *email,
		Experience: *experience,
	}

	wizard := interview.NewWizard(candidate, *jobID, interview.Collaborators{
		Questions:   llmClient,
		Feedback:    llmClient,
		Storage:     blobs,
		Transcripts: transcriber,
		Poller:      poller,
		Jobs:        store,
		Submissions: store,
		Device:      media.NewFileDevice(*videoPath, mimeFor(*videoPath)),
		Narrator:    narrator,
		Rasterizer:  raster.NewConverter(cfg.Raster.Converter, logger),
	},
		interview.WithLogger(logger),
		interview.WithObserver(&terminalObserver{out: os.Stdout}),
		interview.WithQuestionCount(cfg.Interview.QuestionCount),
		interview.WithTiming(interview.Timing{
			CountdownLead: cfg.Interview.CountdownLead,
			AnswerBudget:  cfg.Interview.AnswerBudget,
			Tick:          cfg.Interview.Tick,
		}),
	)

	if err := wizard.Start(ctx); err != nil {
		logger.Error("cannot start session", "error", err)
		os.Exit(1)
	}
	job := wizard.Job()

	fmt.Printf("Interview for: %s\n\n", job.Title)
	fmt.Println("Instructions:")
	fmt.Printf("- You will answer %d questions tailored to your resume.\n", cfg.Interview.QuestionCount)
	fmt.Printf("- Each answer records for up to %s after a %s countdown.\n", cfg.Interview.AnswerBudget, cfg.Interview.CountdownLead)
	fmt.Println("- Press Enter to finish an answer early.")
	fmt.Println()
	if err := wizard.Proceed(); err != nil {
		logger.Error("cannot proceed", "error", err)
		os.Exit(1)
	}

	resume, err := os.ReadFile(*resumePath)
	if err != nil {
		logger.Error("cannot read resume", "path", *resumePath, "error", err)
		os.Exit(1)
	}
	if err := wizard.SubmitResume(ctx, interview.ResumeFile{
		Name:     filepath.Base(*resumePath),
		MimeType: mimeFor(*resumePath),
		Data:     resume,
	}); err != nil {
		logger.Error("session setup failed", "error", err)
		os.Exit(1)
	}

	// Enter stops the in-flight answer.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			wizard.StopAnswer()
		}
	}()

	if err := wizard.Run(ctx); err != nil {
		logger.Error("interview aborted", "error", err)
		os.Exit(1)
	}

	id, err := wizard.Finalize(ctx)
	if err != nil {
		logger.Error("finalization failed", "error", err)
		os.Exit(1)
	}

	sess := wizard.Session()
	fmt.Println("\nInterview complete!")
	fmt.Printf("- Submission: %s\n", id)
	fmt.Printf("- Questions answered: %d\n", len(sess.Questions))
	fmt.Printf("- Tab switches recorded: %d\n", wizard.Violations())
}

func mimeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webm":
		return "video/webm"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// terminalObserver renders session progress as plain terminal lines.
type terminalObserver struct {
	out *os.File
}

func (o *terminalObserver) StepChanged(_, to interview.Step) {
	if to == interview.StepFinalizing {
		fmt.Fprintln(o.out, "\nAll questions answered. Evaluating...")
	}
}

func (o *terminalObserver) StatusMessage(msg string) {
	fmt.Fprintln(o.out, msg)
}

func (o *terminalObserver) QuestionStarted(index int, question string) {
	fmt.Fprintf(o.out, "\nQuestion %d: %s\n", index+1, question)
}

func (o *terminalObserver) PhaseChanged(index int, phase interview.Phase) {
	switch phase {
	case interview.PhaseRecording:
		fmt.Fprintln(o.out, "Recording... press Enter to stop.")
	case interview.PhaseUploading:
		fmt.Fprintln(o.out, "Uploading answer...")
	}
}

func (o *terminalObserver) CountdownTick(_, remaining int) {
	if remaining > 0 {
		fmt.Fprintf(o.out, "Starting in %d...\n", remaining)
	}
}

func (o *terminalObserver) RecordingTick(_, remaining int) {
	if remaining > 0 && remaining%15 == 0 {
		fmt.Fprintf(o.out, "%d ticks left\n", remaining)
	}
}

func (o *terminalObserver) AnswerCompleted(index int) {
	fmt.Fprintf(o.out, "Answer %d saved.\n", index+1)
}
