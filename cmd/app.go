package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/ai/gemini"
	"github.com/smartrecruit/smartrecruit/internal/launcher"
	"github.com/smartrecruit/smartrecruit/internal/logger"
	"github.com/smartrecruit/smartrecruit/internal/secrets"
	"github.com/smartrecruit/smartrecruit/internal/session"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
	"github.com/smartrecruit/smartrecruit/internal/workflow"
)

// application is everything a command needs, built once per invocation.
type application struct {
	config       *Config
	logger       *zap.Logger
	client       *smartrecruit.Client
	session      *session.Session
	applications *workflow.Applications
	resumes      *workflow.ResumeManager

	closers []func() error
}

func newApplication(ctx context.Context) *application {
	logger, err := logger.New(logger.Options{
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
		Output:  viper.GetString("log-file"),
		App:     app,
		Version: version,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	a := &application{config: config, logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		logger.Fatal("opening applied jobs store",
			zap.String("store", config.Session.Store),
			zap.Error(err),
		)
	}

	sess, err := session.Open(ctx, &session.TokenFile{Path: config.CredentialsFile}, store, logger)
	if err != nil {
		logger.Fatal("restoring session", zap.Error(err))
	}
	sess.FillUserID(config.UserID)
	a.session = sess

	client := smartrecruit.New(logger, sess)
	if config.APIURL != "" {
		client.APIURL = strings.TrimRight(config.APIURL, "/")
	}
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	if config.Timeout > 0 {
		client.HTTPClient.Timeout = config.Timeout
	}
	client.Unauthorized = sess.HandleUnauthorized
	a.client = client

	a.applications = workflow.NewApplications(client, sess.Store(), logger)
	a.resumes = workflow.NewResumeManager(client, logger)
	sess.OnTeardown(a.applications.Reset)
	sess.OnTeardown(a.resumes.Reset)
	sess.OnTeardown(func(context.Context) {
		logger.Info("session ended", zap.String("hint", "run `smartrecruit login` to sign in again"))
	})

	return a
}

func (a *application) openStore(ctx context.Context) (session.Store, error) {
	cfg := a.config.Session

	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case "memory":
		return session.NewMemoryStore(), nil
	case "", "file":
		return session.OpenFileStore(cfg.File)
	case "postgres", "postgresql":
		store, err := session.OpenPGStore(ctx, cfg.DatabaseURL, a.config.UserID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported session store %q (memory, file or postgres)", cfg.Store)
	}
}

func (a *application) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("closing resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// identity returns the logged in user or fails with ErrNotAuthenticated.
func (a *application) identity() (session.Identity, error) {
	identity, err := a.session.RequireIdentity()
	if err != nil {
		return identity, err
	}
	if identity.UserID == 0 {
		return identity, fmt.Errorf("the token carries no user id: set user-id in the config or SMARTRECRUIT_USER_ID")
	}
	return identity, nil
}

// questionSource picks the backend or the local Gemini generator for interview questions.
func (a *application) questionSource(ctx context.Context) (launcher.QuestionSource, error) {
	cfg := a.config.AI
	if !cfg.Enabled {
		return a.client, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithProvider(a.logger, "gemini", cfg.Gemini.Model).
		With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewQuestionGenerator(generator, cfg.Gemini.MaxLogLength, a.logger), nil
}

// confirm asks a yes/no question unless yes is already given.
func confirm(label string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}

	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UserMessage turns a command error into the line shown to the user.
func UserMessage(err error) string {
	var (
		validation *smartrecruit.ValidationError
		noMatches  *smartrecruit.NoMatchesError
		backend    *smartrecruit.BackendError
		applied    *smartrecruit.AlreadyAppliedError
		withdrawn  *smartrecruit.AlreadyWithdrawnError
		transport  *smartrecruit.TransportError
	)

	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return "You are not logged in. Run `smartrecruit login` first."
	case errors.Is(err, workflow.ErrUnknownIntent):
		return "This confirmation has expired. Please start again."
	case errors.Is(err, promptui.ErrInterrupt):
		return "Interrupted."
	case errors.As(err, &backend) && backend.Unauthorized():
		return "Your session has expired. Run `smartrecruit login` to sign in again."
	case errors.As(err, &validation), errors.As(err, &noMatches), errors.As(err, &backend),
		errors.As(err, &applied), errors.As(err, &withdrawn), errors.As(err, &transport):
		return smartrecruit.Message(err)
	default:
		return err.Error()
	}
}
