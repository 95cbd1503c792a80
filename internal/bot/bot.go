// Package bot provides the Telegram bot initialization, middleware
// and event routing.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/config"
	"ctf-flag-bot/internal/handler"
	"ctf-flag-bot/internal/intent"
	"ctf-flag-bot/internal/pkg/lock"
	"ctf-flag-bot/internal/pkg/pager"
	"ctf-flag-bot/internal/pkg/retry"
	"ctf-flag-bot/internal/service"
	"ctf-flag-bot/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	sessions *session.Store
	snaps    *pager.Store
	done     chan struct{}

	accountHandler   *handler.AccountHandler
	submitHandler    *handler.SubmitHandler
	authoringHandler *handler.AuthoringHandler
	catalogHandler   *handler.CatalogHandler
	reportHandler    *handler.ReportHandler
	adminHandler     *handler.AdminHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config     *config.Config
	Auth       *service.AuthService
	Account    *service.AccountService
	Challenge  *service.ChallengeService
	Submission *service.SubmissionService
	Report     *service.ReportService
	Sessions   *session.Store
	Snapshots  *pager.Store
	UserLock   *lock.UserLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: newPoller(&deps.Config.Bot),
		OnError: func(err error, c tele.Context) {
			// Top of the dispatch chain: log and isolate. The failing
			// interaction gets no reply, others are unaffected.
			logEvent := log.Error().Err(err)
			if c != nil && c.Sender() != nil {
				logEvent = logEvent.Int64("user_id", c.Sender().ID)
			}
			if c != nil {
				logEvent = logEvent.Str("text", c.Text())
			}
			logEvent.Msg("Unhandled error in handler")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	media := handler.NewMedia(&deps.Config.Media)

	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		sessions: deps.Sessions,
		snaps:    deps.Snapshots,
		done:     make(chan struct{}),

		accountHandler:   handler.NewAccountHandler(deps.Account, deps.Sessions, deps.Snapshots),
		submitHandler:    handler.NewSubmitHandler(deps.Account, deps.Submission, deps.Sessions, media, deps.UserLock),
		authoringHandler: handler.NewAuthoringHandler(deps.Challenge, deps.Sessions),
		catalogHandler:   handler.NewCatalogHandler(deps.Challenge),
		reportHandler:    handler.NewReportHandler(deps.Report, deps.Snapshots, &deps.Config.Paging),
		adminHandler:     handler.NewAdminHandler(deps.Auth, deps.Challenge),
	}

	b.registerMiddleware()
	b.registerHandlers(deps.Auth)

	return b, nil
}

// newPoller picks push delivery when a public webhook URL is
// configured, long polling otherwise.
func newPoller(cfg *config.BotConfig) tele.Poller {
	if cfg.WebhookURL != "" {
		log.Info().Str("url", cfg.WebhookURL).Msg("Using webhook delivery")
		return &tele.Webhook{
			Listen:   cfg.ListenAddr,
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	}
	return &tele.LongPoller{Timeout: time.Duration(cfg.PollTimeout) * time.Second}
}

// registerMiddleware registers the global middleware chain.
func (b *Bot) registerMiddleware() {
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RecoveryMiddleware())
}

// registerHandlers registers all command, text and callback handlers.
func (b *Bot) registerHandlers(auth *service.AuthService) {
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/help", b.accountHandler.HandleHelp)
	b.bot.Handle("/myviewpoints", b.accountHandler.HandleMyPoints)
	b.bot.Handle("/cancel", b.accountHandler.HandleCancel)

	b.bot.Handle("/submit", b.submitHandler.HandleSubmit)
	b.bot.Handle("/viewchallenges", b.catalogHandler.HandleViewChallenges)
	b.bot.Handle("/leaderboard", b.reportHandler.HandleLeaderboard)
	b.bot.Handle("/bloods", b.reportHandler.HandleBloods)

	// Admin commands, gated as a group.
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(auth))
	adminGroup.Handle("/addflag", b.authoringHandler.HandleAddFlag)
	adminGroup.Handle("/addnewadmins", b.adminHandler.HandleAddAdmin)
	adminGroup.Handle("/delete", b.adminHandler.HandleDelete)
	adminGroup.Handle("/viewpoints", b.reportHandler.HandleViewPoints)
	adminGroup.Handle("/viewusers", b.reportHandler.HandleViewUsers)
	adminGroup.Handle("/viewsubmissions", b.reportHandler.HandleViewSubmissions)

	// Flow continuations and button presses.
	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleText routes free text to whichever flow is waiting for it.
// Text outside any flow is ignored.
func (b *Bot) handleText(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	st := b.sessions.Get(session.Key{UserID: sender.ID, ChatID: chat.ID})
	switch st.Stage {
	case session.StageAwaitFlag:
		return b.submitHandler.HandleFlagText(c)
	case session.StageAuthorName, session.StageAuthorPoints,
		session.StageAuthorLink, session.StageAuthorFlag:
		return b.authoringHandler.HandleStep(c, st)
	}
	return nil
}

// handleCallback parses the button payload once and routes the typed
// intent. Malformed payloads are a logged no-op.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	in, ok := intent.ParseIntent(callback.Data)
	if !ok {
		log.Debug().Str("data", callback.Data).Msg("Ignoring malformed callback payload")
		return c.Respond(&tele.CallbackResponse{})
	}

	switch in.Kind {
	case intent.IntentPickChallenge:
		return b.submitHandler.HandlePick(c, in.Name)
	case intent.IntentChallengeDetail:
		return b.catalogHandler.HandleDetail(c, in.Name)
	case intent.IntentBloodDetail:
		return b.reportHandler.HandleBloodDetail(c, in.Name)
	case intent.IntentPage:
		return b.reportHandler.HandlePage(c, in.Domain, in.Page)
	}
	return nil
}

// commands is the menu registered with Telegram at startup.
var commands = []tele.Command{
	{Text: "start", Description: "Start the bot"},
	{Text: "help", Description: "Show help"},
	{Text: "submit", Description: "Submit a flag"},
	{Text: "myviewpoints", Description: "View your points"},
	{Text: "viewchallenges", Description: "List challenges"},
	{Text: "leaderboard", Description: "View top users"},
	{Text: "bloods", Description: "Solver counts per challenge"},
	{Text: "addflag", Description: "Add/update a challenge"},
	{Text: "addnewadmins", Description: "Grant admin rights"},
	{Text: "delete", Description: "Delete a challenge"},
	{Text: "viewpoints", Description: "View all users points"},
	{Text: "viewusers", Description: "View registered users"},
	{Text: "viewsubmissions", Description: "View submissions log"},
	{Text: "cancel", Description: "Cancel current operation"},
}

// Start registers the command menu, starts the session janitor and
// begins consuming updates. Blocks until Stop is called.
func (b *Bot) Start() {
	// Menu registration is idempotent, so transient failures get a
	// bounded retry; after that the old menu simply stays.
	err := retry.Do(retry.DefaultAttempts, retry.DefaultDelay, func() error {
		return b.bot.SetCommands(commands)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to register command menu")
	}

	if ttl := b.cfg.Session.TTL; ttl > 0 {
		go b.janitor(ttl)
	}

	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// janitor periodically expires abandoned flows and stale report
// snapshots so a long-lived process does not accumulate them.
func (b *Bot) janitor(ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := b.sessions.Sweep(ttl); n > 0 {
				log.Debug().Int("sessions", n).Msg("Expired abandoned flows")
			}
			if n := b.snaps.Sweep(ttl); n > 0 {
				log.Debug().Int("snapshots", n).Msg("Expired report snapshots")
			}
		case <-b.done:
			return
		}
	}
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	close(b.done)
	b.bot.Stop()
}
