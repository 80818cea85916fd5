package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"ibetu/internal/auth"
	"ibetu/internal/config"
	"ibetu/internal/email"
	"ibetu/internal/httpapi"
	"ibetu/internal/notifications"
	"ibetu/internal/service"
	"ibetu/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		authSvc          *service.AuthService
		friendsSvc       *service.FriendsService
		betSvc           *service.BetService
		achievementSvc   *service.AchievementService
		statsSvc         *service.StatsService
		usersSvc         *service.UsersService
		profileSvc       *service.ProfileService
		walletSvc        *service.WalletService
		notificationSvc  *service.NotificationService
		passwordResetSvc *service.PasswordResetService
		dbPing           func(context.Context) error
	)

	if cfg.DBDSN != "" {
		if err := postgres.Migrate(cfg.DBDSN); err != nil {
			logger.Error("db migrate failed", "err", err)
			os.Exit(1)
		}

		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		friendships := postgres.NewFriendshipsStore(pgPool)
		bets := postgres.NewBetsStore(pgPool)
		achievements := postgres.NewAchievementsStore(pgPool)
		stats := postgres.NewStatsStore(pgPool)
		passwordResets := postgres.NewPasswordResetsStore(pgPool)
		notificationTokens := postgres.NewNotificationTokensStore(pgPool)

		var emailSender *email.Sender
		if cfg.SMTP.Enabled() {
			emailSender = &email.Sender{
				Settings: email.SMTPSettings{
					Host:     cfg.SMTP.Host,
					Port:     cfg.SMTP.Port,
					Username: cfg.SMTP.Username,
					Password: cfg.SMTP.Password,
					TLSMode:  cfg.SMTP.TLSMode,
				},
				FromName:  cfg.SMTP.FromName,
				FromEmail: cfg.SMTP.FromEmail,
			}
		} else {
			logger.Info("smtp disabled, password reset and mail notifications unavailable")
		}

		var push service.PushSender
		if cfg.FCMProjectID != "" && cfg.FCMCredentialsPath != "" {
			fcm, err := notifications.NewFCMSender(context.Background(), cfg.FCMProjectID, cfg.FCMCredentialsPath)
			if err != nil {
				logger.Error("fcm init failed", "err", err)
				os.Exit(1)
			}
			push = fcm
		} else {
			logger.Info("fcm disabled, push notifications unavailable")
		}

		notificationSvc = &service.NotificationService{
			Tokens: notificationTokens,
			Users:  users,
			Push:   push,
			Logger: logger,
		}
		if emailSender != nil {
			notificationSvc.Email = emailSender
		}

		authSvc = &service.AuthService{
			Users:      users,
			Sessions:   sessions,
			SessionTTL: cfg.SessionTTL,
		}
		if cfg.GoogleClientID != "" {
			clientID := cfg.GoogleClientID
			authSvc.Google = func(ctx context.Context, idToken string) (auth.ExternalTokenClaims, error) {
				claims, err := auth.VerifyGoogleIDToken(ctx, idToken, clientID)
				if err != nil {
					return auth.ExternalTokenClaims{}, err
				}
				return *claims, nil
			}
		}
		if cfg.AppleServiceID != "" {
			serviceID := cfg.AppleServiceID
			authSvc.Apple = func(ctx context.Context, idToken string) (auth.ExternalTokenClaims, error) {
				claims, err := auth.VerifyAppleIDToken(ctx, idToken, serviceID)
				if err != nil {
					return auth.ExternalTokenClaims{}, err
				}
				return *claims, nil
			}
		}

		achievementSvc = &service.AchievementService{
			Unlocks:  achievements,
			Outcomes: bets,
			Users:    users,
		}
		friendsSvc = &service.FriendsService{
			Users:       users,
			Friendships: friendships,
			Notify:      notificationSvc,
		}
		betSvc = &service.BetService{
			Bets:         bets,
			Friends:      friendships,
			Achievements: achievementSvc,
			Notify:       notificationSvc,
			Logger:       logger,
		}
		statsSvc = &service.StatsService{
			Stats:    stats,
			Outcomes: bets,
			Users:    users,
		}
		usersSvc = &service.UsersService{Users: users}
		profileSvc = &service.ProfileService{Users: users}
		walletSvc = &service.WalletService{Users: users}

		if emailSender != nil {
			publicURL := ""
			if cfg.PublicURL != nil {
				publicURL = cfg.PublicURL.String()
			}
			passwordResetSvc = &service.PasswordResetService{
				Store:     passwordResets,
				Users:     users,
				Email:     emailSender,
				PublicURL: publicURL,
				Logger:    logger,
			}
		}

		dbPing = pgPool.Ping
	}

	apiRouter := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:        logger,
		IsProd:        cfg.IsProd(),
		DBPing:        dbPing,
		Auth:          authSvc,
		Friends:       friendsSvc,
		Bets:          betSvc,
		Achievements:  achievementSvc,
		Stats:         statsSvc,
		Users:         usersSvc,
		Profile:       profileSvc,
		Wallet:        walletSvc,
		Notifications: notificationSvc,
		PasswordReset: passwordResetSvc,
		CookieCodec:   auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		CookieSecure:  cfg.CookieSecure(),
		SessionTTL:    cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
