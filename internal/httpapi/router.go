package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ibetu/internal/auth"
	"ibetu/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth          *service.AuthService
	Friends       *service.FriendsService
	Bets          *service.BetService
	Achievements  *service.AchievementService
	Stats         *service.StatsService
	Users         *service.UsersService
	Profile       *service.ProfileService
	Wallet        *service.WalletService
	Notifications *service.NotificationService
	PasswordReset *service.PasswordResetService

	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration
	AvatarDir    string
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.AvatarDir == "" {
		opts.AvatarDir = "data/avatars"
	}

	api := &api{
		logger:           logger,
		isProd:           opts.IsProd,
		dbPing:           opts.DBPing,
		authSvc:          opts.Auth,
		friendsSvc:       opts.Friends,
		betSvc:           opts.Bets,
		achievementSvc:   opts.Achievements,
		statsSvc:         opts.Stats,
		usersSvc:         opts.Users,
		profileSvc:       opts.Profile,
		walletSvc:        opts.Wallet,
		notificationSvc:  opts.Notifications,
		passwordResetSvc: opts.PasswordReset,
		avatarDir:        opts.AvatarDir,
		cookieCodec:      opts.CookieCodec,
		cookieSecure:     opts.CookieSecure,
		sessionTTL:       opts.SessionTTL,
		loginLimiter:     newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)
	publicMux.HandleFunc("GET /{$}", handleRoot)
	publicMux.HandleFunc("GET /privacy", handlePrivacy)

	apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
	apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
	apiMux.HandleFunc("POST /v1/auth/google", api.handleAuthLoginGoogle)
	apiMux.HandleFunc("POST /v1/auth/apple", api.handleAuthLoginApple)
	apiMux.HandleFunc("POST /v1/auth/logout", api.requireAuth(api.handleAuthLogout))

	if api.passwordResetSvc != nil {
		apiMux.HandleFunc("POST /v1/auth/password-reset/request", api.handlePasswordResetRequest)
		apiMux.HandleFunc("POST /v1/auth/password-reset/confirm", api.handlePasswordResetConfirm)
	}

	apiMux.HandleFunc("GET /v1/users/me", api.requireAuth(api.handleUsersMe))
	apiMux.HandleFunc("DELETE /v1/users/me", api.requireAuth(api.handleUsersMeDelete))
	if api.profileSvc != nil {
		apiMux.HandleFunc("PATCH /v1/users/me", api.requireAuth(api.handleUsersMeUpdate))
		apiMux.HandleFunc("POST /v1/users/me/avatar", api.requireAuth(api.handleUsersMeAvatar))
		apiMux.HandleFunc("POST /v1/users/me/password", api.requireAuth(api.handleUsersMePassword))
	}
	if api.usersSvc != nil {
		apiMux.HandleFunc("GET /v1/users/search", api.requireAuth(api.handleUsersSearch))
	}

	if api.friendsSvc != nil {
		apiMux.HandleFunc("GET /v1/friends", api.requireAuth(api.handleFriendsList))
		apiMux.HandleFunc("DELETE /v1/friends/{id}", api.requireAuth(api.handleFriendsRemove))
		apiMux.HandleFunc("POST /v1/friends/requests", api.requireAuth(api.handleFriendsCreateRequest))
		apiMux.HandleFunc("POST /v1/friends/requests/{id}/accept", api.requireAuth(api.handleFriendsAccept))
		apiMux.HandleFunc("POST /v1/friends/requests/{id}/decline", api.requireAuth(api.handleFriendsDecline))
		apiMux.HandleFunc("POST /v1/friends/requests/{id}/cancel", api.requireAuth(api.handleFriendsCancel))
		apiMux.HandleFunc("POST /v1/friends/invites", api.requireAuth(api.handleFriendsCreateInvite))
		apiMux.HandleFunc("POST /v1/friends/invites/accept", api.requireAuth(api.handleFriendsAcceptInvite))
	}

	if api.betSvc != nil {
		apiMux.HandleFunc("POST /v1/bets", api.requireAuth(api.handleBetsCreate))
		apiMux.HandleFunc("GET /v1/bets", api.requireAuth(api.handleBetsList))
		apiMux.HandleFunc("GET /v1/bets/{id}", api.requireAuth(api.handleBetsGet))
		apiMux.HandleFunc("POST /v1/bets/{id}/accept", api.requireAuth(api.handleBetsAccept))
		apiMux.HandleFunc("POST /v1/bets/{id}/decline", api.requireAuth(api.handleBetsDecline))
		apiMux.HandleFunc("POST /v1/bets/{id}/cancel", api.requireAuth(api.handleBetsCancel))
		apiMux.HandleFunc("POST /v1/bets/{id}/result", api.requireAuth(api.handleBetsApproveResult))
	}

	if api.achievementSvc != nil {
		apiMux.HandleFunc("GET /v1/achievements", api.requireAuth(api.handleAchievements))
		apiMux.HandleFunc("POST /v1/achievements/check", api.requireAuth(api.handleAchievementsCheck))
	}

	if api.statsSvc != nil {
		apiMux.HandleFunc("GET /v1/stats/summary", api.requireAuth(api.handleStatsSummary))
		apiMux.HandleFunc("GET /v1/stats/head-to-head/{id}", api.requireAuth(api.handleStatsHeadToHead))
		apiMux.HandleFunc("GET /v1/leaderboard", api.requireAuth(api.handleLeaderboard))
		apiMux.HandleFunc("GET /v1/leaderboard/friends", api.requireAuth(api.handleLeaderboardFriends))
	}

	if api.walletSvc != nil {
		apiMux.HandleFunc("GET /v1/wallet", api.requireAuth(api.handleWalletGet))
		apiMux.HandleFunc("POST /v1/wallet/deposit", api.requireAuth(api.handleWalletDeposit))
		apiMux.HandleFunc("POST /v1/wallet/withdraw", api.requireAuth(api.handleWalletWithdraw))
	}

	if api.notificationSvc != nil {
		apiMux.HandleFunc("POST /v1/notifications/tokens", api.requireAuth(api.handleNotificationTokenRegister))
		apiMux.HandleFunc("DELETE /v1/notifications/tokens", api.requireAuth(api.handleNotificationTokenDelete))
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("IBetU API. See /v1.\n"))
}

func handlePrivacy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(`IBetU privacy policy

We store the account details you give us (email, username, display name,
avatar), your friendships, your bets, and device tokens you register for
push notifications. Wallet balances are play money only. We do not sell
or share your data. To delete your account and its data, use the delete
account option in the app.
`))
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

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

	avatarDir    string
	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
