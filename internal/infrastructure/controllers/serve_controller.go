package controllers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gh "github.com/google/go-github/v66/github"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thecodeteam/goodbye"

	"github.com/rios0rios0/pinbump/internal/domain/commands"
	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/pinbump/internal/infrastructure/repositories"
	ghRepo "github.com/rios0rios0/pinbump/internal/infrastructure/repositories/github"
)

const (
	flagListen        = "listen"
	flagWebhookSecret = "webhook-secret"

	webhookPath       = "/webhook"
	metricsPath       = "/metrics"
	healthPath        = "/healthz"
	checkSuiteEvent   = "check_suite"
	completedAction   = "completed"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// ServeController handles the "serve" subcommand: a webhook receiver that
// merges opted-in pull requests once their checks pass.
type ServeController struct {
	command          commands.AutoMerge
	providerRegistry *infraRepos.ProviderRegistry
	metrics          *metricCollector
	exit             func(code int)
}

// NewServeController creates a new ServeController.
func NewServeController(
	command commands.AutoMerge,
	providerRegistry *infraRepos.ProviderRegistry,
) *ServeController {
	return &ServeController{
		command:          command,
		providerRegistry: providerRegistry,
		metrics:          newMetricCollector(),
		exit:             os.Exit,
	}
}

// GetBind returns the Cobra command metadata for the serve controller.
func (it *ServeController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "serve",
		Short: "Receive check suite webhooks and auto-merge pull requests",
		Long: `Listen for GitHub check_suite webhooks. When a suite completes, every
open pull request of its branch that carries the opt-in label and was
opened by the configured login is merged once all its check runs passed.

Prometheus metrics are exposed on /metrics.`,
	}
}

// Execute starts the webhook server and blocks until it is terminated.
func (it *ServeController) Execute(cmd *cobra.Command, _ []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		it.exit(1)
		return
	}

	flagToken, _ := cmd.Flags().GetString(flagToken)
	token := resolveToken(flagToken, settings)
	if token == "" {
		logger.Error(entities.ErrMissingToken)
		it.exit(1)
		return
	}
	if listen, _ := cmd.Flags().GetString(flagListen); listen != "" {
		settings.AutoMerge.Listen = listen
	}
	if secret, _ := cmd.Flags().GetString(flagWebhookSecret); secret != "" {
		settings.AutoMerge.WebhookSecret = secret
	}
	if settings.AutoMerge.WebhookSecret == "" {
		logger.Warn("No webhook secret configured, payload signatures are not verified")
	}

	api, err := it.providerRegistry.Get(ghRepo.ProviderName, token)
	if err != nil {
		logger.Error(err)
		it.exit(1)
		return
	}

	server := &http.Server{
		Addr:              settings.AutoMerge.Listen,
		Handler:           it.Handler(api, settings.AutoMerge),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx := context.Background()
	defer goodbye.Exit(ctx, 0)
	goodbye.Notify(ctx)
	goodbye.Register(func(context.Context, os.Signal) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Terminating webhook server")
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warnf("Shutting down webhook server failed: %v", shutdownErr)
		}
	})

	logger.Infof("Webhook server listening on %s", settings.AutoMerge.Listen)
	if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Errorf("Webhook server terminated unexpectedly: %v", serveErr)
		it.exit(1)
	}
}

// AddFlags adds the serve-specific flags to the given Cobra command.
func (it *ServeController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagListen, "", "Listen address (default: "+entities.DefaultListenAddress+")")
	cmd.Flags().String(flagWebhookSecret, "", "Secret used to verify webhook payload signatures")
}

// Handler returns the HTTP routes of the webhook server.
func (it *ServeController) Handler(
	api repositories.RepositoryAPI,
	settings entities.AutoMergeSettings,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(webhookPath, func(w http.ResponseWriter, r *http.Request) {
		it.handleWebhook(w, r, api, settings)
	})
	mux.Handle(metricsPath, promhttp.HandlerFor(it.metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (it *ServeController) handleWebhook(
	w http.ResponseWriter,
	r *http.Request,
	api repositories.RepositoryAPI,
	settings entities.AutoMergeSettings,
) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hookType := gh.WebHookType(r)
	deliveryID := gh.DeliveryID(r)
	logger.Debugf("Received %s webhook (delivery %s)", hookType, deliveryID)

	payload, err := gh.ValidatePayload(r, []byte(settings.WebhookSecret))
	if err != nil {
		logger.Infof("Payload validation of delivery %s failed: %v", deliveryID, err)
		it.metrics.EventInc(hookType, resultLabelInvalidVal)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	event, err := gh.ParseWebHook(hookType, payload)
	if err != nil {
		logger.Infof("Parsing delivery %s failed: %v", deliveryID, err)
		it.metrics.EventInc(hookType, resultLabelInvalidVal)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	suite, ok := event.(*gh.CheckSuiteEvent)
	if !ok || hookType != checkSuiteEvent || suite.GetAction() != completedAction {
		it.metrics.EventInc(hookType, resultLabelIgnoredVal)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	checkSuite := toCheckSuiteEvent(suite)
	decisions, err := it.command.Execute(r.Context(), api, checkSuite, commands.AutoMergeOptions{
		Login: settings.Login,
		Label: settings.Label,
	})
	for _, decision := range decisions {
		it.metrics.DecisionInc(checkSuite.Repository.String(), string(decision.State))
	}
	if err != nil {
		logger.Errorf("[%s] auto-merge of %s failed: %v", checkSuite.Repository, checkSuite.HeadBranch, err)
		it.metrics.EventInc(hookType, resultLabelFailedVal)
		http.Error(w, "auto-merge failed", http.StatusInternalServerError)
		return
	}

	it.metrics.EventInc(hookType, resultLabelProcessedVal)
	w.WriteHeader(http.StatusAccepted)
}

func toCheckSuiteEvent(event *gh.CheckSuiteEvent) entities.CheckSuiteEvent {
	repo := event.GetRepo()
	suite := event.GetCheckSuite()
	return entities.CheckSuiteEvent{
		Repository: entities.Repository{Owner: repo.GetOwner().GetLogin(), Name: repo.GetName()},
		HeadBranch: suite.GetHeadBranch(),
		HeadSHA:    suite.GetHeadSHA(),
		Conclusion: suite.GetConclusion(),
	}
}
