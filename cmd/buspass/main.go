package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/repository"
	"github.com/noah-isme/buspass-portal/internal/service"
	"github.com/noah-isme/buspass-portal/pkg/config"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/logger"
)

const usage = `usage: buspass <command> [flags]

commands:
  login      -email -password      sign in and remember the session
  logout                           forget the stored session
  whoami                           print the signed-in principal
  standing                         print the current pass standing
  apply      -type -source -dest -doc KIND=REF (repeatable)
  pay                              pay for the approved application
  countdown                        tick the pass countdown until interrupted
  sos        -lat -lng -message    raise an SOS alert
  alerts     -page -watch          list SOS alerts (admin)
  resolve    -id                   resolve an SOS alert (admin)
  review     -status               list applications (admin)
  decide     -id -status           approve or reject an application (admin)
`

type app struct {
	cfg       *config.Config
	store     *sessionFile
	auth      *repository.AuthRepository
	lifecycle *service.LifecycleService
	review    *service.ApplicationReviewService
	payments  *service.PaymentService
	sos       *service.SOSService
	monitors  *service.AlertMonitorService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	cfg.Log.Format = "console"
	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	store, err := defaultSessionFile()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logr, store)
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, logr *zap.Logger, store *sessionFile) *app {
	validate := validator.New()
	backend := repository.NewBackendClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, nil, logger.Named(logr, "backend"))
	passRepo := repository.NewPassRepository(backend)
	alertRepo := repository.NewAlertRepository(backend)

	lifecycle := service.NewLifecycleService(passRepo, validate, logger.Named(logr, "lifecycle"), service.LifecycleConfig{Location: cfg.Location})
	return &app{
		cfg:       cfg,
		store:     store,
		auth:      repository.NewAuthRepository(backend),
		lifecycle: lifecycle,
		review:    service.NewApplicationReviewService(passRepo, validate, logger.Named(logr, "review")),
		payments:  service.NewPaymentService(repository.NewPaymentRepository(backend), lifecycle, logger.Named(logr, "payment"), nil),
		sos: service.NewSOSService(alertRepo, validate, logger.Named(logr, "sos"), service.SOSConfig{
			DefaultMessage:   cfg.SOS.DefaultMessage,
			MaxMessageLength: cfg.SOS.MaxMessageLength,
			LocateTimeout:    cfg.SOS.GeolocationTimeout,
		}),
		monitors: service.NewAlertMonitorService(alertRepo, logger.Named(logr, "alerts"), service.MonitorConfig{
			PollInterval: cfg.Alerts.PollInterval,
			PageSize:     cfg.Alerts.PageSize,
		}),
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.store.Clear()
	case "whoami":
		p, err := a.principal()
		if err != nil {
			return err
		}
		return printJSON(p)
	case "standing":
		return a.standing(ctx)
	case "apply":
		return a.apply(ctx, args)
	case "pay":
		return a.pay(ctx)
	case "countdown":
		return a.countdown(ctx)
	case "sos":
		return a.raiseSOS(ctx, args)
	case "alerts":
		return a.alerts(ctx, args)
	case "resolve":
		return a.resolve(ctx, args)
	case "review":
		return a.reviewList(ctx, args)
	case "decide":
		return a.decide(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) principal() (models.Principal, error) {
	p, err := a.store.Load()
	if err != nil {
		return models.Principal{}, err
	}
	if p == nil {
		return models.Principal{}, appErrors.Clone(appErrors.ErrUnauthorized, "not signed in, run: buspass login")
	}
	return *p, nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", os.Getenv("BUSPASS_PASSWORD"), "Account password (or BUSPASS_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("--email and --password are required")
	}
	p, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.store.Save(*p); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", p.Name, p.Role)
	return nil
}

func (a *app) standing(ctx context.Context) error {
	p, err := a.principal()
	if err != nil {
		return err
	}
	standing, err := a.lifecycle.ResolveStanding(ctx, p)
	if err != nil {
		return err
	}
	return printJSON(a.lifecycle.Describe(p, *standing))
}

func (a *app) apply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	passType := fs.String("type", string(models.PassTypeMonthly), "MONTHLY, QUARTERLY or YEARLY")
	source := fs.String("source", "", "Boarding stop")
	dest := fs.String("dest", "", "Destination stop")
	var docs documentFlags
	fs.Var(&docs, "doc", "Document as KIND=REFERENCE, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.principal()
	if err != nil {
		return err
	}
	submitted, err := a.lifecycle.Apply(ctx, p, dto.SubmitApplicationRequest{
		PassType:    models.PassType(*passType),
		Source:      *source,
		Destination: *dest,
		Documents:   docs,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Application #%d submitted\n", submitted.ID)
	return nil
}

func (a *app) pay(ctx context.Context) error {
	p, err := a.principal()
	if err != nil {
		return err
	}
	outcome, err := a.payments.Pay(ctx, p, newTerminalWidget(os.Stdin, os.Stdout))
	if err != nil {
		return err
	}
	if outcome.Cancelled {
		fmt.Println("Payment cancelled")
		return nil
	}
	return printJSON(outcome)
}

func (a *app) countdown(ctx context.Context) error {
	p, err := a.principal()
	if err != nil {
		return err
	}
	standing, err := a.lifecycle.ResolveStanding(ctx, p)
	if err != nil {
		return err
	}
	if standing.Pass == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "no pass has been issued yet")
	}

	clock := a.lifecycle.Clock(*standing.Pass, a.cfg.Expiry.Tick, func(cd models.Countdown) {
		if cd.IsExpired {
			fmt.Print("\rPass expired                          ")
			return
		}
		fmt.Printf("\r%dd %02dh %02dm %02ds remaining   ", cd.Days, cd.Hours, cd.Minutes, cd.Seconds)
	})
	clock.Start(ctx)
	<-ctx.Done()
	clock.Stop()
	fmt.Println()
	return nil
}

func (a *app) raiseSOS(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sos", flag.ContinueOnError)
	lat := fs.Float64("lat", 0, "Latitude")
	lng := fs.Float64("lng", 0, "Longitude")
	message := fs.String("message", "", "Optional message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.principal()
	if err != nil {
		return err
	}

	var locator service.Locator = service.LocatorFunc(func(context.Context) (models.Coordinates, error) {
		return models.Coordinates{}, &service.LocationError{Kind: service.LocationUnavailable}
	})
	if flagSet(fs, "lat") && flagSet(fs, "lng") {
		locator = service.StaticLocator(models.Coordinates{Latitude: *lat, Longitude: *lng})
	}

	flow := a.sos.NewFlow(p, locator)
	if !flow.Open() {
		return appErrors.Clone(appErrors.ErrForbidden, "SOS is not available for administrators")
	}
	defer flow.Close()

	coords, err := flow.AcquireLocation(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Location: %s\n", coords)
	alert, err := flow.Send(ctx, *message)
	if err != nil {
		return err
	}
	fmt.Printf("SOS alert #%d sent. Help is on the way.\n", alert.ID)
	return nil
}

func (a *app) alerts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("alerts", flag.ContinueOnError)
	page := fs.Int("page", 1, "Page number")
	watch := fs.Bool("watch", false, "Keep polling until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.principal()
	if err != nil {
		return err
	}
	monitor, err := a.monitors.NewMonitor(p)
	if err != nil {
		return err
	}

	if !*watch {
		if err := monitor.Refresh(ctx); err != nil {
			return err
		}
		return printJSON(monitor.Page(*page))
	}

	monitor.Start(ctx, func(snap service.MonitorSnapshot) {
		if snap.Error != "" {
			fmt.Fprintln(os.Stderr, "refresh failed:", snap.Error)
			return
		}
		fmt.Printf("%s  %d active of %d\n", snap.RefreshedAt.Format("15:04:05"), snap.ActiveCount, len(snap.Alerts))
		for _, alert := range models.Page(snap.Alerts, a.cfg.Alerts.PageSize, *page) {
			fmt.Printf("  #%-5d %-8s %-20s %s\n", alert.ID, alert.Status, alert.ReporterName, alert.MapURL())
		}
	})
	<-ctx.Done()
	monitor.Stop()
	return nil
}

func (a *app) resolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Alert ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.principal()
	if err != nil {
		return err
	}
	monitor, err := a.monitors.NewMonitor(p)
	if err != nil {
		return err
	}
	if err := monitor.Resolve(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("Alert #%d resolved, %d still active\n", *id, monitor.ActiveCount())
	return nil
}

func (a *app) reviewList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	status := fs.String("status", "", "PENDING, APPROVED or REJECTED")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.principal()
	if err != nil {
		return err
	}
	resp, err := a.review.List(ctx, p, dto.ApplicationFilter{Status: models.ApplicationStatus(strings.ToUpper(*status))})
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *app) decide(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decide", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Application ID")
	status := fs.String("status", "", "APPROVED or REJECTED")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.principal()
	if err != nil {
		return err
	}
	resp, err := a.review.Review(ctx, p, *id, dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatus(strings.ToUpper(*status))})
	if err != nil {
		return err
	}
	fmt.Printf("Application #%d %s. %d pending.\n", *id, strings.ToLower(*status), resp.Counts.Pending)
	return nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func describe(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
