// Smart Office - meeting room facility controller
//
// This is the main entry point of the smart office service. It manages a
// set of bookable meeting rooms whose occupancy drives air conditioning,
// lighting and the automatic release of unused bookings. Rooms are driven
// from the interactive console and, when MQTT is enabled, from occupancy
// sensors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nerrad567/smart-office/internal/clock"
	"github.com/nerrad567/smart-office/internal/command"
	"github.com/nerrad567/smart-office/internal/console"
	"github.com/nerrad567/smart-office/internal/controls"
	"github.com/nerrad567/smart-office/internal/facility"
	"github.com/nerrad567/smart-office/internal/infrastructure/config"
	"github.com/nerrad567/smart-office/internal/infrastructure/influxdb"
	"github.com/nerrad567/smart-office/internal/infrastructure/logging"
	"github.com/nerrad567/smart-office/internal/infrastructure/mqtt"
	"github.com/nerrad567/smart-office/internal/notify"
	"github.com/nerrad567/smart-office/internal/sensor"
	"github.com/nerrad567/smart-office/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path. A missing file at this path means
// built-in defaults; an explicit --config path must exist.
const defaultConfigPath = "configs/config.yaml"

// errHelp reports that usage was printed and the process should exit cleanly.
var errHelp = errors.New("help requested")

type options struct {
	configPath  string
	explicit    bool
	showVersion bool
}

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, errHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("smartoffice %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("smartoffice", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file (default: $SMARTOFFICE_CONFIG or "+defaultConfigPath+")")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return opts, errHelp
		}
		return opts, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	switch {
	case opts.configPath != "":
		opts.explicit = true
	case os.Getenv("SMARTOFFICE_CONFIG") != "":
		opts.configPath = os.Getenv("SMARTOFFICE_CONFIG")
		opts.explicit = true
	default:
		opts.configPath = defaultConfigPath
	}
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context, opts options) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting smart office",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", opts.configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	con := console.New(a.registry, a.invoker)
	if err := con.Run(ctx); err != nil {
		return fmt.Errorf("console: %w", err)
	}

	log.Info("smart office stopped")
	return nil
}

func loadConfig(opts options) (*config.Config, error) {
	if opts.explicit {
		return config.Load(opts.configPath)
	}
	return config.LoadOrDefault(opts.configPath)
}

// app holds the wired components of a running service.
type app struct {
	log      *logging.Logger
	registry *facility.Registry
	invoker  *command.Invoker

	mqttClient   *mqtt.Client
	influxClient *influxdb.Client
	feed         *sensor.Feed
	mailboxes    []*notify.AsyncSubscriber
}

// newApp connects the optional clients and builds the registry with its
// subscribers. On error everything already started is shut down.
func newApp(ctx context.Context, cfg *config.Config, log *logging.Logger) (*app, error) {
	a := &app{log: log}
	if err := a.start(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) start(ctx context.Context, cfg *config.Config) error {
	var err error
	log := a.log

	if cfg.MQTT.Enabled {
		if a.mqttClient, err = connectMQTT(ctx, cfg, log); err != nil {
			return err
		}
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		if a.influxClient, err = connectInfluxDB(ctx, cfg, log); err != nil {
			return err
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	clk := clock.Real()
	subs, hook := a.subscribers(cfg, clk)

	a.registry = facility.NewRegistry(
		facility.WithClock(clk),
		facility.WithLogger(log.With("component", "facility")),
		facility.WithSubscribers(subs...),
		facility.WithReleaseHook(hook),
	)
	a.invoker = command.NewInvoker(clk, log.With("component", "command"))

	if err := applyFacilityConfig(a.registry, cfg.Facility, log); err != nil {
		return err
	}

	if a.mqttClient != nil && cfg.MQTT.SensorFeed {
		feed := sensor.NewFeed(a.mqttClient, a.registry, byte(cfg.MQTT.QoS), log.With("component", "sensor"))
		if err := feed.Start(); err != nil {
			return err
		}
		a.feed = feed
		log.Info("sensor feed started", "topic", mqtt.Topics{}.AllSensorOccupancy())
	}
	return nil
}

// subscribers builds the room subscribers in delivery order. Subscribers
// that publish over the network get their own mailbox so a slow broker
// never stalls occupancy updates.
func (a *app) subscribers(cfg *config.Config, clk clock.Clock) ([]notify.Subscriber, facility.ReleaseHook) {
	var subs []notify.Subscriber
	qos := byte(cfg.MQTT.QoS)

	add := func(s notify.Subscriber, networked bool) {
		if networked {
			box := notify.Async(s, a.log.With("component", "mailbox"))
			a.mailboxes = append(a.mailboxes, box)
			s = box
		}
		subs = append(subs, s)
	}

	actuate := a.mqttClient != nil && cfg.Controls.PublishMQTT
	switchOpts := func(system controls.System) []controls.Option {
		opts := []controls.Option{
			controls.WithLogger(a.log.With("component", string(system))),
			controls.WithClock(clk),
		}
		if actuate {
			opts = append(opts, controls.WithPublisher(a.mqttClient, qos))
		}
		return opts
	}

	if cfg.Controls.AirConditioning {
		add(controls.NewAirConditioning(switchOpts(controls.AirConditioning)...), actuate)
	}
	if cfg.Controls.Lighting {
		add(controls.NewLighting(switchOpts(controls.Lighting)...), actuate)
	}
	if a.mqttClient != nil && cfg.Controls.PublishState {
		add(controls.NewStateReporter(a.mqttClient, qos,
			controls.WithLogger(a.log.With("component", "state")),
			controls.WithClock(clk),
		), true)
	}

	var hook facility.ReleaseHook
	if a.influxClient != nil {
		rec := telemetry.NewRecorder(cfg.Site.ID, a.influxClient, clk, a.log.With("component", "telemetry"))
		add(rec, false)
		hook = rec.ReleaseHook()
	}
	return subs, hook
}

// applyFacilityConfig configures the startup rooms and their capacities.
func applyFacilityConfig(reg *facility.Registry, cfg config.FacilityConfig, log *logging.Logger) error {
	if cfg.Rooms == 0 {
		log.Info("no rooms configured at startup")
		return nil
	}
	if _, err := reg.Configure(cfg.Rooms); err != nil {
		return fmt.Errorf("configuring rooms: %w", err)
	}

	ids := make([]int, 0, len(cfg.Capacities))
	for id := range cfg.Capacities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := reg.SetCapacity(id, cfg.Capacities[id]); err != nil {
			return fmt.Errorf("setting capacity of room %d: %w", id, err)
		}
	}

	log.Info("facility configured", "rooms", cfg.Rooms, "capacity_overrides", len(ids))
	return nil
}

func connectMQTT(ctx context.Context, cfg *config.Config, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.With("component", "mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	if err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	return client, nil
}

func connectInfluxDB(ctx context.Context, cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg.InfluxDB)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})

	if err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("influxdb: %w", err)
	}
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client, nil
}

// Close stops the feed, cancels pending releases, drains the mailboxes
// and then closes the clients.
func (a *app) Close() {
	if a.feed != nil {
		if err := a.feed.Stop(); err != nil {
			a.log.Warn("error stopping sensor feed", "error", err)
		}
	}
	if a.registry != nil {
		a.registry.Close()
	}
	for _, box := range a.mailboxes {
		box.Close()
	}
	if a.mqttClient != nil {
		a.log.Info("disconnecting from MQTT")
		if err := a.mqttClient.Close(); err != nil {
			a.log.Error("error closing MQTT", "error", err)
		}
	}
	if a.influxClient != nil {
		a.log.Info("closing InfluxDB connection")
		if err := a.influxClient.Close(); err != nil {
			a.log.Error("error closing InfluxDB", "error", err)
		}
	}
}
