package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"
	"github.com/urfave/cli"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/CodedInternet/beebot/comms"
	"github.com/CodedInternet/beebot/onboard"
	"github.com/CodedInternet/beebot/onboard/canbus"
	"github.com/CodedInternet/beebot/onboard/journal"
	"github.com/CodedInternet/beebot/onboard/odrive"
	"github.com/CodedInternet/beebot/onboard/rc"
)

const VERIFY_TIMEOUT = 2 * time.Second

type EnvConfig struct {
	DEBUG      bool   `env:"BEEBOT_DEBUG" envDefault:"0"`
	DATA       string `env:"BEEBOT_DATA" envDefault:"./tmp/beebot.db"`
	LOG_FILE   string `env:"BEEBOT_LOG_FILE"`
	JWT_SECRET string `env:"BEEBOT_JWT_SECRET"`
	JWT_ISSUER string `env:"BEEBOT_JWT_ISSUER" envDefault:"DEV"`
	DB         *storm.DB
	Journal    *journal.Journal
	Conductor  *comms.Conductor
	Simulated  bool
}

var (
	ENV = new(EnvConfig)
)

func main() {
	app := cli.NewApp()
	app.Name = "beebot"
	app.Usage = "drive a differential drive robot from an rc receiver"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "beebot.yaml",
			Usage: "path to the yaml config",
		},
		cli.BoolFlag{
			Name:  "sim",
			Usage: "run against a simulated receiver and motors",
		},
		cli.BoolFlag{
			Name:  "shell",
			Usage: "start the development shell",
		},
		cli.StringFlag{
			Name:  "listen",
			Usage: "http listening address, overrides telemetry.listen",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if err := env.Parse(ENV); err != nil {
		return err
	}
	if ENV.JWT_SECRET != "" {
		JWT_HMAC_SECRET = []byte(ENV.JWT_SECRET)
	}
	setupLogging(ENV.LOG_FILE)

	ENV.Simulated = c.Bool("sim")
	config, err := loadConfig(c.String("config"), ENV.Simulated)
	if err != nil {
		return err
	}

	db, err := openDb(ENV.DATA)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() // close database when finished
	ENV.DB = db

	if ENV.Journal, err = journal.New(db); err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	ENV.Conductor = comms.NewConductor()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var receiver onboard.Receiver
	var motors odrive.Controller
	if ENV.Simulated {
		log.Println("Creating simulator")
		sim := onboard.NewSimulatedReceiver(config.Channels)
		receiver = sim
		motors = &onboard.SimulatedMotors{}
		ENV.Conductor.Commander = comms.NewSimulatorCommander(sim)
	} else {
		sbus, err := rc.OpenSBUS(config.Receiver.Device)
		if err != nil {
			return err
		}
		defer sbus.Close()
		receiver = sbus

		if motors, err = openController(config); err != nil {
			return err
		}
	}
	defer motors.Close()

	vctx, cancel := context.WithTimeout(ctx, VERIFY_TIMEOUT)
	version, err := odrive.Verify(vctx, config.Controller.Device, motors, config.Controller.Firmware)
	cancel()
	if err != nil {
		return err
	}
	log.Printf("Motor controller firmware %s", version)

	loop := onboard.NewLoop(receiver, rc.DefaultNormalizer(), motors)
	loop.Channels = config.Channels
	loop.Gains = config.Mixer
	loop.FailsafeTimeout = config.Failsafe.Timeout
	loop.Notifier = ENV.Journal
	loop.Observer = ENV.Conductor

	listen := c.String("listen")
	if listen == "" {
		listen = config.Telemetry.Listen
	}
	server := &http.Server{Addr: listen, Handler: NewRouter()}
	go func() {
		log.Println("Listening on", listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server: %v", err)
		}
	}()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(sctx)
	}()

	if c.Bool("shell") {
		shell := newShell(ENV.Conductor)
		go shell.Run()
		defer shell.Close()
	}

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Println("Shutting down")
		return nil
	}
	return err
}

// loadConfig falls back to the defaults when simulating without a config.
func loadConfig(path string, simulated bool) (*onboard.BeebotConfig, error) {
	config, err := onboard.LoadConfig(path)
	if err != nil && simulated && errors.Is(err, os.ErrNotExist) {
		log.Printf("No config at %s, using defaults", path)
		return onboard.DefaultConfig(), nil
	}
	return config, err
}

func openController(config *onboard.BeebotConfig) (odrive.Controller, error) {
	switch config.Controller.Transport {
	case onboard.TRANSPORT_CAN:
		bus, err := canbus.NewCANBus(config.Controller.Device)
		if err != nil {
			return nil, err
		}
		c := odrive.NewCANController(config.Controller.Device, bus, config.CANNodes())
		c.VelocityLimit = config.Controller.VelocityLimit
		return c, nil

	default:
		c, err := odrive.OpenASCII(config.Controller.Device, config.Controller.Baud)
		if err != nil {
			return nil, err
		}
		c.VelocityLimit = config.Controller.VelocityLimit
		return c, nil
	}
}

func setupLogging(path string) {
	if path == "" {
		return
	}

	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	}))
}

func openDb(dbFile string) (db *storm.DB, err error) {
	dbFile, err = filepath.Abs(dbFile)
	if err != nil {
		return
	}
	if err = os.MkdirAll(filepath.Dir(dbFile), 0755); err != nil {
		return
	}

	db, err = storm.Open(dbFile)
	if err != nil {
		return
	}

	// call inits for each type
	if err := db.Init(&Operator{}); err != nil {
		db.Close()
		return nil, err
	}

	return
}
