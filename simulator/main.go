// Command simulator emulates one shuttle vehicle on an MQTT broker. It
// answers directives on shuttle/<id>/directive with state reports on
// shuttle/<id>/state, so the control service can be exercised without
// hardware.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type simConfig struct {
	Broker       string
	ShuttleID    string
	StartStation int
	WalkTicks    int
	TickInterval time.Duration
	AckLatency   time.Duration
	DropRate     float64
}

func parseFlags() simConfig {
	var cfg simConfig
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.ShuttleID, "shuttle", "sh1", "shuttle identifier")
	flag.IntVar(&cfg.StartStation, "station", 1, "initial station")
	flag.IntVar(&cfg.WalkTicks, "walk-ticks", 3, "ticks a walk takes")
	flag.DurationVar(&cfg.TickInterval, "tick", time.Second, "tick interval")
	flag.DurationVar(&cfg.AckLatency, "ack-latency", 50*time.Millisecond, "delay before acknowledging a directive")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0, "fraction of directives silently dropped")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if cfg.DropRate < 0 || cfg.DropRate > 1 {
		log.Fatalf("drop-rate must be within [0,1]")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	veh := newVehicle(cfg.StartStation, cfg.WalkTicks)
	stateTopic := fmt.Sprintf("shuttle/%s/state", cfg.ShuttleID)
	directiveTopic := fmt.Sprintf("shuttle/%s/directive", cfg.ShuttleID)

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).
		SetClientID("sim-" + cfg.ShuttleID)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("connect: %v", token.Error())
	}
	defer cli.Disconnect(250)

	publish := func(st state) {
		payload, err := json.Marshal(st)
		if err != nil {
			log.Printf("marshal state: %v", err)
			return
		}
		cli.Publish(stateTopic, 0, false, payload)
	}

	token := cli.Subscribe(directiveTopic, 0, func(_ paho.Client, msg paho.Message) {
		var d directive
		if err := json.Unmarshal(msg.Payload(), &d); err != nil {
			log.Printf("bad directive: %v", err)
			return
		}
		if cfg.DropRate > 0 && rand.Float64() < cfg.DropRate {
			log.Printf("dropping directive %s", d.Directive)
			return
		}
		time.Sleep(cfg.AckLatency)
		publish(veh.apply(d))
	})
	if token.Wait() && token.Error() != nil {
		log.Fatalf("subscribe: %v", token.Error())
	}
	log.Printf("shuttle %s simulated on %s", cfg.ShuttleID, cfg.Broker)

	// Announce the idle state right away and keep a heartbeat going; a
	// controller that never heard from the vehicle refuses to send anything.
	publish(veh.snapshot())

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st, changed := veh.tick()
			if !changed {
				st = veh.snapshot()
			}
			publish(st)
		case <-ctx.Done():
			return
		}
	}
}
