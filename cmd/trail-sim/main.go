package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/baywoodland/woodland/internal/geo"
	"github.com/baywoodland/woodland/internal/landmark"
	"github.com/baywoodland/woodland/internal/logging"
	"github.com/baywoodland/woodland/internal/proximity"
)

// metersPerDegree approximates the length of one degree of latitude.
const metersPerDegree = 111_320.0

func main() {
	brokerAddr := flag.String("broker", "tcp://localhost:1883", "MQTT broker address, e.g. tcp://localhost:1883")
	visitorID := flag.String("visitor-id", "sim-visitor-1", "Visitor identifier used in the location topic")
	interval := flag.Duration("interval", 2*time.Second, "Interval between published positions")
	steps := flag.Int("steps", 5, "Positions published while walking between two landmarks")
	jitter := flag.Float64("jitter", 0.5, "Maximum random offset in meters applied to each position")
	loop := flag.Bool("loop", false, "Restart the walk after reaching the last landmark")
	logLevel := flag.String("log-level", "info", "Log level")

	flag.Parse()

	logger := logging.New(*logLevel, "text")

	clientID := fmt.Sprintf("%s-simulator-%d", *visitorID, time.Now().UnixNano())
	opts := mqtt.NewClientOptions().AddBroker(*brokerAddr).SetClientID(clientID)
	opts = opts.SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Error("failed to connect to broker", "error", token.Error())
		os.Exit(1)
	}
	logger.Info("connected to MQTT broker", "broker", *brokerAddr, "client_id", clientID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	route := walk(landmark.Defaults(), *steps)
	topic := proximity.LocationTopicFor(*visitorID)

	publish := func(p geo.Point) {
		p = offset(p, *jitter)
		data, err := json.Marshal(proximity.LocationPayload{
			VisitorID: *visitorID,
			Lat:       p.Lat,
			Lng:       p.Lng,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			logger.Warn("failed to encode payload", "error", err)
			return
		}
		token := client.Publish(topic, 1, false, data)
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Warn("publish error", "error", err)
			return
		}
		logger.Info("published position", "topic", topic, "lat", p.Lat, "lng", p.Lng)
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for i := 0; ; {
		if i == len(route) {
			if !*loop {
				logger.Info("walk complete, disconnecting")
				client.Disconnect(250)
				return
			}
			i = 0
		}
		publish(route[i])
		i++

		select {
		case <-ctx.Done():
			logger.Info("received shutdown signal, disconnecting")
			client.Disconnect(250)
			return
		case <-ticker.C:
		}
	}
}

// walk interpolates steps positions between consecutive landmarks, ending on
// each landmark so every one of them is reached.
func walk(landmarks []landmark.Landmark, steps int) []geo.Point {
	if len(landmarks) == 0 {
		return nil
	}
	if steps < 1 {
		steps = 1
	}
	route := []geo.Point{landmarks[0].Position}
	for i := 1; i < len(landmarks); i++ {
		from, to := landmarks[i-1].Position, landmarks[i].Position
		for s := 1; s <= steps; s++ {
			f := float64(s) / float64(steps)
			route = append(route, geo.Point{
				Lat: from.Lat + (to.Lat-from.Lat)*f,
				Lng: from.Lng + (to.Lng-from.Lng)*f,
			})
		}
	}
	return route
}

func offset(p geo.Point, meters float64) geo.Point {
	if meters <= 0 {
		return p
	}
	deg := meters / metersPerDegree
	p.Lat += (rand.Float64()*2 - 1) * deg
	p.Lng += (rand.Float64()*2 - 1) * deg
	return p
}
