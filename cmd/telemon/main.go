package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"reflect"
	"strings"

	"github.com/robotalks/teststand/pkg/bridge"
	"github.com/robotalks/teststand/pkg/bridge/msgs"
	"github.com/robotalks/teststand/pkg/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/teststand/"
)

func init() {
	if val := os.Getenv("TESTSTAND_BRIDGE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", func(topic string, payload []byte) {
		if len(payload) == 0 && strings.HasSuffix(topic, "/"+bridge.TopicStatus) {
			log.Printf("%s: offline", topic)
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		log.Printf("%s: [%s] %s", topic, reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := q.Connect(ctx); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()
	<-ctx.Done()
}
