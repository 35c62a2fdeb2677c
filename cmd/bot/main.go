package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/objects-time/neural-mmo/internal/protocol"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "agent name")
		seed = flag.Int64("seed", 0, "policy seed (0 uses the clock)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       *name,
		Role:            protocol.RoleController,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	pol := newPolicy(rand.New(rand.NewSource(s)))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s realm=%s tick_rate=%d nent=%d npop=%d", w.SessionID, w.RealmID, w.WorldParams.TickRateHz, w.WorldParams.NEnt, w.WorldParams.NPop)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			if len(obs.Dones) > 0 {
				logger.Printf("tick=%d dones=%v", obs.Tick, obs.Dones)
			}
			if err := conn.WriteJSON(pol.act(obs)); err != nil {
				logger.Printf("send ACT: %v", err)
				return
			}

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err == nil {
				logger.Printf("ERROR code=%s tick=%d %s", e.Code, e.Tick, e.Message)
			}
		}
	}
}
