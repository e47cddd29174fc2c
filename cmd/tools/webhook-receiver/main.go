package main

import (
	"crypto/hmac"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/mmo-worldgen/internal/api"
	"github.com/annel0/mmo-worldgen/internal/eventbus"
)

func main() {
	var (
		addr   = flag.String("addr", ":3000", "listen address")
		secret = flag.String("secret", "", "shared webhook secret; empty skips verification")
	)
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":     "world event receiver",
			"endpoints":   []string{"/webhook"},
			"event_types": api.EventTypes(),
			"server_time": time.Now().Unix(),
		})
	})
	r.POST("/webhook", func(c *gin.Context) { handleWebhook(c, *secret) })

	log.Printf("Webhook receiver listening on %s", *addr)
	if err := r.Run(*addr); err != nil {
		log.Fatalf("receiver: %v", err)
	}
}

func handleWebhook(c *gin.Context, secret string) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	if secret != "" {
		got := c.GetHeader("X-Webhook-Signature")
		if !hmac.Equal([]byte(got), []byte(api.Sign(body, secret))) {
			log.Printf("rejected %s: bad signature", c.GetHeader("X-Event-Type"))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bad signature"})
			return
		}
	}

	var ev eventbus.Envelope
	if err := json.Unmarshal(body, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	switch ev.EventType {
	case eventbus.EventZoneCreated:
		var p eventbus.ZoneCreated
		if err := ev.Decode(&p); err == nil {
			log.Printf("zone %s: %s on plane %d [%d,%d..%d,%d] e=%d m=%d",
				p.ZoneID, p.Biome, p.Z, p.MinX, p.MinY, p.MaxX, p.MaxY, p.Elevation, p.Moisture)
		}
	case eventbus.EventRoomsCarved:
		var p eventbus.RoomsCarved
		if err := ev.Decode(&p); err == nil {
			log.Printf("zone %s: %d rooms carved (%s) from (%d,%d,%d)",
				p.ZoneID, p.Rooms, p.Strategy, p.SeedX, p.SeedY, p.SeedZ)
		}
	case eventbus.EventEntityMoved:
		var p eventbus.EntityMoved
		if err := ev.Decode(&p); err == nil {
			if p.Direction == "" {
				log.Printf("entity %s appears at (%d,%d,%d)", p.EntityID, p.X, p.Y, p.Z)
			} else {
				log.Printf("entity %s goes %s to (%d,%d,%d)", p.EntityID, p.Direction, p.X, p.Y, p.Z)
			}
		}
	default:
		log.Printf("unknown event %s from %s", ev.EventType, ev.Source)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "received",
		"event_id":    ev.ID,
		"received_at": time.Now().Unix(),
	})
}
