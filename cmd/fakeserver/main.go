package main

import (
	"flag"
	"log"
	"math"
	"net"
	"time"

	"kestrel.dev/gnssrelay/internal/wire"
)

// fakeserver plays the broadcasting side of the protocol: it accepts
// clients and streams a position circling a fixed point, for manual
// testing of the relay client.
func main() {
	addr := flag.String("address", ":5555", "address to listen on")
	interval := flag.Duration("interval", time.Second, "update interval")
	lat := flag.Float64("lat", 51.5, "center latitude")
	lon := flag.Float64("lon", -0.12, "center longitude")
	flag.Parse()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("fake server listening on %s", *addr)
	for {
		c, err := ln.Accept()
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("client connected: %s", c.RemoteAddr())
		go serve(c, *interval, *lat, *lon)
	}
}

func serve(c net.Conn, interval time.Duration, lat, lon float64) {
	defer c.Close()
	ready := &wire.ServerResponse{Status: "ready", HasStatus: true}
	if err := wire.WriteMessage(c, ready.Marshal()); err != nil {
		log.Printf("write: %v", err)
		return
	}
	i := 0
	for range time.Tick(interval) {
		angle := float64(i) * math.Pi / 30
		resp := &wire.ServerResponse{LocationUpdate: &wire.LocationUpdate{
			Latitude:   lat + 0.001*math.Sin(angle),
			Longitude:  lon + 0.001*math.Cos(angle),
			Altitude:   35,
			Accuracy:   4,
			Bearing:    float32(math.Mod(angle*180/math.Pi+90, 360)),
			Speed:      1.5,
			Satellites: 9,
			Provider:   "gps",
			Timestamp:  time.Now().UnixNano() / int64(time.Millisecond),
		}}
		if err := wire.WriteMessage(c, resp.Marshal()); err != nil {
			log.Printf("client gone: %v", err)
			return
		}
		i++
	}
}
