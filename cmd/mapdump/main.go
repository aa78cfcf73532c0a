// Package main provides an offline map validator. It loads a map description
// without touching the database, reports what it found, and can dump the
// resulting graph as YAML for inspection.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/textworld/internal/world"
)

type yamlRoom struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type yamlPortal struct {
	ID          int64  `yaml:"id"`
	Source      int64  `yaml:"source"`
	Direction   string `yaml:"direction"`
	Destination int64  `yaml:"destination"`
}

type yamlWorld struct {
	StartRoom int64        `yaml:"start_room"`
	Rooms     []yamlRoom   `yaml:"rooms"`
	Portals   []yamlPortal `yaml:"portals"`
}

func main() {
	start := time.Now()

	mapPath := flag.String("map", "", "path to the map description file")
	dump := flag.Bool("dump", false, "dump the loaded graph as YAML to stdout")
	flag.Parse()

	if *mapPath == "" {
		log.Fatal("usage: mapdump -map <file> [-dump]")
	}

	graph, err := world.LoadMapFile(*mapPath)
	if err != nil {
		log.Fatalf("map invalid: %v", err)
	}

	startRoom, _ := graph.StartRoom()
	fmt.Printf("loaded  %d room(s), %d portal(s), start room %d  in %s\n",
		graph.RoomCount(), graph.PortalCount(), startRoom, time.Since(start).Round(time.Millisecond))

	if !*dump {
		return
	}

	out := yamlWorld{StartRoom: startRoom}
	for _, r := range graph.Rooms() {
		out.Rooms = append(out.Rooms, yamlRoom{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	for _, p := range graph.Portals() {
		out.Portals = append(out.Portals, yamlPortal{
			ID:          p.ID,
			Source:      p.SourceID,
			Direction:   string(p.Direction),
			Destination: p.DestinationID,
		})
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		log.Fatalf("serialising graph: %v", err)
	}
	if _, err := os.Stdout.Write(data); err != nil {
		log.Fatalf("writing dump: %v", err)
	}
}
