package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record tags recognized by the map loader.
const (
	recordRoom   = "Room"
	recordPortal = "Portal"
)

// LoadMap parses a line-oriented map description into a fresh Graph.
//
// Each line is a comma-separated record tagged by its first field:
//
//	Room,<name>,<description>
//	Portal,<source-name>,<direction>,<destination-name>
//
// Fields are trimmed of surrounding whitespace. Commas cannot appear inside
// fields; the format has no escaping. Blank and whitespace-only lines are
// skipped. Rooms must be defined before portals that reference them.
//
// Loading is all-or-nothing: on any error LoadMap returns (nil, err) and no
// partial graph escapes. Callers invoke it only against an empty world; the
// bootstrap path guards re-invocation with the store's Empty check.
func LoadMap(r io.Reader) (*Graph, error) {
	g := NewGraph()
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		var err error
		switch fields[0] {
		case recordRoom:
			err = loadRoom(g, fields)
		case recordPortal:
			err = loadPortal(g, fields)
		default:
			err = fmt.Errorf("unrecognized record tag %q: %w", fields[0], ErrMalformedRecord)
		}
		if err != nil {
			return nil, fmt.Errorf("map line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}

	return g, nil
}

// LoadMapFile reads and parses the map description at path.
func LoadMapFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening map file %s: %w", path, err)
	}
	defer f.Close()

	g, err := LoadMap(f)
	if err != nil {
		return nil, fmt.Errorf("loading map file %s: %w", path, err)
	}
	return g, nil
}

func loadRoom(g *Graph, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("Room record needs 3 fields, got %d: %w", len(fields), ErrMalformedRecord)
	}
	name, description := fields[1], fields[2]
	if name == "" {
		return fmt.Errorf("Room record has empty name: %w", ErrMalformedRecord)
	}
	if _, exists := g.FindByName(name); exists {
		return fmt.Errorf("room %q: %w", name, ErrDuplicateRoomName)
	}
	g.CreateRoom(name, description)
	return nil
}

func loadPortal(g *Graph, fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf("Portal record needs 4 fields, got %d: %w", len(fields), ErrMalformedRecord)
	}
	sourceName, direction, destName := fields[1], fields[2], fields[3]
	if direction == "" {
		return fmt.Errorf("Portal record has empty direction: %w", ErrMalformedRecord)
	}

	source, ok := g.FindByName(sourceName)
	if !ok {
		return fmt.Errorf("portal source %q: %w", sourceName, ErrUnknownRoom)
	}
	dest, ok := g.FindByName(destName)
	if !ok {
		return fmt.Errorf("portal destination %q: %w", destName, ErrUnknownRoom)
	}

	if _, err := g.AddPortal(source.ID, Direction(direction), dest.ID); err != nil {
		return err
	}
	return nil
}
