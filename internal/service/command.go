// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/logger"
	"github.com/wneessen/mtrmap/internal/template"
)

var (
	errQuit           = errors.New("quit")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidArgs    = errors.New("invalid command arguments")
)

// execute runs a single command line. Empty lines and lines starting with # are ignored.
func (s *Service) execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	text := strings.TrimSpace(line[len(fields[0]):])
	s.logger.Debug("executing command", slog.String("command", cmd), slog.Int("args", len(args)))

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "click":
		points, err := parsePoints(args)
		if err != nil || len(points) != 1 {
			return fmt.Errorf("%w: click <lat> <lng>", ErrInvalidArgs)
		}
		s.engine.Click(points[0])
	case "pan":
		points, err := parsePoints(args)
		if err != nil || len(points) == 0 {
			return fmt.Errorf("%w: pan <lat> <lng> [<lat> <lng>...]", ErrInvalidArgs)
		}
		s.engine.Pan(points...)
	case "drag":
		points, err := parsePoints(args)
		if err != nil || len(points) != 1 {
			return fmt.Errorf("%w: drag <lat> <lng>", ErrInvalidArgs)
		}
		markers := s.engine.Markers()
		if len(markers) == 0 {
			return errors.New("no marker to drag")
		}
		s.engine.DragMarker(markers[len(markers)-1], points[0])
	case "type":
		if box := s.mtrmap.SearchBox(); box != nil {
			box.Type(ctx, text)
			return nil
		}
		s.mtrmap.Search().Input(ctx, text)
	case "select":
		if len(args) != 1 {
			return fmt.Errorf("%w: select <index>", ErrInvalidArgs)
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}
		if box := s.mtrmap.SearchBox(); box != nil {
			return box.Choose(ctx, index)
		}
		return s.mtrmap.Search().Select(ctx, index)
	case "focus", "blur":
		box := s.mtrmap.SearchBox()
		if box == nil {
			return errors.New("search box is disabled")
		}
		if cmd == "focus" {
			box.Focus()
		} else {
			box.Blur()
		}
		s.printState()
	case "address":
		points, err := parsePoints(args)
		if err != nil || len(points) != 1 {
			return fmt.Errorf("%w: address <lat> <lng>", ErrInvalidArgs)
		}
		record, err := s.mtrmap.AddressBy(ctx, points[0])
		if err != nil {
			s.print(outputData{Marker: &points[0], Error: err.Error()})
			return nil
		}
		var sb strings.Builder
		for _, sub := range record.Subdivisions {
			sb.WriteString(sub.Title)
			sb.WriteString(" / ")
		}
		sb.WriteString(record.FreeText)
		s.print(outputData{Text: sb.String(), Marker: &points[0]})
	case "search":
		if text == "" {
			return fmt.Errorf("%w: search <text>", ErrInvalidArgs)
		}
		results, err := s.mtrmap.LatLngBy(ctx, text)
		if err != nil {
			s.print(outputData{Text: text, Error: err.Error()})
			return nil
		}
		buf := bytes.NewBuffer(nil)
		for i, result := range results {
			if err = s.templates.RenderResult(buf, template.ResultData{Index: i, Result: result}); err != nil {
				s.logger.Error("failed to render search result", logger.Err(err))
				return nil
			}
			buf.WriteString("\n")
		}
		s.print(outputData{Text: text, Tooltip: strings.TrimRight(buf.String(), "\n")})
	case "wait":
		duration, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(duration):
		}
	case "show":
		s.printState()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return nil
}

// parsePoints parses pairs of latitude and longitude arguments.
func parsePoints(args []string) ([]geo.Point, error) {
	if len(args)%2 != 0 {
		return nil, ErrInvalidArgs
	}
	points := make([]geo.Point, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		lat, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q: %w", args[i], err)
		}
		lng, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q: %w", args[i+1], err)
		}
		point := geo.NewPoint(lat, lng)
		if !point.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidArgs, point)
		}
		points = append(points, point)
	}
	return points, nil
}
