// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wneessen/mtrmap/internal/address"
	"github.com/wneessen/mtrmap/internal/config"
	"github.com/wneessen/mtrmap/internal/engine"
	"github.com/wneessen/mtrmap/internal/engine/headless"
	"github.com/wneessen/mtrmap/internal/form"
	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/http"
	"github.com/wneessen/mtrmap/internal/i18n"
	"github.com/wneessen/mtrmap/internal/logger"
	"github.com/wneessen/mtrmap/internal/metrics"
	"github.com/wneessen/mtrmap/internal/mtrmap"
	"github.com/wneessen/mtrmap/internal/template"
)

const (
	OutputClass     = "mtrmap"
	shutdownTimeout = time.Second * 5
)

type outputData struct {
	Text    string            `json:"text"`
	Tooltip string            `json:"tooltip"`
	Class   string            `json:"class"`
	Marker  *geo.Point        `json:"marker,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Service drives a map widget on a headless engine from line based commands and prints the
// state of the widget as JSON.
type Service struct {
	SignalSrc signalSource

	config    *config.Config
	logger    *logger.Logger
	t         i18n.Localizer
	engine    *headless.Engine
	geocoder  geocode.Client
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	templates *template.Templates
	document  *form.MemoryDocument
	mtrmap    *mtrmap.Map

	input  io.Reader
	output io.Writer

	outputLock sync.Mutex
	address    string
	lastError  string
}

func New(conf *config.Config, log *logger.Logger, t i18n.Localizer) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if t == nil {
		t = i18n.Nop{}
	}

	tpls, err := template.New(conf, t)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)
	geocoder, err := mtrmap.SelectGeocoder(conf, http.New(log), log, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode provider: %w", err)
	}

	center := geo.NewPoint(conf.Presets.Center.Lat, conf.Presets.Center.Lng)
	service := &Service{
		SignalSrc: stdLibSignalSource{},
		config:    conf,
		logger:    log,
		t:         t,
		engine:    headless.New(center, conf.Presets.Zoom),
		geocoder:  geocoder,
		metrics:   m,
		registry:  registry,
		templates: tpls,
		document:  form.NewMemoryDocument(inputIDs(conf)...),
		input:     os.Stdin,
		output:    os.Stdout,
	}
	return service, nil
}

// Run initializes the map and processes commands until the input is exhausted, a quit command
// is read or the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := mtrmap.FromConfig(s.config)
	opts.Engine = s.engine
	opts.Geocoder = s.geocoder
	opts.Logger = s.logger
	opts.Localizer = s.t
	opts.Metrics = s.metrics
	opts.Document = s.document
	opts.Templates = s.templates
	opts.OnAddressChanged = s.addressChanged
	opts.OnSearchResults = func(geocode.ForwardResult) { s.printState() }
	opts.OnMapReady = func(eng engine.Engine) {
		s.logger.Debug("map is ready", slog.String("element", s.config.Element),
			slog.String("center", eng.Center().String()), slog.Int("zoom", eng.Zoom()))
	}

	m, err := mtrmap.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize map: %w", err)
	}
	s.outputLock.Lock()
	s.mtrmap = m
	s.outputLock.Unlock()
	defer m.Close()
	s.printState()

	var server *stdhttp.Server
	if s.config.Metrics.Listen != "" {
		server = s.serveMetrics()
	}

	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1)
	defer s.SignalSrc.Stop(sigChan)
	go s.HandleSignals(ctx, sigChan)

	err = s.processCommands(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := server.Shutdown(shutdownCtx); serr != nil {
			s.logger.Error("failed to shut down metrics server", logger.Err(serr))
		}
	}
	return err
}

// processCommands reads the input line by line and executes each command.
func (s *Service) processCommands(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read commands: %w", err)
					}
				default:
				}
				return nil
			}
			if err := s.execute(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				s.logger.Warn("failed to execute command", slog.String("command", line), logger.Err(err))
			}
		}
	}
}

func (s *Service) serveMetrics() *stdhttp.Server {
	mux := stdhttp.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	server := &stdhttp.Server{
		Addr:              s.config.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}
	go func() {
		s.logger.Info("serving metrics", slog.String("listen", s.config.Metrics.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			s.logger.Error("failed to serve metrics", logger.Err(err))
		}
	}()
	return server
}

// addressChanged is called by the address resolver while it holds its lock, so it must not
// call back into the resolver.
func (s *Service) addressChanged(event address.Event) {
	s.outputLock.Lock()
	if event.Record == nil {
		s.lastError = event.Message
		if s.lastError == "" && event.Err != nil {
			s.lastError = event.Err.Error()
		}
	} else {
		s.lastError = ""
		s.address = event.Text
	}
	s.outputLock.Unlock()
	s.printState()
}

// printState outputs the current state of the map widget to the configured output.
func (s *Service) printState() {
	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if s.mtrmap == nil {
		return
	}

	output := outputData{
		Text:  s.address,
		Class: OutputClass,
		Error: s.lastError,
	}

	if footer := s.mtrmap.Footer(); footer != nil {
		buf := bytes.NewBuffer(nil)
		if err := footer.Render(buf); err != nil {
			s.logger.Error("failed to render address box", logger.Err(err))
			return
		}
		if text := strings.TrimRight(buf.String(), "\n"); text != "" {
			output.Text = text
		}
	}
	if box := s.mtrmap.SearchBox(); box != nil {
		buf := bytes.NewBuffer(nil)
		if err := box.Render(buf); err != nil {
			s.logger.Error("failed to render search box", logger.Err(err))
			return
		}
		output.Tooltip = strings.TrimRight(buf.String(), "\n")
	}
	if point, ok := s.mtrmap.Marker(); ok {
		output.Marker = &point
	}
	if values := s.document.Values(); len(values) > 0 {
		output.Fields = values
	}

	if err := json.NewEncoder(s.output).Encode(output); err != nil {
		s.logger.Error("failed to encode map state", logger.Err(err))
	}
}

// print encodes a command result to the configured output.
func (s *Service) print(output outputData) {
	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	output.Class = OutputClass
	if err := json.NewEncoder(s.output).Encode(output); err != nil {
		s.logger.Error("failed to encode command result", logger.Err(err))
	}
}

func inputIDs(conf *config.Config) []string {
	var ids []string
	for _, id := range []string{
		conf.Inputs.Region, conf.Inputs.County, conf.Inputs.District,
		conf.Inputs.City, conf.Inputs.Village, conf.Inputs.Address,
	} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
