package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vasu1712/worship-sync/internal/api/presentation"
	"github.com/Vasu1712/worship-sync/internal/api/rooms"
	"github.com/Vasu1712/worship-sync/internal/broadcast"
	"github.com/Vasu1712/worship-sync/internal/config"
	"github.com/Vasu1712/worship-sync/internal/content"
	"github.com/Vasu1712/worship-sync/internal/middleware"
	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/relayclient"
	"github.com/Vasu1712/worship-sync/internal/session"
	"github.com/Vasu1712/worship-sync/internal/storage"
	"github.com/Vasu1712/worship-sync/internal/storage/file"
	"github.com/Vasu1712/worship-sync/internal/storage/memory"
	"github.com/Vasu1712/worship-sync/internal/storage/sqlite"
	"github.com/Vasu1712/worship-sync/internal/storage/valkey"
	"github.com/Vasu1712/worship-sync/internal/store"
	"github.com/Vasu1712/worship-sync/internal/ws"
	"github.com/gorilla/mux"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile, addr, room string
	flagSet := pflag.NewFlagSet("relay", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides RELAY_ADDR)")
	flagSet.StringVar(&room, "presenter-room", "", "host a presenter session for this room (overrides PRESENTER_ROOM)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if room != "" {
		cfg.PresenterRoom = room
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(cfg.RoomIdleTTL)
	router := mux.NewRouter()
	rooms.RegisterRoomRoutes(router, &rooms.RoomHandler{
		Hub:           hub,
		SendBuffer:    cfg.ClientSendBuffer,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	var presenterStore *store.Store
	if cfg.HostsPresenter() {
		var closeBackend func() error
		presenterStore, closeBackend, err = startPresenter(ctx, cfg, hub, router)
		if err != nil {
			return err
		}
		defer closeBackend()
	}
	go hub.Run(ctx)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.CORS(cfg.AllowedOrigin)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server started at %s", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
	case <-ctx.Done():
		log.Printf("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if presenterStore != nil {
		if err := presenterStore.Close(shutdownCtx); err != nil {
			return err
		}
		log.Printf("[Store] Presentation state saved")
	}
	return nil
}

// startPresenter hosts a presenter session: the authoritative store, its
// local projector replica, and either the in-process hub or a remote relay
// as transport.
func startPresenter(ctx context.Context, cfg config.Config, hub *ws.Hub, router *mux.Router) (*store.Store, func() error, error) {
	lib, err := content.Load(cfg.ContentDir)
	if err != nil {
		return nil, nil, err
	}
	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	local := broadcast.New(broadcast.DefaultChannel)
	s := store.New(backend, local)
	if err := s.Restore(ctx); err != nil {
		closeBackend()
		return nil, nil, err
	}

	projector := store.New(nil)
	projector.ApplyDelta(snapshotDelta(s))
	replica := session.NewReplica(projector)
	sub := local.Subscribe(64)
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-sub.C:
				replica.HandleDelta(d)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Persist(ctx); err != nil {
					log.Printf("[Store] Autosave failed: %v", err)
				}
			}
		}
	}()

	presenter := session.NewPresenter(s, 32)
	go presenter.Run(ctx)

	if cfg.RelayURL != "" {
		client := relayclient.New(relayclient.Options{
			URL:  cfg.RelayURL,
			Room: cfg.PresenterRoom,
			OnStatus: func(connected bool) {
				log.Printf("[Session] Relay connected: %v", connected)
			},
		}, presenter)
		s.AddSink(client)
		go client.Run(ctx)
	} else {
		s.AddSink(ws.RoomSink{Hub: hub, Room: cfg.PresenterRoom})
		hub.OnCommand(func(room, command string) {
			if room == cfg.PresenterRoom {
				presenter.Dispatch(command)
			}
		})
		hub.Publish(cfg.PresenterRoom, snapshotDelta(s))
	}

	presentation.RegisterPresentationRoutes(router, &presentation.PresentationHandler{
		Store:     s,
		Library:   lib,
		Projector: projector,
	})
	log.Printf("[Session] Presenter hosted for room %s", cfg.PresenterRoom)
	return s, closeBackend, nil
}

// snapshotDelta is the full projected state of s as one patch.
func snapshotDelta(s *store.Store) models.Delta {
	st := s.State()
	return models.Delta{}.
		WithCurrentSlide(st.CurrentSlide).
		WithNextSlide(st.NextSlide).
		WithPlan(st.CurrentServicePlan).
		WithShowBlank(st.ShowBlank).
		WithShowLogo(st.ShowLogo).
		WithShowTimer(st.ShowTimer)
}

func openBackend(cfg config.Config) (storage.StateStore, func() error, error) {
	switch cfg.StateBackend {
	case config.BackendValkey:
		backend, err := valkey.NewStateStore(cfg.ValkeyAddr, cfg.ValkeyStateKey)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	case config.BackendMemory:
		log.Printf("[Storage] Keeping presentation state in memory only")
		return memory.NewStateStore(), func() error { return nil }, nil
	case config.BackendSQLite:
		backend, err := sqlite.NewStateStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	default:
		log.Printf("[Storage] Using state file %s", cfg.StatePath)
		return file.NewStateStore(cfg.StatePath), func() error { return nil }, nil
	}
}
