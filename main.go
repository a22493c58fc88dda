package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"

	"InkBoard/internal/config"
	"InkBoard/internal/controller"
	"InkBoard/internal/logging"
	inknet "InkBoard/internal/net"
	"InkBoard/internal/render"
	"InkBoard/internal/state"
	"InkBoard/internal/tools"
	"InkBoard/internal/ui"
)

func main() {
	configPath := flag.String("config", "inkboard.toml", "settings file")
	discover := flag.Bool("discover", false, "join the first host found on the local network")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.SetLogger(newLogger(os.Stderr, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	myApp := ui.NewApp()
	board, reg, err := newBoard(cfg)
	if err != nil {
		logging.Logger().Error("board setup failed", "err", err)
		os.Exit(1)
	}

	link := flag.Arg(0)
	switch {
	case inknet.IsLink(link):
		addr, err := inknet.ParseLink(link)
		if err != nil {
			logging.Logger().Error("cannot join", "err", err)
			os.Exit(2)
		}
		runClient(ctx, myApp, cfg, board, reg, addr)
	case *discover:
		runClient(ctx, myApp, cfg, board, reg, "")
	default:
		runHost(ctx, myApp, cfg, board, reg)
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logging.ParseLevel(level),
	}))
}

func newBoard(cfg config.Config) (*ui.BoardWidget, *tools.Registry, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, nil, err
	}
	reg := tools.DefaultRegistry()
	model := state.NewBoard()
	view := render.NewCanvas(cfg.Width, cfg.Height)
	ctl, err := controller.New(model, view, reg, opts)
	if err != nil {
		return nil, nil, err
	}
	return ui.NewBoardWidget(model, ctl, view), reg, nil
}

func runHost(ctx context.Context, myApp fyne.App, cfg config.Config, board *ui.BoardWidget, reg *tools.Registry) {
	logging.Logger().Info("starting as host", "port", cfg.Port)
	hub := inknet.NewHub()
	hub.Snapshot = board.Model().Snapshot
	hub.OnOp = board.ApplyRemote
	board.Model().OnLocalOp = func(op state.Op) {
		if err := hub.Broadcast(op); err != nil {
			logging.Logger().Warn("op not broadcast", "op", op.Type, "err", err)
		}
	}

	go func() {
		if err := hub.ListenAndServe(ctx, cfg.Port); err != nil {
			logging.Logger().Error("host server stopped", "err", err)
			board.SetStatus(err.Error())
		}
	}()
	if cfg.Discovery {
		server, err := inknet.Advertise(cfg.Port)
		if err != nil {
			logging.Logger().Warn("not advertised", "err", err)
		} else {
			defer server.Shutdown()
		}
	}

	shareLink := inknet.Link(inknet.OutgoingIP(), cfg.Port)
	ui.RunApp(myApp, "InkBoard (host)", shareLink, board, reg, size(cfg))
}

// runClient joins the host at addr, or the first host discovered when addr
// is empty.
func runClient(ctx context.Context, myApp fyne.App, cfg config.Config, board *ui.BoardWidget, reg *tools.Registry, addr string) {
	logging.Logger().Info("starting as client", "host", addr)
	var host atomic.Pointer[inknet.Client]
	board.Model().OnLocalOp = func(op state.Op) {
		c := host.Load()
		if c == nil {
			return
		}
		if err := c.Send(op); err != nil {
			logging.Logger().Warn("op not sent", "op", op.Type, "err", err)
		}
	}
	go connectToHost(ctx, board, addr, &host)
	ui.RunApp(myApp, "InkBoard", "", board, reg, size(cfg))
}

func connectToHost(ctx context.Context, board *ui.BoardWidget, addr string, host *atomic.Pointer[inknet.Client]) {
	if addr == "" {
		board.SetStatus("Looking for a host...")
		found := make(chan string, 1)
		err := inknet.Browse(ctx, 5*time.Second, func(a string) {
			select {
			case found <- a:
			default:
			}
		})
		if err != nil {
			board.SetStatus(fmt.Sprintf("Discovery failed: %v", err))
			return
		}
		select {
		case addr = <-found:
		default:
			board.SetStatus("No host found")
			return
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := inknet.Dial(dialCtx, addr)
	cancel()
	if err != nil {
		board.SetStatus(fmt.Sprintf("Connection failed: %v", err))
		return
	}
	defer client.Close()
	go func() {
		<-ctx.Done()
		client.Close()
	}()
	host.Store(client)
	defer host.Store(nil)

	board.SetStatus("Connected to " + addr + " as " + client.LocalAddr())
	logging.Logger().Info("connected to host", "host", addr, "local", client.LocalAddr())

	if err := client.Run(board.ApplyRemote); err != nil {
		board.SetStatus(fmt.Sprintf("Disconnected from host: %v", err))
		return
	}
	board.SetStatus("Disconnected from host")
}

func size(cfg config.Config) fyne.Size {
	return fyne.NewSize(float32(cfg.Width), float32(cfg.Height))
}
