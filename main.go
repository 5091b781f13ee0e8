package main

import (
	"context"
	"flag"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"artisan-canvas/assistant"
	"artisan-canvas/canvas"
	"artisan-canvas/handlers/api/chat"
	"artisan-canvas/handlers/api/document"
	"artisan-canvas/handlers/api/export"
	"artisan-canvas/handlers/api/media"
	"artisan-canvas/handlers/auth"
	"artisan-canvas/handlers/websocket"
	authMiddleware "artisan-canvas/middleware"
	"artisan-canvas/session"
	"artisan-canvas/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(authService *auth.Service, editors *session.Registry) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}
			switch parsed.Hostname() {
			case "localhost", "127.0.0.1", "::1":
				return parsed.Scheme == "http" || parsed.Scheme == "https"
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authService.HandleLogin())
		r.Post("/signup", authService.HandleSignup())
		r.Post("/logout", authService.HandleLogout())
		r.Get("/me", authService.HandleMe())
	})

	r.Route("/api/v2", func(r chi.Router) {
		r.Use(authMiddleware.AuthJWT(authService))

		r.Route("/canvas", func(r chi.Router) {
			r.Get("/", document.HandleGetState(editors))
			r.Get("/presets", func(w http.ResponseWriter, r *http.Request) {
				render.JSON(w, r, canvas.SizePresets)
			})
			r.Get("/export.png", export.HandleExportPNG(editors))
			r.Post("/commit", document.HandleCommit(editors))
			r.Post("/undo", document.HandleUndo(editors))
			r.Post("/redo", document.HandleRedo(editors))
			r.Put("/size", document.HandleSetSize(editors))
			r.Put("/selection", document.HandleSetSelection(editors))

			r.Route("/elements", func(r chi.Router) {
				r.Post("/", document.HandleAddElement(editors))
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", document.HandleUpdateElement(editors))
					r.Delete("/", document.HandleDeleteElement(editors))
					r.Post("/fields", document.HandleSetField(editors))
					r.Post("/front", document.HandleBringToFront(editors))
					r.Post("/back", document.HandleSendToBack(editors))
				})
			})
		})

		r.Route("/media", func(r chi.Router) {
			r.Get("/", media.HandleListAssets())
			r.Post("/images", media.HandleAddImage(editors))
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Get("/messages", chat.HandleListMessages(editors))
			r.Post("/messages", chat.HandleSendMessage(editors))
			r.Delete("/messages", chat.HandleClearMessages(editors))
			r.Post("/tool-calls", chat.HandleDispatchToolCalls(editors))
		})
	})

	return r
}

func waitForShutdown(hub *websocket.Hub, editors *session.Registry) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signals

	logrus.WithField("signal", s.String()).Info("Shutting down")
	hub.Close()
	editors.CloseAll()
	os.Exit(0)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ctx := context.Background()
	store := stores.GetStore(ctx)

	assistantConfig := assistant.ConfigFromEnv()
	if !assistantConfig.Enabled() {
		logrus.Warn("No assistant API key set, chat requests will be rejected")
	}

	var hub *websocket.Hub
	editors := session.NewRegistry(
		session.WithResponder(assistant.NewClient(ctx, assistantConfig)),
		session.WithObserver(func(sessionID string, state canvas.State) {
			hub.Publish(sessionID, state)
		}),
	)

	authService := auth.NewService(store, auth.ConfigFromEnv(), auth.WithLogoutHook(editors.Close))
	hub = websocket.NewHub(authService, websocket.WithEditors(editors))

	r := setupRouter(authService, editors)
	r.Mount("/socket.io/", hub.Server().ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(hub, editors)
}
