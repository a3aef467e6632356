package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"agiletrack/access"
	"agiletrack/config"
	"agiletrack/db"
	"agiletrack/handlers"
	appmw "agiletrack/middleware"
	"agiletrack/notify"
	"agiletrack/store"
	"agiletrack/token"
)

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
	return log
}

func main() {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	conn, err := db.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	if err := db.Migrate(conn, cfg.DBDriver); err != nil {
		log.Fatalf("migrating schema: %v", err)
	}

	tokens, err := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	st := store.New(conn, log)

	var mailer notify.Mailer = notify.NewNopMailer(log)
	if cfg.SMTPConfigured() {
		smtp := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, log)
		mailer = notify.NewBreakerMailer(smtp, log)
	}

	ac := access.New(st, mailer, log)
	h := handlers.New(st, ac, tokens, log)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(appmw.RequireAuth(tokens, st, log))
		r.Get("/get_boards", h.GetBoards)
		r.Put("/update_board", h.UpdateBoard)
		r.Post("/add_board", h.AddBoard)
		r.Post("/share_board", h.ShareBoard)
		r.Get("/get_user_details", h.GetUserDetails)
	})

	log.Infof("server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
