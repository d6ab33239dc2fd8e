// Command crdtdemo runs a tiny HTTP front end over a gossip.Hub: a
// stand-in for crdtcollab's WebSocket-backed RGA editor, wired instead to
// the CRDT types this module actually specifies (see DESIGN.md for why the
// RGA/WebSocket machinery was dropped rather than adapted).
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Polqt/crdt/gossip"
)

func main() {
	addr := ":8080"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	hub := gossip.NewHub(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.Documents())
	})
	mux.HandleFunc("/documents/", documentHandler(hub, log))

	srv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infow("crdt demo server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// documentHandler serves /documents/{name} (GET lists fields and edit count,
// POST sets one field) and /documents/{name}/{join,participants} for one
// document, dispatched on method and trailing path segment.
func documentHandler(hub *gossip.Hub, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/documents/")
		parts := strings.SplitN(path, "/", 2)
		if len(parts) == 0 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}
		doc := hub.Document(parts[0])
		action := ""
		if len(parts) == 2 {
			action = parts[1]
		}

		switch {
		case action == "participants":
			writeJSON(w, doc.Participants())
		case action == "join" && r.Method == http.MethodPost:
			var body struct {
				Participant string `json:"participant"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			doc.Join(body.Participant)
			w.WriteHeader(http.StatusNoContent)
		case action == "" && r.Method == http.MethodGet:
			keys := doc.Keys()
			fields := make(map[string]string, len(keys))
			for _, k := range keys {
				if v, ok := doc.Get(k); ok {
					fields[k] = v
				}
			}
			writeJSON(w, map[string]any{"fields": fields, "edits": doc.EditCount()})
		case action == "" && r.Method == http.MethodPost:
			var body struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			doc.Set(body.Key, body.Value)
			log.Infow("field set", "document", parts[0], "key", body.Key)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
