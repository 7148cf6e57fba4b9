package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forPelevin/streamclip/internal/api"
)

// Serve runs the HTTP API on addr until ctx is done.
func Serve(ctx context.Context, cfg Config, addr string) error {
	logf := cfg.logf()
	cat, lex, err := cfg.loadCatalog()
	if err != nil {
		return err
	}
	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	r := api.NewRouter(api.Server{
		Usecase: cfg.usecase(),
		Presets: cat,
		Lexicon: lex,
		History: st,
		Logf:    logf,
	})
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logf("shutting down")
	return server.Shutdown(shutdownCtx)
}
