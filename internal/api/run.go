package api

import (
    "context"
    "errors"
    "net"
    "net/http"
    "time"

    "courierplan/internal/config"
    "courierplan/internal/logging"
)

// Run serves the API until ctx is done, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
    log := logging.L()
    s, err := NewServer(ctx, cfg)
    if err != nil {
        return err
    }
    defer func() { _ = s.Close() }()

    srv := &http.Server{
        Addr:              cfg.HTTP.Addr,
        Handler:           s.Routes(),
        ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
        WriteTimeout:      cfg.HTTP.WriteTimeout,
        BaseContext: func(_ net.Listener) context.Context { return ctx },
    }

    errc := make(chan error, 1)
    go func() {
        log.Info("api.listening", "addr", cfg.HTTP.Addr)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errc <- err
        }
        close(errc)
    }()

    select {
    case err := <-errc:
        return err
    case <-ctx.Done():
    }
    log.Info("api.shutdown")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        return err
    }
    s.Notifier.Wait()
    return nil
}
