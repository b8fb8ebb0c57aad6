package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	goFeishuAuth "github.com/MrEthical07/goFeishuAuth"
	"github.com/MrEthical07/goFeishuAuth/envprofile"
	"github.com/MrEthical07/goFeishuAuth/jwt"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "feishu-gateway",
		Short:         "Feishu login gateway",
		Long:          `Serves the in-host SDK handshake and the OAuth redirect flow for browsers, with per-browser identity storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newEnvCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gc, prof, err := loadConfig(nil)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if addr != "" {
				gc.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, gc, prof)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (env: FEISHU_GATEWAY_ADDR)")
	return cmd
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the resolved profile and configuration warnings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gc, prof, err := loadConfig(nil)
			if err != nil {
				return err
			}
			cfg, err := gc.engineConfig(prof)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"profile":  prof,
				"durable":  gc.Durable,
				"redirect": cfg.Login.RedirectURI,
				"tier":     cfg.Login.Tier.String(),
				"cookie":   map[string]string{"alg": gc.CookieAlg, "kid": gc.CookieKeyID},
				"warnings": cfg.Lint(),
			})
		},
	}
}

func serve(ctx context.Context, gc gatewayConfig, prof envprofile.Profile) error {
	cfg, err := gc.engineConfig(prof)
	if err != nil {
		return err
	}
	for _, w := range cfg.Lint() {
		log.Printf("goFeishuAuth: config %s [%s]: %s", w.Code, w.Severity, w.Message)
	}

	durable, closeDurable, err := openDurable(ctx, gc)
	if err != nil {
		return err
	}
	defer closeDurable()

	ephemeral, err := storage.NewMemoryStore(memoryCapacity)
	if err != nil {
		return err
	}

	builder := goFeishuAuth.New().
		WithConfig(cfg).
		WithStores(ephemeral, durable)
	if gc.AuditLog {
		builder = builder.WithAuditSink(goFeishuAuth.NewJSONWriterSink(os.Stdout))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("engine build: %w", err)
	}
	defer engine.Close()

	cookies, err := newCookieSigner(gc)
	if err != nil {
		return err
	}

	srv, err := newServer(serverDeps{
		Engine:  engine,
		Tiers:   storage.NewTiers(ephemeral, durable),
		Cookies: cookies,
		Config:  gc,
		Profile: prof,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              gc.ListenAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("goFeishuAuth: gateway (%s) listening on %s", prof.Name, gc.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newCookieSigner builds the context-cookie signer. Without a configured
// key a random one is generated, so cookies do not survive a restart.
func newCookieSigner(gc gatewayConfig) (*jwt.Manager, error) {
	method, err := jwt.ParseSigningMethod(gc.CookieAlg)
	if err != nil {
		return nil, err
	}
	cfg := jwt.Config{
		TTL:           gc.CookieTTL,
		SigningMethod: method,
		Issuer:        "feishu-gateway",
		Leeway:        30 * time.Second,
		KeyID:         gc.CookieKeyID,
		VerifyKeys:    gc.verifyKeys(),
	}

	switch method {
	case jwt.MethodEd25519:
		if gc.CookiePrivateKey != "" {
			cfg.PrivateKey = []byte(gc.CookiePrivateKey)
			break
		}
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		cfg.PrivateKey = priv
		log.Print("goFeishuAuth: FEISHU_COOKIE_PRIVATE_KEY_FILE not set, using a random ed25519 cookie key")
	default:
		cfg.PrivateKey = gc.cookieKey()
		if len(cfg.PrivateKey) == 0 {
			cfg.PrivateKey = make([]byte, jwt.MinHSKeyBytes)
			if _, err := rand.Read(cfg.PrivateKey); err != nil {
				return nil, err
			}
			log.Print("goFeishuAuth: FEISHU_COOKIE_KEY not set, using a random cookie key")
		}
	}
	return jwt.NewManager(cfg)
}
