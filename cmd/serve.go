package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront.GO/api"
	_ "storefront.GO/api/cart"
	_ "storefront.GO/api/catalog"
	_ "storefront.GO/api/graphql"
	_ "storefront.GO/api/realtime"
	_ "storefront.GO/api/stock"
	"storefront.GO/app"
	"storefront.GO/core/auth"
	"storefront.GO/core/logging"
	"storefront.GO/cron"
	"storefront.GO/cron/jobs"
)

var (
	serveMigrate bool
	serveCron    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, GraphQL endpoint and optionally the cron scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, serveMigrate)
		if err != nil {
			return err
		}
		defer a.Close()

		if serveCron {
			cfg := a.Config.Catalog
			jobs.RegisterStockRefresh(a.Store, cfg.RefreshVendors, cfg.StockRefreshSchedule, a.Logger)
			c, err := cron.StartCron(a.Logger)
			if err != nil {
				return err
			}
			defer c.Stop()
		}

		e := NewServer(a)
		printBanner("Storefront ->")

		errCh := make(chan error, 1)
		go func() {
			addr := ":" + a.Config.Port
			a.Logger.Info("server listening", zap.String("addr", addr))
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Logger.Info("server shutting down")
		return e.Shutdown(shutdownCtx)
	},
}

// NewServer builds the Echo instance with middleware, /api modules and root routes.
func NewServer(a *app.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqLogger := a.Logger.With(zap.String("requestId", c.Response().Header().Get(echo.HeaderXRequestID)))
			c.SetRequest(c.Request().WithContext(logging.WithLogger(c.Request().Context(), reqLogger)))
			return next(c)
		}
	})
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRequestID: true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("requestId", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				a.Logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			a.Logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Gzip())
	e.Use(middleware.Decompress())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Before(func() {
				c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(time.Since(start).Milliseconds(), 10))
			})
			return next(c)
		}
	})

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "app": a.Config.AppName, "env": a.Config.Env})
	})

	deps := a.Deps()
	apiGroup := e.Group("/api")
	apiGroup.Use(auth.Middleware())
	api.ApplyModules(apiGroup, deps)
	api.ApplyRoutes(e, deps)
	return e
}

var bannerFonts = []string{"banner", "big", "block", "slant", "standard", "small", "shadow", "speed", "doom", "larry3d", "puffy", "rectangles"}

func printBanner(text string) {
	fig := figure.NewFigure(text, bannerFonts[rand.Intn(len(bannerFonts))], true)
	fig.Print()
	fmt.Println()
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply schema migrations before serving")
	serveCmd.Flags().BoolVar(&serveCron, "cron", false, "Run the cron scheduler in-process")
	rootCmd.AddCommand(serveCmd)
}
