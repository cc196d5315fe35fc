// Standalone GraphQL server, run with: go run ./cmd/graphql
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"storefront.GO/api"
	_ "storefront.GO/api/graphql"
	"storefront.GO/app"
	"storefront.GO/core/logging"
)

func main() {
	_ = godotenv.Load()

	logger := logging.MustLogger()
	a, err := app.New(context.Background(), app.Options{Logger: logger})
	if err != nil {
		log.Fatal("app:", err)
	}
	defer a.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	api.ApplyRoutes(e, a.Deps())

	// ASCII banner on start (random font each run)
	gqlFonts := []string{"banner", "big", "block", "slant", "standard", "small", "shadow", "speed", "thick", "univers", "doom", "larry3d", "puffy", "rectangles", "bigchief", "cosmic"}
	fig := figure.NewFigure("Storefront GQL ->", gqlFonts[rand.Intn(len(gqlFonts))], true)
	fig.Print()
	fmt.Println("Standalone GraphQL server")

	port := a.Config.Port
	logger.Info("graphql server listening",
		zap.String("graphql", "http://localhost:"+port+"/graphql"),
		zap.String("playground", "http://localhost:"+port+"/playground"),
	)
	if err := e.Start(":" + port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
