package main

import (
	"context"

	"github.com/Odiedo123/Tenacity/config"
	"github.com/Odiedo123/Tenacity/models"
	"github.com/Odiedo123/Tenacity/routes"
	"github.com/Odiedo123/Tenacity/storage"
	"github.com/Odiedo123/Tenacity/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.File{})

	bucket, err := storage.NewBucket(context.Background(), cfg)
	if err != nil {
		utils.Sugar.Fatalf("object storage init failed: %v", err)
	}

	r := routes.SetupRouter(db, bucket)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
