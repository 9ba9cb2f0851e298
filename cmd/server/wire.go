// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"farmlink_backend/internal/app"
	"farmlink_backend/internal/auth"
	"farmlink_backend/internal/config"
	"farmlink_backend/internal/jobs"
	"farmlink_backend/internal/listing"
	"farmlink_backend/internal/message"
	"farmlink_backend/internal/platform/database"
	"farmlink_backend/internal/platform/logger"
	"farmlink_backend/internal/request"
	"farmlink_backend/internal/shared"
	"farmlink_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,

		// Auth
		provideBlocklistConfig,
		auth.NewInMemoryBlocklistService,
		wire.Bind(new(auth.TokenBlocklistService), new(*auth.InMemoryBlocklistService)),
		auth.NewJWTService,
		auth.NewHandler,

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(auth.UserAccountProvider), new(*user.ServiceImplementation)),
		user.NewHandler,

		// Listings
		listing.NewGORMRepository,
		listing.NewService,
		wire.Bind(new(listing.Service), new(*listing.ServiceImplementation)),
		listing.NewHandler,

		// Requests
		request.NewGORMRepository,
		request.NewService,
		wire.Bind(new(request.Service), new(*request.ServiceImplementation)),
		request.NewHandler,

		// Messages
		message.NewGORMRepository,
		message.NewService,
		wire.Bind(new(message.Service), new(*message.ServiceImplementation)),
		message.NewHandler,

		// Jobs
		jobs.NewListingDeactivationJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
