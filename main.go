package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/vietanh2810/event-program-api/cmd/app"
)

// @title        Event program API
// @version      1.0
// @description  Places event activities into the time slots of a working day and guards deletes.
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token returned by /auth/login
//
// @externalDocs.description  OpenAPI
// @externalDocs.url          https://swagger.io/resources/open-api/
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
