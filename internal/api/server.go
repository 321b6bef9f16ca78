package api

import (
	"context"
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/vietanh2810/event-program-api/docs"
	v1 "github.com/vietanh2810/event-program-api/internal/api/handler/v1"
	"github.com/vietanh2810/event-program-api/internal/api/middleware"
	"github.com/vietanh2810/event-program-api/internal/config"
	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository"
	"github.com/vietanh2810/event-program-api/internal/repository/dao"
	"github.com/vietanh2810/event-program-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	authSvc  *service.AuthService
	eventSvc *service.EventService
}

type handlers struct {
	auth     *v1.AuthHandler
	user     *v1.UserHandler
	event    *v1.EventHandler
	activity *v1.ActivityHandler
	jury     *v1.JuryHandler
}

func NewServer(conf *config.AppConfig, schedule domain.ScheduleConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	s.MountHandlers(s.initHandlers(schedule, db))

	return s
}

// Seed inserts the configured cities and the bootstrap organizer account.
// Data that already exists is left alone.
func (s *Server) Seed(ctx context.Context) error {
	if err := s.eventSvc.SeedCities(ctx, s.Config.API.SeedCities); err != nil {
		return fmt.Errorf("s.eventSvc.SeedCities -> %w", err)
	}

	email, password := s.Config.API.SeedOrganizerEmail, s.Config.API.SeedOrganizerPassword
	if email == "" || password == "" {
		return nil
	}

	if err := s.authSvc.Seed(ctx, "Organizer", email, password); err != nil {
		return fmt.Errorf("s.authSvc.Seed -> %w", err)
	}

	return nil
}

func (s *Server) initHandlers(schedule domain.ScheduleConfig, db *gorm.DB) handlers {
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	activityRepo := repository.NewActivityRepository(dao.NewActivityDAO(db))

	userSvc := service.NewUserService(userRepo)
	authSvc := service.NewAuthService(userRepo)
	integritySvc := service.NewIntegrityService(activityRepo, eventRepo, activityRepo)
	availabilitySvc := service.NewAvailabilityService(eventRepo, activityRepo, schedule)
	activitySvc := service.NewActivityService(activityRepo, eventRepo, integritySvc, schedule)
	eventSvc := service.NewEventService(eventRepo, integritySvc)
	jurySvc := service.NewJuryService(userRepo, eventRepo, activityRepo)

	s.authSvc = authSvc
	s.eventSvc = eventSvc

	return handlers{
		auth:     v1.NewAuthHandler(s.Config.API, authSvc, userSvc),
		user:     v1.NewUserHandler(userSvc),
		event:    v1.NewEventHandler(eventSvc, availabilitySvc, integritySvc, userSvc),
		activity: v1.NewActivityHandler(activitySvc, integritySvc, userSvc),
		jury:     v1.NewJuryHandler(jurySvc, activitySvc, userSvc),
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/login", h.auth.HandleLogin)
	}

	api := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		api.POST("/users", h.auth.HandleRegister)
		api.GET("/users/:userID", h.user.HandleGetUser)
		api.GET("/cities", h.event.HandleListCities)

		api.GET("/events", h.event.HandleListEvents)
		api.POST("/events", h.event.HandleCreateEvent)
		api.GET("/events/:eventID", h.event.HandleGetEvent)
		api.PUT("/events/:eventID", h.event.HandleUpdateEvent)
		api.DELETE("/events/:eventID", h.event.HandleDeleteEvent)
		api.GET("/events/:eventID/deletion", h.event.HandleEventDeletion)
		api.GET("/events/:eventID/days/:day/slots", h.event.HandleAvailableSlots)
		api.GET("/events/:eventID/activities", h.activity.HandleListEventActivities)

		api.POST("/activities", h.activity.HandleCreateActivity)
		api.GET("/activities/:activityID", h.activity.HandleGetActivity)
		api.PUT("/activities/:activityID", h.activity.HandleUpdateActivity)
		api.DELETE("/activities/:activityID", h.activity.HandleDeleteActivity)
		api.GET("/activities/:activityID/deletion", h.activity.HandleActivityDeletion)
		api.POST("/activities/:activityID/jury", h.jury.HandleAssignJury)

		api.GET("/moderation/activities", h.activity.HandleListModeratedActivities)
		api.PUT("/moderation/activities/:activityID", h.activity.HandleModeratorUpdate)

		api.GET("/jury/activities", h.jury.HandleListJuryActivities)
		api.GET("/jury/events/:eventID/candidates", h.jury.HandleListCandidates)
		api.GET("/jury/events/:eventID/winner", h.jury.HandleGetWinner)
		api.PUT("/jury/events/:eventID/winner", h.jury.HandleSetWinner)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Event program API"
	docs.SwaggerInfo.Description = "Scheduling of event activities into time slots, with jury and moderation."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
