package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vietanh2810/event-program-api/internal/domain"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Schedule *ScheduleConfig `mapstructure:"schedule"`
}

type APIConfig struct {
	Environment           string        `mapstructure:"environment"`
	Port                  string        `mapstructure:"port"`
	BaseURL               string        `mapstructure:"base_url"`
	AllowedCORSDomains    []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey         string        `mapstructure:"jwt_signing_key"`
	JWTTTL                time.Duration `mapstructure:"jwt_ttl"`
	SeedOrganizerEmail    string        `mapstructure:"seed_organizer_email"`
	SeedOrganizerPassword string        `mapstructure:"seed_organizer_password"`
	SeedCities            []string      `mapstructure:"seed_cities"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the connection string understood by the postgres driver.
func (c *PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, sslMode)
}

// ScheduleConfig is the working window activities are placed in. Times are
// written as HH:MM.
type ScheduleConfig struct {
	WindowStart  string `mapstructure:"window_start"`
	WindowEnd    string `mapstructure:"window_end"`
	SlotMinutes  int    `mapstructure:"slot_minutes"`
	BreakMinutes int    `mapstructure:"break_minutes"`
}

func (c *ScheduleConfig) Domain() (domain.ScheduleConfig, error) {
	start, err := domain.ParseSlot(c.WindowStart)
	if err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: window_start: %w", ErrInvalidSchedule, err)
	}

	end, err := domain.ParseSlot(c.WindowEnd)
	if err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: window_end: %w", ErrInvalidSchedule, err)
	}

	if c.SlotMinutes <= 0 || c.BreakMinutes < 0 {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: slot_minutes must be positive and break_minutes non-negative", ErrInvalidSchedule)
	}

	schedule := domain.ScheduleConfig{
		WindowStart:   start,
		WindowEnd:     end,
		SlotDuration:  time.Duration(c.SlotMinutes) * time.Minute,
		BreakDuration: time.Duration(c.BreakMinutes) * time.Minute,
	}
	if len(schedule.Slots()) == 0 {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: no %d minute slot fits between %s and %s",
			ErrInvalidSchedule, c.SlotMinutes, c.WindowStart, c.WindowEnd)
	}

	return schedule, nil
}

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if _, err := conf.Schedule.Domain(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed, restart to apply",
			zap.String("file", e.Name),
			zap.String("op", e.Op.String()),
		)
	})
	v.WatchConfig()

	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.jwt_ttl", 24*time.Hour)
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.sslmode", "disable")

	d := domain.DefaultSchedule
	v.SetDefault("schedule.window_start", d.WindowStart.String())
	v.SetDefault("schedule.window_end", d.WindowEnd.String())
	v.SetDefault("schedule.slot_minutes", int(d.SlotDuration/time.Minute))
	v.SetDefault("schedule.break_minutes", int(d.BreakDuration/time.Minute))
}
