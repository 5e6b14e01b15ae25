package postgres

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds PostgreSQL connection settings for one database alias.
// Prefer providing a DSN via ConnString. When empty, a DSN is
// synthesized from the individual fields.
type Config struct {
	Alias              string
	ConnString         string
	Host               string
	Port               string
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	ConnectTimeout     time.Duration
	PingTimeout        time.Duration
	HealthCheckPeriod  time.Duration
	HealthCheckTimeout time.Duration
}

// DSN returns the connection string used for both pgxpool and database/sql.
func (c *Config) DSN() string {
	if c.ConnString != "" {
		return c.ConnString
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   c.Host,
		Path:   "/" + c.DBName,
	}
	if c.Port != "" {
		u.Host = fmt.Sprintf("%s:%s", c.Host, c.Port)
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}
