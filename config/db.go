package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DBDriver returns the configured driver name, mysql unless DB_DRIVER says otherwise.
func DBDriver() string {
	return strings.ToLower(GetEnv("DB_DRIVER", DriverMySQL))
}

// MySQLDSN builds the DSN from MYSQL_DSN or the MYSQL_* parts.
func MySQLDSN() string {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		user := os.Getenv("MYSQL_USER")
		pass := os.Getenv("MYSQL_PASS")
		host := os.Getenv("MYSQL_HOST")
		port := GetEnv("MYSQL_PORT", "3306")
		db := os.Getenv("MYSQL_DB")
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local&multiStatements=true", user, pass, host, port, db)
	}
	return dsn
}

func newGormLogger() logger.Interface {
	logMode := logger.Info
	if os.Getenv("GORM_LOG") == "off" {
		logMode = logger.Silent
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // Use log.Logger for Printf support
		logger.Config{
			SlowThreshold: time.Second, // Slow SQL threshold
			LogLevel:      logMode,     // Log level
			Colorful:      true,        // Enable color
		},
	)
}

func NewDB() (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver := DBDriver(); driver {
	case DriverMySQL:
		dialector = mysql.Open(MySQLDSN())
	case DriverSQLite:
		dialector = sqlite.Open(GetEnv("SQLITE_PATH", "storefront.db"))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
